package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/safeguardai/console/internal/config"
)

// EmailService sends plain-text email through SES.
type EmailService struct {
	client *ses.Client
	sender string
}

func NewEmailService(ctx context.Context, cfg config.AWSConfig) (*EmailService, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &EmailService{client: client, sender: cfg.FromEmail}, nil
}

func (s *EmailService) Sender() string {
	return s.sender
}

// VerifyEmailIdentity registers the sender address with SES. Only
// needed against localstack; production identities are managed out of
// band.
func (s *EmailService) VerifyEmailIdentity(ctx context.Context) error {
	_, err := s.client.VerifyEmailIdentity(ctx, &ses.VerifyEmailIdentityInput{
		EmailAddress: aws.String(s.sender),
	})
	if err != nil {
		return fmt.Errorf("failed to verify email identity: %w", err)
	}
	return nil
}

func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
			Subject: &types.Content{
				Data: aws.String(subject),
			},
		},
		Source: aws.String(s.sender),
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}
