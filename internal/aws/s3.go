package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/safeguardai/console/internal/config"
)

const presignExpiry = 15 * time.Minute

// ExportArchive stores offline-generated CSV exports in S3 and hands
// out presigned download links. It satisfies state.Archiver.
type ExportArchive struct {
	client *s3.Client
	bucket string
}

func NewExportArchive(ctx context.Context, cfg config.AWSConfig) (*ExportArchive, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // required for localstack
		}
	})

	return &ExportArchive{client: client, bucket: cfg.Bucket}, nil
}

// Archive uploads one export and returns a presigned GET URL for it.
func (a *ExportArchive) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	key := "exports/" + filename
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export to S3: %w", err)
	}

	presignClient := s3.NewPresignClient(a.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign export download: %w", err)
	}

	return req.URL, nil
}

// GetExport streams an archived export back, for retention tooling.
func (a *ExportArchive) GetExport(ctx context.Context, filename string) (io.ReadCloser, error) {
	output, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String("exports/" + filename),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get export from S3: %w", err)
	}
	return output.Body, nil
}

// CreateBucket provisions the archive bucket, used by local tooling.
func (a *ExportArchive) CreateBucket(ctx context.Context) error {
	_, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	return err
}
