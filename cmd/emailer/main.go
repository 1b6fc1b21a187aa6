package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/safeguardai/console/internal/aws"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/queue"
	"github.com/safeguardai/console/internal/rbac"
)

type LocalStackEmail struct {
	ID          string    `json:"Id"`
	Timestamp   string    `json:"Timestamp"`
	Subject     string    `json:"Subject"`
	Body        EmailBody `json:"Body"`
	Destination Dest      `json:"Destination"`
}
type EmailBody struct {
	Text string `json:"text_part"`
	HTML string `json:"html_part"`
}
type Dest struct {
	ToAddresses []string `json:"ToAddresses"`
}
type LocalStackResponse struct {
	Messages []LocalStackEmail `json:"messages"`
}

var (
	enqueuePtr = flag.Bool("enqueue", false, "Enqueue an invite email task instead of sending directly")
	viewPtr    = flag.Bool("view", false, "View the emails")
	testPtr    = flag.Bool("test", false, "Test sending an invite email")
	toPtr      = flag.String("to", "test@example.com", "Recipient address")
	rolePtr    = flag.String("role", "staff", "Invited role")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// this is for make email-enqueue (enqueueing the invite to redis/asynq to then be processed by the worker)
	if *enqueuePtr {
		log.Println("Initializing Redis queue...")
		q, err := queue.NewQueue(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to queue: %v", err)
		}
		defer q.Close()

		log.Printf("Enqueuing invite email to %s...", *toPtr)
		if err := q.NotifyInvite(context.Background(), "Test Invitee", *toPtr, rbac.Role(*rolePtr)); err != nil {
			log.Fatalf("Failed to enqueue task: %v", err)
		}
		log.Println("Task enqueued successfully!")
		return
	}

	// this is for make email-view (viewing the emails)
	if *viewPtr {
		viewEmails(cfg.AWS.EndpointURL)
		return
	}

	// this is for make email-test (testing to send an email directly)
	if *testPtr {
		log.Println("Initializing email service...")
		svc, err := aws.NewEmailService(context.Background(), cfg.AWS)
		if err != nil {
			log.Fatalf("Failed to create email service: %v", err)
		}

		log.Printf("Verifying sender identity %s...", svc.Sender())
		if err := svc.VerifyEmailIdentity(context.Background()); err != nil {
			log.Fatalf("Failed to verify email identity: %v", err)
		}

		log.Printf("Sending email to %s...", *toPtr)
		if err := svc.SendEmail(context.Background(), *toPtr, "Test Email from LocalStack", "SafeGuard Console email delivery check"); err != nil {
			log.Fatalf("Failed to send email: %v", err)
		}

		log.Println("Email sent successfully!")

		viewEmails(cfg.AWS.EndpointURL)
	}
}

func viewEmails(endpoint string) {
	log.Println("\n--- LocalStack SES Inbox ---")

	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}
	resp, err := http.Get(endpoint + "/_aws/ses")
	if err != nil {
		log.Printf("Failed to fetch LocalStack messages: %v", err)
		return
	}
	defer resp.Body.Close()

	bodyData, _ := io.ReadAll(resp.Body)
	var lsResp LocalStackResponse
	if err := json.Unmarshal(bodyData, &lsResp); err != nil {
		log.Printf("Failed to parse LocalStack response: %v\nRaw body: %s", err, string(bodyData))
		return
	}

	if len(lsResp.Messages) == 0 {
		fmt.Println("No messages found in LocalStack.")
		return
	}

	fmt.Printf("\nFound %d message(s):\n", len(lsResp.Messages))
	for i, msg := range lsResp.Messages {
		fmt.Printf("\n[%d] Time: %s\n", i+1, msg.Timestamp)
		fmt.Printf("To: %v\n", msg.Destination.ToAddresses)
		fmt.Printf("Subject: %s\n", msg.Subject)
		fmt.Printf("Body: %s\n", msg.Body.Text)
		fmt.Println("---------------------------------------------------")
	}
}
