package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/safeguardai/console/internal/aws"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	emailSvc, err := aws.NewEmailService(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	worker := queue.NewWorker(&cfg.Redis, emailSvc, cfg.Server.ConsoleURL)

	logging.Info("Starting queue worker...")
	if err := worker.Start(); err != nil {
		log.Fatalf("Worker failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("Shutting down worker...")
	worker.Close()
}
