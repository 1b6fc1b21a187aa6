package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/container"
	"github.com/safeguardai/console/internal/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	c, err := container.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First probe decides the online flag before any request is served;
	// the refresh loop takes over from there.
	if c.Store.Probe(ctx) {
		logging.Info("Detection backend reachable", "url", c.Config.Backend.BaseURL)
	} else {
		logging.Warn("Detection backend offline, serving local state", "url", c.Config.Backend.BaseURL)
	}
	go c.Store.Run(ctx)

	addr := fmt.Sprintf("0.0.0.0:%s", c.Config.Server.Port)
	srv := &http.Server{
		Handler: c.Server.Router(),
		Addr:    addr,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logging.Info("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server shutdown failed", "error", err)
		}
	}()

	logging.Info("Server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
