package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventhub/internal/app"
	"eventhub/internal/config"
	"eventhub/internal/notify"
	"eventhub/internal/users"
)

// Worker consumes queued notifications and delivers them as email.
func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stdout).With("component", "worker")
	slog.SetDefault(logger)

	if err := cfg.ValidateWorker(); err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("backends unavailable", "error", err)
		os.Exit(1)
	}
	defer backends.Close()

	// Recipients come from the user store; the worker never publishes.
	recipients := users.NewService(backends.Users, nil, cfg.AdminEmail)
	worker := notify.NewWorker(app.NewMailer(cfg, logger), recipients, logger)
	if err := worker.Run(ctx, backends.Queue); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
