package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/analytics"
	"eventhub/internal/app"
	"eventhub/internal/attendance"
	"eventhub/internal/auth"
	"eventhub/internal/config"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/handler"
	"eventhub/internal/notify"
	"eventhub/internal/users"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			slog.Warn("closing backends", "error", err)
		}
	}()

	publisher := notify.NewPublisher(backends.Queue)
	userSvc := users.NewService(backends.Users, publisher, cfg.AdminEmail)
	eventSvc := events.NewService(backends.Events, publisher)
	eventSvc.SetCheckInURL(cfg.CheckInURL())
	attSvc := attendance.NewService(backends.Attendance, eventSvc)
	fbSvc := feedback.NewService(backends.Feedback, backends.Forms, eventSvc)
	analyticsSvc := analytics.NewService(backends.Users, backends.Events, backends.Attendance, backends.Feedback)
	issuer := auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)

	if backends.InProcessQueue {
		worker := notify.NewWorker(app.NewMailer(cfg, logger), userSvc, logger.With("component", "worker"))
		go func() {
			if err := worker.Run(ctx, backends.Queue); err != nil {
				slog.Error("in-process worker stopped", "error", err)
			}
		}()
	}

	r := handler.New(userSvc, attSvc, eventSvc, fbSvc, analyticsSvc, issuer).Router(handler.Options{
		AllowOrigins:    cfg.AllowedOrigins(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		Production:      cfg.Production(),
		Metrics:         cfg.MetricsEnabled,
		Health:          backends.Health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "store", cfg.StoreBackend, "queue", cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	slog.Info("shutting down server")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server forced shutdown", "error", err)
	}
	slog.Info("server exited")
	return nil
}
