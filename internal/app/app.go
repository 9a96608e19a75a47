// Package app wires configuration to concrete storage, queue and mail
// backends for the api and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"

	"eventhub/internal/attendance"
	"eventhub/internal/config"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/mail"
	"eventhub/internal/queue"
	"eventhub/internal/store"
	"eventhub/internal/users"
)

// Backends are the repositories and queue selected by configuration.
type Backends struct {
	Users      users.Repository
	Attendance attendance.Repository
	Events     events.Repository
	Feedback   feedback.Repository
	Forms      feedback.FormRegistry
	Queue      queue.Queue
	// InProcessQueue is set when notifications never leave this process, so
	// the api must run the mail worker itself.
	InProcessQueue bool

	db    *store.DB
	redis *store.Redis
}

// Open connects the configured backends. STORE_BACKEND=memory needs no
// database; QUEUE_BACKEND=memory needs no Redis.
func Open(ctx context.Context, cfg config.App) (*Backends, error) {
	b := &Backends{}

	switch cfg.StoreBackend {
	case "memory":
		b.Users = users.NewMemoryRepository()
		b.Attendance = attendance.NewMemoryRepository()
		b.Events = events.NewMemoryRepository()
		b.Feedback = feedback.NewMemoryRepository()
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.Users = users.NewPostgresRepository(db.Client)
		b.Attendance = attendance.NewPostgresRepository(db.Client)
		b.Events = events.NewPostgresRepository(db.Client)
		b.Feedback = feedback.NewPostgresRepository(db.Client)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.QueueBackend {
	case "memory":
		b.Queue = queue.NewInMemory(256)
		b.Forms = feedback.NewMemoryForms()
		b.InProcessQueue = true
	case "redis":
		b.redis = store.NewRedis(cfg.RedisAddr)
		if !b.redis.Healthy(ctx) {
			slog.WarnContext(ctx, "redis not reachable at startup", "addr", cfg.RedisAddr)
		}
		b.Queue = queue.NewRedisQueue(b.redis.Client, queue.DefaultKey)
		b.Forms = feedback.NewRedisForms(b.redis.Client, feedback.FormsKey)
	default:
		_ = b.Close()
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
	return b, nil
}

// Health reports each connected dependency. Memory backends are omitted.
func (b *Backends) Health(ctx context.Context) map[string]bool {
	out := map[string]bool{}
	if b.db != nil {
		out["db"] = b.db.Healthy(ctx)
	}
	if b.redis != nil {
		out["redis"] = b.redis.Healthy(ctx)
	}
	return out
}

// Close releases every connection.
func (b *Backends) Close() error {
	return errors.Join(b.db.Close(), b.redis.Close())
}

// NewMailer returns SendGrid when an API key is configured, otherwise a
// mailer that only logs.
func NewMailer(cfg config.App, logger *slog.Logger) mail.Mailer {
	if cfg.SendgridAPIKey == "" {
		logger.Info("SENDGRID_API_KEY not set, emails are logged only")
		return mail.NewConsole(logger)
	}
	from := netmail.Address{Name: cfg.MailFromName, Address: cfg.MailFrom}
	return mail.NewSendgrid(cfg.SendgridAPIKey, from, cfg.MailFromName)
}
