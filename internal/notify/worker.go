package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	netmail "net/mail"

	"eventhub/internal/mail"
	"eventhub/internal/metrics"
	"eventhub/internal/queue"
)

// RecipientSource lists the addresses that receive event announcements.
type RecipientSource interface {
	ActiveRecipients(ctx context.Context) ([]netmail.Address, error)
}

// Worker turns queued notifications into emails.
type Worker struct {
	mailer     mail.Mailer
	recipients RecipientSource
	logger     *slog.Logger
}

// NewWorker builds a worker. A nil logger uses slog.Default.
func NewWorker(mailer mail.Mailer, recipients RecipientSource, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{mailer: mailer, recipients: recipients, logger: logger}
}

// Run consumes q until ctx is done. Failed messages are logged and dropped.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	w.logger.Info("worker started, waiting for messages")
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "notification failed", "type", msg.Type, "error", err)
		}
	}
	w.logger.Info("worker stopped")
	return nil
}

// Handle processes a single message.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case KindUserApproved:
		var n UserApproved
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return w.userApproved(ctx, n)
	case KindEventApproved:
		var n EventApproved
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return w.eventApproved(ctx, n)
	default:
		w.logger.WarnContext(ctx, "skipping unknown message", "type", msg.Type)
		return nil
	}
}

func (w *Worker) userApproved(ctx context.Context, n UserApproved) error {
	r, err := renderUserApproved(n)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	err = w.mailer.Send(ctx, mail.Message{
		To:      []netmail.Address{{Name: n.FullName, Address: n.Email}},
		Subject: r.Subject,
		Text:    r.Text,
		HTML:    r.HTML,
	})
	metrics.EmailsDelivered.WithLabelValues(KindUserApproved, metrics.Result(err, nil)).Inc()
	if err != nil {
		return fmt.Errorf("send approval to %s: %w", n.Email, err)
	}
	w.logger.InfoContext(ctx, "approval email sent", "user_id", n.UserID)
	return nil
}

// eventApproved sends one email per recipient so a single bad address does
// not block the rest.
func (w *Worker) eventApproved(ctx context.Context, n EventApproved) error {
	r, err := renderEventApproved(n)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	recipients, err := w.recipients.ActiveRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	var sent, failed int
	for _, to := range recipients {
		err := w.mailer.Send(ctx, mail.Message{
			To:      []netmail.Address{to},
			Subject: r.Subject,
			Text:    r.Text,
			HTML:    r.HTML,
		})
		metrics.EmailsDelivered.WithLabelValues(KindEventApproved, metrics.Result(err, nil)).Inc()
		if err != nil {
			failed++
			w.logger.WarnContext(ctx, "event email failed", "event_id", n.EventID, "to", to.Address, "error", err)
			continue
		}
		sent++
	}
	w.logger.InfoContext(ctx, "event notifications sent", "event_id", n.EventID, "sent", sent, "failed", failed)
	return nil
}
