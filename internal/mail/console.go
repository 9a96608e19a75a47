package mail

import (
	"context"
	"log/slog"
	"sync"
)

// Console logs messages instead of sending them. It keeps a copy of every
// message so tests and local runs can inspect what would have gone out.
type Console struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*Console)(nil)

// NewConsole returns a Console mailer. A nil logger uses slog.Default.
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger}
}

// Send records and logs msg.
func (c *Console) Send(ctx context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.String())
	}
	c.logger.InfoContext(ctx, "email", "to", to, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// Sent returns a copy of every message handed to Send.
func (c *Console) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
