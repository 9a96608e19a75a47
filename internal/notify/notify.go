// Package notify carries approval and event announcements from the API to
// the mail worker through the queue. Publishing is fire-and-forget relative
// to the state change that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventhub/internal/metrics"
	"eventhub/internal/queue"
)

const (
	KindUserApproved  = "user.approved"
	KindEventApproved = "event.approved"
)

// UserApproved announces that an account was activated.
type UserApproved struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// EventApproved announces a newly approved event to every active user.
type EventApproved struct {
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
}

// Publisher enqueues notifications.
type Publisher struct {
	q queue.Queue
}

// NewPublisher wraps q.
func NewPublisher(q queue.Queue) *Publisher {
	return &Publisher{q: q}
}

// UserApproved enqueues an approval email.
func (p *Publisher) UserApproved(ctx context.Context, n UserApproved) error {
	return p.publish(ctx, KindUserApproved, n)
}

// EventApproved enqueues an event announcement.
func (p *Publisher) EventApproved(ctx context.Context, n EventApproved) error {
	return p.publish(ctx, KindEventApproved, n)
}

func (p *Publisher) publish(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	err = p.q.Publish(ctx, queue.Message{Type: kind, Body: body})
	metrics.NotificationsPublished.WithLabelValues(kind, metrics.Result(err, nil)).Inc()
	if err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}
	return nil
}
