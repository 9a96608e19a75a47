package events

import (
	"context"
	"time"
)

// Status is the review state of an event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Event is a campus event proposed by an officer.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	Location    string     `json:"location"`
	FeedbackURL string     `json:"feedbackUrl"`
	Status      Status     `json:"status"`
	CreatedBy   string     `json:"createdBy"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Repository persists events. Get, Update and Delete return an apperr
// not-found error for unknown ids.
type Repository interface {
	Create(ctx context.Context, e Event) (Event, error)
	Get(ctx context.Context, id string) (Event, error)
	// List returns every event ordered by date, earliest first.
	List(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, e Event) (Event, error)
	Delete(ctx context.Context, id string) error
}
