package feedback

import (
	"context"
	"time"
)

// UnknownEventTitle labels feedback whose event no longer exists.
const UnknownEventTitle = "Unknown Event"

// Feedback is a student's rating of an event.
type Feedback struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	EventID   string    `json:"eventId"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry is feedback as listed for officers.
type Entry struct {
	Feedback
	EventTitle string `json:"eventTitle"`
}

// Repository persists feedback.
type Repository interface {
	Create(ctx context.Context, f Feedback) (Feedback, error)
	// List returns feedback newest first, optionally for one event.
	List(ctx context.Context, eventID string) ([]Feedback, error)
}

// FormRegistry maps events to their external feedback form.
type FormRegistry interface {
	SetForm(ctx context.Context, eventID, formID string) error
	// Form returns "" when no form is registered.
	Form(ctx context.Context, eventID string) (string, error)
}
