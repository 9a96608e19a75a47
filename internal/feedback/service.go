package feedback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

// EventLookup resolves event titles, or returns an apperr not-found error.
type EventLookup interface {
	EventTitle(ctx context.Context, id string) (string, error)
}

// SubmitInput is a student's feedback.
type SubmitInput struct {
	EventID string
	Message string
	Rating  int
}

// Service records feedback and form links.
type Service struct {
	repo   Repository
	forms  FormRegistry
	events EventLookup
	now    func() time.Time
	newID  func() string
}

// NewService creates a service.
func NewService(repo Repository, forms FormRegistry, events EventLookup) *Service {
	return &Service{
		repo:   repo,
		forms:  forms,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Submit stores feedback from the acting student.
func (s *Service) Submit(ctx context.Context, p auth.Principal, in SubmitInput) (Feedback, error) {
	if !p.HasRole(auth.RoleStudent) {
		return Feedback{}, apperr.Forbidden("only students can submit feedback")
	}
	in.EventID = strings.TrimSpace(in.EventID)
	in.Message = strings.TrimSpace(in.Message)

	v := &apperr.Validation{}
	if in.EventID == "" {
		v.Add("eventId", "event id is required")
	}
	if in.Message == "" {
		v.Add("message", "message is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		v.Add("rating", "rating must be between 1 and 5")
	}
	if err := v.Err(); err != nil {
		return Feedback{}, err
	}
	if _, err := s.events.EventTitle(ctx, in.EventID); err != nil {
		return Feedback{}, err
	}

	studentID := p.StudentID
	if studentID == "" {
		studentID = p.UserID
	}
	f, err := s.repo.Create(ctx, Feedback{
		ID:        s.newID(),
		StudentID: studentID,
		EventID:   in.EventID,
		Message:   in.Message,
		Rating:    in.Rating,
		CreatedAt: s.now(),
	})
	if err != nil {
		return Feedback{}, err
	}
	slog.InfoContext(ctx, "feedback submitted", "feedback_id", f.ID, "event_id", f.EventID)
	return f, nil
}

// Records lists feedback with event titles, newest first.
func (s *Service) Records(ctx context.Context, p auth.Principal, eventID string) ([]Entry, error) {
	if !p.HasRole(auth.RoleOfficer, auth.RoleAdmin) {
		return nil, apperr.Forbidden("access denied")
	}
	list, err := s.repo.List(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return nil, err
	}

	titles := map[string]string{}
	out := make([]Entry, len(list))
	for i, f := range list {
		title, ok := titles[f.EventID]
		if !ok {
			title, err = s.events.EventTitle(ctx, f.EventID)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				title = UnknownEventTitle
			case err != nil:
				return nil, err
			}
			titles[f.EventID] = title
		}
		out[i] = Entry{Feedback: f, EventTitle: title}
	}
	return out, nil
}

// SetForm links an event to its feedback form.
func (s *Service) SetForm(ctx context.Context, p auth.Principal, eventID, formID string) error {
	if !p.HasRole(auth.RoleOfficer, auth.RoleAdmin) {
		return apperr.Forbidden("access denied")
	}
	formID = strings.TrimSpace(formID)
	if formID == "" {
		v := &apperr.Validation{}
		v.Add("formId", "form id is required")
		return v.Err()
	}
	if _, err := s.events.EventTitle(ctx, eventID); err != nil {
		return err
	}
	return s.forms.SetForm(ctx, eventID, formID)
}

// Form returns the form linked to eventID.
func (s *Service) Form(ctx context.Context, p auth.Principal, eventID string) (string, error) {
	if !p.HasRole(auth.RoleOfficer, auth.RoleAdmin) {
		return "", apperr.Forbidden("access denied")
	}
	formID, err := s.forms.Form(ctx, eventID)
	if err != nil {
		return "", err
	}
	if formID == "" {
		return "", apperr.NotFound("no feedback form registered for this event")
	}
	return formID, nil
}
