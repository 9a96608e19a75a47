package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/notify"
)

// Notifier announces approved events.
type Notifier interface {
	EventApproved(ctx context.Context, n notify.EventApproved) error
}

// CreateInput proposes a new event.
type CreateInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
	FeedbackURL string
}

// UpdateInput changes the non-nil fields of an event.
type UpdateInput struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	FeedbackURL *string
}

// Service manages events and their review.
type Service struct {
	repo       Repository
	notifier   Notifier
	checkInURL string
	now        func() time.Time
	newID      func() string
}

// NewService creates a service. notifier may be nil.
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:       repo,
		notifier:   notifier,
		checkInURL: defaultCheckInURL,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Create stores a pending event proposed by an officer.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (Event, error) {
	if !p.HasRole(auth.RoleOfficer) {
		return Event{}, apperr.Forbidden("only officers can create events")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.FeedbackURL = strings.TrimSpace(in.FeedbackURL)

	v := &apperr.Validation{}
	if in.Title == "" {
		v.Add("title", "title is required")
	}
	if in.Description == "" {
		v.Add("description", "description is required")
	}
	if in.Date.IsZero() {
		v.Add("date", "date is required")
	}
	if in.Location == "" {
		v.Add("location", "location is required")
	}
	if err := v.Err(); err != nil {
		return Event{}, err
	}

	now := s.now()
	e, err := s.repo.Create(ctx, Event{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date.UTC(),
		Location:    in.Location,
		FeedbackURL: in.FeedbackURL,
		Status:      StatusPending,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Event{}, err
	}
	slog.InfoContext(ctx, "event created", "event_id", e.ID, "by", p.UserID)
	return e, nil
}

// List returns every event, earliest first.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	return s.repo.Get(ctx, id)
}

// EventTitle implements feedback.EventLookup.
func (s *Service) EventTitle(ctx context.Context, id string) (string, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return e.Title, nil
}

// CheckInTitle implements attendance.EventLookup. Only approved events
// accept check-ins.
func (s *Service) CheckInTitle(ctx context.Context, id string) (string, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if e.Status != StatusApproved {
		return "", apperr.InvalidTransition(e.Title + " is not open for check-in")
	}
	return e.Title, nil
}

// Update applies a partial edit. Blank strings leave required fields alone.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in UpdateInput) (Event, error) {
	if !p.HasRole(auth.RoleOfficer) {
		return Event{}, apperr.Forbidden("only officers can edit events")
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	setIfPresent(&e.Title, in.Title)
	setIfPresent(&e.Description, in.Description)
	setIfPresent(&e.Location, in.Location)
	if in.Date != nil && !in.Date.IsZero() {
		e.Date = in.Date.UTC()
	}
	if in.FeedbackURL != nil {
		e.FeedbackURL = strings.TrimSpace(*in.FeedbackURL)
	}
	e.UpdatedAt = s.now()
	return s.repo.Update(ctx, e)
}

func setIfPresent(dst *string, v *string) {
	if v == nil {
		return
	}
	if t := strings.TrimSpace(*v); t != "" {
		*dst = t
	}
}

// SetStatus moves an event through review. Approving stamps the approver
// and announces the event; announcement failures are only logged.
func (s *Service) SetStatus(ctx context.Context, p auth.Principal, id string, status Status) (Event, error) {
	if !p.HasRole(auth.RoleAdmin) {
		return Event{}, apperr.Forbidden("only administrators can review events")
	}
	if !status.Valid() {
		v := &apperr.Validation{}
		v.Add("status", "status must be pending, approved, rejected or archived")
		return Event{}, v.Err()
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}

	now := s.now()
	e.Status = status
	e.UpdatedAt = now
	if status == StatusApproved {
		e.ApprovedBy = p.UserID
		e.ApprovedAt = &now
	}
	e, err = s.repo.Update(ctx, e)
	if err != nil {
		return Event{}, err
	}
	slog.InfoContext(ctx, "event status changed", "event_id", e.ID, "status", e.Status, "by", p.UserID)

	if status == StatusApproved && s.notifier != nil {
		n := notify.EventApproved{EventID: e.ID, Title: e.Title, Description: e.Description, Location: e.Location, Date: e.Date}
		if err := s.notifier.EventApproved(ctx, n); err != nil {
			slog.WarnContext(ctx, "event announcement not queued", "event_id", e.ID, "error", err)
		}
	}
	return e, nil
}

// Approve is SetStatus with StatusApproved.
func (s *Service) Approve(ctx context.Context, p auth.Principal, id string) (Event, error) {
	return s.SetStatus(ctx, p, id, StatusApproved)
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if !p.HasRole(auth.RoleOfficer, auth.RoleAdmin) {
		return apperr.Forbidden("access denied")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "event deleted", "event_id", id, "by", p.UserID)
	return nil
}
