package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/campus"
	"eventhub/internal/metrics"
)

// EventLookup resolves the title of an event that accepts check-ins. It
// returns an apperr not-found error for unknown events and an invalid
// transition error for events that are not approved.
type EventLookup interface {
	CheckInTitle(ctx context.Context, id string) (string, error)
}

// CheckInInput opens a session for a student.
type CheckInInput struct {
	StudentID string
	FullName  string
	YearLevel string
	Course    string
	Title     string
	Event     string
}

// Result is the outcome of a successful transition.
type Result struct {
	Attendance        Record `json:"attendance"`
	RemainingAttempts int    `json:"remainingAttempts"`
	Message           string `json:"message"`
}

// Service tracks check-in/check-out sessions.
type Service struct {
	repo   Repository
	events EventLookup
	now    func() time.Time
	newID  func() string
}

// NewService creates a service. events may be nil when attendance is never
// tied to events.
func NewService(repo Repository, events EventLookup) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// CheckIn opens a session for in.StudentID. Students may only check
// themselves in; officers and admins record attendance for anyone.
func (s *Service) CheckIn(ctx context.Context, p auth.Principal, in CheckInInput) (Result, error) {
	res, err := s.checkIn(ctx, p, in)
	metrics.AttendanceTransitions.WithLabelValues("checkin", result(err)).Inc()
	return res, err
}

func (s *Service) checkIn(ctx context.Context, p auth.Principal, in CheckInInput) (Result, error) {
	in = normalizeCheckIn(in)
	if err := validateCheckIn(in); err != nil {
		return Result{}, err
	}
	if err := authorizeStudent(p, in.StudentID); err != nil {
		return Result{}, err
	}
	if in.Event != "" {
		if s.events == nil {
			return Result{}, apperr.NotFound("event not found")
		}
		title, err := s.events.CheckInTitle(ctx, in.Event)
		if err != nil {
			return Result{}, err
		}
		if in.Title == "" {
			in.Title = title
		}
	}
	if in.Title == "" {
		in.Title = campus.DailyAttendanceTitle
	}

	key := Key(in.Event, in.Title)
	var res Result
	err := s.repo.WithKey(ctx, in.StudentID, key, func(tx KeyTx) error {
		st, err := tx.State(ctx)
		if err != nil {
			return err
		}
		if st.Open != nil {
			return apperr.InvalidTransition("you are already checked in for " + in.Title + "; please check out first")
		}
		if st.CheckIns >= MaxAttempts {
			return apperr.AttemptsExhausted(fmt.Sprintf("maximum of %d check-ins reached for %s", MaxAttempts, in.Title))
		}

		now := s.now()
		rec := Record{
			ID:        s.newID(),
			Event:     in.Event,
			Title:     in.Title,
			Key:       key,
			StudentID: in.StudentID,
			FullName:  in.FullName,
			YearLevel: in.YearLevel,
			Course:    in.Course,
			TimeIn:    now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}
		remaining := MaxAttempts - (st.CheckIns + 1)
		res = Result{Attendance: rec, RemainingAttempts: remaining, Message: checkInMessage(remaining)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	slog.InfoContext(ctx, "checked in", "record_id", res.Attendance.ID, "student_id", in.StudentID, "key", key)
	return res, nil
}

// CheckOut closes the record with the given id.
func (s *Service) CheckOut(ctx context.Context, p auth.Principal, id string) (Result, error) {
	res, err := s.checkOut(ctx, p, id)
	metrics.AttendanceTransitions.WithLabelValues("checkout", result(err)).Inc()
	return res, err
}

func (s *Service) checkOut(ctx context.Context, p auth.Principal, id string) (Result, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := authorizeStudent(p, rec.StudentID); err != nil {
		return Result{}, err
	}
	return s.close(ctx, rec.StudentID, rec.Key, rec.Title, id)
}

// CheckOutOpen closes whichever record is open for the student's key.
func (s *Service) CheckOutOpen(ctx context.Context, p auth.Principal, studentID, event, title string) (Result, error) {
	res, err := s.checkOutOpen(ctx, p, studentID, event, title)
	metrics.AttendanceTransitions.WithLabelValues("checkout", result(err)).Inc()
	return res, err
}

func (s *Service) checkOutOpen(ctx context.Context, p auth.Principal, studentID, event, title string) (Result, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		v := &apperr.Validation{}
		v.Add("studentId", "student id is required")
		return Result{}, v.Err()
	}
	if err := authorizeStudent(p, studentID); err != nil {
		return Result{}, err
	}
	title = strings.TrimSpace(title)
	if strings.TrimSpace(event) == "" && title == "" {
		title = campus.DailyAttendanceTitle
	}
	label := title
	if label == "" {
		label = "this event"
	}
	return s.close(ctx, studentID, Key(event, title), label, "")
}

// close checks out recordID, or the open record of the key when recordID is
// empty.
func (s *Service) close(ctx context.Context, studentID, key, title, recordID string) (Result, error) {
	var res Result
	err := s.repo.WithKey(ctx, studentID, key, func(tx KeyTx) error {
		st, err := tx.State(ctx)
		if err != nil {
			return err
		}
		if st.Open == nil {
			if recordID != "" {
				return apperr.AlreadyClosed("this attendance record is already checked out")
			}
			return apperr.NoActiveSession("no active check-in found for " + title)
		}
		if recordID != "" && st.Open.ID != recordID {
			return apperr.AlreadyClosed("this attendance record is already checked out")
		}
		if st.CheckOuts >= MaxAttempts {
			return apperr.AttemptsExhausted(fmt.Sprintf("maximum of %d check-outs reached", MaxAttempts))
		}

		rec, err := tx.Close(ctx, st.Open.ID, s.now())
		if err != nil {
			return err
		}
		remaining := MaxAttempts - st.CheckIns
		res = Result{Attendance: rec, RemainingAttempts: remaining, Message: checkOutMessage(remaining)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	slog.InfoContext(ctx, "checked out", "record_id", res.Attendance.ID, "student_id", studentID, "key", key)
	return res, nil
}

// AllRecords lists every record, newest check-in first.
func (s *Service) AllRecords(ctx context.Context, p auth.Principal) ([]Entry, error) {
	if !p.HasRole(auth.RoleAdmin, auth.RoleOfficer) {
		return nil, apperr.Forbidden("access denied")
	}
	return s.list(ctx, "")
}

// ByStudent lists one student's records, newest check-in first.
func (s *Service) ByStudent(ctx context.Context, p auth.Principal, studentID string) ([]Entry, error) {
	if err := authorizeStudent(p, studentID); err != nil {
		return nil, err
	}
	return s.list(ctx, studentID)
}

func (s *Service) list(ctx context.Context, studentID string) ([]Entry, error) {
	recs, err := s.repo.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(recs))
	for i, r := range recs {
		out[i] = Describe(r)
	}
	return out, nil
}

func authorizeStudent(p auth.Principal, studentID string) error {
	if p.HasRole(auth.RoleAdmin, auth.RoleOfficer) {
		return nil
	}
	if p.HasRole(auth.RoleStudent) && p.StudentID != "" && p.StudentID == studentID {
		return nil
	}
	return apperr.Forbidden("access denied")
}

func normalizeCheckIn(in CheckInInput) CheckInInput {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.FullName = strings.TrimSpace(in.FullName)
	in.YearLevel = strings.TrimSpace(in.YearLevel)
	in.Course = strings.TrimSpace(in.Course)
	in.Title = strings.TrimSpace(in.Title)
	in.Event = strings.TrimSpace(in.Event)
	return in
}

func validateCheckIn(in CheckInInput) error {
	v := &apperr.Validation{}
	if in.StudentID == "" {
		v.Add("studentId", "student id is required")
	}
	if in.FullName == "" {
		v.Add("fullName", "full name is required")
	}
	if in.Course == "" {
		v.Add("course", "course is required")
	}
	if !campus.ValidYearLevel(in.YearLevel) {
		v.Add("yearLevel", "year level must be one of "+strings.Join(campus.YearLevels, ", "))
	}
	return v.Err()
}

func checkInMessage(remaining int) string {
	if remaining == 1 {
		return "Checked in successfully. 1 attempt remaining."
	}
	return fmt.Sprintf("Checked in successfully. %d attempts remaining.", remaining)
}

func checkOutMessage(remaining int) string {
	if remaining == 0 {
		return "Checked out successfully. No check-in attempts remaining."
	}
	return "Checked out successfully."
}

func result(err error) string {
	return metrics.Result(err, func(err error) string {
		return strings.ToLower(string(apperr.KindOf(err)))
	})
}
