package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/campus"
	"eventhub/internal/metrics"
	"eventhub/internal/notify"
)

const (
	minPasswordLen   = 8
	maxWriteAttempts = 3
)

// Notifier receives approval announcements. Failures never undo an approval.
type Notifier interface {
	UserApproved(ctx context.Context, n notify.UserApproved) error
}

// SignupInput is a self-registration request.
type SignupInput struct {
	Email     string
	Password  string
	FullName  string
	Role      auth.Role
	StudentID string
	Course    string
	YearLevel string
}

// Service implements registration and the approval workflow.
type Service struct {
	repo       Repository
	notifier   Notifier
	adminEmail string
	now        func() time.Time
	newID      func() string
}

// NewService wires a user service. adminEmail, when non-empty, is activated
// as an administrator at signup.
func NewService(repo Repository, notifier Notifier, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		notifier:   notifier,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Signup registers a pending account, or an active administrator for the
// configured admin email.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	in = normalizeSignup(in)
	isAdmin := s.adminEmail != "" && in.Email == s.adminEmail
	if err := validateSignup(in, isAdmin); err != nil {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		Status:       auth.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Role == auth.RoleStudent {
		u.StudentID = in.StudentID
		u.Course = in.Course
		u.YearLevel = in.YearLevel
	}
	if isAdmin {
		u.Role = auth.RoleAdmin
		u.Status = auth.StatusActive
		u.StudentID, u.Course, u.YearLevel = "", "", ""
	}

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return User{}, err
	}
	slog.InfoContext(ctx, "user registered", "user_id", created.ID, "status", created.Status)
	return created, nil
}

// Authenticate checks credentials. Pending and archived users authenticate
// successfully but carry no privileges.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, apperr.Unauthorized("invalid email or password")
		}
		return User{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return User{}, apperr.Unauthorized("invalid email or password")
	}
	return u, nil
}

// ExternalLogin resolves an account whose email was verified by an external
// identity provider. The admin email is created, or promoted, as an active
// administrator without a password. Any other email must already be
// registered; its record is returned unchanged.
func (s *Service) ExternalLogin(ctx context.Context, email, fullName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, apperr.Unauthorized("email is required")
	}
	isAdmin := s.adminEmail != "" && email == s.adminEmail

	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !isAdmin || (u.Role == auth.RoleAdmin && u.Status == auth.StatusActive) {
			return u, nil
		}
		u, err = s.mutate(ctx, u.ID, func(User) error { return nil }, func(target User) (User, error) {
			return s.repo.UpdateState(ctx, target.ID, target.Snapshot(), auth.StatusActive, auth.RoleAdmin, s.now())
		})
		if err != nil {
			return User{}, err
		}
		slog.InfoContext(ctx, "admin account promoted", "user_id", u.ID)
		return u, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return User{}, err
	case !isAdmin:
		return User{}, apperr.Unauthorized("please sign up through the registration form")
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = email
	}
	now := s.now()
	u, err = s.repo.Create(ctx, User{
		ID:        s.newID(),
		Email:     email,
		FullName:  fullName,
		Role:      auth.RoleAdmin,
		Status:    auth.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return User{}, err
	}
	slog.InfoContext(ctx, "admin account created", "user_id", u.ID)
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// ResolvePrincipal implements auth.PrincipalResolver.
func (s *Service) ResolvePrincipal(ctx context.Context, userID string) (auth.Principal, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return auth.Principal{}, err
	}
	return u.Principal(), nil
}

// ListPending returns users awaiting approval, newest first.
func (s *Service) ListPending(ctx context.Context, p auth.Principal) ([]User, error) {
	if err := Authorize(p, ActionList, User{}, ""); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Filter{Status: auth.StatusPending})
}

// ListAll returns every user, newest first.
func (s *Service) ListAll(ctx context.Context, p auth.Principal) ([]User, error) {
	if err := Authorize(p, ActionList, User{}, ""); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Filter{})
}

// Stats counts pending users and active students and officers. It is
// computed on every call.
func (s *Service) Stats(ctx context.Context, p auth.Principal) (Stats, error) {
	if err := Authorize(p, ActionList, User{}, ""); err != nil {
		return Stats{}, err
	}
	var st Stats
	var err error
	if st.TotalPending, err = s.repo.Count(ctx, Filter{Status: auth.StatusPending}); err != nil {
		return Stats{}, err
	}
	if st.TotalStudents, err = s.repo.Count(ctx, Filter{Status: auth.StatusActive, Role: auth.RoleStudent}); err != nil {
		return Stats{}, err
	}
	if st.TotalOfficers, err = s.repo.Count(ctx, Filter{Status: auth.StatusActive, Role: auth.RoleOfficer}); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Approve activates userID with role and queues the approval email.
func (s *Service) Approve(ctx context.Context, p auth.Principal, userID string, role auth.Role) (User, error) {
	u, err := s.approve(ctx, p, userID, role)
	metrics.ApprovalActions.WithLabelValues(string(ActionApprove), result(err)).Inc()
	if err != nil {
		return User{}, err
	}

	if s.notifier != nil {
		n := notify.UserApproved{UserID: u.ID, Email: u.Email, FullName: u.FullName, Role: string(u.Role)}
		if err := s.notifier.UserApproved(ctx, n); err != nil {
			slog.WarnContext(ctx, "approval notification not queued", "user_id", u.ID, "error", err)
		}
	}
	return u, nil
}

func (s *Service) approve(ctx context.Context, p auth.Principal, userID string, role auth.Role) (User, error) {
	if role != auth.RoleStudent && role != auth.RoleOfficer {
		v := &apperr.Validation{}
		v.Add("role", "role must be student or officer")
		return User{}, v.Err()
	}
	u, err := s.mutate(ctx, userID, func(target User) error {
		if err := Authorize(p, ActionApprove, target, role); err != nil {
			return err
		}
		if role == auth.RoleStudent && !target.hasStudentProfile() {
			return missingStudentProfile(target)
		}
		return nil
	}, func(target User) (User, error) {
		return s.repo.UpdateState(ctx, userID, target.Snapshot(), auth.StatusActive, role, s.now())
	})
	if err != nil {
		return User{}, err
	}
	slog.InfoContext(ctx, "user approved", "user_id", u.ID, "role", u.Role, "by", p.UserID)
	return u, nil
}

func missingStudentProfile(u User) error {
	v := &apperr.Validation{}
	if u.StudentID == "" {
		v.Add("studentId", "student id is required to approve as student")
	}
	if u.Course == "" {
		v.Add("course", "course is required to approve as student")
	}
	if u.YearLevel == "" {
		v.Add("yearLevel", "year level is required to approve as student")
	}
	return v.Err()
}

// Archive moves userID to archived, keeping its role.
func (s *Service) Archive(ctx context.Context, p auth.Principal, userID string) (User, error) {
	u, err := s.archive(ctx, p, userID)
	metrics.ApprovalActions.WithLabelValues(string(ActionArchive), result(err)).Inc()
	return u, err
}

func (s *Service) archive(ctx context.Context, p auth.Principal, userID string) (User, error) {
	u, err := s.mutate(ctx, userID, func(target User) error {
		return Authorize(p, ActionArchive, target, "")
	}, func(target User) (User, error) {
		return s.repo.UpdateState(ctx, userID, target.Snapshot(), auth.StatusArchived, target.Role, s.now())
	})
	if err != nil {
		return User{}, err
	}
	slog.InfoContext(ctx, "user archived", "user_id", u.ID, "by", p.UserID)
	return u, nil
}

// Delete removes userID permanently.
func (s *Service) Delete(ctx context.Context, p auth.Principal, userID string) error {
	err := s.delete(ctx, p, userID)
	metrics.ApprovalActions.WithLabelValues(string(ActionDelete), result(err)).Inc()
	return err
}

func (s *Service) delete(ctx context.Context, p auth.Principal, userID string) error {
	_, err := s.mutate(ctx, userID, func(target User) error {
		return Authorize(p, ActionDelete, target, "")
	}, func(target User) (User, error) {
		return User{}, s.repo.Delete(ctx, userID, target.Snapshot())
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "user deleted", "user_id", userID, "by", p.UserID)
	return nil
}

// mutate reads userID, checks it and writes. The write is conditional on the
// state that was checked; when it changed in between, the whole sequence
// runs again against the new state.
func (s *Service) mutate(ctx context.Context, userID string, check func(User) error, write func(User) (User, error)) (User, error) {
	for attempt := 1; ; attempt++ {
		target, err := s.repo.Get(ctx, userID)
		if err != nil {
			return User{}, err
		}
		if err := check(target); err != nil {
			return User{}, err
		}
		u, err := write(target)
		if errors.Is(err, ErrStale) && attempt < maxWriteAttempts {
			slog.DebugContext(ctx, "user changed during update, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		return u, err
	}
}

// ActiveRecipients implements notify.RecipientSource.
func (s *Service) ActiveRecipients(ctx context.Context) ([]netmail.Address, error) {
	active, err := s.repo.List(ctx, Filter{Status: auth.StatusActive})
	if err != nil {
		return nil, err
	}
	out := make([]netmail.Address, 0, len(active))
	for _, u := range active {
		out = append(out, netmail.Address{Name: u.FullName, Address: u.Email})
	}
	return out, nil
}

func normalizeSignup(in SignupInput) SignupInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Course = strings.TrimSpace(in.Course)
	in.YearLevel = strings.TrimSpace(in.YearLevel)
	if in.Role == "" {
		in.Role = auth.RoleStudent
	}
	return in
}

// validateSignup skips the role-specific fields for the bootstrap admin.
func validateSignup(in SignupInput, isAdmin bool) error {
	v := &apperr.Validation{}
	if in.Email == "" {
		v.Add("email", "email is required")
	} else if _, err := netmail.ParseAddress(in.Email); err != nil {
		v.Add("email", "email is invalid")
	}
	if len(in.Password) < minPasswordLen {
		v.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if in.FullName == "" {
		v.Add("fullName", "full name is required")
	}
	if isAdmin {
		return v.Err()
	}
	switch in.Role {
	case auth.RoleStudent:
		if in.StudentID == "" {
			v.Add("studentId", "student id is required")
		}
		if in.Course == "" {
			v.Add("course", "course is required")
		}
		if !campus.ValidYearLevel(in.YearLevel) {
			v.Add("yearLevel", "year level must be one of "+strings.Join(campus.YearLevels, ", "))
		}
	case auth.RoleOfficer:
	default:
		v.Add("role", "role must be student or officer")
	}
	return v.Err()
}

func result(err error) string {
	return metrics.Result(err, func(err error) string {
		return strings.ToLower(string(apperr.KindOf(err)))
	})
}
