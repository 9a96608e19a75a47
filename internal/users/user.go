package users

import (
	"context"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

// ErrStale is returned by conditional writes when the user changed after it
// was read.
var ErrStale = apperr.Conflict("user was modified concurrently")

// User is an EventHub account.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FullName     string      `json:"fullName"`
	Role         auth.Role   `json:"role"`
	Status       auth.Status `json:"status"`
	StudentID    string      `json:"studentId,omitempty"`
	Course       string      `json:"course,omitempty"`
	YearLevel    string      `json:"yearLevel,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Principal returns the authorization view of u.
func (u User) Principal() auth.Principal {
	return auth.Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		StudentID: u.StudentID,
	}
}

// Snapshot is the part of a user that authorization decisions read.
// Conditional writes only apply while the stored user still matches it.
type Snapshot struct {
	Status auth.Status
	Role   auth.Role
}

// Snapshot returns the authorization-relevant state of u.
func (u User) Snapshot() Snapshot {
	return Snapshot{Status: u.Status, Role: u.Role}
}

// hasStudentProfile reports whether u carries the fields a student needs.
func (u User) hasStudentProfile() bool {
	return u.StudentID != "" && u.Course != "" && u.YearLevel != ""
}

// Stats are live counts over the user store.
type Stats struct {
	TotalPending  int `json:"totalPending"`
	TotalStudents int `json:"totalStudents"`
	TotalOfficers int `json:"totalOfficers"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status auth.Status
	Role   auth.Role
}

// Repository persists users. Get, UpdateState and Delete return an
// apperr not-found error for unknown ids; Create returns a conflict error
// for a duplicate email. UpdateState and Delete only apply while the stored
// user matches expect and return ErrStale otherwise.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// List returns matching users, newest first.
	List(ctx context.Context, f Filter) ([]User, error)
	UpdateState(ctx context.Context, id string, expect Snapshot, status auth.Status, role auth.Role, at time.Time) (User, error)
	Delete(ctx context.Context, id string, expect Snapshot) error
	Count(ctx context.Context, f Filter) (int, error)
}
