// Package apperr defines the error taxonomy shared by the EventHub services.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a failure so transports can pick a status category.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindConflict          Kind = "CONFLICT"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindNoActiveSession   Kind = "NO_ACTIVE_SESSION"
	KindAlreadyClosed     Kind = "ALREADY_CLOSED"
	KindAttemptsExhausted Kind = "ATTEMPTS_EXHAUSTED"
)

// Sentinels for errors.Is checks. Each matches any *Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "not authenticated"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrNoActiveSession   = &Error{Kind: KindNoActiveSession, Message: "no active session"}
	ErrAlreadyClosed     = &Error{Kind: KindAlreadyClosed, Message: "already closed"}
	ErrAttemptsExhausted = &Error{Kind: KindAttemptsExhausted, Message: "attempts exhausted"}
)

// Error is a classified, user-facing failure.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is reports kind equality so that errors.Is(err, ErrNotFound) works for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// New returns an error of the given kind with a custom message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) *Error          { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error         { return New(KindForbidden, msg) }
func Unauthorized(msg string) *Error      { return New(KindUnauthorized, msg) }
func Conflict(msg string) *Error          { return New(KindConflict, msg) }
func InvalidTransition(msg string) *Error { return New(KindInvalidTransition, msg) }
func NoActiveSession(msg string) *Error   { return New(KindNoActiveSession, msg) }
func AlreadyClosed(msg string) *Error     { return New(KindAlreadyClosed, msg) }
func AttemptsExhausted(msg string) *Error { return New(KindAttemptsExhausted, msg) }

// Validation collects field messages. Add fields with Add and return it only
// when HasErrors reports true.
type Validation struct {
	fields map[string]string
}

// Add records a message for field, keeping the first one reported.
func (v *Validation) Add(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

// HasErrors reports whether any field failed.
func (v *Validation) HasErrors() bool { return len(v.fields) > 0 }

// Err returns the collected failures as an *Error, or nil.
func (v *Validation) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: v.fields}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
