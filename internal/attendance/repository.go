package attendance

import (
	"context"
	"time"
)

// KeyState summarizes the history of one (student, key) pair.
type KeyState struct {
	Open      *Record
	CheckIns  int
	CheckOuts int
}

// Exhausted reports whether no further check-in is possible.
func (s KeyState) Exhausted() bool {
	return s.CheckIns >= MaxAttempts && s.CheckOuts >= MaxAttempts
}

// KeyTx reads and writes one (student, key) pair while it is locked.
type KeyTx interface {
	State(ctx context.Context) (KeyState, error)
	Insert(ctx context.Context, r Record) error
	// Close sets time_out on an open record and returns it. Closing a record
	// that is no longer open returns an apperr already-closed error.
	Close(ctx context.Context, id string, at time.Time) (Record, error)
}

// Repository persists attendance records. WithKey serializes every
// transition for a (studentID, key) pair; fn's writes commit only when it
// returns nil.
type Repository interface {
	WithKey(ctx context.Context, studentID, key string, fn func(tx KeyTx) error) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns records sorted by time in, newest first. An empty
	// studentID lists every record.
	List(ctx context.Context, studentID string) ([]Record, error)
}
