package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: AttendanceOpenSession}

	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(unique, AttendanceOpenSession))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", unique), AttendanceOpenSession))
	assert.False(t, IsUniqueViolation(unique, UsersEmailKey))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestNilHandlesAreSafe(t *testing.T) {
	var db *DB
	var r *Redis
	assert.NoError(t, db.Close())
	assert.NoError(t, r.Close())
	assert.False(t, db.Healthy(context.Background()))
	assert.False(t, r.Healthy(context.Background()))
}
