package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Constraint names referenced by repositories when mapping errors.
const (
	UsersEmailKey         = "users_email_key"
	AttendanceOpenSession = "attendance_one_open_per_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL,
	password_hash  TEXT NOT NULL DEFAULT '',
	full_name      TEXT NOT NULL,
	role           TEXT NOT NULL CHECK (role IN ('student', 'officer', 'admin')),
	status         TEXT NOT NULL CHECK (status IN ('pending', 'active', 'archived')),
	student_id     TEXT NOT NULL DEFAULT '',
	course         TEXT NOT NULL DEFAULT '',
	year_level     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE INDEX IF NOT EXISTS idx_users_status_role ON users(status, role);

CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	date         TIMESTAMPTZ NOT NULL,
	location     TEXT NOT NULL,
	feedback_url TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'archived')),
	created_by   TEXT NOT NULL,
	approved_by  TEXT,
	approved_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id              TEXT PRIMARY KEY,
	event_id        TEXT,
	title           TEXT NOT NULL,
	attendance_key  TEXT NOT NULL,
	student_id      TEXT NOT NULL,
	full_name       TEXT NOT NULL,
	year_level      TEXT NOT NULL,
	course          TEXT NOT NULL,
	time_in         TIMESTAMPTZ NOT NULL,
	time_out        TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (time_out IS NULL OR time_out >= time_in)
);

CREATE UNIQUE INDEX IF NOT EXISTS attendance_one_open_per_key
	ON attendance_records(student_id, attendance_key) WHERE time_out IS NULL;
CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance_records(student_id, time_in DESC);
CREATE INDEX IF NOT EXISTS idx_attendance_time_in ON attendance_records(time_in DESC);

CREATE TABLE IF NOT EXISTS feedback (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	event_id    TEXT NOT NULL,
	message     TEXT NOT NULL,
	rating      INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_feedback_event ON feedback(event_id, created_at DESC);
`

// migrationLock serializes Migrate across processes starting together.
const migrationLock = 20250101

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLock); err != nil {
		return fmt.Errorf("lock schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	return tx.Commit()
}
