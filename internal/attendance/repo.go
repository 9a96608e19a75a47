package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/store"
)

// PostgresRepository persists attendance records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, event_id, title, attendance_key, student_id, full_name, year_level, course, time_in, time_out, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec   Record
		event sql.NullString
		out   sql.NullTime
	)
	if err := row.Scan(&rec.ID, &event, &rec.Title, &rec.Key, &rec.StudentID, &rec.FullName,
		&rec.YearLevel, &rec.Course, &rec.TimeIn, &out, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.Event = event.String
	if out.Valid {
		t := out.Time
		rec.TimeOut = &t
	}
	return rec, nil
}

// WithKey runs fn inside a transaction holding an advisory lock on the
// (studentID, key) pair, so concurrent transitions for the pair run one at
// a time.
func (r *PostgresRepository) WithKey(ctx context.Context, studentID, key string, fn func(tx KeyTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, studentID+"|"+key); err != nil {
		return fmt.Errorf("lock attendance key: %w", err)
	}
	if err := fn(&pgKeyTx{tx: tx, studentID: studentID, key: key}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if store.IsUniqueViolation(err, store.AttendanceOpenSession) {
			return apperr.InvalidTransition("an attendance session is already open; please check out first")
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, apperr.NotFound("attendance record not found")
	}
	return rec, err
}

func (r *PostgresRepository) List(ctx context.Context, studentID string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records`
	var args []any
	if studentID != "" {
		query += ` WHERE student_id = $1`
		args = append(args, studentID)
	}
	query += ` ORDER BY time_in DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

type pgKeyTx struct {
	tx        *sql.Tx
	studentID string
	key       string
}

func (t *pgKeyTx) State(ctx context.Context) (KeyState, error) {
	var st KeyState
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(time_out)
		FROM attendance_records
		WHERE student_id = $1 AND attendance_key = $2
	`, t.studentID, t.key).Scan(&st.CheckIns, &st.CheckOuts)
	if err != nil {
		return KeyState{}, fmt.Errorf("count attendance: %w", err)
	}

	rec, err := scanRecord(t.tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE student_id = $1 AND attendance_key = $2 AND time_out IS NULL
	`, t.studentID, t.key))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return KeyState{}, fmt.Errorf("open attendance: %w", err)
	default:
		st.Open = &rec
	}
	return st, nil
}

func (t *pgKeyTx) Insert(ctx context.Context, rec Record) error {
	var event any
	if rec.Event != "" {
		event = rec.Event
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attendance_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULL,$10,$11)
	`, rec.ID, event, rec.Title, rec.Key, rec.StudentID, rec.FullName, rec.YearLevel, rec.Course,
		rec.TimeIn, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, store.AttendanceOpenSession) {
			return apperr.InvalidTransition("an attendance session is already open; please check out first")
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (t *pgKeyTx) Close(ctx context.Context, id string, at time.Time) (Record, error) {
	rec, err := scanRecord(t.tx.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET time_out = $2, updated_at = $2
		WHERE id = $1 AND student_id = $3 AND attendance_key = $4 AND time_out IS NULL
		RETURNING `+recordColumns, id, at, t.studentID, t.key))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, apperr.AlreadyClosed("this attendance record is already checked out")
	}
	if err != nil {
		return Record{}, fmt.Errorf("close attendance: %w", err)
	}
	return rec, nil
}
