package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventhub/internal/apperr"
)

// PostgresRepository persists events in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const eventColumns = `id, title, description, date, location, feedback_url, status, created_by, approved_by, approved_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var (
		e          Event
		approvedBy sql.NullString
		approvedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.FeedbackURL, &e.Status,
		&e.CreatedBy, &approvedBy, &approvedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, apperr.NotFound("event not found")
		}
		return Event{}, err
	}
	e.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		t := approvedAt.Time
		e.ApprovedAt = &t
	}
	return e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Create(ctx context.Context, e Event) (Event, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, e.ID, e.Title, e.Description, e.Date, e.Location, e.FeedbackURL, string(e.Status),
		e.CreatedBy, nullable(e.ApprovedBy), e.ApprovedAt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

func (r *PostgresRepository) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, e Event) (Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, `
		UPDATE events
		SET title = $2, description = $3, date = $4, location = $5, feedback_url = $6,
			status = $7, approved_by = $8, approved_at = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+eventColumns,
		e.ID, e.Title, e.Description, e.Date, e.Location, e.FeedbackURL,
		string(e.Status), nullable(e.ApprovedBy), e.ApprovedAt, e.UpdatedAt))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("event not found")
	}
	return nil
}
