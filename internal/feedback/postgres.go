package feedback

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository persists feedback in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f Feedback) (Feedback, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (id, student_id, event_id, message, rating, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, f.ID, f.StudentID, f.EventID, f.Message, f.Rating, f.CreatedAt)
	if err != nil {
		return Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context, eventID string) ([]Feedback, error) {
	query := `SELECT id, student_id, event_id, message, rating, created_at FROM feedback`
	var args []any
	if eventID != "" {
		query += ` WHERE event_id = $1`
		args = append(args, eventID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()
	var res []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.StudentID, &f.EventID, &f.Message, &f.Rating, &f.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}
