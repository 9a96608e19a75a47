package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/store"
)

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, status, student_id, course, year_level, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Status,
		&u.StudentID, &u.Course, &u.YearLevel, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, u.ID, u.Email, u.PasswordHash, u.FullName, string(u.Role), string(u.Status),
		u.StudentID, u.Course, u.YearLevel, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, store.UsersEmailKey) {
			return User{}, apperr.Conflict("email is already registered")
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, notFound(err)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, notFound(err)
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]User, error) {
	where, args := f.where()
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id string, expect Snapshot, status auth.Status, role auth.Role, at time.Time) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET status = $2, role = $3, updated_at = $4
		WHERE id = $1 AND status = $5 AND role = $6
		RETURNING `+userColumns, id, string(status), string(role), at, string(expect.Status), string(expect.Role)))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, r.missOrStale(ctx, id)
	}
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, expect Snapshot) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND status = $2 AND role = $3`,
		id, string(expect.Status), string(expect.Role))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

// missOrStale explains a conditional write that matched no row.
func (r *PostgresRepository) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return apperr.NotFound("user not found")
	}
	return ErrStale
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Role != "" {
		args = append(args, string(f.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	out := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out, args
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user not found")
	}
	return err
}
