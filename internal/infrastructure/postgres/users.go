package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-otp-auth/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, phone, password, is_verified, created_at, updated_at`

// UserRepo provides typed operations on the users table.
type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.User, error) {
	return r.queryOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR phone = $2 LIMIT 1`,
		email, phone)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Insert stores u and fills in its timestamps. A duplicate email or phone
// yields domain.ErrAlreadyExists.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, phone, password, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.Phone, u.PasswordHash, u.Verified,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert user: %w", domain.ErrAlreadyExists)
		}
		return dbError(err)
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, phone, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = $1, updated_at = NOW() WHERE phone = $2`,
		passwordHash, phone)
	if err != nil {
		return dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) ListVerifiedPhones(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phone FROM users WHERE is_verified = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, dbError(err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return phones, nil
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, dbError(err)
	}
	return &u, nil
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w: %w", domain.ErrStore, err)
}
