package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// UserRepository provides PostgreSQL-backed user account storage.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Insert stores a new user and returns its id.
func (r *UserRepository) Insert(ctx context.Context, user *database.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, user.Username, user.Email, user.PasswordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	var u database.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// OTPRepository provides PostgreSQL-backed OTP code storage.
type OTPRepository struct {
	pool *Pool
}

// NewOTPRepository creates a new PostgreSQL OTP repository.
func NewOTPRepository(pool *Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Insert stores a verification code.
func (r *OTPRepository) Insert(ctx context.Context, code *database.OTPCode) error {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO otp_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, code.Email, code.Code, code.ExpiresAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert otp code: %w", err)
	}
	code.ID = id
	return nil
}

// GetValid returns the newest matching unexpired code, or nil.
func (r *OTPRepository) GetValid(ctx context.Context, email, code string) (*database.OTPCode, error) {
	var c database.OTPCode
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, code, expires_at
		FROM otp_codes
		WHERE email = $1 AND code = $2 AND expires_at > NOW()
		ORDER BY id DESC
		LIMIT 1
	`, email, code).Scan(&c.ID, &c.Email, &c.Code, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp code: %w", err)
	}
	return &c, nil
}

// Delete removes a code by id.
func (r *OTPRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM otp_codes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete otp code: %w", err)
	}
	return nil
}
