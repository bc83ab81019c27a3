package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// UserRepository provides MariaDB-backed user account storage.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new MariaDB user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Insert stores a new user and returns its id.
func (r *UserRepository) Insert(ctx context.Context, user *database.User) (int64, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)
	`, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	var u database.User
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// OTPRepository provides MariaDB-backed OTP code storage.
type OTPRepository struct {
	pool *Pool
}

// NewOTPRepository creates a new MariaDB OTP repository.
func NewOTPRepository(pool *Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Insert stores a verification code.
func (r *OTPRepository) Insert(ctx context.Context, code *database.OTPCode) error {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO otp_codes (email, code, expires_at) VALUES (?, ?, ?)
	`, code.Email, code.Code, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert otp code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("otp code id: %w", err)
	}
	code.ID = id
	return nil
}

// GetValid returns the newest matching unexpired code, or nil.
func (r *OTPRepository) GetValid(ctx context.Context, email, code string) (*database.OTPCode, error) {
	var c database.OTPCode
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, email, code, expires_at
		FROM otp_codes
		WHERE email = ? AND code = ? AND expires_at > NOW()
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
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM otp_codes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete otp code: %w", err)
	}
	return nil
}
