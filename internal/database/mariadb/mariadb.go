// Package mariadb is the MariaDB/MySQL storage backend. It serves the
// same store contracts as the postgres package; embeddings are kept as
// JSON float arrays since MariaDB has no vector column type.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// normalizeDSN forces parseTime=true so the driver returns TIMESTAMP
// columns as time.Time. Without it every created_at/expires_at scan
// fails, so the option is not left to the operator.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Migrate creates the schema. MariaDB deployments are small installs
// for which CREATE TABLE IF NOT EXISTS is sufficient; versioned
// migrations live only in the postgres backend.
func (p *Pool) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reference_embeddings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			person VARCHAR(120) NOT NULL,
			embedding JSON NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_reference_embeddings_person (person)
		)`,
		`CREATE TABLE IF NOT EXISTS detection_events (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			person VARCHAR(120),
			image_ref VARCHAR(512) NOT NULL,
			recognized BOOLEAN NOT NULL DEFAULT FALSE,
			similarity DOUBLE NOT NULL,
			latitude DOUBLE,
			longitude DOUBLE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_detection_events_recognized (recognized)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(120) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS otp_codes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			code VARCHAR(10) NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			INDEX idx_otp_codes_email (email)
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Initialize connects, migrates, and returns a ready pool.
func Initialize(dsn string) (*Pool, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run MariaDB migrations: %w", err)
	}
	return pool, nil
}
