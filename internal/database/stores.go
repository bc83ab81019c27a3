package database

import (
	"context"
	"time"
)

// ReferenceStore is the persistence contract for the reference corpus.
type ReferenceStore interface {
	// InsertBatch writes all rows in a single transaction and returns
	// the number inserted. A commit failure fails the whole batch.
	InsertBatch(ctx context.Context, rows []ReferenceEmbedding) (int, error)
	// GetAll returns every reference row in insertion (id) order.
	GetAll(ctx context.Context) ([]ReferenceEmbedding, error)
	// Count returns the number of reference rows.
	Count(ctx context.Context) (int, error)
}

// DetectionStore is the persistence contract for the detection log.
type DetectionStore interface {
	// Insert commits a single event and returns its new id.
	Insert(ctx context.Context, event *DetectionEvent) (int64, error)
	// ListByRecognized returns events filtered by the recognized flag,
	// newest first.
	ListByRecognized(ctx context.Context, recognized bool) ([]DetectionEvent, error)
	// Count returns the number of detection events.
	Count(ctx context.Context) (int, error)
}

// User is a registered account for the mobile client.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists user accounts. Emails are unique.
type UserStore interface {
	Insert(ctx context.Context, user *User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// OTPCode is a short-lived email verification code.
type OTPCode struct {
	ID        int64
	Email     string
	Code      string
	ExpiresAt time.Time
}

// OTPStore persists verification codes.
type OTPStore interface {
	Insert(ctx context.Context, code *OTPCode) error
	// GetValid returns the matching unexpired code, or nil.
	GetValid(ctx context.Context, email, code string) (*OTPCode, error)
	Delete(ctx context.Context, id int64) error
}
