// Package mock provides in-memory implementations of the database
// store interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/facetrace/facetrace/internal/database"
)

// ReferenceStore is an in-memory database.ReferenceStore.
type ReferenceStore struct {
	mu     sync.RWMutex
	rows   []database.ReferenceEmbedding
	nextID int64

	// Error injection
	InsertError error
	GetAllError error
	CountError  error
}

// NewReferenceStore creates an empty in-memory reference store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{nextID: 1}
}

// InsertBatch appends all rows, assigning sequential ids.
func (m *ReferenceStore) InsertBatch(ctx context.Context, rows []database.ReferenceEmbedding) (int, error) {
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		row.ID = m.nextID
		m.nextID++
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now()
		}
		m.rows = append(m.rows, row)
	}
	return len(rows), nil
}

// GetAll returns all rows in insertion order.
func (m *ReferenceStore) GetAll(ctx context.Context) ([]database.ReferenceEmbedding, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.ReferenceEmbedding, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

// Count returns the number of stored rows.
func (m *ReferenceStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

// DetectionStore is an in-memory database.DetectionStore.
type DetectionStore struct {
	mu     sync.RWMutex
	events []database.DetectionEvent
	nextID int64

	// Error injection
	InsertError error
	ListError   error
}

// NewDetectionStore creates an empty in-memory detection store.
func NewDetectionStore() *DetectionStore {
	return &DetectionStore{nextID: 1}
}

// Insert appends one event and returns its id.
func (m *DetectionStore) Insert(ctx context.Context, event *database.DetectionEvent) (int64, error) {
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = m.nextID
	m.nextID++
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	m.events = append(m.events, *event)
	return event.ID, nil
}

// ListByRecognized filters events by the recognized flag, newest first.
func (m *DetectionStore) ListByRecognized(ctx context.Context, recognized bool) ([]database.DetectionEvent, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.DetectionEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Recognized == recognized {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

// Count returns the number of stored events.
func (m *DetectionStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events), nil
}

// Events returns a copy of all stored events in insertion order.
func (m *DetectionStore) Events() []database.DetectionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.DetectionEvent, len(m.events))
	copy(out, m.events)
	return out
}

// UserStore is an in-memory database.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*database.User // keyed by email
	nextID int64

	InsertError error
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*database.User), nextID: 1}
}

// Insert stores a user, assigning an id.
func (m *UserStore) Insert(ctx context.Context, user *database.User) (int64, error) {
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	u.ID = m.nextID
	m.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.Email] = &u
	return u.ID, nil
}

// GetByEmail returns the user with the given email, or nil.
func (m *UserStore) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

// OTPStore is an in-memory database.OTPStore.
type OTPStore struct {
	mu     sync.RWMutex
	codes  []database.OTPCode
	nextID int64
}

// NewOTPStore creates an empty in-memory OTP store.
func NewOTPStore() *OTPStore {
	return &OTPStore{nextID: 1}
}

// Insert stores a code, assigning an id.
func (m *OTPStore) Insert(ctx context.Context, code *database.OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	code.ID = m.nextID
	m.nextID++
	m.codes = append(m.codes, *code)
	return nil
}

// GetValid returns the matching unexpired code, or nil.
func (m *OTPStore) GetValid(ctx context.Context, email, code string) (*database.OTPCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Email == email && c.Code == code && c.ExpiresAt.After(now) {
			return &c, nil
		}
	}
	return nil, nil
}

// Delete removes a code by id.
func (m *OTPStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].ID == id {
			m.codes = append(m.codes[:i], m.codes[i+1:]...)
			return nil
		}
	}
	return nil
}
