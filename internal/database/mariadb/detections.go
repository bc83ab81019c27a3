package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// DetectionRepository provides MariaDB-backed detection log storage.
type DetectionRepository struct {
	pool *Pool
}

// NewDetectionRepository creates a new MariaDB detection repository.
func NewDetectionRepository(pool *Pool) *DetectionRepository {
	return &DetectionRepository{pool: pool}
}

// Insert commits a single event and returns its new id.
func (r *DetectionRepository) Insert(ctx context.Context, event *database.DetectionEvent) (int64, error) {
	var person sql.NullString
	if event.Person != nil {
		person = sql.NullString{String: *event.Person, Valid: true}
	}
	var lat, lng sql.NullFloat64
	if event.Latitude != nil {
		lat = sql.NullFloat64{Float64: *event.Latitude, Valid: true}
	}
	if event.Longitude != nil {
		lng = sql.NullFloat64{Float64: *event.Longitude, Valid: true}
	}

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO detection_events (person, image_ref, recognized, similarity, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?)
	`, person, event.ImageRef, event.Recognized, event.Similarity, lat, lng)
	if err != nil {
		return 0, fmt.Errorf("insert detection event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("detection event id: %w", err)
	}
	event.ID = id
	return id, nil
}

// ListByRecognized returns events filtered by the recognized flag, newest first.
func (r *DetectionRepository) ListByRecognized(ctx context.Context, recognized bool) ([]database.DetectionEvent, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, person, image_ref, recognized, similarity, latitude, longitude, created_at
		FROM detection_events
		WHERE recognized = ?
		ORDER BY id DESC
	`, recognized)
	if err != nil {
		return nil, fmt.Errorf("query detection events: %w", err)
	}
	defer rows.Close()

	var events []database.DetectionEvent
	for rows.Next() {
		var event database.DetectionEvent
		var person sql.NullString
		var lat, lng sql.NullFloat64
		err := rows.Scan(
			&event.ID, &person, &event.ImageRef, &event.Recognized,
			&event.Similarity, &lat, &lng, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan detection event: %w", err)
		}
		if person.Valid {
			event.Person = &person.String
		}
		if lat.Valid {
			event.Latitude = &lat.Float64
		}
		if lng.Valid {
			event.Longitude = &lng.Float64
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detection events: %w", err)
	}
	return events, nil
}

// Count returns the number of detection events.
func (r *DetectionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM detection_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("count detection events: %w", err)
	}
	return count, nil
}
