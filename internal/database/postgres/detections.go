package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// DetectionRepository provides PostgreSQL-backed detection log storage.
type DetectionRepository struct {
	pool *Pool
}

// NewDetectionRepository creates a new PostgreSQL detection repository.
func NewDetectionRepository(pool *Pool) *DetectionRepository {
	return &DetectionRepository{pool: pool}
}

// Insert commits a single event and returns its new id. Each event is
// its own transaction: a crash mid-image leaves the already-written
// prefix of faces logged.
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

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO detection_events (person, image_ref, recognized, similarity, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`, person, event.ImageRef, event.Recognized, event.Similarity, lat, lng).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert detection event: %w", err)
	}

	event.ID = id
	return id, nil
}

// ListByRecognized returns events filtered by the recognized flag, newest first.
func (r *DetectionRepository) ListByRecognized(ctx context.Context, recognized bool) ([]database.DetectionEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, person, image_ref, recognized, similarity, latitude, longitude, created_at
		FROM detection_events
		WHERE recognized = $1
		ORDER BY id DESC
	`, recognized)
	if err != nil {
		return nil, fmt.Errorf("query detection events: %w", err)
	}
	defer rows.Close()

	var events []database.DetectionEvent
	for rows.Next() {
		event, err := scanDetectionEvent(rows)
		if err != nil {
			return nil, err
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM detection_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("count detection events: %w", err)
	}
	return count, nil
}

func scanDetectionEvent(rows *sql.Rows) (database.DetectionEvent, error) {
	var event database.DetectionEvent
	var person sql.NullString
	var lat, lng sql.NullFloat64

	err := rows.Scan(
		&event.ID, &person, &event.ImageRef, &event.Recognized,
		&event.Similarity, &lat, &lng, &event.CreatedAt,
	)
	if err != nil {
		return event, fmt.Errorf("scan detection event: %w", err)
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
	return event, nil
}
