package mariadb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// ReferenceRepository provides MariaDB-backed reference corpus storage.
type ReferenceRepository struct {
	pool *Pool
}

// NewReferenceRepository creates a new MariaDB reference repository.
func NewReferenceRepository(pool *Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// InsertBatch writes all rows in a single transaction.
func (r *ReferenceRepository) InsertBatch(ctx context.Context, rows []database.ReferenceEmbedding) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_embeddings (person, embedding) VALUES (?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		payload, err := json.Marshal(rows[i].Embedding)
		if err != nil {
			return 0, fmt.Errorf("marshal embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rows[i].Person, payload); err != nil {
			return 0, fmt.Errorf("insert reference for %q: %w", rows[i].Person, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reference batch: %w", err)
	}
	return len(rows), nil
}

// GetAll returns every reference row in insertion order.
func (r *ReferenceRepository) GetAll(ctx context.Context) ([]database.ReferenceEmbedding, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, person, embedding, created_at
		FROM reference_embeddings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	var refs []database.ReferenceEmbedding
	for rows.Next() {
		var ref database.ReferenceEmbedding
		var payload []byte
		if err := rows.Scan(&ref.ID, &ref.Person, &payload, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		if err := json.Unmarshal(payload, &ref.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding for reference %d: %w", ref.ID, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return refs, nil
}

// Count returns the number of reference rows.
func (r *ReferenceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reference_embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return count, nil
}
