package postgres

import (
	"context"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/pgvector/pgvector-go"
)

// ReferenceRepository provides PostgreSQL-backed reference corpus storage.
type ReferenceRepository struct {
	pool *Pool
}

// NewReferenceRepository creates a new PostgreSQL reference repository.
func NewReferenceRepository(pool *Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// InsertBatch writes all rows in a single transaction. A commit
// failure fails the whole batch; nothing is retried.
func (r *ReferenceRepository) InsertBatch(ctx context.Context, rows []database.ReferenceEmbedding) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_embeddings (person, embedding, created_at)
		VALUES ($1, $2, NOW())
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		vec := pgvector.NewVector(rows[i].Embedding)
		if _, err := stmt.ExecContext(ctx, rows[i].Person, vec); err != nil {
			return 0, fmt.Errorf("insert reference for %q: %w", rows[i].Person, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reference batch: %w", err)
	}
	return len(rows), nil
}

// GetAll returns every reference row in insertion order. The corpus is
// scanned in full on each identification; there is no pagination.
func (r *ReferenceRepository) GetAll(ctx context.Context) ([]database.ReferenceEmbedding, error) {
	rows, err := r.pool.Query(ctx, `
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
		var vec pgvector.Vector
		if err := rows.Scan(&ref.ID, &ref.Person, &vec, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		ref.Embedding = vec.Slice()
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reference_embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return count, nil
}
