package recognition

import (
	"context"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// LabeledEmbeddings pairs a raw source identifier with the embeddings
// extracted from that source image.
type LabeledEmbeddings struct {
	Source     string
	Embeddings [][]float32
}

// Ingestor validates labeled embedding batches and writes them into
// the reference corpus.
type Ingestor struct {
	store database.ReferenceStore
	dim   int
}

// NewIngestor creates an ingestor writing to the given store.
func NewIngestor(store database.ReferenceStore, dim int) *Ingestor {
	return &Ingestor{store: store, dim: dim}
}

// IngestBatch derives a person label per source and inserts one corpus
// row per embedding. Sources without an alphabetic filename prefix are
// skipped without failing the batch. All accepted rows are committed
// in a single transaction; a commit failure fails the whole batch.
// Returns the number of embeddings added. Re-ingesting identical data
// grows the corpus again: there is no deduplication.
func (i *Ingestor) IngestBatch(ctx context.Context, batch []LabeledEmbeddings) (int, error) {
	var rows []database.ReferenceEmbedding
	for _, pair := range batch {
		person, ok := PersonLabel(pair.Source)
		if !ok {
			continue
		}
		for _, emb := range pair.Embeddings {
			if i.dim > 0 && len(emb) != i.dim {
				return 0, fmt.Errorf("embedding for %q has dimension %d, want %d", pair.Source, len(emb), i.dim)
			}
			rows = append(rows, database.ReferenceEmbedding{
				Person:    person,
				Embedding: emb,
			})
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}

	added, err := i.store.InsertBatch(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("ingest batch: %w", err)
	}
	return added, nil
}
