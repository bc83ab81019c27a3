package database

import (
	"time"
)

// ReferenceEmbedding is one labeled exemplar in the reference corpus.
// Rows are append-only: many rows may share a Person and exact
// duplicates are allowed.
type ReferenceEmbedding struct {
	ID        int64
	Person    string    // lowercase ASCII-alphabetic label
	Embedding []float32 // unit L2-normalized, EmbeddingDim entries
	CreatedAt time.Time
}

// DetectionEvent records one identification attempt for one detected
// face. Exactly one row is written per query embedding and rows are
// never updated or deleted.
type DetectionEvent struct {
	ID         int64
	Person     *string // nil when the face was not recognized
	ImageRef   string  // stored query image path
	Recognized bool
	Similarity float64  // best cosine similarity found, -1 on empty corpus
	Latitude   *float64 // nil when the client sent no usable coordinate
	Longitude  *float64
	CreatedAt  time.Time
}

// PersonName returns the event's person label or "unknown".
func (e *DetectionEvent) PersonName() string {
	if e.Person == nil {
		return "unknown"
	}
	return *e.Person
}
