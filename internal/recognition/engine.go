package recognition

import (
	"context"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
)

// Unknown is the person name reported when no reference scored at or
// above the acceptance threshold.
const Unknown = "unknown"

// Match is the identification decision for one query embedding.
// Similarity carries the best score found even when the match was
// rejected, and -1 when the corpus was empty.
type Match struct {
	Person     string  `json:"person"`
	Similarity float64 `json:"similarity"`
}

// Engine identifies query embeddings against the reference corpus and
// appends one detection event per query embedding.
type Engine struct {
	refs       database.ReferenceStore
	detections database.DetectionStore
	threshold  float64
	index      *database.ReferenceIndex // optional, nil means exhaustive scan
}

// NewEngine creates an identification engine. threshold is the minimum
// cosine similarity for a match to be accepted.
func NewEngine(refs database.ReferenceStore, detections database.DetectionStore, threshold float64) *Engine {
	return &Engine{
		refs:       refs,
		detections: detections,
		threshold:  threshold,
	}
}

// EnableIndex builds an HNSW index over the current corpus and serves
// subsequent identifications from it. The index is approximate; the
// default exhaustive scan remains the reference behavior.
func (e *Engine) EnableIndex(ctx context.Context) error {
	refs, err := e.refs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load corpus for index: %w", err)
	}
	index := database.NewReferenceIndex()
	if err := index.Build(refs); err != nil {
		return fmt.Errorf("build reference index: %w", err)
	}
	e.index = index
	return nil
}

// RebuildIndex refreshes the index after ingestion. No-op when the
// index is not enabled.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	if e.index == nil {
		return nil
	}
	refs, err := e.refs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load corpus for index: %w", err)
	}
	return e.index.Build(refs)
}

// Identify matches each query embedding against the full reference
// corpus and logs one detection event per embedding. Results are in
// query order. The returned id is that of the LAST event written,
// which is what the mobile client historically consumed; when more
// than one face is present the earlier event ids are not reported.
//
// The corpus snapshot is read once per call; references ingested
// concurrently may or may not be visible. Each event is committed
// before the next embedding is scored, so a failure partway leaves a
// prefix of the image's faces logged.
func (e *Engine) Identify(ctx context.Context, queries [][]float32, geo Geo, imageRef string) ([]Match, int64, error) {
	var refs []database.ReferenceEmbedding
	if e.index == nil {
		var err error
		refs, err = e.refs.GetAll(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("load reference corpus: %w", err)
		}
	}

	matches := make([]Match, 0, len(queries))
	var lastEventID int64

	for _, q := range queries {
		var best Match
		if e.index != nil {
			best = e.bestMatchIndexed(q)
		} else {
			best = e.bestMatchScan(q, refs)
		}

		event := &database.DetectionEvent{
			ImageRef:   imageRef,
			Recognized: best.Person != Unknown,
			Similarity: best.Similarity,
			Latitude:   geo.Latitude,
			Longitude:  geo.Longitude,
		}
		if event.Recognized {
			person := best.Person
			event.Person = &person
		}

		id, err := e.detections.Insert(ctx, event)
		if err != nil {
			return nil, 0, fmt.Errorf("log detection event: %w", err)
		}
		lastEventID = id

		matches = append(matches, best)
	}

	return matches, lastEventID, nil
}

// bestMatchScan scores q against every reference row. Strict >
// comparison: on an exact tie the first row in scan order wins. An
// empty corpus reports the -1 sentinel. O(N*D); this linear scan is
// the engine's scalability ceiling and is replaced by the HNSW path
// only when explicitly enabled.
func (e *Engine) bestMatchScan(q []float32, refs []database.ReferenceEmbedding) Match {
	bestPerson := Unknown
	bestScore := -1.0

	for i := range refs {
		score := database.DotProduct(q, refs[i].Embedding)
		if score > bestScore {
			bestScore = score
			bestPerson = refs[i].Person
		}
	}

	if bestScore < e.threshold {
		// Rejected, but the best score found is still reported.
		bestPerson = Unknown
	}
	return Match{Person: bestPerson, Similarity: bestScore}
}

// bestMatchIndexed serves the same contract from the HNSW index.
func (e *Engine) bestMatchIndexed(q []float32) Match {
	if e.index.Count() == 0 {
		return Match{Person: Unknown, Similarity: -1}
	}

	refs, sims, err := e.index.Search(q, 1)
	if err != nil || len(refs) == 0 {
		return Match{Person: Unknown, Similarity: -1}
	}

	person := refs[0].Person
	if sims[0] < e.threshold {
		person = Unknown
	}
	return Match{Person: person, Similarity: sims[0]}
}
