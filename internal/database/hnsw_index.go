package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// ReferenceIndex is an optional in-memory HNSW graph over the
// reference corpus. It serves the same matching contract as the
// exhaustive scan with approximate results; the linear scan remains
// the reference behavior and the default.
type ReferenceIndex struct {
	graph    *hnsw.Graph[int64]
	idToRef  map[int64]*ReferenceEmbedding
	refCount int
	mu       sync.RWMutex
}

// NewReferenceIndex creates a new empty index.
func NewReferenceIndex() *ReferenceIndex {
	return &ReferenceIndex{
		idToRef: make(map[int64]*ReferenceEmbedding),
	}
}

// Build replaces the index contents with the given reference rows.
func (x *ReferenceIndex) Build(refs []ReferenceEmbedding) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(refs) == 0 {
		x.graph = nil
		x.idToRef = make(map[int64]*ReferenceEmbedding)
		x.refCount = 0
		return nil
	}

	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance

	idToRef := make(map[int64]*ReferenceEmbedding, len(refs))
	for i := range refs {
		ref := &refs[i]
		if len(ref.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(ref.ID, ref.Embedding))
		idToRef[ref.ID] = ref
	}

	x.graph = g
	x.idToRef = idToRef
	x.refCount = len(idToRef)
	return nil
}

// Search returns up to k nearest references with their similarities,
// best first.
func (x *ReferenceIndex) Search(query []float32, k int) ([]*ReferenceEmbedding, []float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, nil, errors.New("index not built")
	}

	neighbors := x.graph.Search(query, k)

	refs := make([]*ReferenceEmbedding, 0, len(neighbors))
	sims := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		ref, ok := x.idToRef[n.Key]
		if !ok {
			continue
		}
		// Recompute the exact score so reported similarities match the
		// linear-scan path.
		refs = append(refs, ref)
		sims = append(sims, DotProduct(query, ref.Embedding))
	}

	return refs, sims, nil
}

// Count returns the number of indexed references.
func (x *ReferenceIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.refCount
}
