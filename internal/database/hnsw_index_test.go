package database

import (
	"math"
	"testing"
)

func unitVec(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}

func TestReferenceIndexSearch(t *testing.T) {
	refs := []ReferenceEmbedding{
		{ID: 1, Person: "alice", Embedding: unitVec(8, 0)},
		{ID: 2, Person: "bob", Embedding: unitVec(8, 1)},
		{ID: 3, Person: "carol", Embedding: unitVec(8, 2)},
	}

	index := NewReferenceIndex()
	if err := index.Build(refs); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if index.Count() != 3 {
		t.Errorf("Count() = %d, want 3", index.Count())
	}

	query := unitVec(8, 1)
	got, sims, err := index.Search(query, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(got))
	}
	if got[0].Person != "bob" {
		t.Errorf("Search() top = %q, want %q", got[0].Person, "bob")
	}
	if math.Abs(sims[0]-1.0) > 1e-6 {
		t.Errorf("Search() similarity = %v, want 1.0", sims[0])
	}
}

func TestReferenceIndexExactSimilarities(t *testing.T) {
	refs := []ReferenceEmbedding{
		{ID: 1, Person: "alice", Embedding: unitVec(8, 0)},
		{ID: 2, Person: "bob", Embedding: unitVec(8, 1)},
	}

	index := NewReferenceIndex()
	if err := index.Build(refs); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Query closer to alice but not identical.
	query := []float32{0.9, 0.1, 0, 0, 0, 0, 0, 0}
	got, sims, err := index.Search(query, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i := range got {
		want := DotProduct(query, got[i].Embedding)
		if math.Abs(sims[i]-want) > 1e-9 {
			t.Errorf("similarity[%d] = %v, want exact dot product %v", i, sims[i], want)
		}
	}
}

func TestReferenceIndexEmpty(t *testing.T) {
	index := NewReferenceIndex()
	if err := index.Build(nil); err != nil {
		t.Fatalf("Build(nil) error = %v", err)
	}
	if index.Count() != 0 {
		t.Errorf("Count() = %d, want 0", index.Count())
	}
	if _, _, err := index.Search(unitVec(8, 0), 1); err == nil {
		t.Error("Search() on empty index error = nil, want error")
	}
}

func TestReferenceIndexRebuild(t *testing.T) {
	index := NewReferenceIndex()
	if err := index.Build([]ReferenceEmbedding{{ID: 1, Person: "alice", Embedding: unitVec(8, 0)}}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := index.Build([]ReferenceEmbedding{
		{ID: 1, Person: "alice", Embedding: unitVec(8, 0)},
		{ID: 2, Person: "bob", Embedding: unitVec(8, 1)},
	}); err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	if index.Count() != 2 {
		t.Errorf("Count() after rebuild = %d, want 2", index.Count())
	}
}

func TestReferenceIndexGraphTuning(t *testing.T) {
	index := NewReferenceIndex()
	if err := index.Build([]ReferenceEmbedding{{ID: 1, Person: "alice", Embedding: unitVec(8, 0)}}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if index.graph.M != HNSWMaxNeighbors {
		t.Errorf("graph.M = %d, want %d", index.graph.M, HNSWMaxNeighbors)
	}
	if index.graph.EfSearch != HNSWEfSearch {
		t.Errorf("graph.EfSearch = %d, want %d", index.graph.EfSearch, HNSWEfSearch)
	}
}
