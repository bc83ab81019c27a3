package database

// EmbeddingDim is the dimension of face embeddings produced by the
// extraction server (InsightFace buffalo_l).
const EmbeddingDim = 512

// HNSW index parameters for 512-dim face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100
)
