package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// QueriesHandler serves stored query images back to the client.
type QueriesHandler struct {
	queryDir string
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(queryDir string) *QueriesHandler {
	return &QueriesHandler{queryDir: queryDir}
}

// Serve streams one stored query image by filename.
func (h *QueriesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	path := filepath.Join(h.queryDir, name)

	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
