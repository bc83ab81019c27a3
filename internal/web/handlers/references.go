package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/recognition"
)

// maxUploadSize bounds multipart request memory (100 MiB).
const maxUploadSize = 100 << 20

// ReferencesHandler handles reference corpus uploads.
type ReferencesHandler struct {
	ingestor  *recognition.Ingestor
	engine    *recognition.Engine
	extractor *extractor.Handle
	uploadDir string
}

// NewReferencesHandler creates a new references handler.
func NewReferencesHandler(
	ingestor *recognition.Ingestor, engine *recognition.Engine, ext *extractor.Handle, uploadDir string,
) *ReferencesHandler {
	return &ReferencesHandler{
		ingestor:  ingestor,
		engine:    engine,
		extractor: ext,
		uploadDir: uploadDir,
	}
}

// readUpload reads one multipart file fully and stores a copy on disk.
func (h *ReferencesHandler) readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileHeader.Filename, err)
	}

	safeName := filepath.Base(fileHeader.Filename)
	path := filepath.Join(h.uploadDir, safeName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("store %s: %w", safeName, err)
	}
	return data, nil
}

// Upload ingests a batch of labeled reference images. The person label
// is derived from each uploaded filename; files without an alphabetic
// filename prefix are skipped. Responds with the number of embeddings
// added to the corpus.
func (h *ReferencesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create upload directory")
		return
	}

	client := h.extractor.Client()
	batch := make([]recognition.LabeledEmbeddings, 0, len(files))

	for _, fileHeader := range files {
		data, err := h.readUpload(fileHeader)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		faces, err := client.ExtractFaces(r.Context(), data)
		if err != nil {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("extraction failed for %s: %v", filepath.Base(fileHeader.Filename), err))
			return
		}

		embeddings := make([][]float32, 0, len(faces))
		for _, face := range faces {
			embeddings = append(embeddings, face.Embedding)
		}
		batch = append(batch, recognition.LabeledEmbeddings{
			Source:     filepath.Base(fileHeader.Filename),
			Embeddings: embeddings,
		})
	}

	added, err := h.ingestor.IngestBatch(r.Context(), batch)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.engine.RebuildIndex(r.Context()); err != nil {
		// The corpus write already committed; a stale index only delays
		// visibility of the new references.
		log.Printf("index rebuild after ingest failed: %v", err)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"message": fmt.Sprintf("Added %d embeddings to the reference corpus", added),
	})
}
