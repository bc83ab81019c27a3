package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/recognition"
	"github.com/google/uuid"
)

// IdentifyHandler handles face identification requests.
type IdentifyHandler struct {
	engine    *recognition.Engine
	extractor *extractor.Handle
	queryDir  string
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(engine *recognition.Engine, ext *extractor.Handle, queryDir string) *IdentifyHandler {
	return &IdentifyHandler{
		engine:    engine,
		extractor: ext,
		queryDir:  queryDir,
	}
}

// IdentifyResponse is the identification result for one submitted image.
type IdentifyResponse struct {
	Filename  string              `json:"filename"`
	Results   []recognition.Match `json:"results"`
	Latitude  *float64            `json:"latitude"`
	Longitude *float64            `json:"longitude"`
	// SavedID is the id of the last detection event written for this
	// call. With multiple detected faces the earlier event ids are not
	// reported; the mobile client depends on this shape.
	SavedID int64 `json:"saved_id"`
}

// saveQueryImage stores the submitted image under a collision-proof
// name and returns its path.
func (h *IdentifyHandler) saveQueryImage(original string, data []byte) (string, error) {
	if err := os.MkdirAll(h.queryDir, 0o755); err != nil {
		return "", fmt.Errorf("create query directory: %w", err)
	}
	name := uuid.New().String() + filepath.Ext(original)
	path := filepath.Join(h.queryDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store query image: %w", err)
	}
	return path, nil
}

// Identify runs identification on one uploaded image with optional
// latitude/longitude form values. Each detected face yields one result
// and one detection event. An image with no detectable face is a
// request-level failure.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	// Coordinate parsing is best-effort: a malformed value drops both.
	geo := recognition.ParseGeo(r.FormValue("latitude"), r.FormValue("longitude"))

	faces, err := h.extractor.Client().ExtractFacesRequired(r.Context(), data)
	if err != nil {
		if errors.Is(err, extractor.ErrNoFace) {
			respondError(w, http.StatusBadRequest, "no face detected in the image")
			return
		}
		respondError(w, http.StatusBadRequest, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	imagePath, err := h.saveQueryImage(header.Filename, data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	queries := make([][]float32, 0, len(faces))
	for _, face := range faces {
		queries = append(queries, face.Embedding)
	}

	matches, lastID, err := h.engine.Identify(r.Context(), queries, geo, imagePath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("identified %s: %d face(s)", sanitizeForLog(filepath.Base(imagePath)), len(matches))

	respondJSON(w, http.StatusOK, IdentifyResponse{
		Filename:  filepath.Base(imagePath),
		Results:   matches,
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
		SavedID:   lastID,
	})
}
