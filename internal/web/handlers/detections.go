package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/recognition"
)

// DetectionsHandler exposes read-only projections of the detection log.
type DetectionsHandler struct {
	store database.DetectionStore
}

// NewDetectionsHandler creates a new detections handler.
func NewDetectionsHandler(store database.DetectionStore) *DetectionsHandler {
	return &DetectionsHandler{store: store}
}

// KnownFace is one recognized detection event projection.
type KnownFace struct {
	Person    string   `json:"person"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Filename  string   `json:"filename"`
}

// UnknownFace is one unrecognized detection event projection.
type UnknownFace struct {
	Filename string `json:"filename"`
}

// Known lists recognized detection events. An optional ?person= query
// filters case- and diacritic-insensitively.
func (h *DetectionsHandler) Known(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListByRecognized(r.Context(), true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filter := r.URL.Query().Get("person")
	normalizedFilter := recognition.NormalizePersonName(filter)

	faces := make([]KnownFace, 0, len(events))
	for _, event := range events {
		person := event.PersonName()
		if filter != "" && recognition.NormalizePersonName(person) != normalizedFilter {
			continue
		}
		faces = append(faces, KnownFace{
			Person:    person,
			Latitude:  event.Latitude,
			Longitude: event.Longitude,
			Filename:  filepath.Base(event.ImageRef),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"known_faces": faces})
}

// Unknown lists unrecognized detection events.
func (h *DetectionsHandler) Unknown(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListByRecognized(r.Context(), false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	faces := make([]UnknownFace, 0, len(events))
	for _, event := range events {
		faces = append(faces, UnknownFace{Filename: filepath.Base(event.ImageRef)})
	}

	respondJSON(w, http.StatusOK, map[string]any{"unknown_faces": faces})
}
