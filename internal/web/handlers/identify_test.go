package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/database/mock"
	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/recognition"
)

func newIdentifyFixture(t *testing.T, ext *extractor.Handle) (*IdentifyHandler, *mock.DetectionStore) {
	t.Helper()
	refs := mock.NewReferenceStore()
	detections := mock.NewDetectionStore()
	_, err := refs.InsertBatch(context.Background(), []database.ReferenceEmbedding{
		{Person: "alice", Embedding: unit(4, 0)},
		{Person: "bob", Embedding: unit(4, 1)},
	})
	if err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	engine := recognition.NewEngine(refs, detections, 0.6)
	return NewIdentifyHandler(engine, ext, t.TempDir()), detections
}

func TestIdentifySingleFace(t *testing.T) {
	ext := stubExtractor(t, map[string][]extractor.Face{
		"": {{FaceIndex: 0, Dim: 4, Embedding: unit(4, 0)}},
	})
	handler, detections := newIdentifyFixture(t, ext)

	body, contentType := multipartBody(t, "file",
		map[string][]byte{"holiday.jpg": []byte("img-bytes")},
		map[string]string{"latitude": "50.0755", "longitude": "14.4378"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Identify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp IdentifyResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].Person != "alice" {
		t.Errorf("Person = %q, want alice", resp.Results[0].Person)
	}
	if resp.Latitude == nil || *resp.Latitude != 50.0755 {
		t.Errorf("Latitude = %v, want 50.0755", resp.Latitude)
	}
	if resp.SavedID == 0 {
		t.Error("SavedID = 0, want the committed event id")
	}
	// Stored under a generated name, not the client's filename.
	if resp.Filename == "holiday.jpg" || !strings.HasSuffix(resp.Filename, ".jpg") {
		t.Errorf("Filename = %q, want a generated .jpg name", resp.Filename)
	}

	events := detections.Events()
	if len(events) != 1 {
		t.Fatalf("logged %d events, want 1", len(events))
	}
	if events[0].Latitude == nil || *events[0].Latitude != 50.0755 {
		t.Errorf("event Latitude = %v, want 50.0755", events[0].Latitude)
	}
}

func TestIdentifyMultipleFacesReportsLastID(t *testing.T) {
	ext := stubExtractor(t, map[string][]extractor.Face{
		"": {
			{FaceIndex: 0, Dim: 4, Embedding: unit(4, 0)},
			{FaceIndex: 1, Dim: 4, Embedding: unit(4, 1)},
		},
	})
	handler, detections := newIdentifyFixture(t, ext)

	body, contentType := multipartBody(t, "file",
		map[string][]byte{"group.jpg": []byte("img-bytes")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Identify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp IdentifyResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}

	events := detections.Events()
	if len(events) != 2 {
		t.Fatalf("logged %d events, want 2", len(events))
	}
	// Only the last event id is reported.
	if resp.SavedID != events[1].ID {
		t.Errorf("SavedID = %d, want %d", resp.SavedID, events[1].ID)
	}
}

func TestIdentifyNoFace(t *testing.T) {
	ext := stubExtractor(t, map[string][]extractor.Face{"": nil})
	handler, detections := newIdentifyFixture(t, ext)

	body, contentType := multipartBody(t, "file",
		map[string][]byte{"empty.jpg": []byte("img-bytes")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Identify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["error"] != "no face detected in the image" {
		t.Errorf("error = %q", resp["error"])
	}
	if len(detections.Events()) != 0 {
		t.Errorf("logged %d events, want 0 for a faceless image", len(detections.Events()))
	}
}

func TestIdentifyMissingFile(t *testing.T) {
	ext := stubExtractor(t, map[string][]extractor.Face{"": nil})
	handler, _ := newIdentifyFixture(t, ext)

	body, contentType := multipartBody(t, "file", nil, map[string]string{"latitude": "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Identify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdentifyMalformedGeoDropped(t *testing.T) {
	ext := stubExtractor(t, map[string][]extractor.Face{
		"": {{FaceIndex: 0, Dim: 4, Embedding: unit(4, 0)}},
	})
	handler, detections := newIdentifyFixture(t, ext)

	body, contentType := multipartBody(t, "file",
		map[string][]byte{"q.jpg": []byte("img-bytes")},
		map[string]string{"latitude": "not-a-float", "longitude": "14.4378"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Identify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; bad coordinates must not fail the request", rec.Code)
	}
	events := detections.Events()
	if events[0].Latitude != nil || events[0].Longitude != nil {
		t.Error("event carries coordinates, want both dropped on a malformed value")
	}
}
