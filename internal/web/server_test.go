package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/mock"
	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/mailer"
	"github.com/facetrace/facetrace/internal/recognition"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.Storage.UploadDir = t.TempDir()
	cfg.Storage.QueryDir = t.TempDir()

	refs := mock.NewReferenceStore()
	detections := mock.NewDetectionStore()

	deps := Deps{
		Engine:     recognition.NewEngine(refs, detections, cfg.Recognition.Threshold),
		Ingestor:   recognition.NewIngestor(refs, cfg.Recognition.Dim),
		Extractor:  extractor.NewHandle("http://localhost:0"),
		Detections: detections,
		Users:      mock.NewUserStore(),
		OTPCodes:   mock.NewOTPStore(),
		Mailer:     mailer.New(cfg.SMTP),
	}

	srv := NewServer(cfg, deps, 0, "127.0.0.1")
	t.Cleanup(func() { srv.sessionManager.Stop() })
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestRoutesRegistered(t *testing.T) {
	srv := newTestServer(t)

	// POST-only routes must reject GET, not 404.
	for _, path := range []string{
		"/api/v1/references",
		"/api/v1/identify",
		"/api/v1/auth/signup",
		"/api/v1/auth/login",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code == http.StatusNotFound {
			t.Errorf("GET %s = 404, route not registered", path)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/detections/known", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/detections/known = %d, want 200", rec.Code)
	}
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/auth/me = %d, want 401 without a session", rec.Code)
	}
}
