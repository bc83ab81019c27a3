package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facetrace/facetrace/internal/extractor"
)

// multipartBody builds a multipart request body with the given file
// fields and plain form values.
func multipartBody(t *testing.T, field string, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, data := range files {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("multipart write error = %v", err)
		}
	}
	for k, v := range values {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close error = %v", err)
	}
	return &buf, writer.FormDataContentType()
}

// stubExtractor serves the embedding server wire format, returning the
// face set keyed by the uploaded image bytes (fallback key "" for any
// payload). The real client does not forward the original filename, so
// content is the only way to tell uploads apart.
func stubExtractor(t *testing.T, facesByContent map[string][]extractor.Face) *extractor.Handle {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart body", http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "read failed", http.StatusInternalServerError)
			return
		}
		faces, ok := facesByContent[string(data)]
		if !ok {
			faces = facesByContent[""]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": len(faces),
			"faces":       faces,
			"model":       "buffalo_l",
		})
	}))
	t.Cleanup(srv.Close)
	return extractor.NewHandle(srv.URL)
}

// decodeJSON decodes a recorded response body into out.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("response body %q: %v", rec.Body.String(), err)
	}
}

func unit(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}
