package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	a := engine.New(cfg)
	a.Now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return New(db, a, cfg.Server, "test-version")
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	archive, ok := body["archive"].(map[string]any)
	if !ok || archive["reports"] != float64(0) || archive["schema_version"] == float64(0) {
		t.Errorf("archive = %v", body["archive"])
	}
}

func TestHealthWithoutArchive(t *testing.T) {
	cfg := config.Default()
	srv := New(nil, engine.New(cfg), cfg.Server, "test-version")

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["db"] != false {
		t.Errorf("db = %v, want false", body["db"])
	}

	req = httptest.NewRequest("GET", "/api/reports", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("reports status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `rapport_http_requests_total{method="GET",route="/api/health",status="200"} 1`) {
		t.Errorf("request counter missing from:\n%s", body)
	}
}
