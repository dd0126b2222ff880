package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asifhussain60/cortex-kg/internal/graph"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

func testServer(t *testing.T) (*Server, *graph.Graph) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	kg := graph.New(db, graph.DefaultConfig())
	t.Cleanup(func() { kg.Close() })
	return New(kg, "test-version"), kg
}

func getJSON(t *testing.T, srv *Server, path string, wantCode int) map[string]any {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != wantCode {
		t.Fatalf("GET %s status = %d, want %d (body %s)", path, w.Code, wantCode, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s body: %v", path, err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	body := getJSON(t, srv, "/api/health", http.StatusOK)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["schema_version"].(float64) < 1 {
		t.Errorf("schema_version = %v", body["schema_version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
