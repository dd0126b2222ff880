// Package server exposes a read-only HTTP inspection API over the knowledge
// graph, for documentation generators and operators. All pattern reads go
// through Peek so inspection never skews access tracking, and no route
// carries the internal-caller capability — the Go API remains the only write
// surface into the framework namespace.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asifhussain60/cortex-kg/internal/graph"
)

// Server is the cortexkg HTTP inspection server.
type Server struct {
	kg      *graph.Graph
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over a knowledge graph.
func New(kg *graph.Graph, version string) *Server {
	s := &Server{
		kg:      kg,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/patterns", s.handleListPatterns)
		r.Get("/patterns/{patternID}", s.handleGetPattern)
		r.Get("/patterns/{patternID}/related", s.handleRelated)
		r.Get("/search", s.handleSearch)
		r.Get("/query", s.handleQuery)
		r.Get("/tags", s.handleTags)
		r.Get("/decay/candidates", s.handleDecayCandidates)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.kg.HealthCheck()
	version, _ := s.kg.SchemaVersion()

	code := http.StatusOK
	if health.Status == "critical" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":         health.Status,
		"detail":         health.Detail,
		"timestamp":      health.Timestamp,
		"schema_version": version,
		"version":        s.version,
		"uptime":         time.Since(s.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
