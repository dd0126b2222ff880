package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/asifhussain60/cortex-kg/internal/graph"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		Type:          q.Get("type"),
		Scope:         q.Get("scope"),
		MinConfidence: floatParam(q.Get("min_confidence"), 0),
		Limit:         intParam(q.Get("limit"), 50),
	}

	patterns, err := s.kg.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": patterns, "count": len(patterns)})
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patternID")

	p, err := s.kg.Peek(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "pattern not found")
		return
	}

	tags, err := s.kg.Tags(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	edges, err := s.kg.Relationships(id, store.DirBoth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pattern":       p,
		"tags":          tags,
		"relationships": edges,
	})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patternID")
	q := r.URL.Query()

	depth := intParam(q.Get("depth"), 1)
	var relTypes []string
	if t := q.Get("type"); t != "" {
		relTypes = q["type"]
	}

	result, err := s.kg.FindRelated(id, relTypes, depth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "pattern not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	limit := intParam(q.Get("limit"), 10)

	// A current= parameter switches to namespace-priority ranking.
	if current := q.Get("current"); current != "" {
		includeFramework := q.Get("include_framework") != "false"
		hits, err := s.kg.SearchWithNamespacePriority(query, current, includeFramework, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": hits, "count": len(hits)})
		return
	}

	hits, err := s.kg.Search(query, graph.SearchOpts{
		MinConfidence: floatParam(q.Get("min_confidence"), 0),
		Scope:         q.Get("scope"),
		Namespaces:    q["namespace"],
		Limit:         limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits, "count": len(hits)})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	glob := r.URL.Query().Get("glob")
	if glob == "" {
		writeError(w, http.StatusBadRequest, "glob parameter required")
		return
	}

	patterns, err := s.kg.Query(glob)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": patterns, "count": len(patterns)})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.kg.AllTags()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags, "count": len(tags)})
}

func (s *Server) handleDecayCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.kg.DecayCandidates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates, "count": len(candidates)})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func floatParam(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
