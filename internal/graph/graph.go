// Package graph is the knowledge graph facade: a single entry point that
// composes the storage engine, the namespace guard, ranked search, the
// relationship graph and scheduled confidence decay.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/asifhussain60/cortex-kg/internal/metrics"
	"github.com/asifhussain60/cortex-kg/internal/namespace"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

// Config carries the tuned constants of the graph. The defaults are
// load-bearing for compatibility with existing stores; override them only
// deliberately.
type Config struct {
	DecayThresholdDays int     // days without access before decay starts
	DecayDailyRate     float64 // confidence reduction per day past threshold
	DecayFloor         float64 // decayed below this → deleted outright

	PriorityCurrent   float64 // re-rank multiplier: caller's own namespace
	PriorityFramework float64 // re-rank multiplier: framework domain
	PriorityOther     float64 // re-rank multiplier: everything else
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		DecayThresholdDays: 60,
		DecayDailyRate:     0.01,
		DecayFloor:         0.3,
		PriorityCurrent:    namespace.WeightCurrent,
		PriorityFramework:  namespace.WeightFramework,
		PriorityOther:      namespace.WeightOther,
	}
}

// Graph owns a storage engine handle and exposes every knowledge graph
// operation. Construct with New, tear down with Close; there is no ambient
// global handle.
type Graph struct {
	db       *store.DB
	cfg      Config
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Graph over an opened database. Zero-valued tuning fields
// fall back to the defaults.
func New(db *store.DB, cfg Config) *Graph {
	def := DefaultConfig()
	if cfg.DecayThresholdDays <= 0 {
		cfg.DecayThresholdDays = def.DecayThresholdDays
	}
	if cfg.DecayDailyRate <= 0 {
		cfg.DecayDailyRate = def.DecayDailyRate
	}
	if cfg.DecayFloor <= 0 {
		cfg.DecayFloor = def.DecayFloor
	}
	if cfg.PriorityCurrent <= 0 {
		cfg.PriorityCurrent = def.PriorityCurrent
	}
	if cfg.PriorityFramework <= 0 {
		cfg.PriorityFramework = def.PriorityFramework
	}
	if cfg.PriorityOther <= 0 {
		cfg.PriorityOther = def.PriorityOther
	}
	return &Graph{db: db, cfg: cfg, stopCh: make(chan struct{})}
}

// Open opens (or creates) the database at path and wraps it in a Graph.
func Open(path string, cfg Config) (*Graph, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return New(db, cfg), nil
}

// DB exposes the underlying storage handle for inspection surfaces.
func (g *Graph) DB() *store.DB {
	return g.db
}

// Close stops background work and closes the storage handle.
func (g *Graph) Close() error {
	g.Stop()
	return g.db.Close()
}

// Learn stores a pattern under ns, which becomes its primary namespace.
// This is the only entry point non-internal callers should use: it always
// routes through the namespace guard, so a write into the framework domain
// without the internal-caller capability fails with *namespace.DeniedError
// and stores nothing. Every namespace in the list is authorized, not just
// the primary — Query matches any of them, so a secondary framework
// namespace would otherwise leak the pattern into the framework domain.
// A missing pattern id is filled with a UUID.
func (g *Graph) Learn(p store.Pattern, ns string, internalCaller bool) (*store.Pattern, error) {
	ns = strings.TrimSpace(ns)
	p.Namespaces = prependNamespace(p.Namespaces, ns)
	for _, n := range p.Namespaces {
		if err := namespace.AuthorizeWrite(n, internalCaller); err != nil {
			metrics.NamespaceDenials.Inc()
			return nil, err
		}
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}

	if err := g.db.CreatePattern(&p); err != nil {
		return nil, err
	}
	metrics.PatternsLearned.Inc()
	return &p, nil
}

// Store inserts a pattern whose namespaces are already set, still consulting
// the guard for the primary namespace.
func (g *Graph) Store(p store.Pattern, internalCaller bool) (*store.Pattern, error) {
	return g.Learn(p, p.PrimaryNamespace(), internalCaller)
}

// Query returns every pattern with at least one namespace matching glob,
// ordered by confidence descending.
func (g *Graph) Query(glob string) ([]store.Pattern, error) {
	all, err := g.db.ListPatterns(store.ListFilter{})
	if err != nil {
		return nil, err
	}

	var out []store.Pattern
	for _, p := range all {
		for _, ns := range p.Namespaces {
			if namespace.Matches(ns, glob) {
				out = append(out, p)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// Get returns a pattern by id and records the access, or nil when absent.
func (g *Graph) Get(id string) (*store.Pattern, error) {
	return g.db.GetPattern(id)
}

// Peek returns a pattern without access tracking.
func (g *Graph) Peek(id string) (*store.Pattern, error) {
	return g.db.PeekPattern(id)
}

// Update applies an allow-listed field map. A change to the pattern's
// namespace list re-consults the guard for every entry before any mutation,
// for the same reason Learn does.
func (g *Graph) Update(id string, fields map[string]any, internalCaller bool) (bool, error) {
	if ns, ok := fields["namespaces"]; ok {
		list, ok := ns.([]string)
		if !ok || len(list) == 0 {
			return false, &store.ValidationError{Field: "namespaces", Reason: "at least one namespace is required"}
		}
		for _, n := range list {
			if err := namespace.AuthorizeWrite(n, internalCaller); err != nil {
				metrics.NamespaceDenials.Inc()
				return false, err
			}
		}
	}
	return g.db.UpdatePattern(id, fields)
}

// Delete removes a pattern along with its edges and tags.
func (g *Graph) Delete(id string) (bool, error) {
	return g.db.DeletePattern(id)
}

// List returns patterns matching the filter, confidence descending.
func (g *Graph) List(f store.ListFilter) ([]store.Pattern, error) {
	return g.db.ListPatterns(f)
}

// Tag manager pass-throughs.

func (g *Graph) AddTag(patternID, tag string) (bool, error) {
	return g.db.AddTag(patternID, tag)
}

func (g *Graph) RemoveTag(patternID, tag string) (bool, error) {
	return g.db.RemoveTag(patternID, tag)
}

func (g *Graph) Tags(patternID string) ([]string, error) {
	return g.db.GetTags(patternID)
}

func (g *Graph) PatternsByTag(tag string, minConfidence float64, limit int) ([]store.Pattern, error) {
	return g.db.PatternsByTag(tag, minConfidence, limit)
}

func (g *Graph) AllTags() ([]store.TagCount, error) {
	return g.db.ListAllTags()
}

// Relationship manager pass-throughs.

func (g *Graph) Relate(from, to, relType string, strength float64) (*store.Edge, error) {
	return g.db.CreateEdge(from, to, relType, strength)
}

func (g *Graph) Relationships(patternID string, dir store.Direction) ([]store.Edge, error) {
	return g.db.EdgesFor(patternID, dir)
}

func (g *Graph) Unrelate(from, to, relType string) (bool, error) {
	return g.db.DeleteEdge(from, to, relType)
}

// HealthCheck probes the storage engine for corruption.
func (g *Graph) HealthCheck() store.Health {
	return g.db.HealthCheck()
}

// SchemaVersion reports the storage schema version.
func (g *Graph) SchemaVersion() (int, error) {
	return g.db.SchemaVersion()
}

func prependNamespace(namespaces []string, primary string) []string {
	out := []string{primary}
	for _, ns := range namespaces {
		if ns != primary && strings.TrimSpace(ns) != "" {
			out = append(out, ns)
		}
	}
	return out
}

// String renders a short operator-facing summary of a pattern.
func String(p *store.Pattern) string {
	return fmt.Sprintf("%s [%s, %.2f] %s", p.ID, p.Type, p.Confidence, p.Title)
}
