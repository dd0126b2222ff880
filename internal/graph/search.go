package graph

import (
	"sort"

	"github.com/asifhussain60/cortex-kg/internal/metrics"
	"github.com/asifhussain60/cortex-kg/internal/namespace"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

const defaultSearchLimit = 10

// SearchOpts controls Search.
type SearchOpts struct {
	MinConfidence float64
	Scope         string   // optional scope filter
	Namespaces    []string // optional namespace globs; a hit must match one
	Limit         int      // max results (default 10)
}

func (o SearchOpts) limit() int {
	if o.Limit <= 0 {
		return defaultSearchLimit
	}
	return o.Limit
}

// Search runs a BM25-ranked lexical query over pattern titles and content,
// filtered by confidence, scope and namespace globs.
func (g *Graph) Search(query string, opts SearchOpts) ([]store.SearchHit, error) {
	metrics.Searches.Inc()

	// Namespace filtering happens here in Go, so fetch unbounded and cap
	// after the filter — otherwise a full page of foreign-namespace hits
	// would starve the caller's own.
	hits, err := g.db.SearchPatterns(query, store.SearchOpts{
		MinConfidence: opts.MinConfidence,
		Scope:         opts.Scope,
	})
	if err != nil {
		return nil, err
	}

	if len(opts.Namespaces) > 0 {
		filtered := hits[:0]
		for _, h := range hits {
			if matchesAny(h.Pattern.Namespaces, opts.Namespaces) {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	if len(hits) > opts.limit() {
		hits = hits[:opts.limit()]
	}
	return hits, nil
}

// SearchWithNamespacePriority re-scores lexical hits by where they live:
// the caller's own namespace counts double, the framework domain counts
// 1.5x, everything else is halved. A mediocre match in the caller's own
// workspace can therefore outrank a strong match elsewhere. Ties break by
// confidence descending.
func (g *Graph) SearchWithNamespacePriority(query, currentNamespace string, includeFramework bool, limit int) ([]store.SearchHit, error) {
	metrics.Searches.Inc()

	hits, err := g.db.SearchPatterns(query, store.SearchOpts{})
	if err != nil {
		return nil, err
	}

	scored := make([]store.SearchHit, 0, len(hits))
	for _, h := range hits {
		primary := h.Pattern.PrimaryNamespace()
		if !includeFramework && namespace.IsFramework(primary) {
			continue
		}
		h.Score *= g.priorityWeight(primary, currentNamespace)
		scored = append(scored, h)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Confidence > scored[j].Confidence
	})

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// FindRelated returns the neighborhood of a pattern via bounded traversal.
func (g *Graph) FindRelated(patternID string, relTypes []string, maxDepth int) (*Traversal, error) {
	return g.Traverse(patternID, maxDepth, relTypes)
}

func (g *Graph) priorityWeight(ns, current string) float64 {
	if ns != "" && ns == current {
		return g.cfg.PriorityCurrent
	}
	if namespace.IsFramework(ns) {
		return g.cfg.PriorityFramework
	}
	return g.cfg.PriorityOther
}

func matchesAny(namespaces, globs []string) bool {
	for _, glob := range globs {
		for _, ns := range namespaces {
			if namespace.Matches(ns, glob) {
				return true
			}
		}
	}
	return false
}
