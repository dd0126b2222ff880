// Package metrics registers the knowledge graph's Prometheus collectors.
// Served by the inspection server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PatternsLearned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cortexkg_patterns_learned_total",
		Help: "Patterns successfully stored through the facade.",
	})

	NamespaceDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cortexkg_namespace_denials_total",
		Help: "Writes rejected by the namespace guard.",
	})

	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cortexkg_searches_total",
		Help: "Full-text search queries executed.",
	})

	DecayReduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cortexkg_decay_reduced_total",
		Help: "Patterns whose confidence was reduced by a decay run.",
	})

	DecayDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cortexkg_decay_deleted_total",
		Help: "Patterns deleted by decay after falling below the floor.",
	})
)
