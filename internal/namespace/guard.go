// Package namespace implements ownership classification for patterns.
//
// Namespaces are dotted strings. The "cortex." prefix is the framework's own
// trust domain; everything else belongs to caller workspaces (conventionally
// "workspace.<project>...."). Writes into the framework domain require an
// explicit internal-caller capability — the guard never infers it.
package namespace

import (
	"fmt"
	"strings"
)

// FrameworkPrefix is the dotted prefix of the framework-owned trust domain.
const FrameworkPrefix = "cortex."

// Default priority multipliers used when re-ranking search hits.
const (
	WeightCurrent   = 2.0
	WeightFramework = 1.5
	WeightOther     = 0.5
)

// DeniedError is returned when a write targets a namespace the caller does
// not own. It is a distinct type so callers can tell an authorization failure
// apart from plain validation errors.
type DeniedError struct {
	Namespace string
	Reason    string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("namespace %q denied: %s", e.Namespace, e.Reason)
}

// IsFramework reports whether ns lives in the framework-owned domain.
func IsFramework(ns string) bool {
	return strings.HasPrefix(ns, FrameworkPrefix) || ns == strings.TrimSuffix(FrameworkPrefix, ".")
}

// AuthorizeWrite decides whether a write to ns is permitted. Fails closed:
// an empty namespace is denied with a distinct reason from a cross-domain
// violation, so callers can surface the difference.
func AuthorizeWrite(ns string, internalCaller bool) error {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return &DeniedError{Namespace: ns, Reason: "namespace is required"}
	}
	if IsFramework(ns) && !internalCaller {
		return &DeniedError{Namespace: ns, Reason: "framework namespace requires internal caller"}
	}
	return nil
}

// Matches reports whether ns matches glob. Globbing is per dotted segment
// with a trailing "*": "workspace.app1.*" matches "workspace.app1.security"
// and "workspace.app1.a.b", but never "workspace.app2.security". A bare "*"
// matches everything. Without a trailing "*" the match is exact.
func Matches(ns, glob string) bool {
	if glob == "*" {
		return true
	}
	if !strings.HasSuffix(glob, ".*") {
		return ns == glob
	}
	prefix := strings.TrimSuffix(glob, "*")
	return strings.HasPrefix(ns, prefix)
}

// PriorityWeight returns the re-ranking multiplier for a pattern namespace
// relative to the caller's current namespace: exact match beats the framework
// domain beats everything else. The multipliers are tuned constants; see
// config.Config to override them.
func PriorityWeight(ns, current string) float64 {
	if ns != "" && ns == current {
		return WeightCurrent
	}
	if IsFramework(ns) {
		return WeightFramework
	}
	return WeightOther
}
