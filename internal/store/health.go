package store

import (
	"fmt"
	"strings"
	"time"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusCritical = "critical"
)

// Health is the result of a corruption probe, independent of any query.
type Health struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Detail    string `json:"detail"`
}

// HealthCheck probes the database for corruption and drift. quick_check
// failures and unreadable tables are critical; a full-text index that has
// drifted from the patterns table is degraded (queries still work, search
// results may be stale).
func (db *DB) HealthCheck() Health {
	now := time.Now().UnixMilli()

	var check string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&check); err != nil {
		return Health{Status: StatusCritical, Timestamp: now, Detail: fmt.Sprintf("quick_check failed: %v", err)}
	}
	if !strings.EqualFold(check, "ok") {
		return Health{Status: StatusCritical, Timestamp: now, Detail: "quick_check: " + check}
	}

	for _, table := range []string{"patterns", "relationships", "tags", "decay_log"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return Health{Status: StatusCritical, Timestamp: now, Detail: fmt.Sprintf("table %s unreadable: %v", table, err)}
		}
	}

	var patterns, indexed int
	if err := db.QueryRow("SELECT COUNT(*) FROM patterns").Scan(&patterns); err != nil {
		return Health{Status: StatusCritical, Timestamp: now, Detail: fmt.Sprintf("patterns unreadable: %v", err)}
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM patterns_fts").Scan(&indexed); err != nil {
		return Health{Status: StatusDegraded, Timestamp: now, Detail: fmt.Sprintf("full-text index unreadable: %v", err)}
	}
	if patterns != indexed {
		return Health{
			Status:    StatusDegraded,
			Timestamp: now,
			Detail:    fmt.Sprintf("full-text index drift: %d patterns, %d indexed", patterns, indexed),
		}
	}

	return Health{Status: StatusHealthy, Timestamp: now, Detail: "ok"}
}
