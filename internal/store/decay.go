package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

const dayMillis = 24 * 60 * 60 * 1000

// DecayLogEntry is one append-only audit row. Entries are never updated or
// deleted, and survive the deletion of the pattern they describe.
type DecayLogEntry struct {
	ID            int64   `json:"id"`
	PatternID     string  `json:"pattern_id"`
	OldConfidence float64 `json:"old_confidence"`
	NewConfidence float64 `json:"new_confidence"`
	DecayDate     int64   `json:"decay_date"`
	Reason        string  `json:"reason"`
}

// DecayAction describes what DecayPattern did to a single pattern.
type DecayAction int

const (
	DecaySkipped DecayAction = iota
	DecayReduced
	DecayDeleted
)

// DecayCandidates returns non-pinned patterns whose last access is older
// than cutoff, stalest first. Read-only: usable to preview a decay run.
func (db *DB) DecayCandidates(cutoff int64) ([]Pattern, error) {
	rows, err := db.Query(selectPattern+`
		WHERE is_pinned = 0 AND last_accessed < ?
		ORDER BY last_accessed ASC
	`, cutoff)
	if err != nil {
		return nil, storageErr("decay candidates", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// DecayPattern applies confidence decay to one pattern as a single
// transaction: the pattern's current state is re-read inside the
// transaction (never trusted from an earlier snapshot), and the confidence
// change or deletion commits together with exactly one decay_log row. A
// crash mid-run therefore never leaves a mutation without its audit entry.
//
// Decay is dailyRate compounded per day, counted from whichever is later:
// the moment the pattern crossed the inactivity cutoff, or its most recent
// decay entry. Re-running within the same day is a no-op. A result below
// floor deletes the pattern outright.
func (db *DB) DecayPattern(id string, cutoff int64, dailyRate, floor float64, now int64) (DecayAction, error) {
	tx, err := db.Begin()
	if err != nil {
		return DecaySkipped, storageErr("decay pattern", err)
	}
	defer tx.Rollback()

	var confidence float64
	var pinned int
	var lastAccessed int64
	err = tx.QueryRow(`
		SELECT confidence, is_pinned, last_accessed FROM patterns WHERE pattern_id = ?
	`, id).Scan(&confidence, &pinned, &lastAccessed)
	if err == sql.ErrNoRows {
		return DecaySkipped, nil
	}
	if err != nil {
		return DecaySkipped, storageErr("decay read", err)
	}
	if pinned != 0 || lastAccessed >= cutoff {
		// Pinned, or accessed since the caller computed its candidate list.
		return DecaySkipped, nil
	}

	// Decay restarts from the last audit entry so repeated runs don't
	// double-charge the same days.
	since := lastAccessed + (now - cutoff) // moment the threshold was crossed
	var lastDecay sql.NullInt64
	err = tx.QueryRow(`
		SELECT MAX(decay_date) FROM decay_log WHERE pattern_id = ?
	`, id).Scan(&lastDecay)
	if err != nil {
		return DecaySkipped, storageErr("decay log read", err)
	}
	if lastDecay.Valid && lastDecay.Int64 > since {
		since = lastDecay.Int64
	}

	days := float64(now-since) / dayMillis
	if days < 1 {
		return DecaySkipped, nil
	}

	newConfidence := confidence * math.Pow(1-dailyRate, math.Floor(days))
	if newConfidence < 0 {
		newConfidence = 0
	}

	if newConfidence < floor {
		if _, err := tx.Exec("DELETE FROM patterns WHERE pattern_id = ?", id); err != nil {
			return DecaySkipped, storageErr("decay delete", err)
		}
		reason := fmt.Sprintf("deleted: decayed confidence %.3f below floor %.2f", newConfidence, floor)
		if err := appendDecayLog(tx, id, confidence, newConfidence, now, reason); err != nil {
			return DecaySkipped, err
		}
		if err := tx.Commit(); err != nil {
			return DecaySkipped, storageErr("decay commit", err)
		}
		return DecayDeleted, nil
	}

	if _, err := tx.Exec("UPDATE patterns SET confidence = ? WHERE pattern_id = ?", newConfidence, id); err != nil {
		return DecaySkipped, storageErr("decay update", err)
	}
	reason := fmt.Sprintf("inactivity decay: %.0f day(s) at %.1f%%/day", math.Floor(days), dailyRate*100)
	if err := appendDecayLog(tx, id, confidence, newConfidence, now, reason); err != nil {
		return DecaySkipped, err
	}
	if err := tx.Commit(); err != nil {
		return DecaySkipped, storageErr("decay commit", err)
	}
	return DecayReduced, nil
}

func appendDecayLog(tx *sql.Tx, id string, oldConf, newConf float64, date int64, reason string) error {
	_, err := tx.Exec(`
		INSERT INTO decay_log (pattern_id, old_confidence, new_confidence, decay_date, reason)
		VALUES (?, ?, ?, ?, ?)
	`, id, oldConf, newConf, date, reason)
	if err != nil {
		return storageErr("append decay log", err)
	}
	return nil
}

// DecayLogFor returns the audit trail for a pattern, oldest first.
func (db *DB) DecayLogFor(patternID string) ([]DecayLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, pattern_id, old_confidence, new_confidence, decay_date, reason
		FROM decay_log WHERE pattern_id = ?
		ORDER BY id
	`, patternID)
	if err != nil {
		return nil, storageErr("decay log", err)
	}
	defer rows.Close()

	var entries []DecayLogEntry
	for rows.Next() {
		var e DecayLogEntry
		if err := rows.Scan(&e.ID, &e.PatternID, &e.OldConfidence, &e.NewConfidence, &e.DecayDate, &e.Reason); err != nil {
			return nil, storageErr("scan decay log", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Now returns the current time in the millisecond epoch format every store
// timestamp uses. Split out so decay tests can pin time arithmetic.
func Now() int64 {
	return time.Now().UnixMilli()
}
