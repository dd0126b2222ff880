package store

import (
	"fmt"
	"strings"
	"time"
)

// Relationship type values.
const (
	RelExtends     = "extends"
	RelRelatesTo   = "relates_to"
	RelContradicts = "contradicts"
	RelSupersedes  = "supersedes"
)

var validRelTypes = map[string]bool{
	RelExtends:     true,
	RelRelatesTo:   true,
	RelContradicts: true,
	RelSupersedes:  true,
}

// Edge is a directed, typed, weighted relationship between two patterns.
type Edge struct {
	ID        int64   `json:"id"`
	From      string  `json:"from_pattern"`
	To        string  `json:"to_pattern"`
	Type      string  `json:"relationship_type"`
	Strength  float64 `json:"strength"`
	CreatedAt int64   `json:"created_at"`
}

// Direction selects which edges EdgesFor returns.
type Direction string

const (
	DirOutgoing Direction = "outgoing"
	DirIncoming Direction = "incoming"
	DirBoth     Direction = "both"
)

// CreateEdge inserts a relationship. Self-loops, missing endpoints, duplicate
// (from, to, type) triples and out-of-range strengths are each rejected with
// a distinct error, and nothing is written.
func (db *DB) CreateEdge(from, to, relType string, strength float64) (*Edge, error) {
	if !validRelTypes[relType] {
		return nil, &ValidationError{Field: "relationship_type", Reason: fmt.Sprintf("unknown type %q", relType)}
	}
	if strength < 0.0 || strength > 1.0 {
		return nil, &ValidationError{Field: "strength", Reason: fmt.Sprintf("%v outside [0.0, 1.0]", strength)}
	}
	if from == to {
		return nil, fmt.Errorf("edge %s->%s: %w", from, to, ErrSelfLoop)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("create edge", err)
	}
	defer tx.Rollback()

	// Verify endpoints inside the transaction so a concurrent delete cannot
	// slip between the check and the insert.
	for _, id := range []string{from, to} {
		var n int
		if err := tx.QueryRow("SELECT COUNT(*) FROM patterns WHERE pattern_id = ?", id).Scan(&n); err != nil {
			return nil, storageErr("check endpoint", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("pattern %q: %w", id, ErrEndpointNotFound)
		}
	}

	now := time.Now().UnixMilli()
	res, err := tx.Exec(`
		INSERT INTO relationships (from_pattern, to_pattern, relationship_type, strength, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, from, to, relType, strength, now)
	if err != nil {
		if isUniqueViolation(err, "relationships.") {
			return nil, fmt.Errorf("edge %s-%s->%s: %w", from, relType, to, ErrDuplicateEdge)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("edge %s->%s: %w", from, to, ErrEndpointNotFound)
		}
		return nil, storageErr("create edge", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("create edge commit", err)
	}

	id, _ := res.LastInsertId()
	return &Edge{ID: id, From: from, To: to, Type: relType, Strength: strength, CreatedAt: now}, nil
}

// EdgesFor returns the edges touching a pattern in the given direction,
// strongest first.
func (db *DB) EdgesFor(id string, dir Direction) ([]Edge, error) {
	var cond string
	args := []any{id}
	switch dir {
	case DirOutgoing:
		cond = "from_pattern = ?"
	case DirIncoming:
		cond = "to_pattern = ?"
	case DirBoth:
		cond = "(from_pattern = ? OR to_pattern = ?)"
		args = append(args, id)
	default:
		return nil, &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", dir)}
	}

	rows, err := db.Query(`
		SELECT id, from_pattern, to_pattern, relationship_type, strength, created_at
		FROM relationships WHERE `+cond+`
		ORDER BY strength DESC, id
	`, args...)
	if err != nil {
		return nil, storageErr("edges for", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.Type, &e.Strength, &e.CreatedAt); err != nil {
			return nil, storageErr("scan edge", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// OutgoingEdges returns outgoing edges from id, optionally filtered to a set
// of relationship types. Used by traversal.
func (db *DB) OutgoingEdges(id string, relTypes []string) ([]Edge, error) {
	q := `
		SELECT id, from_pattern, to_pattern, relationship_type, strength, created_at
		FROM relationships WHERE from_pattern = ?`
	args := []any{id}
	if len(relTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(relTypes)), ",")
		q += " AND relationship_type IN (" + placeholders + ")"
		for _, t := range relTypes {
			args = append(args, t)
		}
	}
	q += " ORDER BY strength DESC, id"

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, storageErr("outgoing edges", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.Type, &e.Strength, &e.CreatedAt); err != nil {
			return nil, storageErr("scan edge", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// DeleteEdge removes a single edge by its (from, to, type) identity.
func (db *DB) DeleteEdge(from, to, relType string) (bool, error) {
	res, err := db.Exec(`
		DELETE FROM relationships
		WHERE from_pattern = ? AND to_pattern = ? AND relationship_type = ?
	`, from, to, relType)
	if err != nil {
		return false, storageErr("delete edge", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
