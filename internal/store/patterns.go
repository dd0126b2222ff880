package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Pattern type values.
const (
	TypeWorkflow    = "workflow"
	TypePrinciple   = "principle"
	TypeAntiPattern = "anti_pattern"
	TypeSolution    = "solution"
	TypeContext     = "context"
)

// Pattern scope values.
const (
	ScopeGeneric     = "generic"
	ScopeApplication = "application"
)

var validTypes = map[string]bool{
	TypeWorkflow:    true,
	TypePrinciple:   true,
	TypeAntiPattern: true,
	TypeSolution:    true,
	TypeContext:     true,
}

var validScopes = map[string]bool{
	ScopeGeneric:     true,
	ScopeApplication: true,
}

// Pattern is a stored unit of reusable knowledge.
//
// ID, CreatedAt and Type are immutable after creation; the update path drops
// them from its allow-list. Namespaces is ordered and non-empty — the first
// entry is the pattern's primary namespace and decides write authorization.
type Pattern struct {
	ID           string         `json:"pattern_id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Type         string         `json:"pattern_type"`
	Confidence   float64        `json:"confidence"`
	CreatedAt    int64          `json:"created_at"`
	LastAccessed int64          `json:"last_accessed"`
	AccessCount  int            `json:"access_count"`
	Source       string         `json:"source,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Pinned       bool           `json:"is_pinned"`
	Scope        string         `json:"scope"`
	Namespaces   []string       `json:"namespaces"`
}

// PrimaryNamespace returns the first (owning) namespace, or "".
func (p *Pattern) PrimaryNamespace() string {
	if len(p.Namespaces) == 0 {
		return ""
	}
	return p.Namespaces[0]
}

// ListFilter narrows ListPatterns. Zero values mean "no filter".
type ListFilter struct {
	Type          string
	Scope         string
	MinConfidence float64
	Limit         int
}

func validatePattern(p *Pattern) error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "pattern_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !validTypes[p.Type] {
		return &ValidationError{Field: "pattern_type", Reason: fmt.Sprintf("unknown type %q", p.Type)}
	}
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return &ValidationError{Field: "confidence", Reason: fmt.Sprintf("%v outside [0.0, 1.0]", p.Confidence)}
	}
	if p.Scope == "" {
		p.Scope = ScopeGeneric
	}
	if !validScopes[p.Scope] {
		return &ValidationError{Field: "scope", Reason: fmt.Sprintf("unknown scope %q", p.Scope)}
	}
	if len(p.Namespaces) == 0 || strings.TrimSpace(p.Namespaces[0]) == "" {
		return &ValidationError{Field: "namespaces", Reason: "at least one namespace is required"}
	}
	return nil
}

func marshalJSONField(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreatePattern validates and inserts a new pattern. The row and its
// full-text index entry commit in one transaction (the FTS triggers fire
// inside the insert's transaction). A duplicate id fails with ErrDuplicateID
// and never partially writes.
func (db *DB) CreatePattern(p *Pattern) error {
	if err := validatePattern(p); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	nsJSON, err := marshalJSONField(p.Namespaces)
	if err != nil {
		return &ValidationError{Field: "namespaces", Reason: err.Error()}
	}
	metaJSON, err := marshalJSONField(p.Metadata)
	if err != nil {
		return &ValidationError{Field: "metadata", Reason: err.Error()}
	}

	pinned := 0
	if p.Pinned {
		pinned = 1
	}

	_, err = db.Exec(`
		INSERT INTO patterns (pattern_id, title, content, pattern_type, confidence,
			created_at, last_accessed, access_count, source, metadata, is_pinned, scope, namespaces)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)
	`, p.ID, p.Title, p.Content, p.Type, p.Confidence,
		now, now, p.Source, metaJSON, pinned, p.Scope, nsJSON)
	if err != nil {
		if isUniqueViolation(err, "patterns.pattern_id") {
			return fmt.Errorf("pattern %q: %w", p.ID, ErrDuplicateID)
		}
		return storageErr("create pattern", err)
	}

	p.CreatedAt = now
	p.LastAccessed = now
	p.AccessCount = 0
	return nil
}

// GetPattern returns a pattern by id, or nil if not found. A hit increments
// access_count and refreshes last_accessed in the same transaction as the
// read, so concurrent readers never lose an increment.
func (db *DB) GetPattern(id string) (*Pattern, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("get pattern", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	res, err := tx.Exec(`
		UPDATE patterns SET access_count = access_count + 1, last_accessed = ?
		WHERE pattern_id = ?
	`, now, id)
	if err != nil {
		return nil, storageErr("touch pattern", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	p, err := scanPattern(tx.QueryRow(selectPattern+" WHERE pattern_id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("get pattern commit", err)
	}
	return p, nil
}

// PeekPattern returns a pattern without touching its access metadata. Used by
// decay, traversal and the inspection surfaces, which must not count as use.
func (db *DB) PeekPattern(id string) (*Pattern, error) {
	p, err := scanPattern(db.QueryRow(selectPattern+" WHERE pattern_id = ?", id))
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

// updatableColumns is the allow-list for UpdatePattern. pattern_id,
// created_at and pattern_type are permanently excluded; access metadata moves
// only through GetPattern.
var updatableColumns = map[string]bool{
	"title":      true,
	"content":    true,
	"confidence": true,
	"source":     true,
	"metadata":   true,
	"is_pinned":  true,
	"scope":      true,
	"namespaces": true,
}

// UpdatePattern applies an allow-listed field map to a pattern. Deny-listed
// and unknown fields are silently dropped. Returns false when nothing remains
// to update or the pattern does not exist.
func (db *DB) UpdatePattern(id string, fields map[string]any) (bool, error) {
	var sets []string
	var args []any

	for col, val := range fields {
		if !updatableColumns[col] {
			continue
		}
		switch col {
		case "confidence":
			c, ok := toFloat(val)
			if !ok || c < 0.0 || c > 1.0 {
				return false, &ValidationError{Field: "confidence", Reason: fmt.Sprintf("%v outside [0.0, 1.0]", val)}
			}
			sets = append(sets, "confidence = ?")
			args = append(args, c)
		case "scope":
			s, _ := val.(string)
			if !validScopes[s] {
				return false, &ValidationError{Field: "scope", Reason: fmt.Sprintf("unknown scope %q", val)}
			}
			sets = append(sets, "scope = ?")
			args = append(args, s)
		case "is_pinned":
			b, ok := val.(bool)
			if !ok {
				return false, &ValidationError{Field: "is_pinned", Reason: "must be a bool"}
			}
			pinned := 0
			if b {
				pinned = 1
			}
			sets = append(sets, "is_pinned = ?")
			args = append(args, pinned)
		case "namespaces":
			ns, ok := val.([]string)
			if !ok || len(ns) == 0 || strings.TrimSpace(ns[0]) == "" {
				return false, &ValidationError{Field: "namespaces", Reason: "at least one namespace is required"}
			}
			nsJSON, err := marshalJSONField(ns)
			if err != nil {
				return false, &ValidationError{Field: "namespaces", Reason: err.Error()}
			}
			sets = append(sets, "namespaces = ?")
			args = append(args, nsJSON)
		case "metadata":
			m, ok := val.(map[string]any)
			if !ok && val != nil {
				return false, &ValidationError{Field: "metadata", Reason: "must be a map"}
			}
			metaJSON, err := marshalJSONField(m)
			if err != nil {
				return false, &ValidationError{Field: "metadata", Reason: err.Error()}
			}
			sets = append(sets, "metadata = NULLIF(?, '')")
			args = append(args, metaJSON)
		default: // title, content, source
			s, ok := val.(string)
			if !ok {
				return false, &ValidationError{Field: col, Reason: "must be a string"}
			}
			sets = append(sets, col+" = ?")
			args = append(args, s)
		}
	}

	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	res, err := db.Exec("UPDATE patterns SET "+strings.Join(sets, ", ")+" WHERE pattern_id = ?", args...)
	if err != nil {
		return false, storageErr("update pattern", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePattern removes a pattern. Edges, tags and the full-text entry go
// with it in the same transaction via cascades and triggers. Returns false
// if the pattern does not exist.
func (db *DB) DeletePattern(id string) (bool, error) {
	res, err := db.Exec("DELETE FROM patterns WHERE pattern_id = ?", id)
	if err != nil {
		return false, storageErr("delete pattern", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListPatterns returns patterns matching the filter, ordered by confidence
// DESC then last_accessed DESC.
func (db *DB) ListPatterns(f ListFilter) ([]Pattern, error) {
	var conds []string
	var args []any
	if f.Type != "" {
		conds = append(conds, "pattern_type = ?")
		args = append(args, f.Type)
	}
	if f.Scope != "" {
		conds = append(conds, "scope = ?")
		args = append(args, f.Scope)
	}
	if f.MinConfidence > 0 {
		conds = append(conds, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}

	q := selectPattern
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY confidence DESC, last_accessed DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, storageErr("list patterns", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// CountPatterns returns the total number of stored patterns.
func (db *DB) CountPatterns() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM patterns").Scan(&n)
	return n, err
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

const selectPattern = `
	SELECT pattern_id, title, content, pattern_type, confidence,
		created_at, last_accessed, access_count, source, metadata, is_pinned, scope, namespaces
	FROM patterns`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*Pattern, error) {
	var p Pattern
	var source, metadata sql.NullString
	var nsJSON string
	var pinned int
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Type, &p.Confidence,
		&p.CreatedAt, &p.LastAccessed, &p.AccessCount, &source, &metadata, &pinned, &p.Scope, &nsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("scan pattern", err)
	}
	p.Source = source.String
	p.Pinned = pinned != 0
	if err := decodeJSONColumns(&p, metadata.String, nsJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeJSONColumns(p *Pattern, metadata, nsJSON string) error {
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
			return storageErr("decode metadata", err)
		}
	}
	if err := json.Unmarshal([]byte(nsJSON), &p.Namespaces); err != nil {
		return storageErr("decode namespaces", err)
	}
	return nil
}

func scanPatterns(rows *sql.Rows) ([]Pattern, error) {
	var patterns []Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate patterns", err)
	}
	return patterns, nil
}
