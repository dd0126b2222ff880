package store

import (
	"database/sql"
	"strings"
)

// SearchHit is a pattern with its lexical relevance score. Higher is better.
type SearchHit struct {
	Pattern `json:"pattern"`
	Score   float64 `json:"score"`
}

// SearchOpts controls SearchPatterns. A Limit <= 0 returns every match,
// which callers doing their own re-ranking rely on.
type SearchOpts struct {
	MinConfidence float64
	Scope         string
	Limit         int
}

// SearchPatterns runs a BM25-ranked full-text query over title+content.
// The index is maintained by triggers inside every write transaction, so
// from a committed-transaction perspective it never diverges from the
// patterns table.
func (db *DB) SearchPatterns(query string, opts SearchOpts) ([]SearchHit, error) {
	match := sanitizeFTSQuery(query)
	if match == "" {
		return nil, nil
	}

	q := `
		SELECT p.pattern_id, p.title, p.content, p.pattern_type, p.confidence,
			p.created_at, p.last_accessed, p.access_count, p.source, p.metadata,
			p.is_pinned, p.scope, p.namespaces,
			-bm25(patterns_fts) AS score
		FROM patterns_fts
		JOIN patterns p ON p.rowid = patterns_fts.rowid
		WHERE patterns_fts MATCH ?
		AND p.confidence >= ?`
	args := []any{match, opts.MinConfidence}
	if opts.Scope != "" {
		q += " AND p.scope = ?"
		args = append(args, opts.Scope)
	}
	q += " ORDER BY score DESC, p.confidence DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, storageErr("search patterns", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var source, metadata sql.NullString
		var nsJSON string
		var pinned int
		if err := rows.Scan(&h.ID, &h.Title, &h.Content, &h.Type, &h.Confidence,
			&h.CreatedAt, &h.LastAccessed, &h.AccessCount, &source, &metadata,
			&pinned, &h.Scope, &nsJSON, &h.Score); err != nil {
			return nil, storageErr("scan search hit", err)
		}
		h.Source = source.String
		h.Pinned = pinned != 0
		if err := decodeJSONColumns(&h.Pattern, metadata.String, nsJSON); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// sanitizeFTSQuery quotes each term so FTS5 operators ("and", "or", "not",
// "*", "-") in user input are treated as literals.
func sanitizeFTSQuery(query string) string {
	words := strings.Fields(query)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		clean := strings.Map(func(r rune) rune {
			if r == '"' {
				return -1
			}
			return r
		}, w)
		if clean != "" {
			quoted = append(quoted, `"`+clean+`"`)
		}
	}
	return strings.Join(quoted, " ")
}
