package store

import (
	"strings"
)

// TagCount pairs a tag with how many patterns carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// NormalizeTag lowercases, trims, and hyphenates a tag. The same
// normalization runs on add and on lookup so "Code Review" and
// "code-review" are the same tag.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	var b strings.Builder
	prevHyphen := false
	for _, r := range tag {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '.' || r == '/':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
		// Other characters are dropped.
	}
	return strings.Trim(b.String(), "-")
}

// AddTag associates a normalized tag with a pattern. Returns false if the
// tag is already present (or normalizes to nothing, or the pattern does not
// exist).
func (db *DB) AddTag(patternID, tag string) (bool, error) {
	tag = NormalizeTag(tag)
	if tag == "" {
		return false, nil
	}

	res, err := db.Exec("INSERT OR IGNORE INTO tags (pattern_id, tag) VALUES (?, ?)", patternID, tag)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, nil
		}
		return false, storageErr("add tag", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RemoveTag removes a tag association. Returns false if it was not present.
func (db *DB) RemoveTag(patternID, tag string) (bool, error) {
	res, err := db.Exec("DELETE FROM tags WHERE pattern_id = ? AND tag = ?", patternID, NormalizeTag(tag))
	if err != nil {
		return false, storageErr("remove tag", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetTags returns a pattern's tags, sorted.
func (db *DB) GetTags(patternID string) ([]string, error) {
	rows, err := db.Query("SELECT tag FROM tags WHERE pattern_id = ? ORDER BY tag", patternID)
	if err != nil {
		return nil, storageErr("get tags", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, storageErr("scan tag", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// PatternsByTag returns patterns carrying the tag, filtered by minimum
// confidence, ordered confidence DESC.
func (db *DB) PatternsByTag(tag string, minConfidence float64, limit int) ([]Pattern, error) {
	q := selectPattern + `
		WHERE pattern_id IN (SELECT pattern_id FROM tags WHERE tag = ?)
		AND confidence >= ?
		ORDER BY confidence DESC, last_accessed DESC`
	args := []any{NormalizeTag(tag), minConfidence}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, storageErr("patterns by tag", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// ListAllTags returns every tag with its usage count, most used first.
func (db *DB) ListAllTags() ([]TagCount, error) {
	rows, err := db.Query(`
		SELECT tag, COUNT(*) AS n FROM tags
		GROUP BY tag
		ORDER BY n DESC, tag
	`)
	if err != nil {
		return nil, storageErr("list tags", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, storageErr("scan tag count", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
