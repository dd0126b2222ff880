package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "patterns: core pattern table",
		SQL: `
CREATE TABLE patterns (
    pattern_id    TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    content       TEXT NOT NULL,
    pattern_type  TEXT NOT NULL CHECK (pattern_type IN ('workflow', 'principle', 'anti_pattern', 'solution', 'context')),
    confidence    REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
    created_at    INTEGER NOT NULL,
    last_accessed INTEGER NOT NULL,
    access_count  INTEGER NOT NULL DEFAULT 0,
    source        TEXT,
    metadata      TEXT,
    is_pinned     INTEGER NOT NULL DEFAULT 0,
    scope         TEXT NOT NULL DEFAULT 'generic' CHECK (scope IN ('generic', 'application')),
    namespaces    TEXT NOT NULL
);

CREATE INDEX idx_patterns_type          ON patterns(pattern_type);
CREATE INDEX idx_patterns_confidence    ON patterns(confidence DESC);
CREATE INDEX idx_patterns_last_accessed ON patterns(last_accessed DESC);
`,
	},
	{
		Version:     2,
		Description: "relationships: directed typed weighted edges",
		SQL: `
CREATE TABLE relationships (
    id                INTEGER PRIMARY KEY,
    from_pattern      TEXT NOT NULL REFERENCES patterns(pattern_id) ON DELETE CASCADE,
    to_pattern        TEXT NOT NULL REFERENCES patterns(pattern_id) ON DELETE CASCADE,
    relationship_type TEXT NOT NULL CHECK (relationship_type IN ('extends', 'relates_to', 'contradicts', 'supersedes')),
    strength          REAL NOT NULL CHECK (strength >= 0.0 AND strength <= 1.0),
    created_at        INTEGER NOT NULL,
    CHECK (from_pattern != to_pattern),
    UNIQUE (from_pattern, to_pattern, relationship_type)
);

CREATE INDEX idx_rel_from ON relationships(from_pattern);
CREATE INDEX idx_rel_to   ON relationships(to_pattern);
`,
	},
	{
		Version:     3,
		Description: "tags: normalized many-to-many tag associations",
		SQL: `
CREATE TABLE tags (
    pattern_id TEXT NOT NULL REFERENCES patterns(pattern_id) ON DELETE CASCADE,
    tag        TEXT NOT NULL,
    PRIMARY KEY (pattern_id, tag)
);

CREATE INDEX idx_tags_tag ON tags(tag);
`,
	},
	{
		Version:     4,
		Description: "decay_log: append-only confidence decay audit trail",
		SQL: `
CREATE TABLE decay_log (
    id             INTEGER PRIMARY KEY,
    pattern_id     TEXT NOT NULL,
    old_confidence REAL NOT NULL,
    new_confidence REAL NOT NULL,
    decay_date     INTEGER NOT NULL,
    reason         TEXT NOT NULL
);

CREATE INDEX idx_decay_pattern ON decay_log(pattern_id);
CREATE INDEX idx_decay_date    ON decay_log(decay_date DESC);
`,
	},
	{
		Version:     5,
		Description: "patterns_fts: full-text index over title+content with sync triggers",
		SQL: `
CREATE VIRTUAL TABLE patterns_fts USING fts5(
    title,
    content,
    content=patterns,
    content_rowid=rowid,
    tokenize='porter unicode61'
);

CREATE TRIGGER patterns_fts_ai AFTER INSERT ON patterns BEGIN
    INSERT INTO patterns_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;

CREATE TRIGGER patterns_fts_ad AFTER DELETE ON patterns BEGIN
    INSERT INTO patterns_fts(patterns_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
END;

CREATE TRIGGER patterns_fts_au AFTER UPDATE OF title, content ON patterns BEGIN
    INSERT INTO patterns_fts(patterns_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
    INSERT INTO patterns_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;
`,
	},
}

// Migrate applies any pending migrations. A no-op when the schema is
// already current.
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
