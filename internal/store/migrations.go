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
		Description: "reports: archived analysis results",
		SQL: `
CREATE TABLE reports (
    id           TEXT PRIMARY KEY,
    created_at   INTEGER NOT NULL,
    generated_at INTEGER NOT NULL,
    ego          TEXT,
    status       TEXT NOT NULL CHECK (status IN ('ok', 'degraded', 'empty')),
    reasons      TEXT NOT NULL DEFAULT '[]',
    people       INTEGER NOT NULL DEFAULT 0,
    archetype    TEXT,
    body         TEXT NOT NULL
);

CREATE INDEX idx_reports_created ON reports(created_at DESC);
CREATE INDEX idx_reports_status  ON reports(status);
`,
	},
	{
		Version:     2,
		Description: "report_targets: warm path lookups per report",
		SQL: `
CREATE TABLE report_targets (
    report_id    TEXT NOT NULL,
    target       TEXT NOT NULL,
    resolved_key TEXT,
    match        TEXT,
    paths        INTEGER NOT NULL DEFAULT 0,
    reason       TEXT,

    PRIMARY KEY (report_id, target),
    FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
);

CREATE INDEX idx_targets_key ON report_targets(resolved_key);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
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
