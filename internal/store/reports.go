package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/rapport/internal/engine"
)

// ErrReportNotFound is returned by DeleteReport for an unknown id.
var ErrReportNotFound = errors.New("report not found")

// ReportSummary is the list view of an archived report.
type ReportSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	GeneratedAt time.Time `json:"generated_at"`
	Ego         string    `json:"ego,omitempty"`
	Status      string    `json:"status"`
	Reasons     []string  `json:"reasons"`
	People      int       `json:"people"`
	Archetype   string    `json:"archetype,omitempty"`
	Targets     int       `json:"targets"`
}

// TargetRow is one archived warm path lookup.
type TargetRow struct {
	Target      string `json:"target"`
	ResolvedKey string `json:"resolved_key,omitempty"`
	Match       string `json:"match,omitempty"`
	Paths       int    `json:"paths"`
	Reason      string `json:"reason,omitempty"`
}

// SaveReport archives a report with its warm path lookups. Saving the same id
// twice fails.
func (db *DB) SaveReport(r *engine.Report) error {
	if r.ID == "" {
		return fmt.Errorf("save report: empty id")
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	reasons, err := json.Marshal(r.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO reports (id, created_at, generated_at, ego, status, reasons, people, archetype, body)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''), ?)
	`, r.ID, time.Now().UnixMilli(), r.GeneratedAt.UnixMilli(), r.Ego.Name, r.Status,
		string(reasons), r.Summary.People, r.Archetype.Label, string(body))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for label, res := range r.WarmPaths {
		_, err := tx.Exec(`
			INSERT INTO report_targets (report_id, target, resolved_key, match, paths, reason)
			VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''))
		`, r.ID, label, res.ResolvedKey, string(res.Match), len(res.Paths), res.Reason)
		if err != nil {
			return fmt.Errorf("insert target %q: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

// GetReport returns an archived report by id, or nil if not found.
func (db *DB) GetReport(id string) (*engine.Report, error) {
	var body string
	err := db.QueryRow(`SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	var r engine.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &r, nil
}

// ListReports returns the newest reports first. A limit <= 0 returns all.
func (db *DB) ListReports(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT r.id, r.created_at, r.generated_at, r.ego, r.status, r.reasons, r.people, r.archetype,
			(SELECT COUNT(*) FROM report_targets t WHERE t.report_id = r.id)
		FROM reports r
		ORDER BY r.created_at DESC, r.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var s ReportSummary
		var created, generated int64
		var ego, archetype sql.NullString
		var reasons string
		if err := rows.Scan(&s.ID, &created, &generated, &ego, &s.Status, &reasons, &s.People, &archetype, &s.Targets); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		s.CreatedAt = time.UnixMilli(created).UTC()
		s.GeneratedAt = time.UnixMilli(generated).UTC()
		s.Ego = ego.String
		s.Archetype = archetype.String
		if err := json.Unmarshal([]byte(reasons), &s.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons of %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReportTargets returns the warm path lookups archived with a report.
func (db *DB) ReportTargets(id string) ([]TargetRow, error) {
	rows, err := db.Query(`
		SELECT target, resolved_key, match, paths, reason
		FROM report_targets WHERE report_id = ? ORDER BY target
	`, id)
	if err != nil {
		return nil, fmt.Errorf("report targets: %w", err)
	}
	defer rows.Close()

	var out []TargetRow
	for rows.Next() {
		var t TargetRow
		var key, match, reason sql.NullString
		if err := rows.Scan(&t.Target, &key, &match, &t.Paths, &reason); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.ResolvedKey, t.Match, t.Reason = key.String, match.String, reason.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and its targets.
func (db *DB) DeleteReport(id string) error {
	res, err := db.Exec(`DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrReportNotFound)
	}
	return nil
}

// PruneReports keeps the newest keep reports and deletes the rest.
func (db *DB) PruneReports(keep int) (int, error) {
	res, err := db.Exec(`
		DELETE FROM reports WHERE id NOT IN (
			SELECT id FROM reports ORDER BY created_at DESC, id LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
