// Package storemeta durably tracks namespace preparation bookkeeping
// (when a namespace was last prepared, how many chunks it holds), grounded
// on the teacher's internal/telemetry SQLite store (schema-in-string,
// sql.DB, upsert-on-conflict pattern) and using the teacher's own
// pure-Go sqlite driver choice instead of its cgo one, per
// DESIGN.md's "Dropped teacher dependencies" entry for mattn/go-sqlite3.
package storemeta

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed record of every namespace this process (or a
// prior run of it) has prepared.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS namespace_preparations (
	tenant_id    TEXT NOT NULL,
	scenario_id  TEXT NOT NULL,
	parsed       INTEGER NOT NULL,
	indexed      INTEGER NOT NULL,
	total_time_ms INTEGER NOT NULL,
	prepared_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (tenant_id, scenario_id)
);
`

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storemeta: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storemeta: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordPreparation upserts the latest PrepareNamespace result for a
// namespace.
func (s *Store) RecordPreparation(tenantID, scenarioID string, parsed, indexed int, totalTimeMs int64, preparedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO namespace_preparations (tenant_id, scenario_id, parsed, indexed, total_time_ms, prepared_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, scenario_id) DO UPDATE SET
			parsed = excluded.parsed,
			indexed = excluded.indexed,
			total_time_ms = excluded.total_time_ms,
			prepared_at = excluded.prepared_at
	`, tenantID, scenarioID, parsed, indexed, totalTimeMs, preparedAt)
	if err != nil {
		return fmt.Errorf("storemeta: record preparation: %w", err)
	}
	return nil
}

// Preparation is one namespace's last-known preparation bookkeeping.
type Preparation struct {
	TenantID    string
	ScenarioID  string
	Parsed      int
	Indexed     int
	TotalTimeMs int64
	PreparedAt  time.Time
}

// LastPreparation returns the most recent preparation record for a
// namespace, or false if it has never been prepared.
func (s *Store) LastPreparation(tenantID, scenarioID string) (Preparation, bool, error) {
	row := s.db.QueryRow(`
		SELECT tenant_id, scenario_id, parsed, indexed, total_time_ms, prepared_at
		FROM namespace_preparations
		WHERE tenant_id = ? AND scenario_id = ?
	`, tenantID, scenarioID)

	var p Preparation
	if err := row.Scan(&p.TenantID, &p.ScenarioID, &p.Parsed, &p.Indexed, &p.TotalTimeMs, &p.PreparedAt); err != nil {
		if err == sql.ErrNoRows {
			return Preparation{}, false, nil
		}
		return Preparation{}, false, fmt.Errorf("storemeta: query preparation: %w", err)
	}
	return p, true, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
