package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SnapshotCache persists a JSON-encoded projection snapshot per run, as
// the optimization described in §3 "Persistence" and §4.1: the event
// log remains the ground truth, and a missing or corrupt snapshot must
// fall back to full log replay (handled by Store.Open, not here).
//
// The connection setup (single pooled connection, WAL journal mode,
// busy timeout, foreign keys on) follows the same idiom the teacher's
// sqlite-backed state store used; this cache needs only one table, so
// there is no versioned migration runner — schema init is a single
// unconditional CREATE TABLE IF NOT EXISTS.
type SnapshotCache struct {
	db *sql.DB
}

// OpenSnapshotCache opens (creating if necessary) the sqlite database
// at dbPath used for run-projection snapshots.
func OpenSnapshotCache(dbPath string) (*SnapshotCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open snapshot db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping snapshot db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS run_snapshots (
			run_id     TEXT PRIMARY KEY,
			seq        INTEGER NOT NULL,
			snapshot   BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`); err != nil {
		return nil, fmt.Errorf("store: create run_snapshots: %w", err)
	}

	return &SnapshotCache{db: db}, nil
}

// snapshotDoc is the JSON shape written to the snapshot blob; it omits
// Run Store-internal bookkeeping and keeps exactly what Apply needs to
// resume folding from.
type snapshotDoc struct {
	Projection Projection `json:"projection"`
}

// Save writes the projection for runID, tagged with seq (the number of
// events already folded into it). Save errors are warnings to the
// caller (Store.Publish), never fatal.
func (c *SnapshotCache) Save(runID string, seq int, p *Projection) error {
	data, err := json.Marshal(snapshotDoc{Projection: *p})
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT INTO run_snapshots (run_id, seq, snapshot, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(run_id) DO UPDATE SET seq=excluded.seq, snapshot=excluded.snapshot, updated_at=excluded.updated_at
	`, runID, seq, data)
	if err != nil {
		return fmt.Errorf("store: write snapshot for %s: %w", runID, err)
	}
	return nil
}

// Load returns the cached projection and the event-log sequence number
// it reflects. It returns (nil, 0, nil) if there is no cached snapshot,
// and a non-nil error only for a genuinely corrupt record (callers
// should fall back to full replay either way).
func (c *SnapshotCache) Load(runID string) (*Projection, int, error) {
	var seq int
	var data []byte
	err := c.db.QueryRow(`SELECT seq, snapshot FROM run_snapshots WHERE run_id = ?`, runID).Scan(&seq, &data)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("store: load snapshot for %s: %w", runID, err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("store: corrupt snapshot for %s: %w", runID, err)
	}
	return &doc.Projection, seq, nil
}

// Delete removes a run's cached snapshot, used by run deletion cascade.
func (c *SnapshotCache) Delete(runID string) error {
	_, err := c.db.Exec(`DELETE FROM run_snapshots WHERE run_id = ?`, runID)
	return err
}

// Close closes the underlying database handle.
func (c *SnapshotCache) Close() error {
	return c.db.Close()
}
