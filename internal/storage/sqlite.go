package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/21mScot/sitecast/internal/catalogue"
)

// SQLiteStorage persists miner catalogues and saved analysis runs
type SQLiteStorage struct {
	db *sql.DB
}

// parseTimestamp parses a timestamp string from SQLite in multiple formats.
// All timestamps are stored in UTC.
func parseTimestamp(s string) time.Time {
	// Try RFC3339 first (modernc/sqlite driver converts DATETIME columns to this format)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	// Fallback to simple format (stored as UTC)
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// NewSQLiteStorage opens a SQLite database at the given path,
// runs migrations, and enables WAL mode
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit to single connection to avoid SQLite locking issues
	db.SetMaxOpenConns(1)

	// Set busy timeout to 5 seconds to handle concurrent writes
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates the necessary tables and indexes
func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalogue_miners (
		variant TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		hashrate_ths REAL NOT NULL,
		power_w REAL NOT NULL,
		price_usd REAL NOT NULL,
		supplier TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (variant, name)
	);

	CREATE INDEX IF NOT EXISTS idx_catalogue_variant_position ON catalogue_miners(variant, position);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		variant TEXT NOT NULL DEFAULT '',
		miner_name TEXT NOT NULL DEFAULT '',
		n_miners INTEGER NOT NULL DEFAULT 0,
		capex_usd REAL NOT NULL DEFAULT 0,
		npv_base REAL NOT NULL DEFAULT 0,
		irr_base REAL,
		simple_payback_base REAL,
		request_json TEXT NOT NULL DEFAULT '',
		result_json TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SeedCatalogue inserts a built-in catalogue variant unless that variant
// already has rows, so operator edits survive restarts
func (s *SQLiteStorage) SeedCatalogue(variant catalogue.Variant, miners []catalogue.Miner) error {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM catalogue_miners WHERE variant = ?", string(variant)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count catalogue rows: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.ReplaceCatalogue(variant, miners)
}

// ReplaceCatalogue replaces the stored catalogue for a variant wholesale,
// preserving list order via the position column
func (s *SQLiteStorage) ReplaceCatalogue(variant catalogue.Variant, miners []catalogue.Miner) error {
	if err := catalogue.Validate(miners); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM catalogue_miners WHERE variant = ?", string(variant)); err != nil {
		return fmt.Errorf("failed to clear catalogue: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO catalogue_miners (variant, name, position, hashrate_ths, power_w, price_usd, supplier)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range miners {
		if _, err := stmt.Exec(string(variant), m.Name, i, m.HashrateTHs, m.PowerW, m.PriceUSD, m.Supplier); err != nil {
			return fmt.Errorf("failed to insert miner %q: %w", m.Name, err)
		}
	}

	return tx.Commit()
}

// GetCatalogue returns the stored catalogue for a variant in its original
// list order
func (s *SQLiteStorage) GetCatalogue(variant catalogue.Variant) ([]catalogue.Miner, error) {
	rows, err := s.db.Query(`
		SELECT name, hashrate_ths, power_w, price_usd, supplier
		FROM catalogue_miners WHERE variant = ? ORDER BY position`, string(variant))
	if err != nil {
		return nil, fmt.Errorf("failed to query catalogue: %w", err)
	}
	defer rows.Close()

	var miners []catalogue.Miner
	for rows.Next() {
		var m catalogue.Miner
		if err := rows.Scan(&m.Name, &m.HashrateTHs, &m.PowerW, &m.PriceUSD, &m.Supplier); err != nil {
			return nil, fmt.Errorf("failed to scan miner: %w", err)
		}
		miners = append(miners, m)
	}
	return miners, rows.Err()
}

// SaveRun persists an analysis run and assigns its ID
func (s *SQLiteStorage) SaveRun(run *Run) error {
	res, err := s.db.Exec(`
		INSERT INTO runs (created_at, variant, miner_name, n_miners, capex_usd,
			npv_base, irr_base, simple_payback_base, request_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Variant, run.MinerName, run.NMiners, run.CapexUSD,
		run.NPVBase, run.IRRBase, run.SimplePaybackBase,
		run.RequestJSON, run.ResultJSON)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return nil
}

// GetRuns returns the most recent run summaries, newest first
func (s *SQLiteStorage) GetRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, variant, miner_name, n_miners, capex_usd,
			npv_base, irr_base, simple_payback_base
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt string
		if err := rows.Scan(&r.ID, &createdAt, &r.Variant, &r.MinerName, &r.NMiners,
			&r.CapexUSD, &r.NPVBase, &r.IRRBase, &r.SimplePaybackBase); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = parseTimestamp(createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a full run, including request and result payloads.
// Returns (nil, nil) when the run doesn't exist
func (s *SQLiteStorage) GetRun(id int64) (*Run, error) {
	var r Run
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, created_at, variant, miner_name, n_miners, capex_usd,
			npv_base, irr_base, simple_payback_base, request_json, result_json
		FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &createdAt, &r.Variant, &r.MinerName, &r.NMiners, &r.CapexUSD,
		&r.NPVBase, &r.IRRBase, &r.SimplePaybackBase, &r.RequestJSON, &r.ResultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return &r, nil
}

// DeleteRun removes a saved run
func (s *SQLiteStorage) DeleteRun(id int64) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

// PurgeOldRuns deletes runs older than the given number of days and returns
// how many were removed
func (s *SQLiteStorage) PurgeOldRuns(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	res, err := s.db.Exec("DELETE FROM runs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge runs: %w", err)
	}
	return res.RowsAffected()
}

// Vacuum reclaims disk space after purges
func (s *SQLiteStorage) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
