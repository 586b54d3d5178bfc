package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// dbFileName is the SQLite database file name inside the data directory.
const dbFileName = "proxyharvest.db"

// timeLayout is the format run timestamps are stored in (UTC). It matches
// SQLite's default datetime text form, so stored values order correctly
// under both string comparison and SQLite's datetime functions.
const timeLayout = "2006-01-02 15:04:05"

// HarvestDB provides SQLite-based storage for harvest run history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We keep one database file for all runs rather than one
// file per run. Run comparison is a cross-run query, and a single file
// keeps backup and cleanup trivial.
type HarvestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HarvestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HarvestDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HarvestDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw refuses to create a new
	// file, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids lock
	// contention between the save path and history queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HarvestDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HarvestDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HarvestDB) createTables() error {
	schema := `
	-- One row per completed harvest run, with the full report as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		repo_count INTEGER NOT NULL,
		proxy_count INTEGER NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per proxy per run, for set queries across runs
	CREATE TABLE IF NOT EXISTS run_proxies (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		proxy TEXT NOT NULL,
		PRIMARY KEY (run_id, proxy)
	);

	CREATE INDEX IF NOT EXISTS idx_run_proxies_proxy ON run_proxies(proxy);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata summarizes one stored run without its proxy list.
// This is used for run history listings where loading full reports would
// be wasteful.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run finished or was interrupted.
	FinishedAt time.Time

	// RepoCount is the number of repositories in the run's input list.
	RepoCount int

	// ProxyCount is the number of unique proxies the run collected.
	ProxyCount int

	// Interrupted is true when the run was cut short by cancellation.
	Interrupted bool
}

// SaveRun stores a completed run and its proxy set, returning the new
// run's ID. The runs row and the per-proxy rows are written in one
// transaction, so a stored run is always complete.
func (hdb *HarvestDB) SaveRun(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, repo_count, proxy_count, interrupted, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.RepoCount,
		report.ProxyCount(),
		report.Interrupted,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO run_proxies (run_id, proxy) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare proxy insert: %w", err)
	}
	defer stmt.Close()

	for _, proxy := range report.Proxies {
		if _, err := stmt.ExecContext(ctx, runID, proxy.String()); err != nil {
			return 0, fmt.Errorf("failed to insert proxy %s: %w", proxy, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// LatestRuns returns metadata for the most recent runs, newest first.
// A non-positive limit returns all runs.
func (hdb *HarvestDB) LatestRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, started_at, finished_at, repo_count, proxy_count, interrupted
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		meta, err := scanRunMetadata(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun returns metadata for a single run, or nil when no run has the
// given ID.
func (hdb *HarvestDB) GetRun(ctx context.Context, id int64) (*RunMetadata, error) {
	row := hdb.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, repo_count, proxy_count, interrupted
	FROM runs
	WHERE id = ?
	`, id)

	meta, err := scanRunMetadata(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// FirstRunSince returns the oldest run that started at or after the given
// time, or nil when no run qualifies.
func (hdb *HarvestDB) FirstRunSince(ctx context.Context, since time.Time) (*RunMetadata, error) {
	row := hdb.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, repo_count, proxy_count, interrupted
	FROM runs
	WHERE started_at >= ?
	ORDER BY id ASC
	LIMIT 1
	`, since.UTC().Format(timeLayout))

	meta, err := scanRunMetadata(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// RunProxies returns the proxy set of one run, sorted lexically.
// A run that collected nothing yields an empty slice; the caller is
// expected to check run existence with GetRun first if it matters.
func (hdb *HarvestDB) RunProxies(ctx context.Context, runID int64) ([]model.ProxyToken, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT proxy FROM run_proxies
	WHERE run_id = ?
	ORDER BY proxy
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run proxies: %w", err)
	}
	defer rows.Close()

	var proxies []model.ProxyToken
	for rows.Next() {
		var proxy string
		if err := rows.Scan(&proxy); err != nil {
			return nil, fmt.Errorf("failed to scan proxy: %w", err)
		}
		proxies = append(proxies, model.ProxyToken(proxy))
	}

	return proxies, rows.Err()
}

// GetRunReport returns the full stored report of one run, or nil when no
// run has the given ID.
func (hdb *HarvestDB) GetRunReport(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, "SELECT report_json FROM runs WHERE id = ?", id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &report, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRunMetadata reads one RunMetadata from a runs row.
func scanRunMetadata(row rowScanner) (RunMetadata, error) {
	var meta RunMetadata
	var startedAt, finishedAt string

	err := row.Scan(
		&meta.ID,
		&startedAt,
		&finishedAt,
		&meta.RepoCount,
		&meta.ProxyCount,
		&meta.Interrupted,
	)
	if err == sql.ErrNoRows {
		return RunMetadata{}, err
	}
	if err != nil {
		return RunMetadata{}, fmt.Errorf("failed to scan run metadata: %w", err)
	}

	meta.StartedAt = parseTimestamp(startedAt)
	meta.FinishedAt = parseTimestamp(finishedAt)
	return meta, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
