package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jianjiandamowang97/novel/internal/model"
)

// ErrRunNotFound is returned when no stored run matches the query.
var ErrRunNotFound = errors.New("database: run not found")

// dbFileName is the SQLite file name inside the database directory.
const dbFileName = "novel.db"

// HistoryDB provides SQLite-based storage for harvest run history.
// It records one row per run plus the URLs that permanently failed,
// so a later run can tell how far a previous harvest got.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are
// created; otherwise a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Best effort cleanup
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per harvest run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		output_file TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		chapters INTEGER NOT NULL,
		words INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- URLs that permanently failed during a run, in discovery order
	CREATE TABLE IF NOT EXISTS failed_urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failed_urls_run ON failed_urls(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored harvest run.
type RunRecord struct {
	ID         int64
	StartURL   string
	OutputFile string
	StartedAt  time.Time
	FinishedAt time.Time
	Chapters   int
	Words      int
	Outcome    string
	FailedURLs []string
}

// SaveRun stores a finished run and its failed URLs in one
// transaction. It returns the new run's ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, output_file, started_at, finished_at, chapters, words, outcome)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartURL,
		summary.OutputFile,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		summary.Chapters,
		summary.Words,
		summary.Outcome.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, url := range summary.FailedURLs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failed_urls (run_id, url) VALUES (?, ?)`, id, url); err != nil {
			return 0, fmt.Errorf("failed to insert failed url: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// LastRunForURL returns the most recent stored run that started at
// startURL. It returns ErrRunNotFound when no run matches.
func (hdb *HistoryDB) LastRunForURL(ctx context.Context, startURL string) (*RunRecord, error) {
	query := `
	SELECT id, start_url, output_file, started_at, finished_at, chapters, words, outcome
	FROM runs
	WHERE start_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`

	record, err := hdb.scanRun(hdb.db.QueryRowContext(ctx, query, startURL))
	if err != nil {
		return nil, err
	}
	if err := hdb.loadFailedURLs(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RecentRuns returns up to limit stored runs, newest first.
func (hdb *HistoryDB) RecentRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `
	SELECT id, start_url, output_file, started_at, finished_at, chapters, words, outcome
	FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var records []*RunRecord
	for rows.Next() {
		record, err := hdb.scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for _, record := range records {
		if err := hdb.loadFailedURLs(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row.
func (hdb *HistoryDB) scanRun(row rowScanner) (*RunRecord, error) {
	var record RunRecord
	var startedAt, finishedAt string

	err := row.Scan(
		&record.ID,
		&record.StartURL,
		&record.OutputFile,
		&startedAt,
		&finishedAt,
		&record.Chapters,
		&record.Words,
		&record.Outcome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record.StartedAt = parseTimestamp(startedAt)
	record.FinishedAt = parseTimestamp(finishedAt)
	return &record, nil
}

// loadFailedURLs attaches the failed URLs of record's run.
func (hdb *HistoryDB) loadFailedURLs(ctx context.Context, record *RunRecord) error {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT url FROM failed_urls WHERE run_id = ? ORDER BY id`, record.ID)
	if err != nil {
		return fmt.Errorf("failed to query failed urls: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return fmt.Errorf("failed to scan failed url: %w", err)
		}
		record.FailedURLs = append(record.FailedURLs, url)
	}
	return rows.Err()
}

// timestampFormats are tried in order when parsing stored timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp string. Unparseable values
// degrade to the zero time rather than failing the read.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
