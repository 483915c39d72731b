package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the journal database inside its directory.
const FileName = "sitemapgen.db"

// ErrRunNotFound is returned when a flush run ID is not in the journal.
var ErrRunNotFound = errors.New("flush run not found")

// Journal records flush runs, the files each run wrote and search engine
// pings in a SQLite database.
type Journal struct {
	db     *sql.DB
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the journal in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the path of the database file.
func (j *Journal) Path() string {
	return j.dbPath
}

func (j *Journal) createTables() error {
	schema := `
	-- One row per Flush that wrote at least one file or failed
	CREATE TABLE IF NOT EXISTS flush_runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		started TEXT NOT NULL,
		finished TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		index_file TEXT,
		failed INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON flush_runs(started);

	-- Files written by a run, with the SHA3-256 digest of their content
	CREATE TABLE IF NOT EXISTS flushed_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES flush_runs(id),
		filename TEXT NOT NULL,
		category TEXT,
		sequence INTEGER DEFAULT 0,
		entries INTEGER DEFAULT 0,
		size INTEGER DEFAULT 0,
		checksum TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_run ON flushed_files(run_id);
	CREATE INDEX IF NOT EXISTS idx_files_filename ON flushed_files(filename);

	-- Search engine pings; run_id is NULL for pings sent outside a flush
	CREATE TABLE IF NOT EXISTS pings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		engine TEXT NOT NULL,
		url TEXT NOT NULL,
		status_code INTEGER DEFAULT 0,
		error TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pings_run ON pings(run_id);
	`

	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// FlushRun is one journaled flush.
type FlushRun struct {
	// ID is a UUID assigned by RecordFlush when empty.
	ID        string        `json:"id"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	OutputDir string        `json:"outputDir"`
	IndexFile string        `json:"indexFile,omitempty"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
	Files     []FlushedFile `json:"files"`
	Pings     []PingRecord  `json:"pings,omitempty"`
}

// FlushedFile is one file written by a run.
type FlushedFile struct {
	Filename string `json:"filename"`
	Category string `json:"category,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
	Entries  int    `json:"entries"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

// PingRecord is the outcome of one search engine ping.
type PingRecord struct {
	RunID      string    `json:"runId,omitempty"`
	Engine     string    `json:"engine"`
	URL        string    `json:"url"`
	StatusCode int       `json:"statusCode,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordFlush stores run and its files in one transaction and returns the
// run ID.
func (j *Journal) RecordFlush(ctx context.Context, run *FlushRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO flush_runs (id, started, finished, output_dir, index_file, failed, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTimestamp(run.Started), formatTimestamp(run.Finished),
		run.OutputDir, run.IndexFile, run.Failed, run.Error)
	if err != nil {
		return "", fmt.Errorf("failed to insert flush run: %w", err)
	}

	for _, f := range run.Files {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO flushed_files (run_id, filename, category, sequence, entries, size, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, f.Filename, f.Category, f.Sequence, f.Entries, f.Size, f.Checksum)
		if err != nil {
			return "", fmt.Errorf("failed to insert flushed file %s: %w", f.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit flush run: %w", err)
	}
	return run.ID, nil
}

// RecordPings stores ping outcomes. An empty RunID is stored as NULL.
func (j *Journal) RecordPings(ctx context.Context, pings []PingRecord) error {
	for _, p := range pings {
		runID := sql.NullString{String: p.RunID, Valid: p.RunID != ""}
		_, err := j.db.ExecContext(ctx, `
		INSERT INTO pings (run_id, engine, url, status_code, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		`, runID, p.Engine, p.URL, p.StatusCode, p.Error, formatTimestamp(p.Timestamp))
		if err != nil {
			return fmt.Errorf("failed to insert ping for %s: %w", p.Engine, err)
		}
	}
	return nil
}

// ListFlushes returns the most recent runs first, with their files and
// pings. A limit of zero or less returns every run.
func (j *Journal) ListFlushes(ctx context.Context, limit int) ([]FlushRun, error) {
	query := `
	SELECT id, started, finished, output_dir, index_file, failed, error
	FROM flush_runs
	ORDER BY started DESC, seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flush runs: %w", err)
	}

	var runs []FlushRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range runs {
		if err := j.loadDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetFlush returns one run with its files and pings.
func (j *Journal) GetFlush(ctx context.Context, id string) (*FlushRun, error) {
	row := j.db.QueryRowContext(ctx, `
	SELECT id, started, finished, output_dir, index_file, failed, error
	FROM flush_runs
	WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := j.loadDetails(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListPings returns pings sent outside a flush, most recent first.
func (j *Journal) ListPings(ctx context.Context, limit int) ([]PingRecord, error) {
	query := `
	SELECT engine, url, status_code, error, timestamp
	FROM pings
	WHERE run_id IS NULL
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return j.queryPings(ctx, query, args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (FlushRun, error) {
	var run FlushRun
	var started, finished string
	var indexFile, errText sql.NullString

	if err := row.Scan(&run.ID, &started, &finished, &run.OutputDir, &indexFile, &run.Failed, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan flush run: %w", err)
	}
	run.Started = parseTimestamp(started)
	run.Finished = parseTimestamp(finished)
	run.IndexFile = indexFile.String
	run.Error = errText.String
	return run, nil
}

// loadDetails fills the files and pings of run. Each query is drained
// before the next starts since the pool holds a single connection.
func (j *Journal) loadDetails(ctx context.Context, run *FlushRun) error {
	files, err := j.queryFiles(ctx, run.ID)
	if err != nil {
		return err
	}
	run.Files = files

	pings, err := j.queryPings(ctx, `
	SELECT engine, url, status_code, error, timestamp
	FROM pings
	WHERE run_id = ?
	ORDER BY id
	`, run.ID)
	if err != nil {
		return err
	}
	for i := range pings {
		pings[i].RunID = run.ID
	}
	run.Pings = pings
	return nil
}

func (j *Journal) queryFiles(ctx context.Context, runID string) ([]FlushedFile, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT filename, category, sequence, entries, size, checksum
	FROM flushed_files
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of run %s: %w", runID, err)
	}
	defer rows.Close()

	var files []FlushedFile
	for rows.Next() {
		var f FlushedFile
		var category, sum sql.NullString
		if err := rows.Scan(&f.Filename, &category, &f.Sequence, &f.Entries, &f.Size, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan flushed file: %w", err)
		}
		f.Category = category.String
		f.Checksum = sum.String
		files = append(files, f)
	}
	return files, rows.Err()
}

func (j *Journal) queryPings(ctx context.Context, query string, args ...any) ([]PingRecord, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pings: %w", err)
	}
	defer rows.Close()

	var pings []PingRecord
	for rows.Next() {
		var p PingRecord
		var errText sql.NullString
		var timestamp string
		if err := rows.Scan(&p.Engine, &p.URL, &p.StatusCode, &errText, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		p.Error = errText.String
		p.Timestamp = parseTimestamp(timestamp)
		pings = append(pings, p)
	}
	return pings, rows.Err()
}

// timestampLayout has fixed-width fractional seconds so that stored
// timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
