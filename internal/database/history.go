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
	"github.com/nao1215/httpsdash/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file inside the database directory.
const FileName = "httpsdash.db"

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB records crawl runs and their per-site results.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when absent.
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

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database %s: %w", dbPath, model.ErrInputNotFound)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

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

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		indir TEXT NOT NULL,
		outdir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		num_sites INTEGER DEFAULT 0,
		num_failed INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_outdir ON runs(outdir);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS site_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		site TEXT NOT NULL,
		availability TEXT NOT NULL,
		https_partial TEXT,
		digest TEXT NOT NULL,
		UNIQUE(run_id, site)
	);

	CREATE INDEX IF NOT EXISTS idx_results_site ON site_results(site);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one recorded invocation of the profile engine.
type Run struct {
	ID         string
	InDir      string
	OutDir     string
	StartedAt  time.Time
	FinishedAt time.Time
	NumSites   int
	NumFailed  int
}

// SiteResult is the recorded outcome of one site within a run.
type SiteResult struct {
	RunID        string
	Site         string
	Availability model.Availability
	HTTPSPartial string
	Digest       string
	StartedAt    time.Time
}

// StartRun records a new run and returns its ID.
func (h *HistoryDB) StartRun(ctx context.Context, inDir, outDir string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO runs (id, indir, outdir, started_at) VALUES (?, ?, ?, ?)`
	if _, err := h.db.ExecContext(ctx, query, id, inDir, outDir, startedAt.UTC().Format(timeLayout)); err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// RecordSite stores the outcome of one processed site.
func (h *HistoryDB) RecordSite(ctx context.Context, runID string, result *model.SiteRun) error {
	if result.Site == nil {
		return fmt.Errorf("record site %s: site was not processed", result.Paths.Name)
	}
	partial := ""
	if p, defined := result.Site.HTTPSPartial(); defined {
		partial = model.YesNo(p)
	}

	query := `
	INSERT INTO site_results (run_id, site, availability, https_partial, digest)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id, site) DO UPDATE SET
		availability = excluded.availability,
		https_partial = excluded.https_partial,
		digest = excluded.digest
	`
	_, err := h.db.ExecContext(ctx, query,
		runID,
		result.Site.SiteKey(),
		result.Site.Availability.String(),
		partial,
		result.Digest,
	)
	if err != nil {
		return fmt.Errorf("failed to record site %s: %w", result.Site.SiteKey(), err)
	}
	return nil
}

// FinishRun stores the final counts of a run.
func (h *HistoryDB) FinishRun(ctx context.Context, runID string, finishedAt time.Time, numSites, numFailed int) error {
	query := `UPDATE runs SET finished_at = ?, num_sites = ?, num_failed = ? WHERE id = ?`
	res, err := h.db.ExecContext(ctx, query, finishedAt.UTC().Format(timeLayout), numSites, numFailed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	return nil
}

// LastDigest returns the profile digest recorded for site by the most
// recent finished run into outDir, or "" when there is none.
func (h *HistoryDB) LastDigest(ctx context.Context, outDir, site string) (string, error) {
	query := `
	SELECT s.digest FROM site_results s
	JOIN runs r ON r.id = s.run_id
	WHERE r.outdir = ? AND s.site = ? AND r.finished_at IS NOT NULL
	ORDER BY r.started_at DESC
	LIMIT 1
	`
	var digest string
	err := h.db.QueryRowContext(ctx, query, outDir, site).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last digest: %w", err)
	}
	return digest, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, indir, outdir, started_at, COALESCE(finished_at, ''), num_sites, num_failed
	FROM runs
	ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.InDir, &r.OutDir, &started, &finished, &r.NumSites, &r.NumFailed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SiteHistory returns every recorded result of site, most recent first.
func (h *HistoryDB) SiteHistory(ctx context.Context, site string) ([]SiteResult, error) {
	query := `
	SELECT s.run_id, s.site, s.availability, COALESCE(s.https_partial, ''), s.digest, r.started_at
	FROM site_results s
	JOIN runs r ON r.id = s.run_id
	WHERE s.site = ?
	ORDER BY r.started_at DESC
	`
	rows, err := h.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get site history: %w", err)
	}
	defer rows.Close()

	var results []SiteResult
	for rows.Next() {
		var r SiteResult
		var availability, started string
		if err := rows.Scan(&r.RunID, &r.Site, &availability, &r.HTTPSPartial, &r.Digest, &started); err != nil {
			return nil, fmt.Errorf("failed to scan site result: %w", err)
		}
		a, err := model.ParseAvailability(availability)
		if err != nil {
			return nil, err
		}
		r.Availability = a
		r.StartedAt = parseTimestamp(started)
		results = append(results, r)
	}
	return results, rows.Err()
}

// timestampFormats are the formats SQLite may return, most specific first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
