package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/summary"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout has a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one recorded fit.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Model       string
	Nobs        int
	Seed        uint64
	Iterations  int
	Warmup      int
	Chains      int
	Elapsed     time.Duration
	Divergences int
	ArchivePath string
	// Params is only populated by Get.
	Params []ParamRow
}

// ParamRow holds the headline statistics of one summarized column.
type ParamRow struct {
	Name string
	Mean float64
	SD   float64
	NEff float64
	Rhat float64
}

// ParamsFromSummary extracts the ledger rows from a posterior summary.
func ParamsFromSummary(s *summary.Summary) []ParamRow {
	rows := make([]ParamRow, len(s.Params))
	for i, p := range s.Params {
		rows[i] = ParamRow{Name: p.Name, Mean: p.Mean, SD: p.SD, NEff: p.NEff, Rhat: p.Rhat}
	}

	return rows
}

// Ledger is a handle to the run database. It is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway ledger.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	// SQLite supports one writer at a time; a single connection also keeps
	// ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply ledger schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}

	return l.db.Close()
}

// Record stores run and returns its id. A missing ID is generated as a
// random UUID and a zero CreatedAt is set to the current time.
func (l *Ledger) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = l.now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, model, nobs, seed, iterations, warmup, chains, elapsed_ms, divergences, archive_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Model,
		run.Nobs,
		int64(run.Seed), //nolint:gosec // G115: stored bit-for-bit, converted back on read
		run.Iterations,
		run.Warmup,
		run.Chains,
		run.Elapsed.Milliseconds(),
		run.Divergences,
		run.ArchivePath,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for i, p := range run.Params {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_params (run_id, position, name, mean, sd, n_eff, rhat)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, p.Name, nullFloat(p.Mean), nullFloat(p.SD), nullFloat(p.NEff), nullFloat(p.Rhat),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert parameter %s of run %s: %w", p.Name, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	return run.ID, nil
}

const runColumns = `id, created_at, model, nobs, seed, iterations, warmup, chains, elapsed_ms, divergences, archive_path`

// List returns up to limit runs, newest first. limit <= 0 returns all runs.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Get returns the run with id, including its parameter rows.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", errs.ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT name, mean, sd, n_eff, rhat FROM run_params
		WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read parameters of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                    ParamRow
			mean, sd, nEff, rhat sql.NullFloat64
		)
		if err := rows.Scan(&p.Name, &mean, &sd, &nEff, &rhat); err != nil {
			return Run{}, fmt.Errorf("failed to scan parameter of run %s: %w", id, err)
		}
		p.Mean, p.SD, p.NEff, p.Rhat = floatOrNaN(mean), floatOrNaN(sd), floatOrNaN(nEff), floatOrNaN(rhat)
		run.Params = append(run.Params, p)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("failed to read parameters of run %s: %w", id, err)
	}

	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		seed      int64
		elapsedMs int64
	)

	err := s.Scan(&run.ID, &createdAt, &run.Model, &run.Nobs, &seed, &run.Iterations,
		&run.Warmup, &run.Chains, &elapsedMs, &run.Divergences, &run.ArchivePath)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s has invalid created_at %q: %w", run.ID, createdAt, err)
	}
	run.Seed = uint64(seed) //nolint:gosec // G115: inverse of the conversion in Record
	run.Elapsed = time.Duration(elapsedMs) * time.Millisecond

	return run, nil
}

// nullFloat maps non-finite values to NULL; SQLite has no NaN.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}
