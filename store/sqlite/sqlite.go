/*
Package sqlite provides a SQLite-backed implementation of generic.PlanStore.

PURPOSE:
  Keeps every solved plan so the API and CLI can list and reload them
  without solving again. Runs are written once: re-planning creates a new
  run, old ones are never updated.

KEY TABLES:
  runs:        One row per solve (status, objective, timing)
  run_grids:   Named (type x day) arrays, rows and values as JSON
  run_series:  Named per-day arrays, values as JSON

INDEXES:
  - idx_runs_created: ListRuns (newest first)
  Grids and series are keyed by (run_id, position) so they load in the
  order the planner produced them.

WRITE-ONCE ENFORCEMENT:
  - No UPDATE statements anywhere
  - Saving an existing run ID returns generic.ErrDuplicateRun

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The grids of a run are written in
  one database transaction with the run row.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so list and get
  requests keep reading while a solve is being saved.

USAGE:
  store, err := sqlite.New("./data/plans.db")
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory variant
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

// Store implements generic.PlanStore.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Pass ":memory:" for a throwaway database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// an in-memory database lives as long as its connection
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT,
		solver TEXT NOT NULL,
		status TEXT NOT NULL,
		objective TEXT NOT NULL,
		duration_ns INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created
		ON runs(created_at DESC, id DESC);

	CREATE TABLE IF NOT EXISTS run_grids (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		label TEXT,
		rows_json TEXT NOT NULL,
		values_json TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS run_series (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		values_json TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN STORE (generic.PlanStore interface)
// =============================================================================

// SaveRun writes the run, its grids and its series atomically.
func (s *Store) SaveRun(ctx context.Context, run generic.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, solver, status, objective, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.ID),
		nullString(run.Scenario),
		run.Solver,
		string(run.Status),
		run.Objective.String(),
		int64(run.Duration),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateRun
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, g := range run.Grids {
		rowsJSON, err := json.Marshal(g.Rows)
		if err != nil {
			return err
		}
		valuesJSON, err := json.Marshal(g.Values)
		if err != nil {
			return err
		}
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO run_grids (run_id, position, name, label, rows_json, values_json)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(run.ID), i, g.Name, nullString(g.Label), string(rowsJSON), string(valuesJSON))
		if err != nil {
			return fmt.Errorf("failed to save grid %s: %w", g.Name, err)
		}
	}

	for i, series := range run.Series {
		valuesJSON, err := json.Marshal(series.Values)
		if err != nil {
			return err
		}
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO run_series (run_id, position, name, values_json)
			VALUES (?, ?, ?, ?)
		`, string(run.ID), i, series.Name, string(valuesJSON))
		if err != nil {
			return fmt.Errorf("failed to save series %s: %w", series.Name, err)
		}
	}

	return sqlTx.Commit()
}

// GetRun loads a run with all its arrays.
func (s *Store) GetRun(ctx context.Context, id generic.RunID) (*generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, solver, status, objective, duration_ns, created_at
		FROM runs WHERE id = ?
	`, string(id))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	if run.Grids, err = s.loadGrids(ctx, id); err != nil {
		return nil, err
	}
	if run.Series, err = s.loadSeries(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns run headers, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, scenario, solver, status, objective, duration_ns, created_at
		FROM runs ORDER BY created_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []generic.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) loadGrids(ctx context.Context, id generic.RunID) ([]generic.Grid, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, label, rows_json, values_json
		FROM run_grids WHERE run_id = ? ORDER BY position
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query grids: %w", err)
	}
	defer rows.Close()

	var grids []generic.Grid
	for rows.Next() {
		var (
			g          generic.Grid
			label      sql.NullString
			rowsJSON   string
			valuesJSON string
		)
		if err := rows.Scan(&g.Name, &label, &rowsJSON, &valuesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		g.Label = label.String
		if err := json.Unmarshal([]byte(rowsJSON), &g.Rows); err != nil {
			return nil, fmt.Errorf("grid %s rows: %w", g.Name, err)
		}
		if err := json.Unmarshal([]byte(valuesJSON), &g.Values); err != nil {
			return nil, fmt.Errorf("grid %s values: %w", g.Name, err)
		}
		grids = append(grids, g)
	}
	return grids, rows.Err()
}

func (s *Store) loadSeries(ctx context.Context, id generic.RunID) ([]generic.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, values_json
		FROM run_series WHERE run_id = ? ORDER BY position
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var out []generic.Series
	for rows.Next() {
		var (
			series     generic.Series
			valuesJSON string
		)
		if err := rows.Scan(&series.Name, &valuesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		if err := json.Unmarshal([]byte(valuesJSON), &series.Values); err != nil {
			return nil, fmt.Errorf("series %s values: %w", series.Name, err)
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (generic.Run, error) {
	var (
		run        generic.Run
		id         string
		scenario   sql.NullString
		status     string
		objective  string
		durationNS int64
		createdAt  string
	)

	if err := row.Scan(&id, &scenario, &run.Solver, &status, &objective, &durationNS, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID = generic.RunID(id)
	run.Scenario = scenario.String
	run.Status = generic.Status(status)
	run.Duration = time.Duration(durationNS)
	obj, err := decimal.NewFromString(objective)
	if err != nil {
		return run, fmt.Errorf("run %s objective: %w", id, err)
	}
	run.Objective = obj
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return run, fmt.Errorf("run %s created_at: %w", id, err)
	}
	run.CreatedAt = t
	return run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
