// Package runstore persists run history in SQLite. The pipeline never
// reads it back mid-run; it exists for the `runs` command.
package runstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed run persistence
type Store struct {
	db *sql.DB
}

// New creates a Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a finished run and its stage results in one transaction
func (s *Store) SaveRun(run *domain.TestRun) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, sdk, variant, skip_execution, status, workspace_path, started_at, finished_at, tokens_input, tokens_output, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		string(run.SDK),
		run.Variant,
		run.SkipExecution,
		string(run.Status),
		run.WorkspacePath,
		run.StartedAt,
		run.FinishedAt,
		run.TokensInput,
		run.TokensOutput,
		run.CostUSD,
	)
	if err != nil {
		return err
	}

	for i, res := range run.Results {
		_, err = tx.Exec(`
			INSERT INTO stage_results (run_id, position, stage, status, detail, output, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			string(res.Stage),
			string(res.Status),
			res.Detail,
			res.Output,
			res.Duration.Milliseconds(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListOptions specifies filters for listing runs
type ListOptions struct {
	SDK    domain.SDK
	Status domain.RunStatus
	Limit  int
}

// ListRuns returns runs matching the given options, newest first
func (s *Store) ListRuns(opts ListOptions) ([]*domain.TestRun, error) {
	query := `SELECT id, sdk, variant, skip_execution, status, workspace_path, started_at, finished_at, tokens_input, tokens_output, cost_usd FROM runs WHERE 1=1`
	var args []interface{}

	if opts.SDK != "" {
		query += " AND sdk = ?"
		args = append(args, string(opts.SDK))
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}

	query += " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.TestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun retrieves one run with its stage results
func (s *Store) GetRun(id string) (*domain.TestRun, error) {
	rows, err := s.db.Query(`
		SELECT id, sdk, variant, skip_execution, status, workspace_path, started_at, finished_at, tokens_input, tokens_output, cost_usd
		FROM runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("run %s not found", id)
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	results, err := s.stageResults(id)
	if err != nil {
		return nil, err
	}
	run.Results = results

	return run, nil
}

func (s *Store) stageResults(runID string) ([]domain.StageResult, error) {
	rows, err := s.db.Query(`
		SELECT stage, status, detail, output, duration_ms
		FROM stage_results WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.StageResult
	for rows.Next() {
		var res domain.StageResult
		var stage, status string
		var detail, output sql.NullString
		var durationMs int64

		if err := rows.Scan(&stage, &status, &detail, &output, &durationMs); err != nil {
			return nil, err
		}

		res.Stage = domain.Stage(stage)
		res.Status = domain.StageStatus(status)
		res.Detail = detail.String
		res.Output = output.String
		res.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, res)
	}

	return results, rows.Err()
}

func scanRun(rows *sql.Rows) (*domain.TestRun, error) {
	var run domain.TestRun
	var sdk, status string
	var variant, workspacePath sql.NullString
	var finishedAt sql.NullTime

	err := rows.Scan(&run.ID, &sdk, &variant, &run.SkipExecution, &status, &workspacePath, &run.StartedAt, &finishedAt, &run.TokensInput, &run.TokensOutput, &run.CostUSD)
	if err != nil {
		return nil, err
	}

	run.SDK = domain.SDK(sdk)
	run.Status = domain.RunStatus(status)
	run.Variant = variant.String
	run.WorkspacePath = workspacePath.String
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}
