package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts the run with its params, metrics and artifacts in a single
// transaction, so a run is either fully recorded or absent.
func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, experiment_id, name, started_at, ended_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ExperimentID,
		run.Name,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for k, v := range run.Params {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_params (run_id, key, value) VALUES (?, ?, ?)`, run.ID, k, v); err != nil {
			return fmt.Errorf("failed to create run param %s: %w", k, err)
		}
	}
	for k, v := range run.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_metrics (run_id, key, value) VALUES (?, ?, ?)`, run.ID, k, v); err != nil {
			return fmt.Errorf("failed to create run metric %s: %w", k, err)
		}
	}
	for _, a := range run.Artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_artifacts (run_id, name, path, size) VALUES (?, ?, ?, ?)`, run.ID, a.Name, a.Path, a.Size); err != nil {
			return fmt.Errorf("failed to create run artifact %s: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, experiment_id, name, started_at, ended_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := r.loadDetails(ctx, []*domain.Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// ListByExperimentID returns the experiment's runs in the order they were recorded.
func (r *RunRepository) ListByExperimentID(ctx context.Context, experimentID string) ([]*domain.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, experiment_id, name, started_at, ended_at FROM runs
		 WHERE experiment_id = ? ORDER BY rowid`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	_ = rows.Close()

	if err := r.loadDetails(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// loadDetails fills params, metrics and artifacts for each run.
func (r *RunRepository) loadDetails(ctx context.Context, runs []*domain.Run) error {
	for _, run := range runs {
		if err := r.loadParams(ctx, run); err != nil {
			return err
		}
		if err := r.loadMetrics(ctx, run); err != nil {
			return err
		}
		if err := r.loadArtifacts(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

func (r *RunRepository) loadParams(ctx context.Context, run *domain.Run) error {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM run_params WHERE run_id = ?`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to list run params: %w", err)
	}
	defer func() { _ = rows.Close() }()

	run.Params = make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("failed to scan run param: %w", err)
		}
		run.Params[k] = v
	}
	return rows.Err()
}

func (r *RunRepository) loadMetrics(ctx context.Context, run *domain.Run) error {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM run_metrics WHERE run_id = ?`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to list run metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	run.Metrics = make(map[string]float64)
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("failed to scan run metric: %w", err)
		}
		run.Metrics[k] = v
	}
	return rows.Err()
}

func (r *RunRepository) loadArtifacts(ctx context.Context, run *domain.Run) error {
	rows, err := r.db.QueryContext(ctx, `SELECT name, path, size FROM run_artifacts WHERE run_id = ? ORDER BY name`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to list run artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	run.Artifacts = nil
	for rows.Next() {
		var a domain.Artifact
		if err := rows.Scan(&a.Name, &a.Path, &a.Size); err != nil {
			return fmt.Errorf("failed to scan run artifact: %w", err)
		}
		run.Artifacts = append(run.Artifacts, a)
	}
	return rows.Err()
}

func scanRun(s scanner) (*domain.Run, error) {
	var (
		run                domain.Run
		startedAt, endedAt string
	)
	if err := s.Scan(&run.ID, &run.ExperimentID, &run.Name, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
	return &run, nil
}
