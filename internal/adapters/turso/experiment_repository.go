package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/util"
)

type ExperimentRepository struct {
	db *sql.DB
}

func NewExperimentRepository(db *sql.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Create inserts the experiment. A name already taken, possibly by another
// process sharing the store, yields apperr.ErrExperimentExists.
func (r *ExperimentRepository) Create(ctx context.Context, experiment *domain.Experiment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO experiments (id, name, description, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		experiment.ID,
		experiment.Name,
		util.NullStringPtr(experiment.Description),
		experiment.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", apperr.ErrExperimentExists, experiment.Name)
	}
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM experiments WHERE id = ?`, id)
	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func (r *ExperimentRepository) GetByName(ctx context.Context, name string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM experiments WHERE name = ?`, name)
	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment by name: %w", err)
	}
	return exp, nil
}

func (r *ExperimentRepository) List(ctx context.Context) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM experiments ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var experiments []*domain.Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}
	return experiments, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperiment(s scanner) (*domain.Experiment, error) {
	var (
		exp         domain.Experiment
		description sql.NullString
		createdAt   string
	)
	if err := s.Scan(&exp.ID, &exp.Name, &description, &createdAt); err != nil {
		return nil, err
	}
	exp.Description = util.NullStringToPtr(description)
	exp.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &exp, nil
}
