package ports

import (
	"context"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

type ExperimentRepository interface {
	Create(ctx context.Context, experiment *domain.Experiment) error
	GetByID(ctx context.Context, id string) (*domain.Experiment, error)
	GetByName(ctx context.Context, name string) (*domain.Experiment, error)
	List(ctx context.Context) ([]*domain.Experiment, error)
}
