package ports

import (
	"context"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

// RunRepository is the append-only run log of the tracking store.
// Runs are created atomically with their params, metrics and artifacts and
// are never updated afterwards.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	// ListByExperimentID returns runs in creation order.
	ListByExperimentID(ctx context.Context, experimentID string) ([]*domain.Run, error)
}
