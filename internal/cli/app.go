package cli

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/otel"
	"github.com/emiliopalmerini/poisonbench/internal/adapters/storage"
	"github.com/emiliopalmerini/poisonbench/internal/adapters/turso"
	"github.com/emiliopalmerini/poisonbench/internal/infrastructure/config"
	"github.com/emiliopalmerini/poisonbench/internal/ports"
)

// AppContext holds the shared dependencies of the tracking commands.
type AppContext struct {
	DB          *turso.DB
	Experiments ports.ExperimentRepository
	Runs        ports.RunRepository
	Artifacts   ports.ArtifactStorage
	Exporter    ports.MetricsExporter
}

// NewAppContext opens the tracking store, artifact storage and, when
// enabled, the OTLP metrics exporter.
func NewAppContext(ctx context.Context, c *config.Config) (*AppContext, error) {
	db, err := turso.Open(ctx, c.Tracking.URI, c.Tracking.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tracking store: %w", err)
	}

	artifacts, err := storage.NewArtifactStorage(c.Tracking.ArtifactRoot)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	var exporter ports.MetricsExporter = otel.NewNoOpExporter()
	if c.OTEL.Enabled {
		e, err := otel.NewExporter(ctx, c.OTEL)
		if err != nil {
			logger.Warn("metrics export disabled", "error", err)
		} else {
			exporter = e
		}
	}

	repos := turso.NewRepositories(db.DB)
	return &AppContext{
		DB:          db,
		Experiments: repos.Experiments,
		Runs:        repos.Runs,
		Artifacts:   artifacts,
		Exporter:    exporter,
	}, nil
}

// Close flushes the exporter and closes the tracking store.
func (a *AppContext) Close(ctx context.Context) error {
	if a.Exporter != nil {
		if err := a.Exporter.Close(ctx); err != nil {
			logger.Warn("failed to flush metrics exporter", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
