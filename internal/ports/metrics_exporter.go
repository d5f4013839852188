package ports

import (
	"context"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

// MetricsExporter exports run metrics to an external observability system.
type MetricsExporter interface {
	// ExportRunMetrics exports the metrics of a recorded run.
	ExportRunMetrics(ctx context.Context, experimentName string, run *domain.Run) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
