package otel

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/results"
)

const (
	serviceName    = "poisonbench"
	serviceVersion = "1.0.0"
)

// Exporter exports run metrics to an OTEL Collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	accuracyHist metric.Float64Histogram
	f1Hist       metric.Float64Histogram
	trainRows    metric.Int64Histogram
	runsTotal    metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	accuracyHist, err := meter.Float64Histogram(
		"poisonbench_run_accuracy",
		metric.WithDescription("Validation accuracy per run"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating accuracy histogram: %w", err)
	}

	f1Hist, err := meter.Float64Histogram(
		"poisonbench_run_f1_macro",
		metric.WithDescription("Validation macro F1 per run"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating f1 histogram: %w", err)
	}

	trainRows, err := meter.Int64Histogram(
		"poisonbench_run_train_rows",
		metric.WithDescription("Rows in the training split per run"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating train rows histogram: %w", err)
	}

	runsTotal, err := meter.Int64Counter(
		"poisonbench_runs_total",
		metric.WithDescription("Total number of recorded runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	return &Exporter{
		provider:     provider,
		accuracyHist: accuracyHist,
		f1Hist:       f1Hist,
		trainRows:    trainRows,
		runsTotal:    runsTotal,
	}, nil
}

// ExportRunMetrics records the metrics of a completed run.
func (e *Exporter) ExportRunMetrics(ctx context.Context, experimentName string, run *domain.Run) error {
	pct, _ := results.ExtractPoisonLevel(run.Name)
	opt := metric.WithAttributes(
		attribute.String("experiment_name", experimentName),
		attribute.String("run_name", run.Name),
		attribute.Int("poison_pct", pct),
	)

	if v, ok := run.Metric(domain.MetricAccuracy); ok {
		e.accuracyHist.Record(ctx, v, opt)
	}
	if v, ok := run.Metric(domain.MetricF1Macro); ok {
		e.f1Hist.Record(ctx, v, opt)
	}
	if n, err := strconv.ParseInt(run.Params[domain.ParamNTrain], 10, 64); err == nil {
		e.trainRows.Record(ctx, n, opt)
	}

	e.runsTotal.Add(ctx, 1, opt)
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
