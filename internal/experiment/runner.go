package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/dataset"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/ml"
	"github.com/emiliopalmerini/poisonbench/internal/ports"
)

const (
	// DefaultName is the experiment runs are logged under.
	DefaultName = "data-poisoning"

	ReportArtifact = "report.txt"
	ModelArtifact  = "model.json" + ml.CompressedExt
)

// Runner trains one model per dataset and appends the outcome to the
// tracking store.
type Runner struct {
	experiments ports.ExperimentRepository
	runs        ports.RunRepository
	artifacts   ports.ArtifactStorage
	exporter    ports.MetricsExporter
	log         *slog.Logger

	experimentName string
	target         string
	estimators     int
	now            func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

func WithExperimentName(name string) Option {
	return func(r *Runner) { r.experimentName = name }
}

func WithTarget(target string) Option {
	return func(r *Runner) { r.target = target }
}

// WithEstimators overrides the ensemble size.
func WithEstimators(n int) Option {
	return func(r *Runner) { r.estimators = n }
}

func WithExporter(e ports.MetricsExporter) Option {
	return func(r *Runner) { r.exporter = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func NewRunner(experiments ports.ExperimentRepository, runs ports.RunRepository, artifacts ports.ArtifactStorage, opts ...Option) *Runner {
	r := &Runner{
		experiments:    experiments,
		runs:           runs,
		artifacts:      artifacts,
		log:            slog.Default(),
		experimentName: DefaultName,
		target:         domain.DefaultTarget,
		estimators:     ml.DefaultEstimators,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run trains on the dataset at path and records the result as runName.
// A missing dataset, a stratification failure or a store failure is
// returned and nothing is recorded.
func (r *Runner) Run(ctx context.Context, path, runName string) (*domain.Run, error) {
	started := r.now().UTC()
	log := r.log.With("run", runName, "data_path", path)

	ds, err := dataset.ReadFile(path, r.target)
	if err != nil {
		return nil, err
	}

	out, err := fit(ctx, ds, stratified(ValidationSize, Seed), r.estimators, Seed)
	if err != nil {
		return nil, err
	}
	log.Info("model evaluated",
		"accuracy", out.Evaluation.Accuracy,
		"f1_macro", out.Evaluation.F1Macro,
		"n_train", out.NTrain,
		"n_val", out.NVal)

	exp, err := r.ensureExperiment(ctx)
	if err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:           uuid.New().String(),
		ExperimentID: exp.ID,
		Name:         runName,
		Params: map[string]string{
			domain.ParamDataPath:    path,
			domain.ParamNTrain:      strconv.Itoa(out.NTrain),
			domain.ParamNVal:        strconv.Itoa(out.NVal),
			domain.ParamEstimators:  strconv.Itoa(len(out.Model.Forest.Trees)),
			domain.ParamRandomState: strconv.Itoa(Seed),
		},
		Metrics: map[string]float64{
			domain.MetricAccuracy: out.Evaluation.Accuracy,
			domain.MetricF1Macro:  out.Evaluation.F1Macro,
		},
		StartedAt: started,
	}

	artifacts, err := r.storeArtifacts(ctx, run.ID, out)
	if err != nil {
		r.discardArtifacts(ctx, log, run.ID)
		return nil, err
	}
	run.Artifacts = artifacts
	run.EndedAt = r.now().UTC()

	if err := r.runs.Create(ctx, run); err != nil {
		r.discardArtifacts(ctx, log, run.ID)
		return nil, err
	}
	log.Info("run recorded", "run_id", run.ID, "experiment", exp.Name)

	if r.exporter != nil {
		if err := r.exporter.ExportRunMetrics(ctx, exp.Name, run); err != nil {
			log.Warn("failed to export run metrics", "error", err)
		}
	}
	return run, nil
}

// ensureExperiment resolves the configured experiment, creating it on first use.
func (r *Runner) ensureExperiment(ctx context.Context) (*domain.Experiment, error) {
	exp, err := r.experiments.GetByName(ctx, r.experimentName)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		return exp, nil
	}

	exp = &domain.Experiment{
		ID:        uuid.New().String(),
		Name:      r.experimentName,
		CreatedAt: r.now().UTC(),
	}
	err = r.experiments.Create(ctx, exp)
	if errors.Is(err, apperr.ErrExperimentExists) {
		existing, err := r.experiments.GetByName(ctx, r.experimentName)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("experiment %q vanished after concurrent create", r.experimentName)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	r.log.Info("experiment created", "experiment", exp.Name, "id", exp.ID)
	return exp, nil
}

// discardArtifacts removes files written for a run that was never recorded.
func (r *Runner) discardArtifacts(ctx context.Context, log *slog.Logger, runID string) {
	if err := r.artifacts.DeleteRun(ctx, runID); err != nil {
		log.Warn("failed to remove artifacts of unrecorded run", "run_id", runID, "error", err)
	}
}

func (r *Runner) storeArtifacts(ctx context.Context, runID string, out *Outcome) ([]domain.Artifact, error) {
	report := []byte(out.Evaluation.Report())

	var model bytes.Buffer
	sw := snappy.NewBufferedWriter(&model)
	if err := out.Model.Encode(sw); err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	if err := sw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress model: %w", err)
	}

	blobs := []struct {
		name string
		data []byte
	}{
		{ReportArtifact, report},
		{ModelArtifact, model.Bytes()},
	}

	artifacts := make([]domain.Artifact, 0, len(blobs))
	for _, b := range blobs {
		path, err := r.artifacts.Store(ctx, runID, b.name, b.data)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, domain.Artifact{Name: b.name, Path: path, Size: int64(len(b.data))})
	}
	return artifacts, nil
}
