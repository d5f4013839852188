package experiment_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/storage"
	"github.com/emiliopalmerini/poisonbench/internal/adapters/turso"
	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/experiment"
	"github.com/emiliopalmerini/poisonbench/internal/ml"
	"github.com/emiliopalmerini/poisonbench/internal/ports"
)

type recordingExporter struct {
	runs []*domain.Run
}

func (e *recordingExporter) ExportRunMetrics(ctx context.Context, experimentName string, run *domain.Run) error {
	e.runs = append(e.runs, run)
	return nil
}

func (e *recordingExporter) Close(ctx context.Context) error { return nil }

// writeIris writes a separable three-class dataset with perClass rows per class.
func writeIris(t *testing.T, dir string, perClass int, poisonedColumn bool) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("sepal_length,sepal_width,petal_length,petal_width,species")
	if poisonedColumn {
		b.WriteString(",poisoned")
	}
	b.WriteString("\n")

	species := []string{"setosa", "versicolor", "virginica"}
	for i := 0; i < perClass; i++ {
		for c, name := range species {
			base := float64(c * 3)
			jitter := float64(i%5) * 0.1
			fmt.Fprintf(&b, "%.1f,%.1f,%.1f,%.1f,%s", base+4+jitter, 3-jitter, base+1+jitter, float64(c)+jitter, name)
			if poisonedColumn {
				b.WriteString(",False")
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(dir, "iris.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func newRunner(t *testing.T, opts ...experiment.Option) (*experiment.Runner, *turso.Repositories) {
	t.Helper()

	repos := openRepositories(t, filepath.Join(t.TempDir(), "tracking.db"))
	store, err := storage.NewArtifactStorage(t.TempDir())
	require.NoError(t, err)

	opts = append([]experiment.Option{experiment.WithEstimators(10)}, opts...)
	return experiment.NewRunner(repos.Experiments, repos.Runs, store, opts...), repos
}

// openRepositories opens a connection to the tracking store at path.
func openRepositories(t *testing.T, path string) *turso.Repositories {
	t.Helper()

	db, err := turso.Open(context.Background(), "file:"+path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return turso.NewRepositories(db.DB)
}

// staleExperiments misses on its first lookup after letting another writer
// run, the way a second process can create the experiment between this
// process's lookup and its insert.
type staleExperiments struct {
	ports.ExperimentRepository
	between func()
	done    bool
}

func (s *staleExperiments) GetByName(ctx context.Context, name string) (*domain.Experiment, error) {
	if !s.done {
		s.done = true
		s.between()
		return nil, nil
	}
	return s.ExperimentRepository.GetByName(ctx, name)
}

type failingRuns struct {
	ports.RunRepository
}

func (failingRuns) Create(ctx context.Context, run *domain.Run) error {
	return errors.New("database is locked")
}

func TestRunRecordsRun(t *testing.T) {
	ctx := context.Background()
	exporter := &recordingExporter{}
	runner, repos := newRunner(t, experiment.WithExporter(exporter))
	path := writeIris(t, t.TempDir(), 20, true)

	run, err := runner.Run(ctx, path, "iris_poison_0pct_random")
	require.NoError(t, err)

	assert.Equal(t, path, run.Params[domain.ParamDataPath])
	assert.Equal(t, "48", run.Params[domain.ParamNTrain])
	assert.Equal(t, "12", run.Params[domain.ParamNVal])
	assert.Equal(t, "10", run.Params[domain.ParamEstimators])
	assert.Equal(t, "42", run.Params[domain.ParamRandomState])

	acc, ok := run.Metric(domain.MetricAccuracy)
	require.True(t, ok)
	assert.GreaterOrEqual(t, acc, 0.9)
	_, ok = run.Metric(domain.MetricF1Macro)
	assert.True(t, ok)

	require.Len(t, run.Artifacts, 2)
	assert.Equal(t, experiment.ReportArtifact, run.Artifacts[0].Name)
	assert.Equal(t, experiment.ModelArtifact, run.Artifacts[1].Name)

	report, err := os.ReadFile(run.Artifacts[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Accuracy:")

	model, err := ml.LoadModel(run.Artifacts[1].Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}, model.Schema.Names())
	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, model.Schema.Classes)

	exp, err := repos.Experiments.GetByName(ctx, experiment.DefaultName)
	require.NoError(t, err)
	require.NotNil(t, exp)

	stored, err := repos.Runs.ListByExperimentID(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, run.ID, stored[0].ID)
	assert.InDelta(t, acc, stored[0].Metrics[domain.MetricAccuracy], 1e-12)

	require.Len(t, exporter.runs, 1)
}

func TestRunReusesExperiment(t *testing.T) {
	ctx := context.Background()
	runner, repos := newRunner(t, experiment.WithExperimentName("custom"))
	path := writeIris(t, t.TempDir(), 10, false)

	_, err := runner.Run(ctx, path, "first")
	require.NoError(t, err)
	_, err = runner.Run(ctx, path, "second")
	require.NoError(t, err)

	exps, err := repos.Experiments.List(ctx)
	require.NoError(t, err)
	require.Len(t, exps, 1)

	runs, err := repos.Runs.ListByExperimentID(ctx, exps[0].ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].Name)
	assert.Equal(t, "second", runs[1].Name)
}

func TestRunSurvivesConcurrentExperimentCreate(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tracking.db")
	data := writeIris(t, t.TempDir(), 10, false)

	store, err := storage.NewArtifactStorage(t.TempDir())
	require.NoError(t, err)

	other := openRepositories(t, dbPath)
	otherRunner := experiment.NewRunner(other.Experiments, other.Runs, store, experiment.WithEstimators(5))

	repos := openRepositories(t, dbPath)
	exps := &staleExperiments{
		ExperimentRepository: repos.Experiments,
		between: func() {
			_, err := otherRunner.Run(ctx, data, "other_process")
			require.NoError(t, err)
		},
	}
	runner := experiment.NewRunner(exps, repos.Runs, store, experiment.WithEstimators(5))

	run, err := runner.Run(ctx, data, "this_process")
	require.NoError(t, err)

	list, err := repos.Experiments.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, list[0].ID, run.ExperimentID)

	runs, err := repos.Runs.ListByExperimentID(ctx, list[0].ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "other_process", runs[0].Name)
	assert.Equal(t, "this_process", runs[1].Name)
}

func TestRunRemovesArtifactsWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	repos := openRepositories(t, filepath.Join(t.TempDir(), "tracking.db"))
	root := t.TempDir()
	store, err := storage.NewArtifactStorage(root)
	require.NoError(t, err)

	runner := experiment.NewRunner(repos.Experiments, failingRuns{repos.Runs}, store, experiment.WithEstimators(5))
	_, err = runner.Run(ctx, writeIris(t, t.TempDir(), 10, false), "doomed")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	runner, _ := newRunner(t)
	path := writeIris(t, t.TempDir(), 15, false)

	a, err := runner.Run(ctx, path, "a")
	require.NoError(t, err)
	b, err := runner.Run(ctx, path, "b")
	require.NoError(t, err)

	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestRunMissingDataset(t *testing.T) {
	ctx := context.Background()
	runner, repos := newRunner(t)

	_, err := runner.Run(ctx, filepath.Join(t.TempDir(), "missing.csv"), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDatasetNotFound))

	exps, err := repos.Experiments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, exps)
}

func TestRunStratifyFailure(t *testing.T) {
	ctx := context.Background()
	runner, _ := newRunner(t)

	path := filepath.Join(t.TempDir(), "tiny.csv")
	data := "a,species\n1,x\n2,x\n3,x\n4,x\n5,y\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := runner.Run(ctx, path, "tiny")
	assert.ErrorIs(t, err, apperr.ErrStratify)
}

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	path := writeIris(t, dir, 20, false)
	modelPath := filepath.Join(dir, "models", "model.json")
	metricsPath := filepath.Join(dir, "metrics", "metrics.json")

	m, err := experiment.Bootstrap(context.Background(), nil, path, modelPath, metricsPath)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, path, m.DataPath)

	model, err := ml.LoadModel(modelPath)
	require.NoError(t, err)
	assert.Len(t, model.Forest.Trees, ml.DefaultEstimators)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"accuracy"`)
	assert.Contains(t, string(data), `"data_path"`)
}

func TestBootstrapMissingDataset(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")

	m, err := experiment.Bootstrap(context.Background(), nil, filepath.Join(dir, "nope.csv"), modelPath, filepath.Join(dir, "m.json"))
	require.NoError(t, err)
	assert.Nil(t, m)

	_, statErr := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(statErr))
}
