package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
)

// execute runs the root command with fresh flag state against an isolated
// tracking store.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("POISONBENCH_TRACKING_URI", "file:"+filepath.Join(dir, "tracking.db"))
	t.Setenv("POISONBENCH_ARTIFACT_ROOT", filepath.Join(dir, "artifacts"))
	t.Setenv("POISONBENCH_LOG_LEVEL", "error")
	return dir
}

func writeIris(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("sepal_length,sepal_width,petal_length,petal_width,species\n")
	for i := 0; i < 30; i++ {
		for c, name := range []string{"setosa", "versicolor", "virginica"} {
			j := float64(i%6) * 0.1
			fmt.Fprintf(&b, "%.1f,%.1f,%.1f,%.1f,%s\n", 4.5+float64(c)+j, 3.0-j, 1.0+2*float64(c)+j, 0.2+float64(c)+j, name)
		}
	}
	path := filepath.Join(dir, "iris.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestParseFractions(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"0.05,0.1,0.5", []float64{0.05, 0.1, 0.5}, false},
		{" 0.2 , 1 ", []float64{0.2, 1}, false},
		{"0", []float64{0}, false},
		{"", nil, true},
		{"abc", nil, true},
		{"1.5", nil, true},
		{"-0.1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFractions(tt.in)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipeline(t *testing.T) {
	dir := isolate(t)
	clean := writeIris(t, dir)
	poisonedDir := filepath.Join(dir, "poisoned")

	out, err := execute(t, "poison", "--input", clean, "--out-dir", poisonedDir, "--fractions", "0.1,0.5", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "(9/90 rows poisoned)")
	assert.Contains(t, out, "(45/90 rows poisoned)")

	p10 := filepath.Join(poisonedDir, "iris_poison_10pct_random.csv")
	p50 := filepath.Join(poisonedDir, "iris_poison_50pct_random.csv")
	require.FileExists(t, p10)
	require.FileExists(t, p50)

	out, err = execute(t, "train", "--datasets", clean+","+p50+","+p10)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "Trained on"))

	chart := filepath.Join(dir, "poison_results.png")
	csvPath := filepath.Join(dir, "results.csv")
	out, err = execute(t, "aggregate", "--experiment-name", "data-poisoning", "--out", chart, "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "iris_poison_10pct_random")
	require.FileExists(t, chart)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
	assert.True(t, strings.HasPrefix(lines[2], "10,"))
	assert.True(t, strings.HasPrefix(lines[3], "50,"))

	out, err = execute(t, "experiment", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "data-poisoning")

	out, err = execute(t, "experiment", "runs", "data-poisoning", "--params")
	require.NoError(t, err)
	assert.Contains(t, out, "iris_poison_50pct_random")
	assert.Contains(t, out, "n_train=72")
	assert.Contains(t, out, "report.txt")
}

func TestAggregateUnknownExperiment(t *testing.T) {
	dir := isolate(t)
	chart := filepath.Join(dir, "missing.png")

	_, err := execute(t, "aggregate", "--experiment-name", "nope", "--out", chart)
	require.ErrorIs(t, err, apperr.ErrExperimentNotFound)
	assert.NoFileExists(t, chart)
}

func TestTrainMissingDataset(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "train", "--datasets", filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, apperr.ErrDatasetNotFound)
}

func TestPoisonUnknownStrategy(t *testing.T) {
	dir := isolate(t)
	clean := writeIris(t, dir)

	_, err := execute(t, "poison", "--input", clean, "--strategy", "bogus", "--out-dir", dir)
	require.ErrorIs(t, err, apperr.ErrUnknownStrategy)
	assert.True(t, apperr.IsValidation(err))
}

func TestBaseline(t *testing.T) {
	dir := isolate(t)
	clean := writeIris(t, dir)
	model := filepath.Join(dir, "models", "model.json")

	out, err := execute(t, "baseline", "--data", clean, "--model-out", model, "--metrics-out", filepath.Join(dir, "metrics.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline accuracy=")
	assert.FileExists(t, model)

	out, err = execute(t, "baseline", "--data", filepath.Join(dir, "absent.csv"), "--model-out", filepath.Join(dir, "other.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestMigrateRollback(t *testing.T) {
	isolate(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated to version 1")

	out, err = execute(t, "migrate", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated to version 0")
}
