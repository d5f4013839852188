package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/dataset"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/ml"
)

// BaselineMetrics is the summary written next to the bootstrap model.
type BaselineMetrics struct {
	Accuracy float64 `json:"accuracy"`
	DataPath string  `json:"data_path"`
}

// Bootstrap trains the model served by the inference endpoint on a plain
// shuffled 70/30 split. It is not tracked. A missing dataset is logged and
// reported as success so first-time setups can run before data is fetched.
func Bootstrap(ctx context.Context, log *slog.Logger, dataPath, modelPath, metricsPath string) (*BaselineMetrics, error) {
	if log == nil {
		log = slog.Default()
	}

	ds, err := dataset.ReadFile(dataPath, domain.DefaultTarget)
	if errors.Is(err, apperr.ErrDatasetNotFound) {
		log.Warn("dataset not found, skipping baseline", "data_path", dataPath)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out, err := fit(ctx, ds, shuffled(BaselineValidationSize, Seed), ml.DefaultEstimators, Seed)
	if err != nil {
		return nil, err
	}

	if err := ml.SaveModel(modelPath, out.Model); err != nil {
		return nil, err
	}

	m := &BaselineMetrics{Accuracy: out.Evaluation.Accuracy, DataPath: dataPath}
	if err := writeJSON(metricsPath, m); err != nil {
		return nil, err
	}

	log.Info("baseline trained", "accuracy", m.Accuracy, "model", modelPath, "metrics", metricsPath)
	return m, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
