// Package experiment trains and evaluates the classifier on a dataset and
// records each invocation as a run in the tracking store.
package experiment

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/poisonbench/internal/dataset"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/ml"
)

const (
	// Seed fixes both the split and the ensemble.
	Seed = 42
	// ValidationSize is the held-out share for tracked runs.
	ValidationSize = 0.2
	// BaselineValidationSize is the held-out share for the bootstrap model.
	BaselineValidationSize = 0.3
)

// splitFunc partitions encoded labels into train and validation indices.
type splitFunc func(y []int) (ml.Split, error)

func stratified(testSize float64, seed uint64) splitFunc {
	return func(y []int) (ml.Split, error) {
		return ml.StratifiedSplit(y, testSize, seed)
	}
}

func shuffled(testSize float64, seed uint64) splitFunc {
	return func(y []int) (ml.Split, error) {
		return ml.TrainTestSplit(len(y), testSize, seed)
	}
}

// Outcome is a fitted model with its validation scores.
type Outcome struct {
	Model      *ml.Model
	Evaluation *ml.Evaluation
	NTrain     int
	NVal       int
}

// fit encodes the target, drops the poisoned marker, splits, trains the
// forest and scores it on the validation rows.
func fit(ctx context.Context, ds *domain.Dataset, split splitFunc, estimators int, seed uint64) (*Outcome, error) {
	labels, err := ds.Labels()
	if err != nil {
		return nil, err
	}
	enc := ml.FitLabelEncoder(labels)
	y, err := enc.Transform(labels)
	if err != nil {
		return nil, err
	}

	cols := ds.FeatureColumns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset has no feature columns")
	}
	x, err := dataset.Features(ds, cols)
	if err != nil {
		return nil, err
	}

	s, err := split(y)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := ml.Take(x, y, s.Train)
	xVal, yVal := ml.Take(x, y, s.Val)

	forest, err := ml.FitForest(ctx, xTrain, yTrain, len(enc.Classes), ml.ForestConfig{
		Estimators: estimators,
		Seed:       seed,
	})
	if err != nil {
		return nil, err
	}

	eval, err := ml.Evaluate(yVal, forest.Predict(xVal), enc.Classes)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}

	return &Outcome{
		Model: &ml.Model{
			Schema: ml.NewFeatureSchema(cols, ds.Target, enc.Classes),
			Forest: forest,
		},
		Evaluation: eval,
		NTrain:     len(s.Train),
		NVal:       len(s.Val),
	}, nil
}
