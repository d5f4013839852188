// Package poison corrupts a fraction of a dataset's rows.
//
// The number of affected rows is floor(n*fraction). Which rows are chosen and
// what they are replaced with depend on the random source passed to each
// call. The engine keeps no state between calls.
package poison

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/montanaflynn/stats"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/dataset"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

// GaussianSpread scales the original column standard deviation for the
// gaussian strategy.
const GaussianSpread = 5.0

var validate = validator.New()

// NewSource returns a random source seeded with seed, or with a fresh random
// seed when seed is zero.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Poison returns a fresh copy of ds with floor(n*fraction) rows corrupted
// according to spec.Strategy and a trailing poisoned marker column. ds is
// never modified.
func Poison(ds *domain.Dataset, spec domain.PoisonSpec, rng *rand.Rand) (*domain.PoisonedDataset, error) {
	strategy, ok := domain.ParseStrategy(string(spec.Strategy))
	if !ok {
		return nil, apperr.Validation(apperr.ErrUnknownStrategy, "strategy %q", spec.Strategy)
	}
	spec.Strategy = strategy
	if err := validate.Struct(spec); err != nil {
		return nil, apperr.Validation(err, "invalid poison spec")
	}
	if ds == nil || ds.Len() == 0 {
		return nil, apperr.Validation(nil, "cannot poison an empty dataset")
	}
	if rng == nil {
		rng = NewSource(0)
	}

	out := withoutMarker(ds)
	n := out.Len()
	k := spec.Count(n)
	poisoned := make([]bool, n)

	if k > 0 {
		idx := rng.Perm(n)[:k]

		var err error
		switch spec.Strategy {
		case domain.StrategyRandom:
			err = uniformFeatures(out, idx, rng)
		case domain.StrategyGaussian:
			err = gaussianFeatures(out, idx, rng)
		case domain.StrategyLabelFlip:
			err = flipLabels(out, idx, rng)
		}
		if err != nil {
			return nil, err
		}

		for _, i := range idx {
			poisoned[i] = true
		}
	}

	out.Columns = append(out.Columns, domain.MarkerColumn)
	for i := range out.Rows {
		out.Rows[i] = append(out.Rows[i], dataset.FormatBool(poisoned[i]))
	}

	return &domain.PoisonedDataset{Dataset: out, Poisoned: poisoned}, nil
}

// OutputPath names the file a poisoned variant is written to.
func OutputPath(dir, inputPath string, spec domain.PoisonSpec) string {
	return filepath.Join(dir, fmt.Sprintf("%s_poison_%s.csv", dataset.BaseName(inputPath), spec))
}

// withoutMarker clones ds dropping any marker column left from an earlier pass.
func withoutMarker(ds *domain.Dataset) *domain.Dataset {
	out := ds.Clone()
	idx := out.Index(domain.MarkerColumn)
	if idx < 0 {
		return out
	}
	out.Columns = append(out.Columns[:idx], out.Columns[idx+1:]...)
	for i, row := range out.Rows {
		out.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
	return out
}

// uniformFeatures replaces every feature of the selected rows with a draw
// from U[min, max] of the original column.
func uniformFeatures(ds *domain.Dataset, idx []int, rng *rand.Rand) error {
	for _, col := range ds.FeatureColumns() {
		vals, err := ds.Floats(col)
		if err != nil {
			return apperr.Validation(err, "non-numeric feature")
		}
		lo, err := stats.Min(vals)
		if err != nil {
			return fmt.Errorf("failed to compute min of %q: %w", col, err)
		}
		hi, err := stats.Max(vals)
		if err != nil {
			return fmt.Errorf("failed to compute max of %q: %w", col, err)
		}

		c := ds.Index(col)
		for _, i := range idx {
			ds.Rows[i][c] = dataset.FormatFloat(lo + rng.Float64()*(hi-lo))
		}
	}
	return nil
}

// gaussianFeatures replaces every feature of the selected rows with a draw
// from N(mean, (GaussianSpread*std)^2) of the original column.
func gaussianFeatures(ds *domain.Dataset, idx []int, rng *rand.Rand) error {
	for _, col := range ds.FeatureColumns() {
		vals, err := ds.Floats(col)
		if err != nil {
			return apperr.Validation(err, "non-numeric feature")
		}
		mu, err := stats.Mean(vals)
		if err != nil {
			return fmt.Errorf("failed to compute mean of %q: %w", col, err)
		}
		// A single row has no sample deviation; every draw collapses to the mean.
		sigma := 0.0
		if len(vals) > 1 {
			sd, err := stats.StandardDeviationSample(vals)
			if err != nil {
				return fmt.Errorf("failed to compute std of %q: %w", col, err)
			}
			sigma = sd * GaussianSpread
		}

		c := ds.Index(col)
		for _, i := range idx {
			ds.Rows[i][c] = dataset.FormatFloat(mu + rng.NormFloat64()*sigma)
		}
	}
	return nil
}

// flipLabels draws each selected row's label uniformly from the observed
// label set. The draw may return the row's current label.
func flipLabels(ds *domain.Dataset, idx []int, rng *rand.Rand) error {
	classes, err := ds.DistinctLabels()
	if err != nil {
		return apperr.Validation(err, "label_flip")
	}
	t := ds.Index(ds.Target)
	for _, i := range idx {
		ds.Rows[i][t] = classes[rng.IntN(len(classes))]
	}
	return nil
}
