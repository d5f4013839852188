package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultEstimators is the ensemble size used by the experiment runner.
const DefaultEstimators = 100

// ForestConfig controls ensemble training.
type ForestConfig struct {
	Estimators  int
	Seed        uint64
	MaxFeatures int // 0 means floor(sqrt(n_features))
}

// Forest is a bagged ensemble of decision trees. Each tree is fit on a
// bootstrap sample and predictions average the trees' class distributions.
type Forest struct {
	NClasses  int     `json:"n_classes"`
	NFeatures int     `json:"n_features"`
	Trees     []*Tree `json:"trees"`
}

// FitForest trains the ensemble. Per-tree seeds are drawn from cfg.Seed
// before any tree is fit, so the result does not depend on scheduling.
func FitForest(ctx context.Context, x [][]float64, y []int, nClasses int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("cannot fit forest on empty data")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(y))
	}
	if cfg.Estimators <= 0 {
		cfg.Estimators = DefaultEstimators
	}
	nFeatures := len(x[0])
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}

	master := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	seeds := make([]uint64, cfg.Estimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*Tree, cfg.Estimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			sample := make([]int, len(x))
			for j := range sample {
				sample[j] = rng.IntN(len(x))
			}
			trees[i] = FitTree(x, y, sample, nClasses, maxFeatures, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fit forest: %w", err)
	}

	return &Forest{NClasses: nClasses, NFeatures: nFeatures, Trees: trees}, nil
}

// Proba averages the class distributions of all trees for row x.
func (f *Forest) Proba(x []float64) []float64 {
	out := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		for c, p := range t.Proba(x) {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.Trees))
	}
	return out
}

// Predict returns the most probable class code for every row. Ties resolve
// to the lowest code.
func (f *Forest) Predict(x [][]float64) []int {
	out := make([]int, len(x))
	for i, row := range x {
		probs := f.Proba(row)
		best := 0
		for c := 1; c < len(probs); c++ {
			if probs[c] > probs[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out
}
