// Package results turns recorded runs into the poison-level degradation
// curve: it recovers each run's poison percentage from its name, joins it
// with the run's metrics and renders the outcome.
package results

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/ports"
)

var pctPattern = regexp.MustCompile(`(\d+)pct`)

// ExtractPoisonLevel returns the integer before the first "pct" in name.
// The second result is false when name carries no poison level, which
// callers treat as the clean baseline.
func ExtractPoisonLevel(name string) (int, bool) {
	m := pctPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// FromRuns joins runs with their poison level. Runs missing accuracy or
// f1_macro are skipped. The output is stably sorted by poison percentage.
func FromRuns(runs []*domain.Run) []domain.AggregatedResult {
	out := make([]domain.AggregatedResult, 0, len(runs))
	for _, run := range runs {
		acc, ok := run.Metric(domain.MetricAccuracy)
		if !ok {
			continue
		}
		f1, ok := run.Metric(domain.MetricF1Macro)
		if !ok {
			continue
		}
		pct, _ := ExtractPoisonLevel(run.Name)
		out = append(out, domain.AggregatedResult{
			PoisonPct: pct,
			Accuracy:  acc,
			F1Macro:   f1,
			RunName:   run.Name,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PoisonPct < out[j].PoisonPct })
	return out
}

// Aggregator reads runs from the tracking store.
type Aggregator struct {
	experiments ports.ExperimentRepository
	runs        ports.RunRepository
}

func NewAggregator(experiments ports.ExperimentRepository, runs ports.RunRepository) *Aggregator {
	return &Aggregator{experiments: experiments, runs: runs}
}

// Aggregate resolves the named experiment and returns its sorted results.
// An unknown experiment yields apperr.ErrExperimentNotFound.
func (a *Aggregator) Aggregate(ctx context.Context, experimentName string) ([]domain.AggregatedResult, error) {
	exp, err := a.experiments.GetByName(ctx, experimentName)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrExperimentNotFound, experimentName)
	}

	runs, err := a.runs.ListByExperimentID(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	return FromRuns(runs), nil
}
