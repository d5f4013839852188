package domain

import "time"

// Standard run parameter and metric keys.
const (
	ParamDataPath    = "data_path"
	ParamNTrain      = "n_train"
	ParamNVal        = "n_val"
	ParamEstimators  = "n_estimators"
	ParamRandomState = "random_state"

	MetricAccuracy = "accuracy"
	MetricF1Macro  = "f1_macro"
)

// Run is one immutable record of a train/evaluate invocation.
// It is written once to the tracking store and never updated.
type Run struct {
	ID           string
	ExperimentID string
	Name         string
	Params       map[string]string
	Metrics      map[string]float64
	Artifacts    []Artifact
	StartedAt    time.Time
	EndedAt      time.Time
}

// Metric returns the named metric and whether it was recorded.
func (r *Run) Metric(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

// Artifact references a blob persisted in artifact storage.
type Artifact struct {
	Name string
	Path string
	Size int64
}
