package domain

// AggregatedResult joins a run's name-derived poison level with its metrics.
// It is derived on demand and never stored.
type AggregatedResult struct {
	PoisonPct int     `csv:"poison_pct"`
	Accuracy  float64 `csv:"accuracy"`
	F1Macro   float64 `csv:"f1_macro"`
	RunName   string  `csv:"run_name"`
}
