package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/experiment"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Train the model served by the inference endpoint",
	Long: `Train on the clean dataset with a shuffled 70/30 split and write the model
and a metrics summary. Nothing is logged to the tracking store. A missing
dataset is reported and skipped.

Examples:
  poisonbench baseline --data data/iris.csv --model-out models/model.json`,
	RunE: runBaseline,
}

var (
	baselineData       string
	baselineModelOut   string
	baselineMetricsOut string
)

func init() {
	rootCmd.AddCommand(baselineCmd)

	f := baselineCmd.Flags()
	f.StringVar(&baselineData, "data", "data/iris.csv", "Clean dataset CSV")
	f.StringVar(&baselineModelOut, "model-out", "models/model.json", "Model output path (.sz suffix compresses)")
	f.StringVar(&baselineMetricsOut, "metrics-out", "metrics/metrics.json", "Metrics JSON output path")
}

func runBaseline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, err := experiment.Bootstrap(ctx, logger, baselineData, baselineModelOut, baselineMetricsOut)
	if err != nil {
		return err
	}
	if m == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s not found, skipping baseline\n", baselineData)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Baseline accuracy=%.4f, model saved to %s\n", m.Accuracy, baselineModelOut)
	return nil
}
