package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/experiment"
	"github.com/emiliopalmerini/poisonbench/internal/results"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Chart accuracy and F1 against poison level",
	Long: `Collect every run of an experiment, read the poison level from each run
name (the number before "pct", 0 when absent) and plot accuracy and macro F1
against it. Runs missing either metric are skipped.

Examples:
  poisonbench aggregate --experiment-name data-poisoning
  poisonbench aggregate --experiment-name data-poisoning --out curve.png --csv results.csv`,
	RunE: runAggregate,
}

var (
	aggExperiment string
	aggOut        string
	aggCSV        string
	aggTitle      string
)

func init() {
	rootCmd.AddCommand(aggregateCmd)

	f := aggregateCmd.Flags()
	f.StringVar(&aggExperiment, "experiment-name", experiment.DefaultName, "Experiment to aggregate")
	f.StringVar(&aggOut, "out", "poison_results.png", "Chart output path")
	f.StringVar(&aggCSV, "csv", "", "Also write the results table as CSV")
	f.StringVar(&aggTitle, "title", results.ChartTitle, "Chart title")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()

	agg := results.NewAggregator(app.Experiments, app.Runs)
	res, err := agg.Aggregate(ctx, aggExperiment)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Extracted Results ===")
	fmt.Fprintln(out, results.RenderTable(res))

	if aggCSV != "" {
		f, err := os.Create(aggCSV)
		if err != nil {
			return fmt.Errorf("failed to create csv: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := results.WriteCSV(res, f); err != nil {
			return err
		}
		fmt.Fprintf(out, "Results written to %s\n", aggCSV)
	}

	if err := results.RenderChart(res, aggTitle, aggOut); err != nil {
		return err
	}
	fmt.Fprintf(out, "Plot saved as: %s\n", aggOut)
	return nil
}
