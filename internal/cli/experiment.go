package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/util"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Inspect the tracking store",
	Long:  `List experiments and the runs recorded under them.`,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	RunE:  runExperimentList,
}

var experimentRunsCmd = &cobra.Command{
	Use:   "runs <name>",
	Short: "List the runs of an experiment",
	Long: `List the runs of an experiment in creation order with their metrics.

Examples:
  poisonbench experiment runs data-poisoning
  poisonbench experiment runs data-poisoning --params`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentRuns,
}

var expShowParams bool

func init() {
	rootCmd.AddCommand(experimentCmd)

	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentRunsCmd)

	experimentRunsCmd.Flags().BoolVar(&expShowParams, "params", false, "Show run parameters")
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()

	experiments, err := app.Experiments.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list experiments: %w", err)
	}

	if len(experiments) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No experiments found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUNS\tCREATED\tID")
	fmt.Fprintln(w, "----\t----\t-------\t--")

	for _, exp := range experiments {
		runs, err := app.Runs.ListByExperimentID(ctx, exp.ID)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", exp.Name, len(runs), util.FormatDateTime(exp.CreatedAt), exp.ID)
	}

	return w.Flush()
}

func runExperimentRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()

	exp, err := app.Experiments.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get experiment: %w", err)
	}
	if exp == nil {
		return fmt.Errorf("%w: %q", apperr.ErrExperimentNotFound, name)
	}

	runs, err := app.Runs.ListByExperimentID(ctx, exp.ID)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded for %s\n", name)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := "NAME\tACCURACY\tF1 MACRO\tARTIFACTS\tSTARTED"
	if expShowParams {
		header += "\tPARAMS"
	}
	fmt.Fprintln(w, header)

	for _, run := range runs {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
			run.Name,
			metricCell(run, domain.MetricAccuracy),
			metricCell(run, domain.MetricF1Macro),
			artifactCell(run.Artifacts),
			util.FormatDateTime(run.StartedAt),
		)
		if expShowParams {
			line += "\t" + paramsCell(run.Params)
		}
		fmt.Fprintln(w, line)
	}

	return w.Flush()
}

func metricCell(run *domain.Run, key string) string {
	if v, ok := run.Metric(key); ok {
		return util.FormatScore(v)
	}
	return "-"
}

func artifactCell(artifacts []domain.Artifact) string {
	if len(artifacts) == 0 {
		return "-"
	}
	parts := make([]string, len(artifacts))
	for i, a := range artifacts {
		parts[i] = fmt.Sprintf("%s (%s)", a.Name, util.FormatBytes(a.Size))
	}
	return strings.Join(parts, ", ")
}

func paramsCell(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}

