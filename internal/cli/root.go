package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/infrastructure/config"
	"github.com/emiliopalmerini/poisonbench/internal/infrastructure/logging"
)

var rootCmd = &cobra.Command{
	Use:   "poisonbench",
	Short: "Measure how training data poisoning degrades a classifier",
	Long: `poisonbench generates poisoned variants of a tabular dataset, trains and
evaluates a classifier on each variant while logging runs to a tracking store,
and aggregates the results into an accuracy/F1 degradation curve.

Typical workflow:
  poisonbench poison --input data/iris.csv --fractions 0.05,0.1,0.5
  poisonbench train --datasets data/iris.csv data/poisoned/*.csv
  poisonbench aggregate --experiment-name data-poisoning`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfg    *config.Config
	logger *slog.Logger
)

var (
	trackingURI  string
	artifactRoot string
	logLevel     string
	logFormat    string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&trackingURI, "tracking-uri", "", "Tracking store URI (env POISONBENCH_TRACKING_URI)")
	pf.StringVar(&artifactRoot, "artifact-root", "", "Artifact storage directory (env POISONBENCH_ARTIFACT_ROOT)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

// loadConfig reads the environment, applies flag overrides and installs
// the default logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("tracking-uri") {
		c.Tracking.URI = trackingURI
	}
	if flags.Changed("artifact-root") {
		c.Tracking.ArtifactRoot = artifactRoot
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}

	l, err := logging.New(cmd.ErrOrStderr(), c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	cfg, logger = c, l
	return nil
}
