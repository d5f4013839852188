package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/dataset"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/poison"
)

var poisonCmd = &cobra.Command{
	Use:   "poison",
	Short: "Generate poisoned variants of a dataset",
	Long: `Write one poisoned copy of the input CSV per fraction.

Each output gains a "poisoned" column marking the corrupted rows and is named
<input>_poison_<pct>pct_<strategy>.csv.

Strategies:
  random      replace features with uniform draws over the column's range
  gaussian    replace features with draws around the column mean (5x std)
  label_flip  replace the label with a random observed label

Examples:
  poisonbench poison --input data/iris.csv
  poisonbench poison --input data/iris.csv --strategy label_flip --fractions 0.1,0.3 --seed 7`,
	RunE: runPoison,
}

var (
	poisonInput     string
	poisonOutDir    string
	poisonFractions string
	poisonStrategy  string
	poisonTarget    string
	poisonSeed      uint64
)

func init() {
	rootCmd.AddCommand(poisonCmd)

	f := poisonCmd.Flags()
	f.StringVar(&poisonInput, "input", "", "Path to the clean CSV file")
	f.StringVar(&poisonOutDir, "out-dir", "data/poisoned", "Directory for poisoned files")
	f.StringVar(&poisonFractions, "fractions", "0.05,0.1,0.5", "Comma separated poison fractions")
	f.StringVar(&poisonStrategy, "strategy", string(domain.StrategyRandom), "Poisoning strategy")
	f.StringVar(&poisonTarget, "target", domain.DefaultTarget, "Target column")
	f.Uint64Var(&poisonSeed, "seed", 0, "Random seed (0 picks a fresh one)")
	_ = poisonCmd.MarkFlagRequired("input")
}

func runPoison(cmd *cobra.Command, args []string) error {
	strategy, ok := domain.ParseStrategy(poisonStrategy)
	if !ok {
		return apperr.Validation(apperr.ErrUnknownStrategy, "strategy %q (want one of %v)", poisonStrategy, domain.Strategies)
	}
	fractions, err := parseFractions(poisonFractions)
	if err != nil {
		return err
	}

	ds, err := dataset.ReadFile(poisonInput, poisonTarget)
	if err != nil {
		return err
	}

	rng := poison.NewSource(poisonSeed)
	for _, f := range fractions {
		spec := domain.PoisonSpec{Strategy: strategy, Fraction: f}
		out, err := poison.Poison(ds, spec, rng)
		if err != nil {
			return err
		}

		path := poison.OutputPath(poisonOutDir, poisonInput, spec)
		if err := dataset.WriteFile(path, out.Dataset); err != nil {
			return err
		}
		logger.Debug("poisoned dataset written", "path", path, "poisoned", out.PoisonedCount(), "rows", out.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d/%d rows poisoned)\n", path, out.PoisonedCount(), out.Len())
	}
	return nil
}
