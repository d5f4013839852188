package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/turso"
	"github.com/emiliopalmerini/poisonbench/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run tracking store migrations",
	Long: `Run tracking store migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  poisonbench migrate      # Run all pending migrations
  poisonbench migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	target := -1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[0])
		}
		target = v
	}

	db, err := turso.Connect(ctx, cfg.Tracking.URI, cfg.Tracking.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to connect to tracking store: %w", err)
	}
	defer func() { _ = db.Close() }()

	m := migrate.New(db.DB, logger)
	current, _, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", current)

	if err := m.To(ctx, target); err != nil {
		return err
	}

	after, _, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if after == current {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated to version %d\n", after)
	}
	return nil
}
