package results

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gocarina/gocsv"

	"github.com/emiliopalmerini/poisonbench/internal/domain"
	"github.com/emiliopalmerini/poisonbench/internal/pkg/tui/theme"
	"github.com/emiliopalmerini/poisonbench/internal/util"
)

// RenderTable formats results as a bordered table for the terminal, with
// scores colored by how far they have degraded.
func RenderTable(results []domain.AggregatedResult) string {
	styles := theme.Default()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("POISON %", "ACCURACY", "F1 MACRO", "RUN").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if row < 0 || row >= len(results) {
				return styles.Cell
			}
			r := results[row]
			switch col {
			case 1:
				return styles.ScoreStyle(r.Accuracy)
			case 2:
				return styles.ScoreStyle(r.F1Macro)
			case 3:
				return styles.Muted
			}
			return styles.Cell
		})

	for _, r := range results {
		t.Row(fmt.Sprintf("%d", r.PoisonPct), util.FormatScore(r.Accuracy), util.FormatScore(r.F1Macro), r.RunName)
	}
	return t.String()
}

// WriteCSV exports results with a header row.
func WriteCSV(results []domain.AggregatedResult, w io.Writer) error {
	if err := gocsv.Marshal(&results, w); err != nil {
		return fmt.Errorf("failed to write results csv: %w", err)
	}
	return nil
}
