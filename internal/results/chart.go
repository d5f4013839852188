package results

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	chart "github.com/wcharczuk/go-chart"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

// ChartTitle is the default title of the degradation chart.
const ChartTitle = "Impact of Poisoning on Model Performance"

// RenderChart writes a PNG line chart of accuracy and macro F1 against
// poison percentage to path. Nothing is written when results is empty.
func RenderChart(results []domain.AggregatedResult, title, path string) error {
	if len(results) == 0 {
		return apperr.ErrNoResults
	}
	if title == "" {
		title = ChartTitle
	}

	xs := make([]float64, len(results))
	acc := make([]float64, len(results))
	f1 := make([]float64, len(results))
	var ticks []chart.Tick
	seen := make(map[int]bool)
	for i, r := range results {
		xs[i] = float64(r.PoisonPct)
		acc[i] = r.Accuracy
		f1[i] = r.F1Macro
		if !seen[r.PoisonPct] {
			seen[r.PoisonPct] = true
			ticks = append(ticks, chart.Tick{Value: float64(r.PoisonPct), Label: fmt.Sprintf("%d", r.PoisonPct)})
		}
	}

	// The x range is taken from the ticks, so a single poison level needs a
	// second tick to give the axis a non-zero width.
	if len(seen) == 1 {
		next := results[0].PoisonPct + 1
		ticks = append(ticks, chart.Tick{Value: float64(next), Label: fmt.Sprintf("%d", next)})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Value < ticks[j].Value })

	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.StyleShow(),
		Width:      1000,
		Height:     600,
		XAxis: chart.XAxis{
			Name:      "Poison Level (%)",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
			Ticks:     ticks,
		},
		YAxis: chart.YAxis{
			Name:      "Score",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
			Range:     &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Accuracy",
				XValues: xs,
				YValues: acc,
				Style: chart.Style{
					Show:        true,
					StrokeColor: chart.ColorBlue,
					DotColor:    chart.ColorBlue,
					DotWidth:    4,
				},
			},
			chart.ContinuousSeries{
				Name:    "F1 Macro",
				XValues: xs,
				YValues: f1,
				Style: chart.Style{
					Show:        true,
					StrokeColor: chart.ColorRed,
					DotColor:    chart.ColorRed,
					DotWidth:    4,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
