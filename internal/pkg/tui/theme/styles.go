package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Score thresholds used by ScoreStyle.
const (
	GoodScore = 0.9
	FairScore = 0.7
)

// Styles contains the shared table styles.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
	Border lipgloss.Style

	Good lipgloss.Style
	Fair lipgloss.Style
	Poor lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the singleton default Styles instance
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

func newStyles() *Styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return &Styles{
		Header: cell.Bold(true).Foreground(Purple),
		Cell:   cell,
		Muted:  cell.Foreground(DimGray),
		Border: lipgloss.NewStyle().Foreground(DarkGray),
		Good:   cell.Foreground(Success),
		Fair:   cell.Foreground(Warning),
		Poor:   cell.Foreground(Error),
	}
}

// ScoreStyle picks a cell style for a metric in [0,1].
func (s *Styles) ScoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= GoodScore:
		return s.Good
	case v >= FairScore:
		return s.Fair
	default:
		return s.Poor
	}
}
