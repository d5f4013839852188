package theme

import "github.com/charmbracelet/lipgloss"

// Color palette for terminal output
var (
	Purple   = lipgloss.Color("#A855F7")
	DimGray  = lipgloss.Color("#6B7280")
	DarkGray = lipgloss.Color("#374151")

	Success = lipgloss.Color("#22C55E")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
)
