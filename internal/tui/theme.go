package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the intake terminal
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#0EA5E9") // Sky - assistant
	ColorSecondary = lipgloss.Color("#14B8A6") // Teal - patient

	// Status colors
	ColorSuccess = lipgloss.Color("#22C55E") // Green
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorWarning = lipgloss.Color("#F59E0B") // Amber

	// Text colors
	ColorText   = lipgloss.Color("#F8FAFC")
	ColorMuted  = lipgloss.Color("#94A3B8")
	ColorSubtle = lipgloss.Color("#64748B")
)
