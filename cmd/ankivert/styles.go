package main

import "github.com/charmbracelet/lipgloss"

// Color palette for CLI output, picked for dark terminal backgrounds.
const (
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorHighlight = lipgloss.Color("#3B82F6")
	colorMuted     = lipgloss.Color("#6B7280")
)

var (
	// deckStyle marks deck names in scan output.
	deckStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight)

	// tagStyle de-emphasizes the stable identity tags next to each card.
	tagStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// totalStyle is for the closing totals line.
	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	// errorStyle prefixes fatal errors on stderr.
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	// updateStyle highlights an available update in version output.
	updateStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)
)
