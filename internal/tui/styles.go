package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/logdesk/internal/constants"
)

// Colors
var (
	// UI colors
	headerBg   = lipgloss.Color("235")
	statusBg   = lipgloss.Color("236")
	helpBg     = lipgloss.Color("234")
	focusColor = lipgloss.Color("14") // Cyan
	errorColor = lipgloss.Color(constants.ColorDanger)
	dimColor   = lipgloss.Color(constants.ColorDim)
)

// Styles
var (
	// Header style
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Login card
	cardStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	// Field labels, plain and focused
	labelStyle = lipgloss.NewStyle().
			Width(labelWidth)

	focusedLabelStyle = labelStyle.
				Foreground(focusColor).
				Bold(true)

	// Error text
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// Dim style for placeholders and disabled fields
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)

// labelWidth aligns the form values
const labelWidth = 16
