package ui

import "github.com/charmbracelet/lipgloss"

// The palette sticks to 256-color codes so output degrades cleanly on
// terminals without truecolor.
var (
	ColorPrimary   = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("241")
	ColorSuccess   = lipgloss.Color("42")
	ColorWarning   = lipgloss.Color("214")
	ColorError     = lipgloss.Color("160")
	ColorText      = lipgloss.Color("252")
	ColorAccent    = lipgloss.Color("87")
)

// Shared text styles.
var (
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleUrgent  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)

	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
)

// Styles for the interactive goal picker.
var (
	StyleSelectTitle  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).MarginBottom(1)
	StyleSelectActive = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSelectNormal = lipgloss.NewStyle().Foreground(ColorText)
	StyleSelectDim    = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSelectBadge  = lipgloss.NewStyle().Foreground(ColorAccent)
)
