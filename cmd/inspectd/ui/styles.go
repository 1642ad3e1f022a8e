// Package ui provides the visual styling for inspectd's human-facing
// command output. The MCP wire output never goes through these styles.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors, shared across commands.
var (
	ColorSuccess = lipgloss.Color("#8BC34A") // Lime green
	ColorWarning = lipgloss.Color("#FFC107") // Yellow
	ColorError   = lipgloss.Color("#e53935") // Red
	ColorInfo    = lipgloss.Color("#2196F3") // Blue
	ColorMuted   = lipgloss.Color("245")
)

// Text styles.
var (
	Title   = lipgloss.NewStyle().Bold(true)
	Key     = lipgloss.NewStyle().Bold(true)
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)
	Info    = lipgloss.NewStyle().Foreground(ColorInfo)
	Muted   = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Separator renders a horizontal rule.
func Separator(width int) string {
	if width <= 0 {
		width = 50
	}
	return Muted.Render(strings.Repeat("─", width))
}

// StatusBadge colors an inspection lifecycle status.
func StatusBadge(status string) string {
	switch status {
	case "STARTED":
		return Info.Render(status)
	case "IN_PROGRESS":
		return Warning.Render(status)
	case "COMPLETED":
		return Success.Render(status)
	case "CANCELLED":
		return Muted.Render(status)
	default:
		return status
	}
}

// SeverityBadge colors a finding severity.
func SeverityBadge(severity string) string {
	switch severity {
	case "info":
		return Info.Render(severity)
	case "minor":
		return Warning.Render(severity)
	case "major", "urgent":
		return Error.Render(severity)
	default:
		return severity
	}
}

// ProgressBar renders visited progress as a fixed-width bar.
func ProgressBar(completed, total, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if total > 0 {
		filled = completed * width / total
	}
	if filled > width {
		filled = width
	}
	bar := Success.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d/%d", bar, completed, total)
}

// Checkmark marks a visited section row.
func Checkmark(visited bool) string {
	if visited {
		return Success.Render("✓")
	}
	return Muted.Render("·")
}
