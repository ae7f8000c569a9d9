// Package tui is the bubbletea dashboard for a reforge batch.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

const defaultAccentColor = "#7D56F4"

var (
	gray   = lipgloss.Color("#888888")
	green  = lipgloss.Color("#6BCB77")
	red    = lipgloss.Color("#FF6B6B")
	orange = lipgloss.Color("#FFA54F")

	timestampStyle = lipgloss.NewStyle().Foreground(gray)
	addedStyle     = lipgloss.NewStyle().Foreground(green)
	removedStyle   = lipgloss.NewStyle().Foreground(red)
)

type look struct {
	icon  string
	style lipgloss.Style
}

// looks maps event kinds to their glyph and color. Kinds without an entry
// render as plain info lines.
var looks = map[optimizer.LogKind]look{
	optimizer.LogTaskStart: {"", lipgloss.NewStyle().Foreground(lipgloss.Color("#5B9BD5")).Bold(true)},
	optimizer.LogSkipped:   {"⏭", lipgloss.NewStyle().Foreground(gray)},
	optimizer.LogRotated:   {"⟳", lipgloss.NewStyle().Foreground(orange)},
	optimizer.LogSucceeded: {"✓", lipgloss.NewStyle().Foreground(green).Bold(true)},
	optimizer.LogFailed:    {"✗", lipgloss.NewStyle().Foreground(red).Bold(true)},
	optimizer.LogError:     {"❌", lipgloss.NewStyle().Foreground(red).Bold(true)},
	optimizer.LogDone:      {"✅", lipgloss.NewStyle().Foreground(green).Bold(true)},
	optimizer.LogStopped:   {"⏹", lipgloss.NewStyle().Foreground(red).Bold(true)},
}

var infoLook = look{"·", lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))}

func lookFor(kind optimizer.LogKind) look {
	if l, ok := looks[kind]; ok {
		return l
	}
	return infoLook
}

func kindIcon(kind optimizer.LogKind) string { return lookFor(kind).icon }

func kindStyle(kind optimizer.LogKind) lipgloss.Style { return lookFor(kind).style }

// singleLine folds all whitespace runs, newlines included, into one space.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to n runes, the last being an ellipsis. n < 1 disables it.
func truncate(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
