package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

// logGutter is the width taken by "[15:04:05]  " and an icon.
const logGutter = 13

// Theme carries the styles derived from the configured accent color.
type Theme struct {
	accent string
	header lipgloss.Style
	frames [2]lipgloss.Style // unfocused, focused
}

// NewTheme builds a Theme for a "#RRGGBB" accent; "" selects the default.
func NewTheme(accent string) Theme {
	if accent == "" {
		accent = defaultAccentColor
	}
	frame := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	return Theme{
		accent: accent,
		header: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(accent)),
		frames: [2]lipgloss.Style{
			frame.BorderForeground(gray),
			frame.BorderForeground(lipgloss.Color(accent)),
		},
	}
}

func (t Theme) Accent() string { return t.accent }

func (t Theme) AccentHeaderStyle() lipgloss.Style { return t.header }

// PanelBorderStyle frames a panel, in the accent color when focused.
func (t Theme) PanelBorderStyle(focused bool) lipgloss.Style {
	if focused {
		return t.frames[1]
	}
	return t.frames[0]
}

// RenderLogLine formats entry as one "[hh:mm:ss]  icon message" row that
// fits in width.
func (t Theme) RenderLogLine(entry optimizer.LogEntry, width int) string {
	msg := singleLine(entry.Message)
	var text string
	switch entry.Kind {
	case optimizer.LogInfo:
		text = msg
	case optimizer.LogTaskStart:
		text = "── " + msg + " ──"
	default:
		text = kindIcon(entry.Kind) + " " + msg
		if entry.Kind == optimizer.LogSucceeded && entry.Added+entry.Removed > 0 {
			text += fmt.Sprintf("  +%d -%d", entry.Added, entry.Removed)
		}
	}
	stamp := timestampStyle.Render(entry.Timestamp.Format("[15:04:05]"))
	return stamp + "  " + kindStyle(entry.Kind).Render(truncate(text, max(width-logGutter, 20)))
}

// RenderDiffLine colors one line of optimizer.DiffLines output.
func (t Theme) RenderDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+ "):
		return addedStyle.Render(line)
	case strings.HasPrefix(line, "- "):
		return removedStyle.Render(line)
	}
	return timestampStyle.Render(line)
}
