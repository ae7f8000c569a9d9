package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// FooterProps holds the data rendered in the footer bar.
type FooterProps struct {
	Focus         string // "tasks", "main" or "secondary"
	Status        string // last file, or the report path once done
	GlobalHints   string // root bindings, shown after the panel hints
	StopRequested bool
	Finished      bool
}

// RenderFooter renders the footer: status on the left, key hints for the
// focused panel on the right.
func RenderFooter(props FooterProps, width int) string {
	left := props.Status
	if left == "" {
		left = "—"
	}

	var right string
	switch {
	case props.Finished:
		right = "batch finished  q:quit"
	case props.StopRequested:
		right = "⏹ stopping after current file…  q to force quit"
	default:
		right = strings.TrimSpace(panelHints(props.Focus) + "  " + props.GlobalHints)
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return footerStyle.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}

func panelHints(focus string) string {
	switch focus {
	case "tasks":
		return "j/k:navigate  enter:view"
	case "main":
		return "f:follow  [/]:tab  ctrl+u/d:scroll"
	case "secondary":
		return "[/]:tab  j/k:scroll"
	default:
		return "tab:next panel"
	}
}
