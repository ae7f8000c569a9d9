// Package components holds the small widgets the reforge panels are built
// from.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tabSeparator = "  │  "

var dimTab = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// TabBar is a one-line row of labels with one of them selected.
type TabBar struct {
	labels   []string
	selected int
	width    int
	hot      lipgloss.Style
}

// NewTabBar selects the first label and draws the selection bold in accent.
func NewTabBar(labels []string, accent string) TabBar {
	return TabBar{
		labels: labels,
		hot:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
	}
}

func (t TabBar) Active() int { return t.selected }

// SetActive selects label i. Indexes outside the bar are ignored.
func (t TabBar) SetActive(i int) TabBar {
	if i >= 0 && i < len(t.labels) {
		t.selected = i
	}
	return t
}

func (t TabBar) Next() TabBar { return t.step(1) }
func (t TabBar) Prev() TabBar { return t.step(-1) }

// step moves the selection by delta, wrapping at both ends.
func (t TabBar) step(delta int) TabBar {
	n := len(t.labels)
	if n == 0 {
		return t
	}
	t.selected = ((t.selected+delta)%n + n) % n
	return t
}

func (t TabBar) SetWidth(w int) TabBar {
	t.width = w
	return t
}

// View draws the labels, clipped to the width when one is set.
func (t TabBar) View() string {
	var b strings.Builder
	for i, label := range t.labels {
		if i > 0 {
			b.WriteString(tabSeparator)
		}
		style := dimTab
		if i == t.selected {
			style = t.hot
		}
		b.WriteString(style.Render(label))
	}
	if t.width <= 0 {
		return b.String()
	}
	return lipgloss.NewStyle().MaxWidth(t.width).Render(b.String())
}
