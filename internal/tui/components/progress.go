package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar shows how many tasks of the batch reached a terminal state.
type ProgressBar struct {
	bar   progress.Model
	width int
}

// NewProgressBar creates a solid bar in the accent color.
func NewProgressBar(accent string, width int) ProgressBar {
	return ProgressBar{
		bar:   progress.New(progress.WithSolidFill(accent), progress.WithoutPercentage()),
		width: width,
	}
}

// SetWidth sets the total render width, label included.
func (p ProgressBar) SetWidth(w int) ProgressBar {
	p.width = w
	return p
}

// View renders the bar followed by a "done/total" label. With total 0
// only the label is shown.
func (p ProgressBar) View(done, total int) string {
	if total > 0 {
		done = min(done, total)
	}
	label := fmt.Sprintf(" %d/%d", done, total)
	if total <= 0 {
		return label
	}
	p.bar.Width = p.width - lipgloss.Width(label)
	if p.bar.Width < 1 {
		return label
	}
	return p.bar.ViewAs(float64(done)/float64(total)) + label
}
