package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// MaxLines bounds how many rendered lines a LogView keeps.
const MaxLines = 5000

// LogView wraps bubbles/viewport with a bounded line buffer. While pinned,
// the view tracks the newest line.
type LogView struct {
	vp     viewport.Model
	buf    []string
	pinned bool
	width  int
	height int
}

// NewLogView returns a pinned LogView of w x h cells.
func NewLogView(w, h int) LogView {
	return LogView{vp: viewport.New(w, h), pinned: true, width: w, height: h}
}

// AppendLine adds a pre-styled line. Past MaxLines the oldest lines go.
func (v LogView) AppendLine(rendered string) LogView {
	keep := v.buf[max(len(v.buf)+1-MaxLines, 0):]
	next := make([]string, len(keep), len(keep)+1)
	copy(next, keep)
	v.buf = append(next, rendered)
	return v.sync()
}

// SetContent replaces the buffer with a copy of lines.
func (v LogView) SetContent(lines []string) LogView {
	v.buf = append([]string(nil), lines...)
	return v.sync()
}

// Len is the number of buffered lines.
func (v LogView) Len() int { return len(v.buf) }

// Following reports whether the view is pinned to the newest line.
func (v LogView) Following() bool { return v.pinned }

// ToggleFollow flips pinning. Re-pinning jumps to the newest line.
func (v LogView) ToggleFollow() LogView {
	v.pinned = !v.pinned
	return v.pin()
}

// GotoTop scrolls to the first line without changing pinning.
func (v LogView) GotoTop() LogView {
	v.vp.GotoTop()
	return v
}

// SetSize resizes the viewport.
func (v LogView) SetSize(w, h int) LogView {
	v.width, v.height = w, h
	v.vp.Width, v.vp.Height = w, h
	return v.pin()
}

// Update scrolls on keys and the mouse wheel. Any user scroll that leaves
// the bottom unpins the view.
func (v LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		if v.pinned && !v.vp.AtBottom() {
			v.pinned = false
		}
	}
	return v, cmd
}

// View renders the visible window.
func (v LogView) View() string { return v.vp.View() }

func (v LogView) sync() LogView {
	v.vp.SetContent(strings.Join(v.buf, "\n"))
	return v.pin()
}

func (v LogView) pin() LogView {
	if v.pinned {
		v.vp.GotoBottom()
	}
	return v
}
