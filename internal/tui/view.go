package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/panels"
)

// View stacks header, progress bar, the panel body and the footer.
func (m Model) View() string {
	if m.layout.TooSmall {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center,
			fmt.Sprintf("Terminal too small (%dx%d); reforge needs at least 80x24.", m.width, m.height))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.framed(FocusTasks, m.layout.Tasks, m.tasks.View()),
		lipgloss.JoinVertical(lipgloss.Left,
			m.framed(FocusMain, m.layout.Main, m.mainView.View()),
			m.framed(FocusSecondary, m.layout.Secondary, m.secondary.View()),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.progress.View(m.finished, m.total),
		body,
		m.footer(),
	)
}

// framed borders content to fit r, highlighting the focused panel.
func (m Model) framed(target FocusTarget, r Rect, content string) string {
	w, h := innerDims(r)
	return m.theme.PanelBorderStyle(m.focus == target).Width(w).Height(h).Render(content)
}

func (m Model) header() string {
	return panels.RenderHeader(panels.HeaderProps{
		ProjectName: m.opts.ProjectName,
		WorkDir:     m.opts.WorkDir,
		Model:       m.opts.Model,
		Position:    m.position,
		Total:       m.total,
		KeyIndex:    m.keyIndex,
		KeyCount:    m.opts.KeyCount,
		TotalTokens: m.totalTokens,
		StateSymbol: m.state.Symbol(),
		StateLabel:  m.state.Label(),
		Elapsed:     m.now.Sub(m.startedAt),
		Clock:       m.now,
	}, m.layout.Header.Width, m.theme.AccentHeaderStyle())
}

func (m Model) footer() string {
	var status string
	switch {
	case m.finishedBatch() && m.reportPath != "":
		status = "report: " + m.reportPath
	case m.finishedBatch():
		status = "report: not generated"
	case m.lastFile != "":
		status = "last: " + m.lastFile
	}
	return panels.RenderFooter(panels.FooterProps{
		Focus:         m.focus.String(),
		Status:        status,
		GlobalHints:   keys.hints(),
		StopRequested: m.stopRequested,
		Finished:      m.finishedBatch(),
	}, m.layout.Footer.Width)
}
