package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/panels"
)

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case logEntryMsg:
		return m.handleLogEntry(optimizer.LogEntry(msg))
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	case batchDoneMsg:
		// The batch goroutine closed the channel; stay open until q.
		return m, nil
	case panels.TaskSelectedMsg:
		return m.handleTaskSelected(msg)
	case taskLogLoadedMsg:
		return m.handleTaskLogLoaded(msg)
	}
	return m.delegateToFocused(msg)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = Calculate(msg.Width, msg.Height)
	if !m.layout.TooSmall {
		tasksW, tasksH := innerDims(m.layout.Tasks)
		mainW, mainH := innerDims(m.layout.Main)
		secW, secH := innerDims(m.layout.Secondary)
		m.tasks = m.tasks.SetSize(tasksW, tasksH)
		m.mainView = m.mainView.SetSize(mainW, mainH)
		m.secondary = m.secondary.SetSize(secW, secH)
		m.progress = m.progress.SetWidth(m.layout.Progress.Width)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Stop):
		if m.opts.RequestStop != nil && !m.stopRequested && !m.finishedBatch() {
			m.stopRequested = true
			m.opts.RequestStop()
		}
	case key.Matches(msg, keys.NextPanel):
		m.focus = m.focus.Next()
	case key.Matches(msg, keys.PrevPanel):
		m.focus = m.focus.Prev()
	case key.Matches(msg, keys.Tasks):
		m.focus = FocusTasks
	case key.Matches(msg, keys.Main):
		m.focus = FocusMain
	case key.Matches(msg, keys.Secondary):
		m.focus = FocusSecondary
	default:
		return m.delegateToFocused(msg)
	}
	return m, nil
}

func (m Model) delegateToFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case FocusMain:
		m.mainView, cmd = m.mainView.Update(msg)
	case FocusSecondary:
		m.secondary, cmd = m.secondary.Update(msg)
	}
	return m, cmd
}

func (m Model) finishedBatch() bool {
	return m.state == StateDone || m.state == StateStopped
}

func (m *Model) transition(next BatchState) {
	if m.state.CanTransitionTo(next) {
		m.state = next
	}
}

func (m Model) handleLogEntry(entry optimizer.LogEntry) (tea.Model, tea.Cmd) {
	if entry.Total > 0 {
		m.total = entry.Total
	}
	if entry.Position > 0 {
		m.position = entry.Position
	}
	if entry.KeyIndex > 0 {
		m.keyIndex = entry.KeyIndex
	}
	if entry.TotalTokens > 0 {
		m.totalTokens = entry.TotalTokens
	}
	if entry.File != "" {
		m.lastFile = entry.File
	}

	summary := store.TaskSummary{
		Position:   entry.Position,
		File:       entry.File,
		Language:   entry.Language,
		Outcome:    entry.Kind.String(),
		KeyIndex:   entry.KeyIndex,
		Tokens:     entry.Tokens,
		Complexity: entry.Complexity,
		Speedup:    entry.Speedup,
		Message:    entry.Message,
		EndAt:      entry.Timestamp,
	}

	switch entry.Kind {
	case optimizer.LogTaskStart:
		m.transition(StateRunning)
		summary.Outcome = ""
		summary.StartAt = entry.Timestamp
		summary.EndAt = time.Time{}
		m.tasks = m.tasks.Upsert(summary).SetCurrent(entry.Position)

	case optimizer.LogSkipped:
		m.transition(StateRunning)
		m.finished++
		m.tasks = m.tasks.Upsert(summary)

	case optimizer.LogRotated:
		m.transition(StateRotating)
		m.secondary = m.secondary.MarkExhausted(entry.KeyIndex - 1)

	case optimizer.LogSucceeded:
		m.transition(StateRunning)
		m.finished++
		m.tasks = m.tasks.Upsert(summary).SetCurrent(0)
		m.secondary = m.secondary.
			RecordTask(entry.KeyIndex, entry.Tokens).
			AddMetric(panels.MetricRow{
				File:       entry.File,
				Complexity: entry.Complexity,
				Speedup:    entry.Speedup,
				Tokens:     entry.Tokens,
			})
		m.secondary = m.secondary.SetDiff(m.diffTitle(entry), m.renderDiff(entry))

	case optimizer.LogFailed:
		m.transition(StateRunning)
		m.finished++
		m.tasks = m.tasks.Upsert(summary).SetCurrent(0)
		m.secondary = m.secondary.RecordTask(entry.KeyIndex, entry.Tokens)
		if isExhaustion(entry) {
			m.secondary = m.secondary.MarkExhausted(entry.KeyIndex)
		}

	case optimizer.LogDone, optimizer.LogStopped:
		if entry.Kind == optimizer.LogDone {
			m.transition(StateDone)
		} else {
			m.transition(StateStopped)
		}
		m.tasks = m.tasks.SetCurrent(0)
		if entry.Summary != nil {
			m.reportPath = entry.Summary.ReportPath
			m.totalTokens = entry.Summary.TotalTokens
		}
	}

	m.mainView = m.mainView.AppendLine(m.theme.RenderLogLine(entry, m.layout.Main.Width))
	return m, waitForEvent(m.events)
}

// isExhaustion reports whether a failure came from running out of keys.
func isExhaustion(entry optimizer.LogEntry) bool {
	return entry.KeyIndex > 0 && strings.Contains(entry.Message, "keys exhausted")
}

func (m Model) diffTitle(entry optimizer.LogEntry) string {
	return fmt.Sprintf("%s  +%d -%d  complexity %s  speedup %s",
		entry.File, entry.Added, entry.Removed, entry.Complexity, entry.Speedup)
}

func (m Model) renderDiff(entry optimizer.LogEntry) []string {
	if !m.opts.Diff || len(entry.Diff) == 0 {
		return []string{timestampStyle.Render("(run with --diff to see line changes)")}
	}
	lines := make([]string, len(entry.Diff))
	for i, l := range entry.Diff {
		lines[i] = m.theme.RenderDiffLine(l)
	}
	return lines
}

func (m Model) handleTaskSelected(msg panels.TaskSelectedMsg) (tea.Model, tea.Cmd) {
	if m.storeReader == nil {
		return m, nil
	}
	reader := m.storeReader
	pos := msg.Position
	return m, func() tea.Msg {
		entries, err := reader.TaskLog(pos)
		var summary store.TaskSummary
		if summaries, sErr := reader.Tasks(); sErr == nil {
			for _, s := range summaries {
				if s.Position == pos {
					summary = s
					break
				}
			}
		}
		return taskLogLoadedMsg{Position: pos, Entries: entries, Summary: summary, Err: err}
	}
}

func (m Model) handleTaskLogLoaded(msg taskLogLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, nil
	}
	lines := renderTaskSummary(msg.Summary)
	lines = append(lines, "")
	for _, e := range msg.Entries {
		lines = append(lines, m.theme.RenderLogLine(e, m.layout.Main.Width))
	}
	m.mainView = m.mainView.ShowTask(lines)
	return m, nil
}

// renderTaskSummary formats a TaskSummary as key-value lines.
func renderTaskSummary(s store.TaskSummary) []string {
	lines := []string{
		fmt.Sprintf("%-12s #%d %s", "Task:", s.Position, s.File),
		fmt.Sprintf("%-12s %s", "Language:", s.Language),
		fmt.Sprintf("%-12s %s", "Outcome:", s.Outcome),
	}
	if s.KeyIndex > 0 {
		lines = append(lines,
			fmt.Sprintf("%-12s %d", "Key:", s.KeyIndex),
			fmt.Sprintf("%-12s %s", "Tokens:", humanize.Comma(int64(s.Tokens))))
	}
	if s.Complexity != "" {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Complexity:", s.Complexity))
	}
	if s.Speedup != "" {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Speedup:", s.Speedup))
	}
	if !s.StartAt.IsZero() && !s.EndAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Duration:", s.EndAt.Sub(s.StartAt).Round(time.Millisecond)))
	}
	return lines
}
