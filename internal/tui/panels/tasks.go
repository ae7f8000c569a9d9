package panels

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
)

// TaskSelectedMsg is emitted when the user picks a finished task.
type TaskSelectedMsg struct{ Position int }

type taskItem struct {
	summary store.TaskSummary
	running bool
}

func (i taskItem) status() string {
	switch {
	case i.running:
		return "●"
	case i.summary.Outcome == "succeeded":
		return "✓"
	case i.summary.Outcome == "failed":
		return "✗"
	case i.summary.Outcome == "skipped":
		return "⏭"
	default:
		return " "
	}
}

func (i taskItem) Title() string {
	return fmt.Sprintf("%s #%d %s", i.status(), i.summary.Position, i.summary.File)
}

func (i taskItem) Description() string {
	switch {
	case i.running:
		return "optimizing…"
	case i.summary.Outcome == "skipped":
		return "already optimized"
	case i.summary.KeyIndex > 0:
		return fmt.Sprintf("key %d  %s tok", i.summary.KeyIndex, humanize.Comma(int64(i.summary.Tokens)))
	default:
		return ""
	}
}

func (i taskItem) FilterValue() string { return i.summary.File }

type taskDelegate struct{ accent lipgloss.Color }

func (d taskDelegate) Height() int                             { return 1 }
func (d taskDelegate) Spacing() int                            { return 0 }
func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d taskDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(taskItem)
	if !ok {
		return
	}
	s := item.Title()
	if desc := item.Description(); desc != "" {
		s += "  " + desc
	}
	if index == m.Index() {
		s = lipgloss.NewStyle().Bold(true).Foreground(d.accent).Render("> " + s)
	} else {
		s = "  " + s
	}
	fmt.Fprint(w, lipgloss.NewStyle().MaxWidth(m.Width()).Render(s))
}

// TasksPanel lists the tasks of the batch in processing order.
type TasksPanel struct {
	list    list.Model
	tasks   []store.TaskSummary
	current int // position being processed; 0 when none
	width   int
	height  int
}

// NewTasksPanel creates an empty tasks panel.
func NewTasksPanel(accent string, w, h int) TasksPanel {
	l := list.New(nil, taskDelegate{accent: lipgloss.Color(accent)}, w, h)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return TasksPanel{list: l, width: w, height: h}
}

// Upsert records s, replacing any entry at the same position.
func (p TasksPanel) Upsert(s store.TaskSummary) TasksPanel {
	tasks := make([]store.TaskSummary, 0, len(p.tasks)+1)
	replaced := false
	for _, t := range p.tasks {
		if t.Position == s.Position {
			t = s
			replaced = true
		}
		tasks = append(tasks, t)
	}
	if !replaced {
		tasks = append(tasks, s)
	}
	p.tasks = tasks
	p.list.SetItems(p.buildItems())
	return p
}

// SetCurrent marks the task at pos as in progress; 0 clears the marker.
func (p TasksPanel) SetCurrent(pos int) TasksPanel {
	p.current = pos
	p.list.SetItems(p.buildItems())
	return p
}

// Len returns the number of tasks listed.
func (p TasksPanel) Len() int { return len(p.tasks) }

func (p TasksPanel) buildItems() []list.Item {
	items := make([]list.Item, len(p.tasks))
	for i, s := range p.tasks {
		items[i] = taskItem{summary: s, running: p.current != 0 && p.current == s.Position}
	}
	return items
}

// Selected returns the highlighted task, or nil.
func (p TasksPanel) Selected() *store.TaskSummary {
	if item, ok := p.list.SelectedItem().(taskItem); ok {
		s := item.summary
		return &s
	}
	return nil
}

// SetSize resizes the panel.
func (p TasksPanel) SetSize(w, h int) TasksPanel {
	p.width = w
	p.height = h
	p.list.SetSize(w, h)
	return p
}

// Update handles navigation keys. Enter on a finished task emits
// TaskSelectedMsg.
func (p TasksPanel) Update(msg tea.Msg) (TasksPanel, tea.Cmd) {
	var cmd tea.Cmd
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		p.list, cmd = p.list.Update(msg)
		return p, cmd
	}
	switch key.String() {
	case "j", "down":
		p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyDown})
	case "k", "up":
		p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyUp})
	case "enter":
		if sel := p.Selected(); sel != nil && sel.Outcome != "" {
			pos := sel.Position
			return p, func() tea.Msg { return TaskSelectedMsg{Position: pos} }
		}
	default:
		p.list, cmd = p.list.Update(msg)
	}
	return p, cmd
}

// View renders the list, or a placeholder before the first task.
func (p TasksPanel) View() string {
	if len(p.tasks) == 0 {
		return lipgloss.NewStyle().
			Width(p.width).Height(p.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No tasks yet")
	}
	return p.list.View()
}
