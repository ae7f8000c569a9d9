package panels

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/components"
)

// MainTab identifies the active tab of the main view.
type MainTab int

const (
	TabOutput MainTab = iota // live batch output
	TabTask                  // a past task read back from the run log
)

var mainTabLabels = []string{"Output", "Task"}

// MainView is the right-top panel. Output follows the batch while Task
// shows the selected task's summary and events from the top.
type MainView struct {
	tabbar    components.TabBar
	output    components.LogView
	task      components.LogView
	width     int
	height    int
	activeTab MainTab
}

// NewMainView creates a MainView with the output tab active.
func NewMainView(accent string, w, h int) MainView {
	contentH := contentHeight(h)
	return MainView{
		tabbar: components.NewTabBar(mainTabLabels, accent).SetWidth(w),
		output: components.NewLogView(w, contentH),
		task:   components.NewLogView(w, contentH).ToggleFollow(),
		width:  w,
		height: h,
	}
}

// AppendLine appends a pre-rendered line to the live output.
func (v MainView) AppendLine(rendered string) MainView {
	v.output = v.output.AppendLine(rendered)
	return v
}

// ShowTask replaces the task tab's content and switches to it.
func (v MainView) ShowTask(lines []string) MainView {
	v.task = v.task.SetContent(lines).GotoTop()
	return v.setTab(TabTask)
}

// SwitchToOutput returns to the live output tab.
func (v MainView) SwitchToOutput() MainView {
	return v.setTab(TabOutput)
}

// ActiveTab returns the selected tab.
func (v MainView) ActiveTab() MainTab { return v.activeTab }

// OutputLen returns the number of live output lines.
func (v MainView) OutputLen() int { return v.output.Len() }

func (v MainView) setTab(tab MainTab) MainView {
	v.activeTab = tab
	v.tabbar = v.tabbar.SetActive(int(tab))
	return v
}

// SetSize resizes the view.
func (v MainView) SetSize(w, h int) MainView {
	v.width = w
	v.height = h
	v.tabbar = v.tabbar.SetWidth(w)
	v.output = v.output.SetSize(w, contentHeight(h))
	v.task = v.task.SetSize(w, contentHeight(h))
	return v
}

// Update handles tab switching, follow toggling and scrolling.
func (v MainView) Update(msg tea.Msg) (MainView, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "]":
			v.tabbar = v.tabbar.Next()
			v.activeTab = MainTab(v.tabbar.Active())
			return v, nil
		case "[":
			v.tabbar = v.tabbar.Prev()
			v.activeTab = MainTab(v.tabbar.Active())
			return v, nil
		case "f":
			if v.activeTab == TabOutput {
				v.output = v.output.ToggleFollow()
			}
			return v, nil
		}
	}
	if v.activeTab == TabTask {
		v.task, cmd = v.task.Update(msg)
	} else {
		v.output, cmd = v.output.Update(msg)
	}
	return v, cmd
}

// View renders the tab bar above the active tab.
func (v MainView) View() string {
	content := v.output.View()
	if v.activeTab == TabTask {
		content = v.task.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.tabbar.View(), content)
}

// contentHeight is the panel height minus the tab bar row.
func contentHeight(h int) int {
	if h-1 < 1 {
		return 1
	}
	return h - 1
}
