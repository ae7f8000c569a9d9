package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/components"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/panels"
)

// Options describe the batch the TUI is watching.
type Options struct {
	AccentColor string
	ProjectName string
	WorkDir     string
	Model       string
	KeyCount    int
	Diff        bool // render rewrite diffs on the Diff tab

	// RequestStop, if non-nil, is called once when the user presses 's'.
	RequestStop func()
}

// Model is the root bubbletea model for the batch TUI.
type Model struct {
	events      <-chan optimizer.LogEntry
	storeReader store.Reader
	opts        Options

	tasks     panels.TasksPanel
	mainView  panels.MainView
	secondary panels.SecondaryPanel
	progress  components.ProgressBar

	layout Layout
	focus  FocusTarget
	theme  Theme
	width  int
	height int

	state       BatchState
	position    int
	total       int
	finished    int // tasks in a terminal state
	keyIndex    int
	totalTokens int
	lastFile    string
	reportPath  string

	startedAt time.Time
	now       time.Time

	stopRequested bool
	err           error
}

// New creates the TUI model. storeReader may be nil when no run log is
// available; task drill-down is then disabled.
func New(events <-chan optimizer.LogEntry, storeReader store.Reader, opts Options) Model {
	now := time.Now()
	th := NewTheme(opts.AccentColor)
	layout := Calculate(80, 24)

	tasksW, tasksH := innerDims(layout.Tasks)
	mainW, mainH := innerDims(layout.Main)
	secW, secH := innerDims(layout.Secondary)

	return Model{
		events:      events,
		storeReader: storeReader,
		opts:        opts,
		tasks:       panels.NewTasksPanel(th.Accent(), tasksW, tasksH),
		mainView:    panels.NewMainView(th.Accent(), mainW, mainH),
		secondary:   panels.NewSecondaryPanel(th.Accent(), secW, secH),
		progress:    components.NewProgressBar(th.Accent(), layout.Progress.Width),
		layout:      layout,
		focus:       FocusMain,
		theme:       th,
		width:       80,
		height:      24,
		state:       StateIdle,
		startedAt:   now,
		now:         now,
	}
}

// Err returns any error recorded by the TUI.
func (m Model) Err() error { return m.err }

// State returns the batch state derived from the events seen so far.
func (m Model) State() BatchState { return m.state }

// Init starts the event listener and the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the event channel and returns the next message.
func waitForEvent(ch <-chan optimizer.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return batchDoneMsg{}
		}
		return logEntryMsg(entry)
	}
}
