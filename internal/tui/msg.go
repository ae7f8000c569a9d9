package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
)

// logEntryMsg wraps a batch event.
type logEntryMsg optimizer.LogEntry

// batchDoneMsg signals the event channel closed.
type batchDoneMsg struct{}

// tickMsg drives the header clock.
type tickMsg time.Time

// taskLogLoadedMsg carries a past task's events read back from the store.
type taskLogLoadedMsg struct {
	Position int
	Entries  []optimizer.LogEntry
	Summary  store.TaskSummary
	Err      error
}
