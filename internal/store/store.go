// Package store persists batch events to a JSONL run log and provides
// indexed read-back of past tasks. One store is created per `reforge run`
// in cmd/reforge/wiring.go.
package store

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

// Writer persists batch events to durable storage.
type Writer interface {
	Append(entry optimizer.LogEntry) error
	Close() error
}

// Reader retrieves past task data from storage.
type Reader interface {
	Tasks() ([]TaskSummary, error)
	TaskLog(position int) ([]optimizer.LogEntry, error)
	RunSummary() (RunSummary, error)
}

// Store combines Writer and Reader into a single run-scoped handle.
type Store interface {
	Writer
	Reader
}

// TaskSummary summarises one task that reached a terminal state.
type TaskSummary struct {
	Position   int
	File       string
	Language   string
	Outcome    string // skipped, succeeded or failed
	KeyIndex   int
	Tokens     int
	Complexity string
	Speedup    string
	Message    string
	StartAt    time.Time
	EndAt      time.Time
}

// RunSummary summarises a whole run log.
type RunSummary struct {
	RunID       string
	StartedAt   time.Time
	Tasks       int
	Optimized   int
	Skipped     int
	Failed      int
	TotalTokens int
	ReportPath  string
	Finished    bool
}
