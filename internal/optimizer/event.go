package optimizer

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
)

// LogKind identifies the type of a batch event.
type LogKind int

const (
	LogInfo      LogKind = iota // General informational message
	LogTaskStart                // A task left PENDING
	LogSkipped                  // Artifact already present
	LogRotated                  // Quota exhausted, moved to the next key
	LogSucceeded                // Rewrite persisted
	LogFailed                   // Task failed; the batch continues
	LogError                    // Non-task error (report, output dir)
	LogDone                     // Batch finished normally
	LogStopped                  // Batch stopped (context cancelled)
)

var kindNames = map[LogKind]string{
	LogInfo:      "info",
	LogTaskStart: "task_start",
	LogSkipped:   "skipped",
	LogRotated:   "rotated",
	LogSucceeded: "succeeded",
	LogFailed:    "failed",
	LogError:     "error",
	LogDone:      "done",
	LogStopped:   "stopped",
}

func (k LogKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// LogEntry is a structured event emitted by the orchestrator. When
// Orchestrator.Events is set, entries are sent there for TUI consumption.
// Otherwise they fall back to the Orchestrator.Log writer.
type LogEntry struct {
	Kind      LogKind
	Timestamp time.Time
	Message   string

	// Task identity
	File     string
	Language string
	Position int // 1-based position in the batch
	Total    int

	// Credential and usage
	KeyIndex    int // 1-based; 0 when no key served the task
	Tokens      int
	TotalTokens int

	// Metrics, formatted for display
	Complexity string
	Speedup    string
	Added      int
	Removed    int
	Diff       []string // set only when Orchestrator.Diff is true

	// Set on LogDone and LogStopped
	Summary *report.Summary
}
