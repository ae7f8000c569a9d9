// Package state persists the live state of a batch run to
// .reforge/state.json so `reforge status` can report on it.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

// DirName is the working directory for run metadata.
const DirName = ".reforge"

const fileName = "state.json"

// RunState is the persisted view of the current or most recent run.
type RunState struct {
	PID         int       `json:"pid"`
	RunID       string    `json:"run_id"`
	Project     string    `json:"project"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	LastEventAt time.Time `json:"last_event_at"`

	Total       int    `json:"total"`
	Position    int    `json:"position"`
	CurrentFile string `json:"current_file"`
	KeyIndex    int    `json:"key_index"`
	TotalTokens int    `json:"total_tokens"`

	Optimized int `json:"optimized"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	ReportPath string `json:"report_path"`
	LastError  string `json:"last_error"`
	Stopped    bool   `json:"stopped"`
}

// Running reports whether the run has not finished yet.
func (s RunState) Running() bool {
	return !s.StartedAt.IsZero() && s.FinishedAt.IsZero()
}

// Apply folds one batch event into the state and reports whether anything
// worth persisting changed.
func (s *RunState) Apply(e optimizer.LogEntry) bool {
	if !e.Timestamp.IsZero() {
		s.LastEventAt = e.Timestamp
	}
	switch e.Kind {
	case optimizer.LogInfo:
		if e.Total > 0 {
			s.Total = e.Total
			return true
		}
		return false
	case optimizer.LogTaskStart:
		s.Position, s.CurrentFile = e.Position, e.File
	case optimizer.LogSkipped:
		s.Position, s.CurrentFile = e.Position, e.File
		s.Skipped++
	case optimizer.LogRotated:
		s.KeyIndex = e.KeyIndex
	case optimizer.LogSucceeded:
		s.Optimized++
		s.KeyIndex = e.KeyIndex
		s.TotalTokens = e.TotalTokens
	case optimizer.LogFailed:
		s.Failed++
		s.TotalTokens = e.TotalTokens
		s.LastError = e.Message
	case optimizer.LogError:
		s.LastError = e.Message
	case optimizer.LogDone, optimizer.LogStopped:
		s.FinishedAt = e.Timestamp
		s.Stopped = e.Kind == optimizer.LogStopped
		if e.Summary != nil {
			s.ReportPath = e.Summary.ReportPath
			s.TotalTokens = e.Summary.TotalTokens
		}
		s.CurrentFile = ""
	default:
		return false
	}
	return true
}

// Load reads the run state from dir. A missing file yields a zero RunState.
func Load(dir string) (RunState, error) {
	data, err := os.ReadFile(filepath.Join(dir, DirName, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return RunState{}, nil
		}
		return RunState{}, fmt.Errorf("state: read: %w", err)
	}

	var s RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return RunState{}, fmt.Errorf("state: parse: %w", err)
	}
	return s, nil
}

// Save writes s to dir/.reforge/state.json through a temp file and rename,
// so readers never see a partial file.
func Save(dir string, s RunState) error {
	stateDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("state: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(stateDir, fileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: finalize: %w", err)
	}
	return nil
}
