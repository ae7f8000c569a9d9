package optimizer

import (
	"os"
	"path/filepath"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/scorer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

// State is where a task is in its lifecycle. SKIPPED, SUCCEEDED and FAILED
// are terminal.
type State int

const (
	StatePending State = iota
	StateSkipped
	StateRequesting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSkipped:
		return "skipped"
	case StateRequesting:
		return "requesting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether s ends a task.
func (s State) Terminal() bool {
	return s == StateSkipped || s == StateSucceeded || s == StateFailed
}

// Result is the terminal record of one task.
type Result struct {
	Task         source.Task
	State        State
	Rewritten    string
	ArtifactPath string
	KeyIndex     int // 1-based key of the last attempt; 0 if none was made
	Attempts     int // generation calls issued
	Tokens       int
	Comparison   scorer.Comparison
	Err          error
}

// ArtifactPath is the deterministic location of a task's rewrite. Languages
// whose type names are bound to the file name keep the original name;
// everything else gets source.ArtifactPrefix. The file's existence marks the
// task done.
func ArtifactPath(outputDir string, t source.Task) string {
	if t.Language.FilenameBound() {
		return filepath.Join(outputDir, t.Name)
	}
	return filepath.Join(outputDir, source.ArtifactPrefix+t.Name)
}

func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
