package tui

// BatchState is the coarse state of the batch as seen by the TUI.
type BatchState int

const (
	StateIdle     BatchState = iota // no event received yet
	StateRunning                    // tasks are being processed
	StateRotating                   // a key was just exhausted
	StateDone                       // batch finished normally
	StateStopped                    // batch cancelled or stopped early
)

var stateGlyphs = map[BatchState]struct{ label, symbol string }{
	StateIdle:     {"IDLE", "○"},
	StateRunning:  {"RUNNING", "●"},
	StateRotating: {"ROTATING", "⟳"},
	StateDone:     {"DONE", "✓"},
	StateStopped:  {"STOPPED", "⏹"},
}

// CanTransitionTo reports whether next may follow s. Done and Stopped are
// terminal; every other state may end the batch.
func (s BatchState) CanTransitionTo(next BatchState) bool {
	switch s {
	case StateIdle:
		return next == StateRunning || next == StateDone || next == StateStopped
	case StateRunning:
		return next == StateRotating || next == StateDone || next == StateStopped
	case StateRotating:
		return next == StateRunning || next == StateDone || next == StateStopped
	}
	return false
}

// Label is the uppercase name shown in the header.
func (s BatchState) Label() string {
	if g, ok := stateGlyphs[s]; ok {
		return g.label
	}
	return "UNKNOWN"
}

// Symbol is the one-rune marker shown before the label.
func (s BatchState) Symbol() string {
	if g, ok := stateGlyphs[s]; ok {
		return g.symbol
	}
	return "?"
}
