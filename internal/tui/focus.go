package tui

// FocusTarget identifies which panel currently holds keyboard focus.
type FocusTarget int

const (
	FocusTasks     FocusTarget = iota // task list, left
	FocusMain                         // live output, right top
	FocusSecondary                    // diff/keys/metrics, right bottom
	focusCount
)

var focusNames = [focusCount]string{"tasks", "main", "secondary"}

// Next cycles forward through the panels.
func (f FocusTarget) Next() FocusTarget { return (f + 1) % focusCount }

// Prev cycles backward through the panels.
func (f FocusTarget) Prev() FocusTarget { return (f + focusCount - 1) % focusCount }

func (f FocusTarget) String() string {
	if f < 0 || f >= focusCount {
		return "unknown"
	}
	return focusNames[f]
}
