package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the bindings the root model handles before a key reaches
// the focused panel. Panels own every other key.
type keyMap struct {
	Quit      key.Binding
	Stop      key.Binding
	NextPanel key.Binding
	PrevPanel key.Binding
	Tasks     key.Binding
	Main      key.Binding
	Secondary key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	NextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
	PrevPanel: key.NewBinding(key.WithKeys("shift+tab")),
	Tasks:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1-3", "panel")),
	Main:      key.NewBinding(key.WithKeys("2")),
	Secondary: key.NewBinding(key.WithKeys("3")),
}

func (k keyMap) all() []key.Binding {
	return []key.Binding{k.Quit, k.Stop, k.NextPanel, k.PrevPanel, k.Tasks, k.Main, k.Secondary}
}

// hints renders "key:desc" pairs for every binding that carries help.
func (k keyMap) hints() string {
	var parts []string
	for _, b := range k.all() {
		if h := b.Help(); h.Key != "" {
			parts = append(parts, h.Key+":"+h.Desc)
		}
	}
	return strings.Join(parts, "  ")
}
