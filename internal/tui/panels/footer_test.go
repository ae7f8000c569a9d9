package panels

import (
	"strings"
	"testing"
)

func TestRenderFooter(t *testing.T) {
	tests := []struct {
		name     string
		props    FooterProps
		contains []string
		excludes []string
	}{
		{
			name:     "tasks hints",
			props:    FooterProps{Focus: "tasks", Status: "last: a.py", GlobalHints: "q:quit  s:stop"},
			contains: []string{"last: a.py", "enter:view", "s:stop"},
		},
		{
			name:     "main hints",
			props:    FooterProps{Focus: "main"},
			contains: []string{"—", "f:follow"},
		},
		{
			name:     "secondary hints",
			props:    FooterProps{Focus: "secondary"},
			contains: []string{"[/]:tab", "j/k:scroll"},
		},
		{
			name:     "stop requested",
			props:    FooterProps{Focus: "main", StopRequested: true},
			contains: []string{"stopping after current file"},
			excludes: []string{"f:follow"},
		},
		{
			name:     "finished wins over stop",
			props:    FooterProps{Status: "report: r.md", StopRequested: true, Finished: true},
			contains: []string{"report: r.md", "batch finished"},
			excludes: []string{"stopping", "s:stop"},
		},
		{
			name:     "no global hints",
			props:    FooterProps{Focus: "secondary"},
			excludes: []string{"q:quit"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderFooter(tt.props, 160)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("RenderFooter() missing %q: %q", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("RenderFooter() should not contain %q: %q", bad, got)
				}
			}
		})
	}
}

func TestPanelHints_Unknown(t *testing.T) {
	if got := panelHints("nope"); got != "tab:next panel" {
		t.Errorf("panelHints(unknown) = %q", got)
	}
}
