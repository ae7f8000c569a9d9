package panels

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderHeader_BasicFields(t *testing.T) {
	accent := lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4"))
	now := time.Date(2026, 1, 1, 15, 30, 0, 0, time.UTC)

	props := HeaderProps{
		ProjectName: "MyProject",
		Model:       "gemini-3-flash-preview",
		Position:    3,
		Total:       10,
		KeyIndex:    2,
		KeyCount:    4,
		TotalTokens: 12345,
		StateSymbol: "●",
		StateLabel:  "RUNNING",
		Elapsed:     90 * time.Second,
		Clock:       now,
	}

	rendered := RenderHeader(props, 250, accent)
	for _, want := range []string{"MyProject", "gemini-3-flash-preview", "file: 3/10", "key: 2/4", "tokens: 12,345", "● RUNNING", "elapsed: 1m30s", "15:30"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("RenderHeader() missing %q; output: %q", want, rendered)
		}
	}
}

func TestRenderHeader_EmptyFieldFallbacks(t *testing.T) {
	rendered := RenderHeader(HeaderProps{}, 200, lipgloss.NewStyle())
	for _, want := range []string{"Reforge", "file: 0/0", "key: —", "tokens: 0"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("RenderHeader() missing %q; output: %q", want, rendered)
		}
	}
	if strings.Contains(rendered, "elapsed") {
		t.Error("zero elapsed should be omitted")
	}
}

func TestRenderHeader_SingleLine(t *testing.T) {
	props := HeaderProps{ProjectName: strings.Repeat("long", 40), WorkDir: "/somewhere/deep", Model: "m"}
	if rendered := RenderHeader(props, 80, lipgloss.NewStyle()); strings.Contains(rendered, "\n") {
		t.Errorf("header must stay on one row: %q", rendered)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{150 * time.Second, "2m30s"},
		{75 * time.Minute, "1h15m"},
		{1499 * time.Millisecond, "1s"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.in); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAbbreviatePath(t *testing.T) {
	if got := AbbreviatePath(""); got != "" {
		t.Errorf("AbbreviatePath(\"\") = %q", got)
	}
	if got := AbbreviatePath(`C:\work\proj`); got != "C:/work/proj" {
		t.Errorf("backslashes not converted: %q", got)
	}
	t.Setenv("HOME", "/home/tester")
	if got := AbbreviatePath("/home/tester/proj"); got != "~/proj" {
		t.Errorf("home not abbreviated: %q", got)
	}
}
