// Package panels renders the regions of the reforge dashboard. Values come
// in as plain props so the package does not depend on the root model.
package panels

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const headerSeparator = "  │  "

// HeaderProps is everything the header bar shows.
type HeaderProps struct {
	ProjectName string
	WorkDir     string
	Model       string
	Position    int
	Total       int
	KeyIndex    int // 1-based; 0 before the first request
	KeyCount    int
	TotalTokens int
	StateSymbol string
	StateLabel  string
	Elapsed     time.Duration
	Clock       time.Time
}

// AbbreviatePath shortens the home directory to "~" and normalizes
// separators to "/".
func AbbreviatePath(path string) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(path, home) {
		path = "~" + strings.TrimPrefix(path, home)
	}
	return strings.ReplaceAll(path, `\`, "/")
}

// FormatElapsed keeps the two most significant units: 5s, 2m30s, 1h15m.
func FormatElapsed(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// RenderHeader draws one row of segments across width. Optional segments
// are left out when their value is empty.
func RenderHeader(p HeaderProps, width int, accent lipgloss.Style) string {
	var segs []string
	add := func(cond bool, s string) {
		if cond {
			segs = append(segs, s)
		}
	}

	name := p.ProjectName
	if name == "" {
		name = "Reforge"
	}
	key := "—"
	if p.KeyIndex > 0 {
		key = fmt.Sprintf("%d/%d", p.KeyIndex, p.KeyCount)
	}

	add(true, "⚒ "+name)
	add(p.WorkDir != "", "dir: "+AbbreviatePath(p.WorkDir))
	add(p.Model != "", "model: "+p.Model)
	add(true, fmt.Sprintf("file: %d/%d", p.Position, p.Total))
	add(true, "key: "+key)
	add(true, "tokens: "+humanize.Comma(int64(p.TotalTokens)))
	add(p.StateLabel != "", strings.TrimSpace(p.StateSymbol+" "+p.StateLabel))
	add(p.Elapsed > 0, "elapsed: "+FormatElapsed(p.Elapsed))
	add(!p.Clock.IsZero(), p.Clock.Format("15:04"))

	return accent.Width(width).MaxHeight(1).Render(strings.Join(segs, headerSeparator))
}
