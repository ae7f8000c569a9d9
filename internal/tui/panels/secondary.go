package panels

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui/components"
)

// SecondaryTab identifies the active tab of the secondary panel.
type SecondaryTab int

const (
	TabDiff    SecondaryTab = iota // diff of the latest rewrite
	TabKeys                        // per-key usage
	TabMetrics                     // per-file complexity and speedup
)

var secondaryTabLabels = []string{"Diff", "Keys", "Metrics"}

// MetricRow is one optimized file on the Metrics tab.
type MetricRow struct {
	File       string
	Complexity string
	Speedup    string
	Tokens     int
}

type keyStat struct {
	tasks     int
	tokens    int
	exhausted bool
}

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// SecondaryPanel is the right-bottom panel.
type SecondaryPanel struct {
	tabbar    components.TabBar
	diff      components.LogView
	keys      map[int]*keyStat
	metrics   []MetricRow
	width     int
	height    int
	activeTab SecondaryTab
}

// NewSecondaryPanel creates a secondary panel showing the Diff tab.
func NewSecondaryPanel(accent string, w, h int) SecondaryPanel {
	return SecondaryPanel{
		tabbar: components.NewTabBar(secondaryTabLabels, accent).SetWidth(w),
		diff:   components.NewLogView(w, contentHeight(h)),
		keys:   make(map[int]*keyStat),
		width:  w,
		height: h,
	}
}

// SetDiff replaces the Diff tab with a title line and pre-rendered lines.
func (p SecondaryPanel) SetDiff(title string, lines []string) SecondaryPanel {
	content := make([]string, 0, len(lines)+1)
	content = append(content, title)
	content = append(content, lines...)
	p.diff = p.diff.SetContent(content)
	return p
}

// RecordTask charges tokens for one task to the 1-based key.
func (p SecondaryPanel) RecordTask(key, tokens int) SecondaryPanel {
	if key < 1 {
		return p
	}
	p.keys = p.cloneKeys()
	st := p.stat(key)
	st.tasks++
	st.tokens += tokens
	return p
}

// MarkExhausted flags the 1-based key as out of quota.
func (p SecondaryPanel) MarkExhausted(key int) SecondaryPanel {
	if key < 1 {
		return p
	}
	p.keys = p.cloneKeys()
	p.stat(key).exhausted = true
	return p
}

// AddMetric appends a row to the Metrics tab.
func (p SecondaryPanel) AddMetric(r MetricRow) SecondaryPanel {
	p.metrics = append(append([]MetricRow(nil), p.metrics...), r)
	return p
}

// ActiveTab returns the selected tab.
func (p SecondaryPanel) ActiveTab() SecondaryTab { return p.activeTab }

func (p SecondaryPanel) stat(key int) *keyStat {
	st, ok := p.keys[key]
	if !ok {
		st = &keyStat{}
		p.keys[key] = st
	}
	return st
}

// cloneKeys copies the key stats so earlier Model values stay unchanged.
func (p SecondaryPanel) cloneKeys() map[int]*keyStat {
	out := make(map[int]*keyStat, len(p.keys)+1)
	for k, v := range p.keys {
		c := *v
		out[k] = &c
	}
	return out
}

// SetSize resizes the panel.
func (p SecondaryPanel) SetSize(w, h int) SecondaryPanel {
	p.width = w
	p.height = h
	p.tabbar = p.tabbar.SetWidth(w)
	p.diff = p.diff.SetSize(w, contentHeight(h))
	return p
}

// Update handles tab switching and scrolls the Diff tab.
func (p SecondaryPanel) Update(msg tea.Msg) (SecondaryPanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "]":
			p.tabbar = p.tabbar.Next()
			p.activeTab = SecondaryTab(p.tabbar.Active())
			return p, nil
		case "[":
			p.tabbar = p.tabbar.Prev()
			p.activeTab = SecondaryTab(p.tabbar.Active())
			return p, nil
		}
	}
	var cmd tea.Cmd
	if p.activeTab == TabDiff {
		p.diff, cmd = p.diff.Update(msg)
	}
	return p, cmd
}

// View renders the tab bar above the active tab.
func (p SecondaryPanel) View() string {
	var content string
	switch p.activeTab {
	case TabDiff:
		if p.diff.Len() == 0 {
			content = p.placeholder("No rewrites yet")
		} else {
			content = p.diff.View()
		}
	case TabKeys:
		content = p.renderKeys()
	case TabMetrics:
		content = p.renderMetrics()
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.tabbar.View(), content)
}

func (p SecondaryPanel) placeholder(text string) string {
	return lipgloss.NewStyle().
		Width(p.width).Height(contentHeight(p.height)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(lipgloss.Color("#888888")).
		Render(text)
}

func (p SecondaryPanel) renderKeys() string {
	if len(p.keys) == 0 {
		return p.placeholder("No keys used yet")
	}
	keys := make([]int, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var sb strings.Builder
	divider := strings.Repeat("─", min(p.width, 40))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-5s %6s %12s  %s", "Key", "Tasks", "Tokens", "Status")))
	sb.WriteString("\n" + dimStyle.Render(divider) + "\n")
	for _, k := range keys {
		st := p.keys[k]
		status := "active"
		if st.exhausted {
			status = "exhausted"
		}
		fmt.Fprintf(&sb, "  %-5d %6d %12s  %s\n", k, st.tasks, humanize.Comma(int64(st.tokens)), status)
	}
	return lipgloss.NewStyle().
		Width(p.width).Height(contentHeight(p.height)).
		Render(strings.TrimRight(sb.String(), "\n"))
}

func (p SecondaryPanel) renderMetrics() string {
	if len(p.metrics) == 0 {
		return p.placeholder("No files optimized yet")
	}
	var sb strings.Builder
	divider := strings.Repeat("─", min(p.width, 56))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-22s %-10s %-9s %10s", "File", "Complexity", "Speedup", "Tokens")))
	sb.WriteString("\n" + dimStyle.Render(divider) + "\n")

	var total int
	for _, r := range p.metrics {
		name := r.File
		if len([]rune(name)) > 22 {
			name = string([]rune(name)[:21]) + "…"
		}
		fmt.Fprintf(&sb, "  %-22s %-10s %-9s %10s\n", name, r.Complexity, r.Speedup, humanize.Comma(int64(r.Tokens)))
		total += r.Tokens
	}
	sb.WriteString(dimStyle.Render(divider) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-42s %10s", "Total", humanize.Comma(int64(total)))))
	return lipgloss.NewStyle().
		Width(p.width).Height(contentHeight(p.height)).
		Render(sb.String())
}
