package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/config"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

var (
	rotateColor  = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

// printer renders batch events for the plain (--no-tui) console.
type printer struct {
	w     io.Writer
	panel lipgloss.Style
	title lipgloss.Style
}

func newPrinter(w io.Writer, accent string) *printer {
	if accent == "" {
		accent = config.DefaultAccentColor
	}
	return &printer{
		w: w,
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accent)).
			Padding(0, 1),
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
	}
}

func (p *printer) print(entry optimizer.LogEntry) {
	switch entry.Kind {
	case optimizer.LogTaskStart:
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, formatLogLine(entry))
	case optimizer.LogSkipped:
		fmt.Fprintln(p.w, p.renderPanel("SKIPPED", []string{
			"File: " + entry.File,
			"Status: already optimized",
			"Key Used: NONE",
			"Tokens Used: 0",
			"Total Tokens: " + humanize.Comma(int64(entry.TotalTokens)),
		}))
	case optimizer.LogRotated:
		fmt.Fprintln(p.w, rotateColor.Sprint(formatLogLine(entry)))
	case optimizer.LogSucceeded:
		fmt.Fprintln(p.w, p.renderPanel("OPTIMIZATION METRICS", []string{
			"File: " + entry.File,
			fmt.Sprintf("Key Used: %d", entry.KeyIndex),
			"Tokens Used: " + humanize.Comma(int64(entry.Tokens)),
			"Total Tokens: " + humanize.Comma(int64(entry.TotalTokens)),
			"Complexity: " + entry.Complexity,
			"Speedup: " + entry.Speedup,
			fmt.Sprintf("Lines: +%d -%d", entry.Added, entry.Removed),
		}))
		for _, line := range entry.Diff {
			fmt.Fprintln(p.w, colorDiffLine(line))
		}
	case optimizer.LogFailed, optimizer.LogError:
		fmt.Fprintln(p.w, failColor.Sprint(formatLogLine(entry)))
	case optimizer.LogDone, optimizer.LogStopped:
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, formatLogLine(entry))
		if entry.Summary != nil {
			fmt.Fprintln(p.w, p.renderPanel("SESSION SUMMARY", entry.Summary.Lines()))
		}
	default:
		fmt.Fprintln(p.w, formatLogLine(entry))
	}
}

func (p *printer) renderPanel(title string, lines []string) string {
	return p.panel.Render(p.title.Render(title) + "\n" + strings.Join(lines, "\n"))
}

// formatLogLine renders an entry as "[15:04:05] message".
func formatLogLine(entry optimizer.LogEntry) string {
	return fmt.Sprintf("[%s] %s", entry.Timestamp.Format("15:04:05"), entry.Message)
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+ "):
		return successColor.Sprint(line)
	case strings.HasPrefix(line, "- "):
		return failColor.Sprint(line)
	default:
		return dimColor.Sprint(line)
	}
}

// printPlan lists what a run would do with each task.
func printPlan(w io.Writer, results []optimizer.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No eligible files found.")
		return
	}

	fmt.Fprintln(w, "Plan")
	fmt.Fprintln(w, "────")
	var pending, skipped int
	for i, r := range results {
		label := r.State.String()
		if r.State == optimizer.StateSkipped {
			skipped++
			label = dimColor.Sprint(fmt.Sprintf("%-8s", label))
		} else {
			pending++
			label = fmt.Sprintf("%-8s", label)
		}
		fmt.Fprintf(w, "  %3d  %s  %-30s  %-8s  %s\n", i+1, label, r.Task.Name, r.Task.Language.Label(), r.ArtifactPath)
	}
	fmt.Fprintf(w, "\n%d pending, %d skipped\n", pending, skipped)
}
