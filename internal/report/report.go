// Package report accumulates per-file results and writes the run's
// tabular report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/scorer"
)

// Status is the outcome shown in a report row.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Format selects the report document type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatText     Format = "text" // console only
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMarkdown, FormatHTML, FormatCSV:
		return f, nil
	case "":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("report: unknown format %q (want markdown, html or csv)", s)
}

// Ext is the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatCSV:
		return ".csv"
	default:
		return ".md"
	}
}

// Row is one processed (succeeded or failed) file.
type Row struct {
	File             string
	ComplexityBefore scorer.Metric[int]
	ComplexityAfter  scorer.Metric[int]
	Speedup          scorer.Metric[float64]
	Status           Status
	Error            string
	KeyIndex         int // 1-based key that served the request; 0 when none did
	Tokens           int
}

// Complexity formats the before and after scores as "before->after".
func (r Row) Complexity() string {
	return r.ComplexityBefore.String() + "->" + r.ComplexityAfter.String()
}

// Summary describes a finished run.
type Summary struct {
	Processed   int
	Optimized   int
	Skipped     int
	Failed      int
	KeysUsed    []int // 1-based, ascending
	TotalTokens int
	ReportPath  string // empty when no report was written
}

// KeysLabel renders KeysUsed, or NONE.
func (s Summary) KeysLabel() string {
	if len(s.KeysUsed) == 0 {
		return "NONE"
	}
	parts := make([]string, len(s.KeysUsed))
	for i, k := range s.KeysUsed {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, ", ")
}

// Lines renders the summary for display.
func (s Summary) Lines() []string {
	report := "not generated (no files optimized)"
	if s.ReportPath != "" {
		report = s.ReportPath
	}
	return []string{
		fmt.Sprintf("Files Processed: %d", s.Processed),
		fmt.Sprintf("Optimized: %d", s.Optimized),
		fmt.Sprintf("Skipped: %d", s.Skipped),
		fmt.Sprintf("Failed: %d", s.Failed),
		fmt.Sprintf("Keys Used: %s", s.KeysLabel()),
		fmt.Sprintf("Total Tokens Used: %s", humanize.Comma(int64(s.TotalTokens))),
		fmt.Sprintf("Report: %s", report),
	}
}

// Sink collects rows in discovery order.
type Sink struct {
	dir     string
	format  Format
	log     *zap.Logger
	rows    []Row
	skipped []string
}

// NewSink creates a Sink that writes reports of the given format into dir.
func NewSink(dir string, format Format, log *zap.Logger) *Sink {
	if format == "" {
		format = FormatMarkdown
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{dir: dir, format: format, log: log}
}

// Add appends a row.
func (s *Sink) Add(r Row) { s.rows = append(s.rows, r) }

// AddSkipped records a file that already had an artifact.
func (s *Sink) AddSkipped(file string) { s.skipped = append(s.skipped, file) }

// Rows returns the rows added so far.
func (s *Sink) Rows() []Row { return append([]Row(nil), s.rows...) }

// Skipped returns the skipped file names.
func (s *Sink) Skipped() []string { return append([]string(nil), s.skipped...) }

// Succeeded counts SUCCESS rows.
func (s *Sink) Succeeded() int {
	var n int
	for _, r := range s.rows {
		if r.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Finalize writes the report when at least one row succeeded and returns its
// path. With no successful rows it writes nothing and returns "".
func (s *Sink) Finalize(now time.Time) (string, error) {
	if s.Succeeded() == 0 {
		s.log.Info("no successful rows, report skipped", zap.Int("rows", len(s.rows)))
		return "", nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	path := filepath.Join(s.dir, FileName(now, s.format))
	if err := os.WriteFile(path, []byte(Render(s.rows, s.format)), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	s.log.Info("report written", zap.String("path", path), zap.Int("rows", len(s.rows)))
	return path, nil
}

// Summarize builds the run summary from the collected rows.
func (s *Sink) Summarize(keysUsed []int, tokens int, reportPath string) Summary {
	optimized := s.Succeeded()
	return Summary{
		Processed:   len(s.rows) + len(s.skipped),
		Optimized:   optimized,
		Skipped:     len(s.skipped),
		Failed:      len(s.rows) - optimized,
		KeysUsed:    keysUsed,
		TotalTokens: tokens,
		ReportPath:  reportPath,
	}
}

// FileName is the timestamped report name, e.g.
// Optimization_Report_20240102_150405.md.
func FileName(now time.Time, f Format) string {
	return "Optimization_Report_" + now.Format("20060102_150405") + f.Ext()
}

// Render formats rows as a document of type f.
func Render(rows []Row, f Format) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Complexity", "Speedup", "Status"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.File, r.Complexity(), scorer.FormatSpeedup(r.Speedup), string(r.Status)})
	}

	switch f {
	case FormatMarkdown:
		return "# Code Optimization Report\n\n" + t.RenderMarkdown() + "\n"
	case FormatHTML:
		return t.RenderHTML() + "\n"
	case FormatCSV:
		return t.RenderCSV() + "\n"
	default:
		t.SetStyle(table.StyleLight)
		return t.Render()
	}
}
