package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

func TestFormatLogLine(t *testing.T) {
	entry := optimizer.LogEntry{
		Timestamp: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Message:   "Starting batch: 3 files, 2 keys",
	}
	if got, want := formatLogLine(entry), "[15:04:05] Starting batch: 3 files, 2 keys"; got != want {
		t.Errorf("formatLogLine() = %q, want %q", got, want)
	}
}

func TestPrinter(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		name     string
		entry    optimizer.LogEntry
		contains []string
		excludes []string
	}{
		{
			name:     "info",
			entry:    optimizer.LogEntry{Kind: optimizer.LogInfo, Timestamp: ts, Message: "hello"},
			contains: []string{"[15:04:05] hello"},
		},
		{
			name:     "skipped panel",
			entry:    optimizer.LogEntry{Kind: optimizer.LogSkipped, File: "a.py", TotalTokens: 1500},
			contains: []string{"SKIPPED", "File: a.py", "Key Used: NONE", "Tokens Used: 0", "Total Tokens: 1,500"},
		},
		{
			name:     "rotation",
			entry:    optimizer.LogEntry{Kind: optimizer.LogRotated, Timestamp: ts, Message: "Key 1 exhausted, rotated to key 2 of 3"},
			contains: []string{"rotated to key 2 of 3"},
		},
		{
			name: "metrics panel with diff",
			entry: optimizer.LogEntry{
				Kind: optimizer.LogSucceeded, File: "b.py", KeyIndex: 2, Tokens: 1200, TotalTokens: 2700,
				Complexity: "4->3", Speedup: "1.50x", Added: 1, Removed: 1,
				Diff: []string{"- x = 1", "+ x = 2", "  y = 3"},
			},
			contains: []string{"OPTIMIZATION METRICS", "File: b.py", "Key Used: 2", "Tokens Used: 1,200", "Total Tokens: 2,700", "Complexity: 4->3", "Speedup: 1.50x", "Lines: +1 -1", "- x = 1", "+ x = 2", "  y = 3"},
		},
		{
			name:     "failure",
			entry:    optimizer.LogEntry{Kind: optimizer.LogFailed, Timestamp: ts, Message: "Error processing c.py: boom"},
			contains: []string{"Error processing c.py: boom"},
		},
		{
			name: "session summary",
			entry: optimizer.LogEntry{
				Kind: optimizer.LogDone, Timestamp: ts, Message: "Batch complete",
				Summary: &report.Summary{Processed: 2, Optimized: 0, Failed: 2},
			},
			contains: []string{"Batch complete", "SESSION SUMMARY", "Files Processed: 2", "Keys Used: NONE", "Report: not generated"},
		},
		{
			name:     "stopped without summary",
			entry:    optimizer.LogEntry{Kind: optimizer.LogStopped, Timestamp: ts, Message: "Batch stopped"},
			contains: []string{"Batch stopped"},
			excludes: []string{"SESSION SUMMARY"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newPrinter(&buf, "").print(tt.entry)
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(out, bad) {
					t.Errorf("output should not contain %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestPrintPlan(t *testing.T) {
	var empty bytes.Buffer
	printPlan(&empty, nil)
	if !strings.Contains(empty.String(), "No eligible files found.") {
		t.Errorf("empty plan = %q", empty.String())
	}

	results := []optimizer.Result{
		{Task: source.Task{Name: "a.py", Language: source.LangPython}, State: optimizer.StateSkipped, ArtifactPath: "out/opt_a.py"},
		{Task: source.Task{Name: "Main.java", Language: source.LangJava}, State: optimizer.StatePending, ArtifactPath: "out/Main.java"},
	}
	var buf bytes.Buffer
	printPlan(&buf, results)
	out := buf.String()
	for _, want := range []string{"skipped", "a.py", "PYTHON", "out/opt_a.py", "pending", "Main.java", "JAVA", "1 pending, 1 skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan missing %q:\n%s", want, out)
		}
	}
}
