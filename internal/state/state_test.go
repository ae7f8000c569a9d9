package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 23, 14, 30, 0, 0, time.UTC)

	original := RunState{
		PID:         12345,
		RunID:       "a1b2c3d4",
		Project:     "demo",
		StartedAt:   now,
		LastEventAt: now.Add(time.Minute),
		Total:       3,
		Position:    2,
		CurrentFile: "b.py",
		KeyIndex:    1,
		TotalTokens: 420,
		Optimized:   1,
	}

	if err := Save(dir, original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(original, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadNoFile(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load with no file should not error: %v", err)
	}
	if s.PID != 0 || s.Running() {
		t.Errorf("expected zero state, got %+v", s)
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DirName, fileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		if err := Save(dir, RunState{Position: i}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, DirName))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != fileName {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only %s, got %v", fileName, names)
	}
}

func TestApply(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := RunState{StartedAt: start}

	events := []optimizer.LogEntry{
		{Kind: optimizer.LogInfo, Total: 3, Timestamp: start},
		{Kind: optimizer.LogSkipped, File: "a.py", Position: 1, Timestamp: start},
		{Kind: optimizer.LogTaskStart, File: "b.py", Position: 2, Timestamp: start},
		{Kind: optimizer.LogRotated, File: "b.py", KeyIndex: 2, Timestamp: start},
		{Kind: optimizer.LogSucceeded, File: "b.py", KeyIndex: 2, TotalTokens: 50, Timestamp: start},
		{Kind: optimizer.LogTaskStart, File: "c.py", Position: 3, Timestamp: start},
		{Kind: optimizer.LogFailed, File: "c.py", Message: "Error processing c.py: boom", TotalTokens: 50, Timestamp: start},
	}
	for _, e := range events {
		if !s.Apply(e) {
			t.Errorf("Apply(%v) reported no change", e.Kind)
		}
	}
	if !s.Running() {
		t.Error("expected run to be in progress")
	}

	end := start.Add(time.Minute)
	s.Apply(optimizer.LogEntry{
		Kind:      optimizer.LogDone,
		Timestamp: end,
		Summary:   &report.Summary{TotalTokens: 50, ReportPath: "reports/r.md"},
	})

	want := RunState{
		StartedAt:   start,
		FinishedAt:  end,
		LastEventAt: end,
		Total:       3,
		Position:    3,
		KeyIndex:    2,
		TotalTokens: 50,
		Optimized:   1,
		Skipped:     1,
		Failed:      1,
		ReportPath:  "reports/r.md",
		LastError:   "Error processing c.py: boom",
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if s.Running() {
		t.Error("expected run to be finished")
	}
}

func TestApplyStopped(t *testing.T) {
	var s RunState
	ts := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s.Apply(optimizer.LogEntry{Kind: optimizer.LogStopped, Timestamp: ts})
	if !s.Stopped || !s.FinishedAt.Equal(ts) {
		t.Errorf("expected stopped run finished at %v, got %+v", ts, s)
	}
}
