package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
)

// ErrNoLogs is returned by Latest when dir holds no run logs.
var ErrNoLogs = errors.New("store: no run logs")

// maxLine bounds a single JSONL line on read-back. Diff-carrying entries can
// be large.
const maxLine = 16 << 20

// JSONL is a Store backed by an append-only JSONL file. Each line is a
// JSON-serialized optimizer.LogEntry. The file is synced after every Append.
//
// Run identity: "<unix-timestamp>-<short-uuid>.jsonl", so names sort
// chronologically.
type JSONL struct {
	file      *os.File
	mu        sync.Mutex
	idx       *fileIndex
	runID     string
	startedAt time.Time
	pos       int64 // current write position in the file
	log       *zap.Logger
}

// NewJSONL creates a fresh run log in dir, creating dir if needed.
func NewJSONL(dir string, log *zap.Logger) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	now := time.Now()
	runID := uuid.New().String()[:8]
	path := filepath.Join(dir, fmt.Sprintf("%d-%s.jsonl", now.Unix(), runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	return &JSONL{
		file:      f,
		idx:       newFileIndex(),
		runID:     runID,
		startedAt: now,
		log:       orNop(log),
	}, nil
}

// Open reads an existing run log and rebuilds its index. The returned store
// is read-only; Append fails.
func Open(path string, log *zap.Logger) (*JSONL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	j := &JSONL{
		file:  f,
		idx:   newFileIndex(),
		runID: runIDFromName(filepath.Base(path)),
		log:   orNop(log),
	}

	r := bufio.NewReaderSize(f, 64<<10)
	for {
		line, readErr := r.ReadBytes('\n')
		if len(line) > 0 {
			j.index(line)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = f.Close()
			return nil, fmt.Errorf("store: read %q: %w", path, readErr)
		}
	}
	return j, nil
}

func (j *JSONL) index(line []byte) {
	offset, n := j.pos, int64(len(line))
	j.pos += n
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || len(trimmed) > maxLine {
		return
	}
	var e optimizer.LogEntry
	if err := json.Unmarshal(trimmed, &e); err != nil {
		j.log.Warn("skipping malformed run log line", zap.Int64("offset", offset), zap.Error(err))
		return
	}
	if j.startedAt.IsZero() {
		j.startedAt = e.Timestamp
	}
	j.idx.onAppend(e, offset, n)
}

// Latest returns the newest run log in dir.
func Latest(dir string) (string, error) {
	files, err := logFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoLogs
	}
	return filepath.Join(dir, files[len(files)-1]), nil
}

// Path is the file backing the store.
func (j *JSONL) Path() string { return j.file.Name() }

// RunID identifies the run.
func (j *JSONL) RunID() string { return j.runID }

// Append serializes entry as a JSON line, writes it, and syncs. It is safe
// to call from multiple goroutines.
func (j *JSONL) Append(entry optimizer.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	lineOffset := j.pos
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("store: sync: %w", err)
	}
	lineLen := int64(len(data))
	j.pos += lineLen
	j.idx.onAppend(entry, lineOffset, lineLen)
	return nil
}

// Close closes the underlying file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Tasks returns summaries of finished tasks in the order they finished. The
// returned slice is a copy.
func (j *JSONL) Tasks() ([]TaskSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]TaskSummary(nil), j.idx.summaries...), nil
}

// TaskLog returns every event logged for the task at position, read from
// the file through the in-memory offset index.
func (j *JSONL) TaskLog(position int) ([]optimizer.LogEntry, error) {
	j.mu.Lock()
	r, ok := j.idx.ranges[position]
	j.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("store: task %d not found", position)
	}
	size := r.end - r.start
	if size <= 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	if _, err := j.file.ReadAt(buf, r.start); err != nil {
		return nil, fmt.Errorf("store: read task %d: %w", position, err)
	}
	var entries []optimizer.LogEntry
	for _, line := range bytes.Split(buf, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var e optimizer.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			j.log.Warn("skipping malformed run log line", zap.Int("task", position), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RunSummary derives run totals from the index.
func (j *JSONL) RunSummary() (RunSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := RunSummary{
		RunID:       j.runID,
		StartedAt:   j.startedAt,
		Tasks:       len(j.idx.summaries),
		TotalTokens: j.idx.tokens,
		ReportPath:  j.idx.reportPath,
		Finished:    j.idx.finished,
	}
	for _, t := range j.idx.summaries {
		switch t.Outcome {
		case optimizer.LogSucceeded.String():
			s.Optimized++
		case optimizer.LogSkipped.String():
			s.Skipped++
		case optimizer.LogFailed.String():
			s.Failed++
		}
	}
	return s, nil
}

// EnforceRetention removes the oldest run logs in dir, keeping at most
// maxKeep. maxKeep <= 0 keeps everything. A missing dir is not an error.
func EnforceRetention(dir string, maxKeep int) error {
	if maxKeep <= 0 {
		return nil
	}
	files, err := logFiles(dir)
	if err != nil {
		return err
	}
	for i := 0; i < len(files)-maxKeep; i++ {
		path := filepath.Join(dir, files[i])
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove %q: %w", path, err)
		}
	}
	return nil
}

// logFiles lists run log names in dir, oldest first.
func logFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files) // timestamp-prefixed names sort chronologically
	return files, nil
}

func runIDFromName(name string) string {
	name = strings.TrimSuffix(name, ".jsonl")
	if i := strings.IndexByte(name, '-'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
