package store

import "github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"

// taskRange is the [start, end) byte range of one task in the JSONL file.
// start is the offset of the task's first line (LogTaskStart, or LogSkipped
// for tasks that never left PENDING); end is the first byte after its
// terminal line.
type taskRange struct {
	start int64
	end   int64
}

// fileIndex keeps byte-offset bookmarks per finished task so TaskLog can
// read one task with file.ReadAt.
type fileIndex struct {
	summaries []TaskSummary
	ranges    map[int]taskRange // task position → byte range
	pending   *pendingTask

	tokens     int
	reportPath string
	finished   bool
}

type pendingTask struct {
	startOffset int64
	summary     TaskSummary
}

func newFileIndex() *fileIndex {
	return &fileIndex{ranges: make(map[int]taskRange)}
}

// onAppend updates the index for a line written at lineOffset with length
// lineLen (including the trailing newline).
func (idx *fileIndex) onAppend(entry optimizer.LogEntry, lineOffset, lineLen int64) {
	switch entry.Kind {
	case optimizer.LogTaskStart, optimizer.LogSkipped:
		idx.pending = &pendingTask{
			startOffset: lineOffset,
			summary: TaskSummary{
				Position: entry.Position,
				File:     entry.File,
				Language: entry.Language,
				StartAt:  entry.Timestamp,
			},
		}
		if entry.Kind == optimizer.LogSkipped {
			idx.close(entry, lineOffset+lineLen)
		}
	case optimizer.LogSucceeded, optimizer.LogFailed:
		idx.tokens = entry.TotalTokens
		idx.close(entry, lineOffset+lineLen)
	case optimizer.LogDone, optimizer.LogStopped:
		idx.finished = true
		if entry.Summary != nil {
			idx.reportPath = entry.Summary.ReportPath
			idx.tokens = entry.Summary.TotalTokens
		}
	}
}

func (idx *fileIndex) close(entry optimizer.LogEntry, end int64) {
	if idx.pending == nil || idx.pending.summary.Position != entry.Position {
		return
	}
	s := idx.pending.summary
	s.Outcome = entry.Kind.String()
	s.KeyIndex = entry.KeyIndex
	s.Tokens = entry.Tokens
	s.Complexity = entry.Complexity
	s.Speedup = entry.Speedup
	s.Message = entry.Message
	s.EndAt = entry.Timestamp
	idx.ranges[s.Position] = taskRange{start: idx.pending.startOffset, end: end}
	idx.summaries = append(idx.summaries, s)
	idx.pending = nil
}
