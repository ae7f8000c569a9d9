// Package optimizer drives a batch: one rate-limited generation request per
// source file, credential rotation on quota exhaustion, persisted rewrites
// and a report row for every task.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/gemini"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/sanitize"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/scorer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

// ErrStopRequested is returned by Run when StopAfter was closed.
var ErrStopRequested = errors.New("optimizer: stop requested")

// Pool is the credential pool the orchestrator draws on.
// *credential.Rotator satisfies this interface.
type Pool interface {
	Current(ctx context.Context) (gemini.Generator, error)
	Rotate() bool
	RecordUsage(n int)
	Index() int
	Size() int
	Used() []int
	TotalUsage() int
}

// Scorer compares an original with its rewrite. *scorer.Scorer satisfies
// this interface.
type Scorer interface {
	Compare(ctx context.Context, lang source.Language, before, after string) scorer.Comparison
}

// Orchestrator runs tasks sequentially; exactly one request is outstanding
// at a time.
type Orchestrator struct {
	Pool      Pool
	Scorer    Scorer
	Sink      *report.Sink
	OutputDir string

	Prompt  *template.Template // defaults to DefaultPrompt
	Limiter *rate.Limiter      // nil disables pacing
	Diff    bool               // attach line diffs to LogSucceeded entries

	// StopAfter, when closed, ends the batch after the task in progress.
	StopAfter <-chan struct{}

	Log    io.Writer        // output destination; defaults to os.Stdout
	Events chan<- LogEntry  // if set, events go here instead of Log; must be drained
	Logger *zap.Logger      // diagnostics; defaults to a no-op logger
	Now    func() time.Time // report timestamp; defaults to time.Now

	// NotificationHook, if set, is called for every emitted entry.
	NotificationHook func(LogEntry)
}

// NewLimiter paces requests to rpm per minute. It returns nil for rpm <= 0.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Plan reports what Run would do with each task without calling the
// service: SKIPPED when the artifact exists, PENDING otherwise.
func (o *Orchestrator) Plan(tasks []source.Task) []Result {
	out := make([]Result, len(tasks))
	for i, t := range tasks {
		path := ArtifactPath(o.OutputDir, t)
		state := StatePending
		if artifactExists(path) {
			state = StateSkipped
		}
		out[i] = Result{Task: t, State: state, ArtifactPath: path}
	}
	return out
}

// Run processes tasks in order and finalizes the report. Per-task failures
// never abort the batch. It returns early with ctx.Err() when the context is
// cancelled between tasks; the report is still finalized for the tasks that
// finished.
func (o *Orchestrator) Run(ctx context.Context, tasks []source.Task) ([]Result, report.Summary, error) {
	if o.Pool == nil || o.Scorer == nil || o.Sink == nil {
		return nil, report.Summary{}, errors.New("optimizer: pool, scorer and sink are required")
	}
	if o.Prompt == nil {
		tmpl, err := ParsePrompt(DefaultPrompt)
		if err != nil {
			return nil, report.Summary{}, err
		}
		o.Prompt = tmpl
	}
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return nil, report.Summary{}, fmt.Errorf("optimizer: create output dir: %w", err)
	}

	o.emit(LogEntry{
		Kind:    LogInfo,
		Message: fmt.Sprintf("Starting batch: %d files, %d keys", len(tasks), o.Pool.Size()),
		Total:   len(tasks),
	})

	results := make([]Result, 0, len(tasks))
	var runErr error
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if o.stopRequested() {
			runErr = ErrStopRequested
			break
		}
		results = append(results, o.process(ctx, i+1, len(tasks), t))
	}

	summary := o.finish()
	if runErr != nil {
		o.emit(LogEntry{
			Kind:    LogStopped,
			Message: fmt.Sprintf("Batch stopped: %v", runErr),
			Summary: &summary,
		})
		return results, summary, runErr
	}
	o.emit(LogEntry{
		Kind: LogDone,
		Message: fmt.Sprintf("Batch complete: %d optimized, %d skipped, %d failed, %s tokens",
			summary.Optimized, summary.Skipped, summary.Failed, humanize.Comma(int64(summary.TotalTokens))),
		TotalTokens: summary.TotalTokens,
		Summary:     &summary,
	})
	return results, summary, nil
}

func (o *Orchestrator) finish() report.Summary {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	path, err := o.Sink.Finalize(now())
	if err != nil {
		o.logger().Error("finalize report", zap.Error(err))
		o.emit(LogEntry{Kind: LogError, Message: fmt.Sprintf("Report not written: %v", err)})
	}

	used := o.Pool.Used()
	keys := make([]int, len(used))
	for i, idx := range used {
		keys[i] = idx + 1
	}
	return o.Sink.Summarize(keys, o.Pool.TotalUsage(), path)
}

// process drives one task from PENDING to a terminal state.
func (o *Orchestrator) process(ctx context.Context, pos, total int, t source.Task) Result {
	res := Result{Task: t, State: StatePending, ArtifactPath: ArtifactPath(o.OutputDir, t)}
	base := LogEntry{File: t.Name, Language: t.Language.Label(), Position: pos, Total: total}

	if artifactExists(res.ArtifactPath) {
		res.State = StateSkipped
		o.Sink.AddSkipped(t.Name)
		e := base
		e.Kind = LogSkipped
		e.Message = fmt.Sprintf("%s already optimized (key NONE, tokens 0)", t.Name)
		e.TotalTokens = o.Pool.TotalUsage()
		o.emit(e)
		return res
	}

	e := base
	e.Kind = LogTaskStart
	e.Message = fmt.Sprintf("[%d/%d] %s (%s)", pos, total, t.Name, t.Language.Label())
	o.emit(e)

	prompt, err := renderPrompt(o.Prompt, t)
	if err != nil {
		return o.fail(res, base, err)
	}

	res.State = StateRequesting
	for {
		res.KeyIndex = o.Pool.Index() + 1
		resp, err := o.request(ctx, prompt)
		res.Attempts++
		if err == nil {
			return o.succeed(ctx, res, base, resp)
		}
		// A failed call can still be billed, e.g. an empty response.
		if resp.Tokens > 0 {
			o.Pool.RecordUsage(resp.Tokens)
			res.Tokens += resp.Tokens
		}

		if gemini.Classify(err) != gemini.FaultQuotaExhausted {
			return o.fail(res, base, err)
		}
		from := o.Pool.Index() + 1
		if !o.Pool.Rotate() {
			return o.fail(res, base, fmt.Errorf("all %d keys exhausted: %w", o.Pool.Size(), err))
		}
		o.logger().Info("rotated credential",
			zap.String("file", t.Name), zap.Int("from", from), zap.Int("to", o.Pool.Index()+1))
		r := base
		r.Kind = LogRotated
		r.KeyIndex = o.Pool.Index() + 1
		r.Message = fmt.Sprintf("Key %d exhausted, rotated to key %d of %d", from, r.KeyIndex, o.Pool.Size())
		o.emit(r)
	}
}

// request issues one paced generation call with the active key.
func (o *Orchestrator) request(ctx context.Context, prompt string) (gemini.Response, error) {
	gen, err := o.Pool.Current(ctx)
	if err != nil {
		return gemini.Response{}, err
	}
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return gemini.Response{}, fmt.Errorf("optimizer: rate limit: %w", err)
		}
	}
	return gen.Generate(ctx, prompt)
}

func (o *Orchestrator) succeed(ctx context.Context, res Result, base LogEntry, resp gemini.Response) Result {
	t := res.Task

	// Tokens were spent whether or not the rewrite can be persisted.
	o.Pool.RecordUsage(resp.Tokens)
	res.Tokens = resp.Tokens

	code := sanitize.Rewrite(t.Language, resp.Text, t.Name)
	if code == "" {
		return o.fail(res, base, errors.New("response contained no code"))
	}
	res.Rewritten = code
	res.Comparison = o.Scorer.Compare(ctx, t.Language, t.Content, code)

	if err := os.WriteFile(res.ArtifactPath, []byte(code+"\n"), 0o644); err != nil {
		return o.fail(res, base, fmt.Errorf("optimizer: write artifact: %w", err))
	}
	res.State = StateSucceeded

	row := report.Row{
		File:             t.Name,
		ComplexityBefore: res.Comparison.ComplexityBefore,
		ComplexityAfter:  res.Comparison.ComplexityAfter,
		Speedup:          res.Comparison.Speedup,
		Status:           report.StatusSuccess,
		KeyIndex:         res.KeyIndex,
		Tokens:           res.Tokens,
	}
	o.Sink.Add(row)

	e := base
	e.Kind = LogSucceeded
	e.KeyIndex = res.KeyIndex
	e.Tokens = res.Tokens
	e.TotalTokens = o.Pool.TotalUsage()
	e.Complexity = row.Complexity()
	e.Speedup = scorer.FormatSpeedup(row.Speedup)
	e.Added, e.Removed = DiffStats(t.Content, code)
	if o.Diff {
		e.Diff = DiffLines(t.Content, code)
	}
	e.Message = fmt.Sprintf("%s optimized: key %d, %s tokens (total %s), complexity %s, speedup %s",
		t.Name, e.KeyIndex, humanize.Comma(int64(e.Tokens)), humanize.Comma(int64(e.TotalTokens)),
		e.Complexity, e.Speedup)
	o.emit(e)
	o.logger().Info("task succeeded",
		zap.String("file", t.Name),
		zap.String("artifact", res.ArtifactPath),
		zap.Int("key", res.KeyIndex),
		zap.Int("tokens", res.Tokens),
		zap.Int("attempts", res.Attempts))
	return res
}

func (o *Orchestrator) fail(res Result, base LogEntry, err error) Result {
	res.State = StateFailed
	res.Err = err
	o.Sink.Add(report.Row{
		File:     res.Task.Name,
		Status:   report.StatusFailed,
		Error:    err.Error(),
		KeyIndex: res.KeyIndex,
		Tokens:   res.Tokens,
	})

	e := base
	e.Kind = LogFailed
	e.KeyIndex = res.KeyIndex
	e.Tokens = res.Tokens
	e.TotalTokens = o.Pool.TotalUsage()
	e.Message = fmt.Sprintf("Error processing %s: %v", res.Task.Name, err)
	o.emit(e)
	o.logger().Warn("task failed",
		zap.String("file", res.Task.Name),
		zap.Int("key", res.KeyIndex),
		zap.Int("attempts", res.Attempts),
		zap.Error(err))
	return res
}

func (o *Orchestrator) stopRequested() bool {
	if o.StopAfter == nil {
		return false
	}
	select {
	case <-o.StopAfter:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// emit sends a structured event. When Events is set the send blocks until
// the consumer takes the entry, so every event reaches the run log. Without
// Events the entry's message is written to Log.
func (o *Orchestrator) emit(entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if o.NotificationHook != nil {
		o.NotificationHook(entry)
	}
	if o.Events != nil {
		o.Events <- entry
		return
	}
	w := o.Log
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "[%s]  %s\n", entry.Timestamp.Format("15:04:05"), entry.Message)
}
