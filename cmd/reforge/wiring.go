package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/state"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/tui"
)

// eventBuffer sizes the event channels. Emits never block, so a slow
// consumer loses entries rather than stalling the batch.
const eventBuffer = 256

// logsDir is where run logs live, relative to the working directory.
func logsDir(dir string) string {
	return filepath.Join(dir, state.DirName, "logs")
}

// recorder persists every batch event to the run log and folds it into
// .reforge/state.json so `reforge status` and `reforge log` work during and
// after a run.
type recorder struct {
	dir   string
	store *store.JSONL
	state state.RunState
	log   *zap.Logger
}

// newRecorder opens a fresh run log, prunes old ones down to retention and
// writes the initial state.
func newRecorder(dir, project string, retention int, log *zap.Logger) (*recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	st, err := store.NewJSONL(logsDir(dir), log)
	if err != nil {
		return nil, err
	}
	if err := store.EnforceRetention(logsDir(dir), retention); err != nil {
		log.Warn("enforce run log retention", zap.Error(err))
	}

	now := time.Now()
	r := &recorder{
		dir:   dir,
		store: st,
		log:   log,
		state: state.RunState{
			PID:         os.Getpid(),
			RunID:       st.RunID(),
			Project:     project,
			StartedAt:   now,
			LastEventAt: now,
		},
	}
	r.save()
	return r, nil
}

func (r *recorder) track(entry optimizer.LogEntry) {
	if err := r.store.Append(entry); err != nil {
		r.log.Warn("append run log", zap.Error(err))
	}
	if r.state.Apply(entry) {
		r.save()
	}
}

func (r *recorder) save() {
	if err := state.Save(r.dir, r.state); err != nil {
		r.log.Warn("save run state", zap.Error(err))
	}
}

// finish marks the run finished if no terminal event did, then closes the
// run log.
func (r *recorder) finish(err error) {
	if r.state.FinishedAt.IsZero() {
		r.state.FinishedAt = time.Now()
	}
	if err != nil {
		stopped := errors.Is(err, context.Canceled) || errors.Is(err, optimizer.ErrStopRequested)
		r.state.Stopped = stopped
		if !stopped {
			r.state.LastError = err.Error()
		}
	}
	r.save()
	if closeErr := r.store.Close(); closeErr != nil {
		r.log.Warn("close run log", zap.Error(closeErr))
	}
}

// runPlain runs the batch printing events to w.
func runPlain(ctx context.Context, b *batch, rec *recorder, w io.Writer) error {
	events := make(chan optimizer.LogEntry, eventBuffer)
	b.orch.Events = events

	p := newPrinter(w, b.cfg.TUI.AccentColor)
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for entry := range events {
			rec.track(entry)
			p.print(entry)
		}
	}()

	_, _, err := b.orch.Run(ctx, b.tasks)
	close(events)
	<-drainDone

	rec.finish(err)
	return err
}

// runTUI runs the batch behind the dashboard. Batch events are forwarded
// through the recorder, then to the TUI. Pressing 's' lets the current file
// finish; quitting the TUI cancels the batch.
func runTUI(ctx context.Context, b *batch, rec *recorder) error {
	batchEvents := make(chan optimizer.LogEntry, eventBuffer)
	tuiEvents := make(chan optimizer.LogEntry, eventBuffer)

	stopCh := make(chan struct{})
	var stopOnce sync.Once
	b.orch.StopAfter = stopCh
	b.orch.Events = batchEvents

	model := tui.New(tuiEvents, rec.store, tui.Options{
		AccentColor: b.cfg.TUI.AccentColor,
		ProjectName: b.cfg.Project.Name,
		WorkDir:     b.dir,
		Model:       b.cfg.Gemini.Model,
		KeyCount:    b.orch.Pool.Size(),
		Diff:        b.orch.Diff,
		RequestStop: func() { stopOnce.Do(func() { close(stopCh) }) },
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for entry := range batchEvents {
			rec.track(entry)
			select {
			case tuiEvents <- entry:
			default:
			}
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	errCh := make(chan error, 1)
	go func() {
		defer close(tuiEvents)
		_, _, runErr := b.orch.Run(runCtx, b.tasks)
		close(batchEvents)
		<-forwardDone
		errCh <- runErr
		// A signal ends the whole program, not just the batch.
		if ctx.Err() != nil {
			program.Quit()
		}
	}()

	tuiErr := finishTUI(program)
	cancelRun()
	runErr := <-errCh
	rec.finish(runErr)

	if tuiErr != nil {
		return tuiErr
	}
	return runErr
}

// finishTUI runs the bubbletea program and returns any error the model
// recorded. Cancellation is normal shutdown.
func finishTUI(program *tea.Program) error {
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := finalModel.(tui.Model); ok && m.Err() != nil {
		if errors.Is(m.Err(), context.Canceled) {
			return nil
		}
		return m.Err()
	}
	return nil
}
