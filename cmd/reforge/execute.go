package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/config"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/credential"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/gemini"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/notify"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/optimizer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/report"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/scorer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

// notifyGrace bounds how long a finished run waits for notifications.
const notifyGrace = 5 * time.Second

type runOptions struct {
	noTUI  bool
	diff   bool
	dryRun bool
}

// batch is everything a run needs once configuration and discovery
// succeeded.
type batch struct {
	cfg   *config.Config
	dir   string
	tasks []source.Task
	orch  *optimizer.Orchestrator
}

// executeRun loads config, discovers tasks and runs the batch. Errors
// returned before the batch starts make the process exit with status 1;
// per-task failures never do.
func executeRun(opts runOptions) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	log, err := newLogger(cfg.Log, dir)
	if err != nil {
		return err
	}
	logger = log

	b, err := prepareBatch(cfg, dir, log, opts)
	if err != nil {
		return err
	}
	log.Info("batch prepared",
		zap.String("dir", dir),
		zap.Int("tasks", len(b.tasks)),
		zap.Bool("dry_run", opts.dryRun))

	if opts.dryRun {
		printPlan(os.Stdout, b.orch.Plan(b.tasks))
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	rec, err := newRecorder(dir, cfg.Project.Name, cfg.TUI.LogRetention, log)
	if err != nil {
		return err
	}

	var notifier *notify.Notifier
	if cfg.Notifications.URL != "" {
		notifier = notify.New(notify.Options{
			URL:       cfg.Notifications.URL,
			Title:     cfg.Project.Name,
			OnFailure: cfg.Notifications.OnFailure,
			OnDone:    cfg.Notifications.OnDone,
			Logger:    log,
		})
		b.orch.NotificationHook = notifier.Hook
	}

	if opts.noTUI {
		err = runPlain(ctx, b, rec, os.Stdout)
	} else {
		err = runTUI(ctx, b, rec)
	}

	if notifier != nil {
		notifier.Wait(notifyGrace)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, optimizer.ErrStopRequested) {
		log.Info("batch stopped early", zap.Error(err))
		return nil
	}
	return err
}

// prepareBatch discovers tasks and assembles the orchestrator. A dry run
// gets no credential pool since it never calls the service.
func prepareBatch(cfg *config.Config, dir string, log *zap.Logger, opts runOptions) (*batch, error) {
	outputDir := resolvePath(dir, cfg.Batch.OutputDir)
	tasks, err := source.Collect(dir, source.Options{
		Extensions: cfg.Batch.Extensions,
		Skip:       cfg.Batch.Skip,
		Mode:       source.Mode(cfg.Batch.Mode),
		Prefix:     cfg.Batch.Prefix,
		OutputDir:  outputDir,
	})
	if err != nil {
		return nil, err
	}

	format, err := report.ParseFormat(cfg.Batch.ReportFormat)
	if err != nil {
		return nil, err
	}
	prompt, err := optimizer.ParsePrompt(cfg.Gemini.Prompt)
	if err != nil {
		return nil, err
	}

	orch := &optimizer.Orchestrator{
		Scorer: scorer.New(scorer.Options{
			Repetitions: cfg.Scorer.Repetitions,
			Timeout:     time.Duration(cfg.Scorer.TimeoutSeconds) * time.Second,
			Python:      cfg.Scorer.Python,
			Logger:      log,
		}),
		Sink:      report.NewSink(resolvePath(dir, cfg.Batch.ReportsDir), format, log),
		OutputDir: outputDir,
		Prompt:    prompt,
		Limiter:   optimizer.NewLimiter(cfg.Gemini.RequestsPerMinute),
		Diff:      opts.diff,
		Logger:    log,
	}

	if !opts.dryRun {
		pool, err := credential.New(cfg.Keys(), gemini.Dial(cfg.Gemini.Model))
		if err != nil {
			return nil, err
		}
		orch.Pool = pool
	}

	return &batch{cfg: cfg, dir: dir, tasks: tasks, orch: orch}, nil
}

// newLogger builds the diagnostic JSON logger writing to cfg.File, relative
// to dir. An empty file disables diagnostics.
func newLogger(cfg config.LogConfig, dir string) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	path := resolvePath(dir, cfg.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("log: create dir: %w", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Sampling = nil
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("log: build logger: %w", err)
	}
	return l, nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
