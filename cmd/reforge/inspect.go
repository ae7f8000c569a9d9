package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/config"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/scorer"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/state"
	"github.com/LISSConsulting/LISSTech.Reforge/internal/store"
)

// showStatus prints the state of the current or last run in dir.
func showStatus(w io.Writer, dir string) error {
	s, err := state.Load(dir)
	if err != nil {
		return err
	}
	if s.StartedAt.IsZero() {
		fmt.Fprintln(w, "No run state found. Run 'reforge run' first.")
		return nil
	}

	fmt.Fprintln(w, "Reforge Status")
	fmt.Fprintln(w, "──────────────")

	if s.Project != "" {
		fmt.Fprintf(w, "  %-16s %s\n", "Project:", s.Project)
	}
	if s.RunID != "" {
		fmt.Fprintf(w, "  %-16s %s\n", "Run:", s.RunID)
	}
	fmt.Fprintf(w, "  %-16s %d/%d\n", "Progress:", s.Position, s.Total)
	if s.CurrentFile != "" {
		fmt.Fprintf(w, "  %-16s %s\n", "Current file:", s.CurrentFile)
	}
	if s.KeyIndex > 0 {
		fmt.Fprintf(w, "  %-16s %d\n", "Key:", s.KeyIndex)
	}
	fmt.Fprintf(w, "  %-16s %s\n", "Tokens:", humanize.Comma(int64(s.TotalTokens)))
	fmt.Fprintf(w, "  %-16s %d optimized, %d skipped, %d failed\n", "Files:", s.Optimized, s.Skipped, s.Failed)

	running := s.Running()
	if running {
		fmt.Fprintf(w, "  %-16s %s (running)\n", "Duration:", time.Since(s.StartedAt).Round(time.Second))
		if !s.LastEventAt.IsZero() {
			fmt.Fprintf(w, "  %-16s %s\n", "Last event:", humanize.Time(s.LastEventAt))
		}
	} else {
		fmt.Fprintf(w, "  %-16s %s\n", "Duration:", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
	}

	if s.ReportPath != "" {
		fmt.Fprintf(w, "  %-16s %s\n", "Report:", s.ReportPath)
	} else if !running {
		fmt.Fprintf(w, "  %-16s %s\n", "Report:", "not generated")
	}
	if s.LastError != "" {
		fmt.Fprintf(w, "  %-16s %s\n", "Last error:", failColor.Sprint(s.LastError))
	}

	var result string
	switch {
	case running:
		result = rotateColor.Sprint("running")
	case s.Stopped:
		result = rotateColor.Sprint("stopped")
	default:
		result = successColor.Sprint("done")
	}
	fmt.Fprintf(w, "  %-16s %s\n", "Result:", result)
	return nil
}

// showLog prints the task summaries of a run log. An empty path selects the
// newest log under dir.
func showLog(w io.Writer, dir, path string) error {
	if path == "" {
		latest, err := store.Latest(logsDir(dir))
		if errors.Is(err, store.ErrNoLogs) {
			fmt.Fprintln(w, "No run logs found. Run 'reforge run' first.")
			return nil
		}
		if err != nil {
			return err
		}
		path = latest
	}

	st, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.RunSummary()
	if err != nil {
		return err
	}
	tasks, err := st.Tasks()
	if err != nil {
		return err
	}

	title := "Run " + sum.RunID
	if !sum.StartedAt.IsZero() {
		title += "  " + sum.StartedAt.Format("2006-01-02 15:04:05")
	}
	if !sum.Finished {
		title += "  (unfinished)"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "────")

	if len(tasks) == 0 {
		fmt.Fprintln(w, "  no finished tasks")
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "  #%-3d %s %-30s %-8s", t.Position, outcomeLabel(t.Outcome), t.File, t.Language)
		if t.KeyIndex > 0 {
			fmt.Fprintf(w, "  key %d  %s tok", t.KeyIndex, humanize.Comma(int64(t.Tokens)))
		}
		if t.Complexity != "" {
			fmt.Fprintf(w, "  complexity %s  speedup %s", t.Complexity, t.Speedup)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%d optimized, %d skipped, %d failed, %s tokens\n",
		sum.Optimized, sum.Skipped, sum.Failed, humanize.Comma(int64(sum.TotalTokens)))
	if sum.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", sum.ReportPath)
	}
	return nil
}

func outcomeLabel(outcome string) string {
	label := fmt.Sprintf("%-9s", outcome)
	switch outcome {
	case "succeeded":
		return successColor.Sprint(label)
	case "failed":
		return failColor.Sprint(label)
	default:
		return dimColor.Sprint(label)
	}
}

// scoreFile measures one file with the scorer settings of the nearest
// reforge.toml, or the defaults when there is none.
func scoreFile(ctx context.Context, w io.Writer, path string) error {
	cfg := config.Defaults()
	if loaded, err := config.Load(""); err == nil {
		cfg = *loaded
	}
	return scoreWith(ctx, w, path, scorer.New(scorer.Options{
		Repetitions: cfg.Scorer.Repetitions,
		Timeout:     time.Duration(cfg.Scorer.TimeoutSeconds) * time.Second,
		Python:      cfg.Scorer.Python,
		Logger:      logger,
	}))
}

func scoreWith(ctx context.Context, w io.Writer, path string, s *scorer.Scorer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("score: read %s: %w", path, err)
	}
	name := filepath.Base(path)
	lang := source.DetectLanguage(name, content)
	if lang == source.LangUnknown {
		return fmt.Errorf("score: %s: unrecognized language", name)
	}

	code := string(content)
	complexity := s.Complexity(ctx, lang, code)
	cost := s.Cost(ctx, lang, code)

	fmt.Fprintf(w, "  %-12s %s\n", "File:", name)
	fmt.Fprintf(w, "  %-12s %s\n", "Language:", lang.Label())
	fmt.Fprintf(w, "  %-12s %s\n", "Complexity:", complexity)
	fmt.Fprintf(w, "  %-12s %s\n", "Cost:", cost)
	return nil
}
