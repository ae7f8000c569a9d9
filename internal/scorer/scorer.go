package scorer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

const (
	// DefaultRepetitions is how many times Cost runs a unit of code.
	DefaultRepetitions = 3
	// DefaultTimeout bounds a single repetition.
	DefaultTimeout = 10 * time.Second
)

// Options configure a Scorer.
type Options struct {
	Repetitions int
	Timeout     time.Duration
	Python      string // python executable; empty disables Python timing
	Logger      *zap.Logger
}

// Scorer measures code quality before and after a rewrite.
type Scorer struct {
	runners     map[source.Language]Runner
	repetitions int
	timeout     time.Duration
	log         *zap.Logger
}

// Comparison holds before/after measurements for one file.
type Comparison struct {
	ComplexityBefore Metric[int]
	ComplexityAfter  Metric[int]
	CostBefore       Metric[time.Duration]
	CostAfter        Metric[time.Duration]
	Speedup          Metric[float64]
}

// New creates a Scorer. Go code is always timed in-process; Python code is
// timed only when opts.Python is set.
func New(opts Options) *Scorer {
	s := &Scorer{
		runners:     map[source.Language]Runner{source.LangGo: GoRunner{}},
		repetitions: opts.Repetitions,
		timeout:     opts.Timeout,
		log:         opts.Logger,
	}
	if s.repetitions <= 0 {
		s.repetitions = DefaultRepetitions
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if opts.Python != "" {
		s.runners[source.LangPython] = NewPythonRunner(opts.Python)
	}
	return s
}

// SetRunner replaces the runner used to time lang. A nil runner disables
// timing for lang.
func (s *Scorer) SetRunner(lang source.Language, r Runner) {
	if r == nil {
		delete(s.runners, lang)
		return
	}
	s.runners[lang] = r
}

// Complexity scores code; see the package-level Complexity.
func (s *Scorer) Complexity(ctx context.Context, lang source.Language, code string) Metric[int] {
	m := Complexity(ctx, lang, code)
	if !m.Valid {
		s.log.Debug("complexity unavailable", zap.String("language", string(lang)))
	}
	return m
}

// Cost runs code a fixed number of times and returns the average wall-clock
// duration of one run, as measured by the runner. Any fault makes the metric
// unavailable.
func (s *Scorer) Cost(ctx context.Context, lang source.Language, code string) Metric[time.Duration] {
	r, ok := s.runners[lang]
	if !ok {
		return Unavailable[time.Duration]()
	}

	var total time.Duration
	for i := 0; i < s.repetitions; i++ {
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		elapsed, err := r.Run(runCtx, code)
		cancel()
		if err != nil {
			s.log.Debug("cost unavailable",
				zap.String("language", string(lang)),
				zap.Int("repetition", i+1),
				zap.Error(err))
			return Unavailable[time.Duration]()
		}
		total += elapsed
	}
	return Available(total / time.Duration(s.repetitions))
}

// Compare measures before and after and derives the speedup.
func (s *Scorer) Compare(ctx context.Context, lang source.Language, before, after string) Comparison {
	c := Comparison{
		ComplexityBefore: s.Complexity(ctx, lang, before),
		ComplexityAfter:  s.Complexity(ctx, lang, after),
		CostBefore:       s.Cost(ctx, lang, before),
		CostAfter:        s.Cost(ctx, lang, after),
	}
	c.Speedup = Speedup(c.CostBefore, c.CostAfter)
	return c
}
