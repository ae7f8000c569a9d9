// Package scorer computes best-effort quality metrics for a unit of source
// code: cyclomatic complexity, average execution time and the speedup
// between two versions. A failed measurement yields an unavailable Metric;
// it is never reported as an error.
package scorer

import (
	"fmt"
	"math"
	"time"
)

// Metric is a measurement that may be unavailable.
type Metric[T any] struct {
	Value T
	Valid bool
}

// Available wraps a successful measurement.
func Available[T any](v T) Metric[T] {
	return Metric[T]{Value: v, Valid: true}
}

// Unavailable returns an empty measurement.
func Unavailable[T any]() Metric[T] {
	return Metric[T]{}
}

// String renders the value, or "-" when unavailable.
func (m Metric[T]) String() string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprint(m.Value)
}

// speedupPrecision is the number of decimals Speedup rounds to.
const speedupPrecision = 2

// Speedup returns before/after rounded to two decimals. It is unavailable
// when either cost is unavailable or the after cost is zero.
func Speedup(before, after Metric[time.Duration]) Metric[float64] {
	if !before.Valid || !after.Valid || after.Value <= 0 {
		return Unavailable[float64]()
	}
	return Available(round(float64(before.Value)/float64(after.Value), speedupPrecision))
}

// FormatSpeedup renders a speedup as "1.52x", or "-" when unavailable.
func FormatSpeedup(m Metric[float64]) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2fx", m.Value)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
