package scorer

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

func TestSpeedup(t *testing.T) {
	tests := []struct {
		name      string
		before    Metric[time.Duration]
		after     Metric[time.Duration]
		want      float64
		wantValid bool
	}{
		{"twice as fast", Available(2 * time.Second), Available(time.Second), 2.0, true},
		{"rounded", Available(3 * time.Second), Available(7 * time.Second), 0.43, true},
		{"after unavailable", Available(2 * time.Second), Unavailable[time.Duration](), 0, false},
		{"before unavailable", Unavailable[time.Duration](), Available(time.Second), 0, false},
		{"after zero", Available(time.Second), Available(time.Duration(0)), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Speedup(tt.before, tt.after)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "4", Available(4).String())
	assert.Equal(t, "-", Unavailable[int]().String())
	assert.Equal(t, "1.50x", FormatSpeedup(Available(1.5)))
	assert.Equal(t, "-", FormatSpeedup(Unavailable[float64]()))
}

func TestComplexity(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		lang source.Language
		code string
		want int
	}{
		{
			name: "python nested loops",
			lang: source.LangPython,
			code: `def factorial(n):
    result = 1
    for i in range(1, n+1):
        for j in range(1, i+1):
            if j == i:
                result *= i
    return result

print(factorial(5))
`,
			want: 4,
		},
		{
			name: "python straight line",
			lang: source.LangPython,
			code: "def f():\n    return 1\n",
			want: 1,
		},
		{
			name: "python top-level branching",
			lang: source.LangPython,
			code: "x = 1\nif x:\n    pass\nelif x > 2:\n    pass\n",
			want: 3,
		},
		{
			name: "python max over functions",
			lang: source.LangPython,
			code: "def a(x):\n    if x:\n        return 1\n    return 0\n\ndef b(x):\n    while x:\n        if x > 1:\n            x -= 2\n        else:\n            x -= 1\n    return x\n",
			want: 3,
		},
		{
			name: "go switch ignores default",
			lang: source.LangGo,
			code: `package main

func classify(n int) string {
	switch {
	case n < 0:
		return "neg"
	case n == 0:
		return "zero"
	default:
		return "pos"
	}
}
`,
			want: 3,
		},
		{
			name: "c nested loops",
			lang: source.LangC,
			code: `#include <stdio.h>

int main() {
    int arr[5] = {1, 2, 3, 4, 5};
    int sum = 0;
    for (int i = 0; i < 5; i++) {
        for (int j = 0; j <= i; j++) {
            if (j == i)
                sum += arr[i];
        }
    }
    printf("Sum: %d\n", sum);
    return 0;
}
`,
			want: 4,
		},
		{
			name: "java method",
			lang: source.LangJava,
			code: `public class Main {
    static int sign(int x) {
        if (x > 0) {
            return 1;
        }
        return x < 0 ? -1 : 0;
    }
}
`,
			want: 3,
		},
		{
			name: "empty python",
			lang: source.LangPython,
			code: "",
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Complexity(ctx, tt.lang, tt.code)
			require.True(t, got.Valid, "expected a score")
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestComplexityUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("unparseable", func(t *testing.T) {
		assert.False(t, Complexity(ctx, source.LangPython, "def (:\n  return )(").Valid)
	})
	t.Run("prose", func(t *testing.T) {
		assert.False(t, Complexity(ctx, source.LangGo, "Here is your optimized code!").Valid)
	})
	t.Run("unsupported language", func(t *testing.T) {
		assert.False(t, Complexity(ctx, source.LangUnknown, "anything").Valid)
		assert.False(t, SupportsComplexity(source.LangUnknown))
	})
}

type fakeRunner struct {
	calls    int
	delay    time.Duration // spent inside Run, as setup would be
	reported time.Duration // duration Run reports for the code itself
	err      error
	failAt   int // 1-based call that fails; 0 = use err for every call
}

func (f *fakeRunner) Run(_ context.Context, _ string) (time.Duration, error) {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failAt > 0 {
		if f.calls == f.failAt {
			return 0, errors.New("boom")
		}
		return f.reported, nil
	}
	return f.reported, f.err
}

func TestCost(t *testing.T) {
	ctx := context.Background()

	t.Run("averages repetitions", func(t *testing.T) {
		s := New(Options{Repetitions: 3})
		r := &fakeRunner{reported: 5 * time.Millisecond}
		s.SetRunner(source.LangPython, r)

		got := s.Cost(ctx, source.LangPython, "x = 1")
		require.True(t, got.Valid)
		assert.Equal(t, 3, r.calls)
		assert.Equal(t, 5*time.Millisecond, got.Value)
	})

	t.Run("runner setup is not counted", func(t *testing.T) {
		s := New(Options{Repetitions: 2})
		r := &fakeRunner{delay: 20 * time.Millisecond, reported: time.Millisecond}
		s.SetRunner(source.LangPython, r)

		got := s.Cost(ctx, source.LangPython, "x = 1")
		require.True(t, got.Valid)
		assert.Equal(t, time.Millisecond, got.Value)
	})

	t.Run("fault makes it unavailable", func(t *testing.T) {
		s := New(Options{Repetitions: 3})
		r := &fakeRunner{failAt: 2}
		s.SetRunner(source.LangPython, r)

		got := s.Cost(ctx, source.LangPython, "raise SystemExit(1)")
		assert.False(t, got.Valid)
		assert.Equal(t, 2, r.calls)
	})

	t.Run("no runner for language", func(t *testing.T) {
		s := New(Options{})
		assert.False(t, s.Cost(ctx, source.LangJava, "class A {}").Valid)
	})

	t.Run("nil runner disables timing", func(t *testing.T) {
		s := New(Options{})
		s.SetRunner(source.LangGo, nil)
		assert.False(t, s.Cost(ctx, source.LangGo, "package main\n").Valid)
	})
}

func TestGoRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("runs main", func(t *testing.T) {
		code := `package main

import "fmt"

func main() {
	s := 0
	for i := 0; i < 1000; i++ {
		s += i
	}
	fmt.Println(s)
}
`
		_, err := GoRunner{}.Run(ctx, code)
		require.NoError(t, err)
	})

	t.Run("reports evaluation time", func(t *testing.T) {
		code := "package main\n\nimport \"time\"\n\nfunc main() { time.Sleep(30 * time.Millisecond) }\n"
		elapsed, err := GoRunner{}.Run(ctx, code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
		assert.Less(t, elapsed, 5*time.Second)
	})

	t.Run("forbidden import", func(t *testing.T) {
		code := "package main\n\nimport \"os/exec\"\n\nfunc main() { _ = exec.Command }\n"
		_, err := GoRunner{}.Run(ctx, code)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "os/exec")
	})

	t.Run("panic is a fault", func(t *testing.T) {
		_, err := GoRunner{}.Run(ctx, "package main\n\nfunc main() { panic(\"boom\") }\n")
		require.Error(t, err)
	})

	t.Run("compile error is a fault", func(t *testing.T) {
		_, err := GoRunner{}.Run(ctx, "package main\n\nfunc main() { undefinedCall() }\n")
		require.Error(t, err)
	})
}

func TestParseElapsed(t *testing.T) {
	got, err := parseElapsed("warning: slow\n\n" + elapsedMarker + "1500000\n")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Microsecond, got)

	for _, in := range []string{"", "Traceback (most recent call last):", elapsedMarker + "x", elapsedMarker + "-5"} {
		_, err := parseElapsed(in)
		assert.Error(t, err, "%q", in)
	}
}

func TestPythonRunner(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not installed")
	}
	ctx := context.Background()
	r := NewPythonRunner(python)

	t.Run("reports script time", func(t *testing.T) {
		elapsed, err := r.Run(ctx, "import time\ntime.sleep(0.03)\nprint('done')\n")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
		assert.Less(t, elapsed, 5*time.Second)
	})

	t.Run("clean exit is not a fault", func(t *testing.T) {
		_, err := r.Run(ctx, "import sys\nsys.exit(0)\n")
		require.NoError(t, err)
	})

	t.Run("exception is a fault", func(t *testing.T) {
		_, err := r.Run(ctx, "raise ValueError('boom')\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ValueError")
	})

	t.Run("non-zero exit is a fault", func(t *testing.T) {
		_, err := r.Run(ctx, "raise SystemExit(3)\n")
		require.Error(t, err)
	})
}

func TestCompare(t *testing.T) {
	s := New(Options{Repetitions: 1})
	s.SetRunner(source.LangPython, &fakeRunner{})

	c := s.Compare(context.Background(), source.LangPython,
		"def f(x):\n    if x:\n        return 1\n    return 0\n",
		"def f(x):\n    return int(bool(x))\n")

	assert.Equal(t, Available(2), c.ComplexityBefore)
	assert.Equal(t, Available(1), c.ComplexityAfter)
	assert.True(t, c.CostBefore.Valid)
	assert.True(t, c.CostAfter.Valid)
}
