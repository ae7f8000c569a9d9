package scorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Runner executes one unit of code in an isolated scope and reports how
// long the code itself ran, excluding interpreter setup. A returned error
// means the execution faulted.
type Runner interface {
	Run(ctx context.Context, code string) (time.Duration, error)
}

// allowedImports is the set of packages interpreted Go code may use.
// Filesystem, process and network access are not available.
var allowedImports = map[string]bool{
	"bufio":           true,
	"bytes":           true,
	"container/heap":  true,
	"container/list":  true,
	"encoding/base64": true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"math/big":        true,
	"math/bits":       true,
	"math/rand":       true,
	"regexp":          true,
	"slices":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"sync":            true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,
}

// GoRunner interprets Go source with yaegi. Each Run uses a fresh
// interpreter, so no state leaks between repetitions.
type GoRunner struct{}

// Run evaluates code, executing main when it is a main package. Only the
// evaluation is timed.
func (GoRunner) Run(ctx context.Context, code string) (elapsed time.Duration, err error) {
	if err := checkImports(code); err != nil {
		return 0, err
	}

	i := interp.New(interp.Options{
		Stdin:  strings.NewReader(""),
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return 0, fmt.Errorf("scorer: load stdlib: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			elapsed, err = 0, fmt.Errorf("scorer: interpreted code panicked: %v", r)
		}
	}()
	start := time.Now()
	if _, err := i.EvalWithContext(ctx, code); err != nil {
		return 0, fmt.Errorf("scorer: eval: %w", err)
	}
	return time.Since(start), nil
}

// checkImports rejects code importing packages outside allowedImports.
func checkImports(code string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "", code, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("scorer: parse imports: %w", err)
	}
	var forbidden []string
	for _, spec := range f.Imports {
		path, _ := strconv.Unquote(spec.Path.Value)
		if !allowedImports[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		sort.Strings(forbidden)
		return fmt.Errorf("scorer: forbidden imports: %s", strings.Join(forbidden, ", "))
	}
	return nil
}

// pythonHarness runs the script named by argv[1] as __main__ and writes
// the elapsed nanoseconds of that execution alone as the last stderr line.
const pythonHarness = `import sys, time
path = sys.argv[1]
with open(path) as f:
    code = compile(f.read(), path, "exec")
sys.argv = [path]
status = 0
start = time.perf_counter()
try:
    exec(code, {"__name__": "__main__", "__file__": path})
except SystemExit as e:
    status = e.code
elapsed = time.perf_counter() - start
sys.stdout.flush()
if status not in (None, 0):
    raise SystemExit(status)
sys.stderr.write("\n` + elapsedMarker + `%d\n" % int(elapsed * 1e9))
`

const elapsedMarker = "reforge-elapsed-ns="

// PythonRunner times Python code in a fresh interpreter process per run.
// The script runs in an empty temporary directory; interpreter startup is
// not part of the measurement.
type PythonRunner struct {
	Executable string
}

// NewPythonRunner returns a runner for the given python executable.
func NewPythonRunner(executable string) *PythonRunner {
	if executable == "" {
		executable = "python3"
	}
	return &PythonRunner{Executable: executable}
}

// Run executes code and reports a non-zero exit as a fault.
func (r *PythonRunner) Run(ctx context.Context, code string) (time.Duration, error) {
	if r.Executable == "" {
		return 0, errors.New("scorer: no interpreter configured")
	}
	dir, err := os.MkdirTemp("", "reforge-run-*")
	if err != nil {
		return 0, fmt.Errorf("scorer: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "main.py")
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return 0, fmt.Errorf("scorer: write script: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.Executable, "-c", pythonHarness, script)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader("")
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return 0, fmt.Errorf("scorer: %s: %w: %s", r.Executable, err, lastLine(detail))
		}
		return 0, fmt.Errorf("scorer: %s: %w", r.Executable, err)
	}
	return parseElapsed(stderr.String())
}

// parseElapsed reads the harness's timing line from the end of stderr.
func parseElapsed(stderr string) (time.Duration, error) {
	line := lastLine(strings.TrimSpace(stderr))
	v, ok := strings.CutPrefix(line, elapsedMarker)
	if !ok {
		return 0, errors.New("scorer: python harness reported no timing")
	}
	ns, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ns < 0 {
		return 0, fmt.Errorf("scorer: python harness timing %q", v)
	}
	return time.Duration(ns), nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
