// Package source discovers the files a batch operates on.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ArtifactPrefix is prepended to the names of rewrites for languages that are
// not filename-bound.
const ArtifactPrefix = "opt_"

// Mode selects how previously produced outputs are kept out of a batch.
type Mode string

const (
	// ModeExcludeOutputs takes every recognized file except the tool's own
	// artifacts and earlier outputs.
	ModeExcludeOutputs Mode = "exclude-outputs"
	// ModePrefix takes only files whose name starts with Options.Prefix.
	ModePrefix Mode = "prefix"
)

// ErrNoDir is returned when the directory to scan does not exist.
var ErrNoDir = errors.New("source: directory does not exist")

// ErrOutputIsSource is returned when the output directory is the directory
// being scanned; artifacts would then overwrite or shadow their sources.
var ErrOutputIsSource = errors.New("source: output directory is the source directory")

// Task is one file to rewrite. It is immutable after Collect returns it.
type Task struct {
	Path     string
	Name     string
	Language Language
	Content  string
}

// Options control which files Collect returns.
type Options struct {
	Extensions []string // recognized extensions, with leading dot
	Skip       []string // base names never collected (reforge.toml, ...)
	Mode       Mode
	Prefix     string
	OutputDir  string // where rewrites go; must not be dir itself
}

// Collect lists the regular files directly inside dir that match opts,
// sorted by name, and reads each of them. Subdirectories, including the
// output directory, are never descended into. Any read failure aborts collection
// since no task list can be formed.
func Collect(dir string, opts Options) ([]Task, error) {
	if opts.OutputDir != "" && sameDir(dir, opts.OutputDir) {
		return nil, fmt.Errorf("%w: %s", ErrOutputIsSource, opts.OutputDir)
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoDir, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("source: read dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if opts.accepts(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("source: read %q: %w", path, readErr)
		}
		tasks = append(tasks, Task{
			Path:     path,
			Name:     name,
			Language: DetectLanguage(name, data),
			Content:  string(data),
		})
	}
	return tasks, nil
}

// sameDir reports whether a and b name the same directory, either by path
// or, when both exist, by identity.
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func (o Options) accepts(name string) bool {
	if !o.hasExtension(name) {
		return false
	}
	for _, s := range o.Skip {
		if s == name {
			return false
		}
	}
	if o.Mode == ModePrefix {
		return strings.HasPrefix(name, o.Prefix)
	}
	return !strings.HasPrefix(name, ArtifactPrefix)
}

func (o Options) hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range o.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
