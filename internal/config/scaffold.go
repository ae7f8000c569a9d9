package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreEntry keeps run metadata out of version control.
const gitignoreEntry = ".reforge/"

// ScaffoldProject prepares dir for batch runs: reforge.toml, the output and
// reports directories, and a .gitignore entry for .reforge/. Existing files
// are left untouched. It returns the paths it created or modified, in order.
func ScaffoldProject(dir string) ([]string, error) {
	var touched []string
	record := func(p string, changed bool, err error) error {
		if changed {
			touched = append(touched, p)
		}
		return err
	}

	tomlPath := filepath.Join(dir, FileName)
	changed, err := ensureConfig(dir, tomlPath)
	if err := record(tomlPath, changed, err); err != nil {
		return touched, err
	}

	d := Defaults()
	for _, sub := range []string{d.Batch.OutputDir, d.Batch.ReportsDir} {
		p := filepath.Join(dir, sub)
		changed, err := ensureDir(p)
		if err := record(p, changed, err); err != nil {
			return touched, err
		}
	}

	gi := filepath.Join(dir, ".gitignore")
	changed, err = ensureIgnored(gi, gitignoreEntry)
	if err := record(gi, changed, err); err != nil {
		return touched, err
	}
	return touched, nil
}

func ensureConfig(dir, path string) (bool, error) {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if _, err := InitFile(dir); err != nil {
		return false, err
	}
	return true, nil
}

func ensureDir(path string) (bool, error) {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("scaffold: create %s: %w", path, err)
	}
	return true, nil
}

// ensureIgnored appends entry to the ignore file at path unless a line
// already matches it after trimming.
func ensureIgnored(path, entry string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("scaffold: read %s: %w", path, err)
	}
	content := string(data)
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == entry {
			return false, nil
		}
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content+entry+"\n"), 0o644); err != nil {
		return false, fmt.Errorf("scaffold: write %s: %w", path, err)
	}
	return true, nil
}
