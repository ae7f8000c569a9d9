// Package config parses reforge.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "reforge.toml"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// DefaultKeysEnv holds comma-separated API keys appended to the pool.
const DefaultKeysEnv = "REFORGE_API_KEYS"

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level reforge.toml configuration.
type Config struct {
	Project       ProjectConfig       `toml:"project"`
	Gemini        GeminiConfig        `toml:"gemini"`
	Batch         BatchConfig         `toml:"batch"`
	Scorer        ScorerConfig        `toml:"scorer"`
	TUI           TUIConfig           `toml:"tui"`
	Notifications NotificationsConfig `toml:"notifications"`
	Log           LogConfig           `toml:"log"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `toml:"name"`
}

// GeminiConfig controls the generation service.
type GeminiConfig struct {
	Model             string   `toml:"model"`
	APIKeys           []string `toml:"api_keys"`
	APIKeysEnv        string   `toml:"api_keys_env"`
	Prompt            string   `toml:"prompt"`
	RequestsPerMinute int      `toml:"requests_per_minute"` // 0 = no pacing
}

// BatchConfig controls discovery and output locations.
type BatchConfig struct {
	Extensions   []string `toml:"extensions"`
	Skip         []string `toml:"skip"`
	Mode         string   `toml:"mode"` // "exclude-outputs" or "prefix"
	Prefix       string   `toml:"prefix"`
	OutputDir    string   `toml:"output_dir"`
	ReportsDir   string   `toml:"reports_dir"`
	ReportFormat string   `toml:"report_format"`
}

// ScorerConfig controls before/after measurement.
type ScorerConfig struct {
	Repetitions    int    `toml:"repetitions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Python         string `toml:"python"` // empty disables Python timing
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor  string `toml:"accent_color"`
	LogRetention int    `toml:"log_retention"` // number of run logs to keep; 0 = unlimited
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL       string `toml:"url"`
	OnFailure bool   `toml:"on_failure"`
	OnDone    bool   `toml:"on_done"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // empty disables the diagnostic log
}

// Keys returns the credential pool: api_keys in order, then keys from the
// api_keys_env variable. Blanks and duplicates are dropped.
func (c *Config) Keys() []string {
	candidates := append([]string(nil), c.Gemini.APIKeys...)
	if c.Gemini.APIKeysEnv != "" {
		candidates = append(candidates, strings.Split(os.Getenv(c.Gemini.APIKeysEnv), ",")...)
	}
	seen := make(map[string]bool, len(candidates))
	var keys []string
	for _, k := range candidates {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error

	if c.Gemini.Model == "" {
		errs = append(errs, fmt.Errorf("gemini.model must not be empty"))
	}
	if c.Gemini.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("gemini.requests_per_minute must be >= 0 (0 = no pacing)"))
	}

	if len(c.Batch.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("batch.extensions must not be empty"))
	}
	for _, ext := range c.Batch.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("batch.extensions: %q must start with a dot", ext))
		}
	}
	switch c.Batch.Mode {
	case "exclude-outputs":
	case "prefix":
		if c.Batch.Prefix == "" {
			errs = append(errs, fmt.Errorf("batch.prefix must be set when batch.mode is \"prefix\""))
		}
	default:
		errs = append(errs, fmt.Errorf("batch.mode must be \"exclude-outputs\" or \"prefix\""))
	}
	switch {
	case c.Batch.OutputDir == "":
		errs = append(errs, fmt.Errorf("batch.output_dir must not be empty"))
	case filepath.Clean(c.Batch.OutputDir) == ".":
		errs = append(errs, fmt.Errorf("batch.output_dir must not be the working directory"))
	}
	if c.Batch.ReportsDir == "" {
		errs = append(errs, fmt.Errorf("batch.reports_dir must not be empty"))
	}
	switch strings.ToLower(c.Batch.ReportFormat) {
	case "markdown", "html", "csv":
	default:
		errs = append(errs, fmt.Errorf("batch.report_format must be markdown, html or csv"))
	}

	if c.Scorer.Repetitions < 1 {
		errs = append(errs, fmt.Errorf("scorer.repetitions must be >= 1"))
	}
	if c.Scorer.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("scorer.timeout_seconds must be >= 1"))
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}
	if c.TUI.LogRetention < 0 {
		errs = append(errs, fmt.Errorf("tui.log_retention must be >= 0 (0 = unlimited)"))
	}

	if c.Notifications.URL != "" {
		u, parseErr := url.ParseRequestURI(c.Notifications.URL)
		if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error"))
	}

	return errors.Join(errs...)
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Gemini: GeminiConfig{
			Model:      "gemini-3-flash-preview",
			APIKeysEnv: DefaultKeysEnv,
			Prompt:     "Optimize this {{.Language}} code professionally. Return ONLY code:\n\n{{.Source}}",
		},
		Batch: BatchConfig{
			Extensions:   []string{".py", ".c", ".cpp", ".java", ".go"},
			Skip:         []string{FileName},
			Mode:         "exclude-outputs",
			Prefix:       "test",
			OutputDir:    "optimized_files",
			ReportsDir:   "reports",
			ReportFormat: "markdown",
		},
		Scorer: ScorerConfig{
			Repetitions:    3,
			TimeoutSeconds: 10,
			Python:         "python3",
		},
		TUI: TUIConfig{
			AccentColor:  DefaultAccentColor,
			LogRetention: 20,
		},
		Notifications: NotificationsConfig{
			OnFailure: true,
			OnDone:    true,
		},
		Log: LogConfig{
			Level: "info",
			File:  ".reforge/reforge.log",
		},
	}
}

// Load reads reforge.toml from the given path. If path is empty, it walks up
// from the current working directory looking for reforge.toml. Unknown keys
// (likely typos) are an error.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = DetectProjectName(filepath.Dir(path))
	}

	return &cfg, nil
}

// findConfig walks up from the current directory looking for reforge.toml.
func findConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config: %s not found (searched up from %s)", FileName, dir)
		}
		dir = parent
	}
}

const defaultFile = `# reforge.toml - batch code optimizer configuration
# Place this file in the directory holding the sources to optimize.

[project]
name = ""

[gemini]
model = "gemini-3-flash-preview"
api_keys = []                    # ordered credential pool, rotated on quota exhaustion
api_keys_env = "REFORGE_API_KEYS" # comma-separated keys appended to the pool
prompt = "Optimize this {{.Language}} code professionally. Return ONLY code:\n\n{{.Source}}"
requests_per_minute = 0          # 0 = no pacing

[batch]
extensions = [".py", ".c", ".cpp", ".java", ".go"]
skip = ["reforge.toml"]
mode = "exclude-outputs"         # or "prefix": only files starting with batch.prefix
prefix = "test"
output_dir = "optimized_files"
reports_dir = "reports"
report_format = "markdown"       # markdown | html | csv

[scorer]
repetitions = 3
timeout_seconds = 10
python = "python3"               # empty disables Python timing

[tui]
accent_color = "#7D56F4"
log_retention = 20               # run logs to keep; 0 = unlimited

[notifications]
url = ""                         # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_failure = true
on_done = true

[log]
level = "info"
file = ".reforge/reforge.log"
`

// InitFile writes a default reforge.toml to dir.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}
	if err := os.WriteFile(path, []byte(defaultFile), 0o644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
