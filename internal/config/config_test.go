package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"gemini.model", cfg.Gemini.Model, "gemini-3-flash-preview"},
		{"gemini.api_keys_env", cfg.Gemini.APIKeysEnv, "REFORGE_API_KEYS"},
		{"gemini.requests_per_minute", cfg.Gemini.RequestsPerMinute, 0},
		{"batch.mode", cfg.Batch.Mode, "exclude-outputs"},
		{"batch.prefix", cfg.Batch.Prefix, "test"},
		{"batch.output_dir", cfg.Batch.OutputDir, "optimized_files"},
		{"batch.reports_dir", cfg.Batch.ReportsDir, "reports"},
		{"batch.report_format", cfg.Batch.ReportFormat, "markdown"},
		{"scorer.repetitions", cfg.Scorer.Repetitions, 3},
		{"scorer.timeout_seconds", cfg.Scorer.TimeoutSeconds, 10},
		{"scorer.python", cfg.Scorer.Python, "python3"},
		{"tui.accent_color", cfg.TUI.AccentColor, DefaultAccentColor},
		{"tui.log_retention", cfg.TUI.LogRetention, 20},
		{"notifications.on_failure", cfg.Notifications.OnFailure, true},
		{"notifications.on_done", cfg.Notifications.OnDone, true},
		{"log.level", cfg.Log.Level, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if diff := cmp.Diff([]string{".py", ".c", ".cpp", ".java", ".go"}, cfg.Batch.Extensions); diff != "" {
		t.Errorf("batch.extensions (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
[project]
name = "TestProject"

[gemini]
model = "gemini-2.5-pro"
api_keys = ["k1", "k2"]
requests_per_minute = 30

[batch]
extensions = [".py"]
mode = "prefix"
prefix = "bench_"
output_dir = "out"
reports_dir = "rep"
report_format = "csv"

[scorer]
repetitions = 5
timeout_seconds = 2
python = ""
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name string
			got  any
			want any
		}{
			{"project.name", cfg.Project.Name, "TestProject"},
			{"gemini.model", cfg.Gemini.Model, "gemini-2.5-pro"},
			{"gemini.requests_per_minute", cfg.Gemini.RequestsPerMinute, 30},
			{"batch.mode", cfg.Batch.Mode, "prefix"},
			{"batch.prefix", cfg.Batch.Prefix, "bench_"},
			{"batch.output_dir", cfg.Batch.OutputDir, "out"},
			{"batch.reports_dir", cfg.Batch.ReportsDir, "rep"},
			{"batch.report_format", cfg.Batch.ReportFormat, "csv"},
			{"scorer.repetitions", cfg.Scorer.Repetitions, 5},
			{"scorer.timeout_seconds", cfg.Scorer.TimeoutSeconds, 2},
			{"scorer.python", cfg.Scorer.Python, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.got != tt.want {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			})
		}
		if diff := cmp.Diff([]string{"k1", "k2"}, cfg.Gemini.APIKeys); diff != "" {
			t.Errorf("gemini.api_keys (-want +got):\n%s", diff)
		}
	})

	t.Run("partial config uses defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "[project]\nname = \"Partial\"\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "Partial" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "Partial")
		}
		if cfg.Batch.OutputDir != "optimized_files" {
			t.Errorf("batch.output_dir: got %q, want default", cfg.Batch.OutputDir)
		}
		if !strings.Contains(cfg.Gemini.Prompt, "{{.Source}}") {
			t.Errorf("gemini.prompt: got %q, want default template", cfg.Gemini.Prompt)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		if _, err := Load("/nonexistent/reforge.toml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml returns error", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "not valid [[[ toml")
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})

	t.Run("unknown keys return error", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "[batch]\noutput_dri = \"x\"\n")
		_, err := Load(path)
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
		if !strings.Contains(err.Error(), "batch.output_dri") {
			t.Errorf("error should name the unknown key, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults valid", func(c *Config) {}, ""},
		{"empty model", func(c *Config) { c.Gemini.Model = "" }, "gemini.model"},
		{"negative rpm", func(c *Config) { c.Gemini.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"no extensions", func(c *Config) { c.Batch.Extensions = nil }, "batch.extensions must not be empty"},
		{"extension without dot", func(c *Config) { c.Batch.Extensions = []string{"py"} }, "must start with a dot"},
		{"bad mode", func(c *Config) { c.Batch.Mode = "all" }, "batch.mode"},
		{"prefix mode without prefix", func(c *Config) { c.Batch.Mode = "prefix"; c.Batch.Prefix = "" }, "batch.prefix"},
		{"empty output dir", func(c *Config) { c.Batch.OutputDir = "" }, "batch.output_dir"},
		{"output dir is working dir", func(c *Config) { c.Batch.OutputDir = "./" }, "must not be the working directory"},
		{"nested output dir", func(c *Config) { c.Batch.OutputDir = "./out/../rewrites" }, ""},
		{"empty reports dir", func(c *Config) { c.Batch.ReportsDir = "" }, "batch.reports_dir"},
		{"pdf report", func(c *Config) { c.Batch.ReportFormat = "pdf" }, "batch.report_format"},
		{"upper-case report format", func(c *Config) { c.Batch.ReportFormat = "HTML" }, ""},
		{"zero repetitions", func(c *Config) { c.Scorer.Repetitions = 0 }, "scorer.repetitions"},
		{"zero timeout", func(c *Config) { c.Scorer.TimeoutSeconds = 0 }, "scorer.timeout_seconds"},
		{"bad accent", func(c *Config) { c.TUI.AccentColor = "purple" }, "tui.accent_color"},
		{"negative retention", func(c *Config) { c.TUI.LogRetention = -1 }, "tui.log_retention"},
		{"bad notification url", func(c *Config) { c.Notifications.URL = "ftp://x" }, "notifications.url"},
		{"https notification url", func(c *Config) { c.Notifications.URL = "https://ntfy.sh/topic" }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("reports every issue", func(t *testing.T) {
		cfg := Defaults()
		cfg.Gemini.Model = ""
		cfg.Scorer.Repetitions = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"gemini.model", "scorer.repetitions"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("missing %q in %v", want, err)
			}
		}
	})
}

func TestKeys(t *testing.T) {
	t.Setenv("TEST_REFORGE_KEYS", " k2 , k3,,k1 ")
	cfg := Defaults()
	cfg.Gemini.APIKeys = []string{"k1", "", "k2"}
	cfg.Gemini.APIKeysEnv = "TEST_REFORGE_KEYS"

	if diff := cmp.Diff([]string{"k1", "k2", "k3"}, cfg.Keys()); diff != "" {
		t.Errorf("Keys (-want +got):\n%s", diff)
	}

	cfg.Gemini.APIKeysEnv = ""
	cfg.Gemini.APIKeys = nil
	if got := cfg.Keys(); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}

func TestLoadAutoDiscovery(t *testing.T) {
	t.Run("finds reforge.toml in parent directory", func(t *testing.T) {
		root := t.TempDir()
		child := filepath.Join(root, "sub", "dir")
		if err := os.MkdirAll(child, 0o755); err != nil {
			t.Fatal(err)
		}
		writeConfig(t, root, "[project]\nname = \"FoundIt\"\n")

		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(child); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "FoundIt" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "FoundIt")
		}
	})

	t.Run("returns error when reforge.toml not found anywhere", func(t *testing.T) {
		dir := t.TempDir()
		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(""); err == nil {
			t.Error("expected error when reforge.toml not found")
		}
	})
}

func TestInitFile(t *testing.T) {
	t.Run("creates reforge.toml", func(t *testing.T) {
		dir := t.TempDir()
		path, err := InitFile(dir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(path) != FileName {
			t.Errorf("expected %s, got %s", FileName, filepath.Base(path))
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("generated file is not valid: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("generated file does not validate: %v", err)
		}
		want := Defaults()
		want.Project.Name = cfg.Project.Name
		if diff := cmp.Diff(want, *cfg, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("generated file differs from Defaults (-want +got):\n%s", diff)
		}
	})

	t.Run("refuses to overwrite existing", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "existing")
		if _, err := InitFile(dir); err == nil {
			t.Error("expected error when reforge.toml already exists")
		}
	})
}
