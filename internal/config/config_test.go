package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Version != Version {
		t.Errorf("expected version %d, got %d", Version, cfg.Version)
	}
	if cfg.Gate.FailOpen {
		t.Error("default must be fail-closed")
	}
	if !cfg.Session.ScanOnStart {
		t.Error("expected scan_on_start by default")
	}
	if cfg.Session.DecisionTimeoutSec != 0 {
		t.Errorf("expected no prompt timeout by default, got %d", cfg.Session.DecisionTimeoutSec)
	}
	if cfg.Patterns.Path == "" {
		t.Error("expected a default patterns path")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.HasSuffix(path, "clipwarden.toml") {
		t.Errorf("expected path ending with clipwarden.toml, got %s", path)
	}
}

func TestDecisionTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.DecisionTimeoutSec = 30
	if got := cfg.DecisionTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no patterns path", func(c *Config) { c.Patterns.Path = "" }},
		{"negative timeout", func(c *Config) { c.Session.DecisionTimeoutSec = -1 }},
		{"no decision log", func(c *Config) { c.DecisionLog.Path = "" }},
		{"sqlite without path", func(c *Config) {
			c.DecisionLog.SQLiteEnabled = true
			c.DecisionLog.SQLitePath = ""
		}},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"future version", func(c *Config) { c.Version = Version + 1 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != Version {
		t.Errorf("expected defaults, got version %d", cfg.Version)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipwarden.toml")
	body := `
version = 1

[patterns]
path = "C:\\ProgramData\\Clipwarden\\rules.txt"
reload = false

[gate]
fail_open = true

[session]
decision_timeout_sec = 60
scan_on_start = false
`
	if err := os.WriteFile(path, []byte(body), 0o640); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Patterns.Path != `C:\ProgramData\Clipwarden\rules.txt` {
		t.Errorf("patterns path: %q", cfg.Patterns.Path)
	}
	if cfg.Patterns.Reload {
		t.Error("reload should be off")
	}
	if !cfg.Gate.FailOpen {
		t.Error("fail_open should be on")
	}
	if cfg.Session.DecisionTimeoutSec != 60 {
		t.Errorf("timeout: %d", cfg.Session.DecisionTimeoutSec)
	}
	// Sections absent from the file keep their defaults.
	if cfg.DecisionLog.Path == "" {
		t.Error("decision log default lost")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipwarden.yaml")
	body := "version: 1\npatterns:\n  path: /etc/clipwarden/rules.txt\n"
	if err := os.WriteFile(path, []byte(body), 0o640); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Patterns.Path != "/etc/clipwarden/rules.txt" {
		t.Errorf("patterns path: %q", cfg.Patterns.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipwarden.toml")
	if err := os.WriteFile(path, []byte("[session]\ndecision_timeout_sec = -5\n"), 0o640); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLIPWARDEN_PATTERNS", "/tmp/rules.txt")
	t.Setenv("CLIPWARDEN_FAIL_OPEN", "true")
	t.Setenv("CLIPWARDEN_DECISION_TIMEOUT_SEC", "15")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Patterns.Path != "/tmp/rules.txt" {
		t.Errorf("patterns path: %q", cfg.Patterns.Path)
	}
	if !cfg.Gate.FailOpen {
		t.Error("fail_open override ignored")
	}
	if cfg.Session.DecisionTimeoutSec != 15 {
		t.Errorf("timeout override ignored: %d", cfg.Session.DecisionTimeoutSec)
	}
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "clipwarden.toml")

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Error("expected file creation")
	}
	if cfg.Version != Version {
		t.Errorf("version: %d", cfg.Version)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file missing: %v", err)
	}

	_, created, err = LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	if created {
		t.Error("second call must not recreate the file")
	}
}
