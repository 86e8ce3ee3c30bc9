// Package config handles configuration loading and validation for the
// clipwarden daemon.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	Patterns    PatternsConfig    `toml:"patterns" json:"patterns" yaml:"patterns"`
	Gate        GateConfig        `toml:"gate" json:"gate" yaml:"gate"`
	Session     SessionConfig     `toml:"session" json:"session" yaml:"session"`
	DecisionLog DecisionLogConfig `toml:"decision_log" json:"decision_log" yaml:"decision_log"`
	Logging     LoggingConfig     `toml:"logging" json:"logging" yaml:"logging"`
	Notify      NotifyConfig      `toml:"notify" json:"notify" yaml:"notify"`
}

// PatternsConfig locates the detection rule source.
type PatternsConfig struct {
	// Path is a plain-text pattern file (one regex per line) or a
	// .json pattern pack.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Reload watches Path and hot-swaps the rule set on change.
	Reload bool `toml:"reload" json:"reload" yaml:"reload"`
}

// GateConfig controls the input gate.
type GateConfig struct {
	// FailOpen lets a pending decision proceed without the paste
	// gate when hook installation fails. The default is fail-closed:
	// content is discarded instead.
	FailOpen bool `toml:"fail_open" json:"fail_open" yaml:"fail_open"`
}

// SessionConfig controls the decision flow.
type SessionConfig struct {
	// DecisionTimeoutSec bounds the Yes/No prompt. Zero waits
	// indefinitely; an expired prompt counts as a discard.
	DecisionTimeoutSec int `toml:"decision_timeout_sec" json:"decision_timeout_sec" yaml:"decision_timeout_sec"`

	// ScanOnStart scans whatever is already on the clipboard when
	// the daemon starts.
	ScanOnStart bool `toml:"scan_on_start" json:"scan_on_start" yaml:"scan_on_start"`
}

// DecisionLogConfig controls where verdicts are recorded.
type DecisionLogConfig struct {
	// Path is the hash-chained JSONL decision log.
	Path string `toml:"path" json:"path" yaml:"path"`

	// SQLiteEnabled mirrors every record into a queryable database.
	SQLiteEnabled bool `toml:"sqlite_enabled" json:"sqlite_enabled" yaml:"sqlite_enabled"`

	// SQLitePath is the database file when SQLiteEnabled is set.
	SQLitePath string `toml:"sqlite_path" json:"sqlite_path" yaml:"sqlite_path"`
}

// LoggingConfig configures the operational log. Level and Format are
// parsed by the logging package.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`
}

// NotifyConfig controls operator notifications.
type NotifyConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		Version: Version,
		Patterns: PatternsConfig{
			Path:   filepath.Join(dataDir, "patterns.txt"),
			Reload: true,
		},
		Gate: GateConfig{
			FailOpen: false,
		},
		Session: SessionConfig{
			DecisionTimeoutSec: 0,
			ScanOnStart:        true,
		},
		DecisionLog: DecisionLogConfig{
			Path:          filepath.Join(dataDir, "decisions.jsonl"),
			SQLiteEnabled: false,
			SQLitePath:    filepath.Join(dataDir, "decisions.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			MaxSizeMB:  20,
			MaxAgeDays: 30,
			MaxBackups: 5,
			Compress:   true,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// DataDir returns the platform directory for clipwarden state.
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("PROGRAMDATA")
		if base == "" {
			base = `C:\ProgramData`
		}
		return filepath.Join(base, "Clipwarden")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "clipwarden")
	default:
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, _ := os.UserHomeDir()
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "clipwarden")
	}
}

// ConfigPath returns the default configuration file location.
func ConfigPath() string {
	return filepath.Join(DataDir(), "clipwarden.toml")
}

// DecisionTimeout returns the prompt timeout as a duration.
func (c *Config) DecisionTimeout() time.Duration {
	return time.Duration(c.Session.DecisionTimeoutSec) * time.Second
}

// Validate checks the configuration for values the daemon cannot run
// with.
func (c *Config) Validate() error {
	var errs []string

	if c.Version <= 0 || c.Version > Version {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", c.Version))
	}
	if c.Patterns.Path == "" {
		errs = append(errs, "patterns.path is required")
	}
	if c.Session.DecisionTimeoutSec < 0 {
		errs = append(errs, "session.decision_timeout_sec must not be negative")
	}
	if c.DecisionLog.Path == "" {
		errs = append(errs, "decision_log.path is required")
	}
	if c.DecisionLog.SQLiteEnabled && c.DecisionLog.SQLitePath == "" {
		errs = append(errs, "decision_log.sqlite_path is required when sqlite is enabled")
	}
	switch strings.ToLower(c.Logging.Output) {
	case "", "stderr", "file", "both":
	default:
		errs = append(errs, fmt.Sprintf("logging.output %q is not stderr, file, or both", c.Logging.Output))
	}
	if c.Logging.MaxSizeMB < 0 {
		errs = append(errs, "logging.max_size_mb must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyEnvOverrides applies CLIPWARDEN_* environment variables over
// the loaded values. Useful for managed deployments where the config
// file is owned by an endpoint-management tool.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CLIPWARDEN_PATTERNS"); v != "" {
		c.Patterns.Path = v
	}
	if v := os.Getenv("CLIPWARDEN_DECISION_LOG"); v != "" {
		c.DecisionLog.Path = v
	}
	if v := os.Getenv("CLIPWARDEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CLIPWARDEN_FAIL_OPEN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Gate.FailOpen = b
		}
	}
	if v := os.Getenv("CLIPWARDEN_DECISION_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Session.DecisionTimeoutSec = n
		}
	}
}
