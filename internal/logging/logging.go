// Package logging sets up slog for the clipwarden daemon: text or JSON
// output, optional rotating file sink, and redaction of clipboard text
// so flagged content never leaks into the operational log. Verdicts
// with content previews belong in the decision log, not here.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Format selects the log output encoding.
type Format int

const (
	// FormatText is human-readable key=value output.
	FormatText Format = iota
	// FormatJSON is one JSON object per line.
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level to emit.
	Level slog.Level

	// Format is text or JSON.
	Format Format

	// Output is "stderr", "file", or "both".
	Output string

	// FilePath is the log file when Output includes "file".
	FilePath string

	// MaxSizeMB triggers rotation when the file grows past this size.
	MaxSizeMB int64

	// MaxAgeDays deletes rotated files older than this.
	MaxAgeDays int

	// MaxBackups caps how many rotated files are kept.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool

	// AddSource includes file:line in entries.
	AddSource bool

	// Component tags every entry.
	Component string
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:      slog.LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   DefaultLogPath(),
		MaxSizeMB:  20,
		MaxAgeDays: 30,
		MaxBackups: 5,
		Compress:   true,
		Component:  "clipwarden",
	}
}

// DefaultLogPath returns the platform default log file location.
func DefaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "Clipwarden", "logs", "clipwarden.log")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Logs", "clipwarden", "clipwarden.log")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			home, _ := os.UserHomeDir()
			stateHome = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(stateHome, "clipwarden", "clipwarden.log")
	}
}

// Logger is a slog.Logger with ownership of its file sink.
type Logger struct {
	*slog.Logger
	rotator *FileRotator
}

// New builds a Logger from cfg.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Logger{}
	var writers []io.Writer
	switch strings.ToLower(cfg.Output) {
	case "file":
		rot, err := NewFileRotator(cfg)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		l.rotator = rot
		writers = append(writers, rot)
	case "both":
		rot, err := NewFileRotator(cfg)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		l.rotator = rot
		writers = append(writers, os.Stderr, rot)
	default:
		writers = append(writers, os.Stderr)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if shouldRedact(a.Key) {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", cfg.Component)})
	}

	l.Logger = slog.New(handler)
	return l, nil
}

// shouldRedact reports whether an attribute may carry clipboard text or
// credentials. Such values never reach the operational log.
func shouldRedact(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"content", "snippet", "clipboard_text", "password", "secret", "token", "credential"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Sync flushes the file sink, if any.
func (l *Logger) Sync() error {
	if l.rotator != nil {
		return l.rotator.Sync()
	}
	return nil
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %q", s)
	}
}
