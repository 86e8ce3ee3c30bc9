// clipwardend watches the clipboard for content matching a configured
// rule set. Flagged content is held: the user decides to discard it or
// to allow exactly one paste, and every verdict is recorded in a
// tamper-evident decision log.
//
// Usage:
//
//	clipwardend [-config FILE] [-patterns FILE] [-log-level LEVEL]
//
// Without -config the platform default location is used; a missing
// file means built-in defaults. CLIPWARDEN_* environment variables
// override the file.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"

	"clipwarden/internal/config"
	"clipwarden/internal/decision"
	"clipwarden/internal/logging"
	"clipwarden/internal/pattern"
	"clipwarden/internal/scan"
)

func main() {
	var (
		configPath   = flag.String("config", "", "configuration file (default: platform location)")
		patternsPath = flag.String("patterns", "", "pattern file, overrides the configured path")
		logLevel     = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clipwardend: %v\n", err)
		os.Exit(1)
	}
	if *patternsPath != "" {
		cfg.Patterns.Path = *patternsPath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clipwardend: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon stopped", "error", err)
		fatalUI("Clipwarden", err.Error())
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	if cfg.Logging.Output != "" {
		lc.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxAgeDays > 0 {
		lc.MaxAgeDays = cfg.Logging.MaxAgeDays
	}
	if cfg.Logging.MaxBackups > 0 {
		lc.MaxBackups = cfg.Logging.MaxBackups
	}
	lc.Compress = cfg.Logging.Compress
	return logging.New(lc)
}

// core is the platform-independent part of the daemon: rule set,
// scanner, and decision sinks.
type core struct {
	scanner *scan.Scanner
	holder  *pattern.Holder
	watcher *pattern.ReloadWatcher
	sink    decision.Sink
	chain   *decision.ChainLog
	db      *decision.SQLiteSink
	user    string
	host    string
}

// buildCore loads patterns and opens the decision sinks. Pattern
// source failures are fatal: the daemon never runs without rules.
func buildCore(cfg *config.Config, logger *logging.Logger) (*core, error) {
	store, invalid, err := pattern.LoadAny(cfg.Patterns.Path)
	if err != nil {
		return nil, fmt.Errorf("load patterns from %s: %w", cfg.Patterns.Path, err)
	}
	for _, ip := range invalid {
		logger.Warn("pattern skipped", "line", ip.Line, "text", ip.Text, "error", ip.Err)
	}
	logger.Info("patterns loaded", "path", cfg.Patterns.Path, "count", store.Len())

	c := &core{
		holder: pattern.NewHolder(store),
		user:   currentUser(),
		host:   hostname(),
	}
	c.scanner = scan.New(c.holder)

	if cfg.Patterns.Reload {
		w, err := pattern.NewReloadWatcher(cfg.Patterns.Path, c.holder, nil, logger.Logger)
		if err != nil {
			logger.Warn("pattern reload unavailable", "error", err)
		} else {
			c.watcher = w
		}
	}

	chain, err := decision.OpenChainLog(cfg.DecisionLog.Path)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	c.chain = chain

	sinks := []decision.Sink{chain}
	if cfg.DecisionLog.SQLiteEnabled {
		db, err := decision.OpenSQLite(cfg.DecisionLog.SQLitePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open decision database: %w", err)
		}
		c.db = db
		sinks = append(sinks, db)
	}
	c.sink = decision.Multi(sinks...)
	return c, nil
}

func (c *core) Close() {
	if c.watcher != nil {
		c.watcher.Close()
	}
	if c.chain != nil {
		c.chain.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "Unknown"
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "Unknown"
}
