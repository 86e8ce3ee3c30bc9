//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clipwarden/internal/attribution"
	"clipwarden/internal/clipboard"
	"clipwarden/internal/config"
	"clipwarden/internal/gate"
	"clipwarden/internal/logging"
	"clipwarden/internal/session"
	"clipwarden/internal/ui"
)

// run starts the daemon in monitor mode. Low-level input hooks are
// Windows-only, so the gate always runs fail-open here: flagged
// content still prompts, is logged, and can be discarded, but an
// allowed paste is not restricted to a single gesture.
func run(cfg *config.Config, logger *logging.Logger) error {
	if !cfg.Gate.FailOpen {
		logger.Warn("input hooks unavailable on this platform, running fail-open monitor mode")
	}

	core, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	clip, err := clipboard.New()
	if err != nil {
		return fmt.Errorf("clipboard access: %w", err)
	}

	var s *session.Session
	listener, err := clipboard.NewListener(func() {
		s.OnClipboardChanged()
	})
	if err != nil {
		return fmt.Errorf("clipboard listener: %w", err)
	}
	defer listener.Stop()

	g := gate.New(gate.NewHooks(logger.Logger),
		gate.WithFailOpen(true),
		gate.WithLogger(logger.Logger),
	)

	s = session.New(session.Options{
		Scanner:         core.scanner,
		Gate:            g,
		Clipboard:       clip,
		Prompter:        &ui.ConsolePrompter{In: os.Stdin, Out: os.Stderr},
		Notifier:        platformNotifier(cfg, logger),
		Resolver:        attribution.New(),
		Sink:            core.sink,
		User:            core.user,
		Host:            core.host,
		DecisionTimeout: cfg.DecisionTimeout(),
		Logger:          logger.Logger,
	})
	defer s.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		listener.Stop()
	}()

	logger.Info("clipwarden running",
		"mode", "monitor",
		"sqlite", cfg.DecisionLog.SQLiteEnabled,
	)

	if cfg.Session.ScanOnStart {
		s.InitialScan()
	}

	listener.Run()
	return nil
}

func fatalUI(title, body string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, body)
}
