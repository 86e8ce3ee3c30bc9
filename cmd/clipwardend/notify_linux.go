//go:build linux

package main

import (
	"os"

	"clipwarden/internal/config"
	"clipwarden/internal/logging"
	"clipwarden/internal/ui"
)

// platformNotifier prefers desktop notifications over the session bus
// and falls back to stderr when no bus is reachable.
func platformNotifier(cfg *config.Config, logger *logging.Logger) ui.Notifier {
	if !cfg.Notify.Enabled {
		return ui.NopNotifier
	}
	n, err := ui.NewDBusNotifier()
	if err != nil {
		logger.Warn("desktop notifications unavailable", "error", err)
		return &ui.ConsoleNotifier{Out: os.Stderr}
	}
	return n
}
