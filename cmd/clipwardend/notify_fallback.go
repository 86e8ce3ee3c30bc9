//go:build !windows && !linux

package main

import (
	"os"

	"clipwarden/internal/config"
	"clipwarden/internal/logging"
	"clipwarden/internal/ui"
)

func platformNotifier(cfg *config.Config, _ *logging.Logger) ui.Notifier {
	if !cfg.Notify.Enabled {
		return ui.NopNotifier
	}
	return &ui.ConsoleNotifier{Out: os.Stderr}
}
