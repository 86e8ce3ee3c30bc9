//go:build !windows

package gate

import (
	"errors"
	"log/slog"
)

// ErrNotSupported is returned by Install on platforms without
// low-level input hooks. The daemon runs monitor-only there.
var ErrNotSupported = errors.New("gate: input hooks not supported on this platform")

type unsupportedHooks struct{}

// NewHooks returns a hook layer that always fails to install. With the
// default fail-closed gate this turns every detection into a discard;
// the daemon forces fail-open (monitor-only) on these platforms
// instead.
func NewHooks(_ *slog.Logger) Hooks {
	return unsupportedHooks{}
}

func (unsupportedHooks) Install(Events) error { return ErrNotSupported }
func (unsupportedHooks) Uninstall()           {}
func (unsupportedHooks) Installed() bool      { return false }
