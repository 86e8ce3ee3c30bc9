//go:build windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	"clipwarden/internal/attribution"
	"clipwarden/internal/clipboard"
	"clipwarden/internal/config"
	"clipwarden/internal/gate"
	"clipwarden/internal/logging"
	"clipwarden/internal/session"
	"clipwarden/internal/ui"
)

// singleInstanceName is the named mutex guarding against a second
// daemon. Global\ makes it session-wide under fast user switching.
const singleInstanceName = `Global\ClipwardenSingleInstance`

var (
	kernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procCreateMutex = kernel32.NewProc("CreateMutexW")
)

func acquireSingleInstance() error {
	name, err := windows.UTF16PtrFromString(singleInstanceName)
	if err != nil {
		return err
	}
	h, _, callErr := procCreateMutex.Call(0, 1, uintptr(unsafe.Pointer(name)))
	if h == 0 {
		return fmt.Errorf("create instance mutex: %w", callErr)
	}
	if callErr == windows.ERROR_ALREADY_EXISTS {
		return fmt.Errorf("another clipwarden instance is already running")
	}
	// The handle stays open for the life of the process.
	return nil
}

// run wires the daemon and pumps window messages until interrupted.
// Everything UI-facing lives on this one locked thread: the clipboard
// listener, the low-level hooks, and the modal prompt.
func run(cfg *config.Config, logger *logging.Logger) error {
	runtime.LockOSThread()

	if err := acquireSingleInstance(); err != nil {
		return err
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

	// The session is created after the listener because the tray icon
	// needs the listener's window; the callback indirection closes the
	// cycle.
	var s *session.Session
	listener, err := clipboard.NewListener(func() {
		s.OnClipboardChanged()
	})
	if err != nil {
		return fmt.Errorf("clipboard listener: %w", err)
	}
	defer listener.Stop()

	var notifier ui.Notifier = ui.NopNotifier
	if cfg.Notify.Enabled {
		tray, err := ui.NewTrayNotifier(listener.WindowHandle(), "Clipwarden")
		if err != nil {
			logger.Warn("tray icon unavailable", "error", err)
		} else {
			defer tray.Close()
			notifier = tray
		}
	}

	g := gate.New(gate.NewHooks(logger.Logger),
		gate.WithFailOpen(cfg.Gate.FailOpen),
		gate.WithLogger(logger.Logger),
	)

	s = session.New(session.Options{
		Scanner:         core.scanner,
		Gate:            g,
		Clipboard:       clip,
		Prompter:        ui.MessageBoxPrompter{},
		Notifier:        notifier,
		Resolver:        attribution.New(),
		Sink:            core.sink,
		User:            core.user,
		Host:            core.host,
		DecisionTimeout: cfg.DecisionTimeout(),
		Logger:          logger.Logger,
	})
	defer s.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		logger.Info("shutting down")
		listener.Stop()
	}()

	logger.Info("clipwarden running",
		"fail_open", cfg.Gate.FailOpen,
		"sqlite", cfg.DecisionLog.SQLiteEnabled,
	)

	if cfg.Session.ScanOnStart {
		s.InitialScan()
	}

	listener.Run()
	return nil
}

func fatalUI(title, body string) {
	ui.ShowFatalError(title, body)
}
