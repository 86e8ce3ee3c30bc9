// Package session owns one clipboard-change cycle: read, scan, prompt,
// and either clear the clipboard or re-arm the gate for the single
// authorized paste. It is the only component that touches every
// collaborator.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"clipwarden/internal/attribution"
	"clipwarden/internal/clipboard"
	"clipwarden/internal/decision"
	"clipwarden/internal/gate"
	"clipwarden/internal/scan"
	"clipwarden/internal/ui"
)

// Operator-facing text. The notification wording matches what the
// paste gesture actually requires.
const (
	promptTitle = "Clipwarden Security Alert"
	promptBody  = "Suspicious clipboard content detected.\nAllow it to be pasted?"

	notifyTitle     = "Clipboard verdict"
	notifyDiscarded = "Content discarded."
	notifyPasteNow  = "Paste now (Ctrl+V / Shift+Ins / right-click)."

	// destNone is logged as the destination when content never
	// reached an application.
	destNone = "N/A"
)

// Options wires a Session.
type Options struct {
	Scanner   *scan.Scanner
	Gate      *gate.Gate
	Clipboard clipboard.Accessor
	Prompter  ui.Prompter
	Notifier  ui.Notifier
	Resolver  attribution.Resolver
	Sink      decision.Sink

	// User and Host are cached once at startup for decision records.
	User string
	Host string

	// DecisionTimeout bounds how long the prompt stays open. Zero
	// waits indefinitely. An expired prompt counts as a discard.
	DecisionTimeout time.Duration

	Logger *slog.Logger
}

// pendingDecision is the state held from detection until resolution.
// Exactly one exists at a time.
type pendingDecision struct {
	preview scan.Preview
	full    string
	source  string
}

// Session is the clipboard watcher's decision engine. One per process,
// driven by clipboard-change notifications and, indirectly, by the
// gate's paste callback.
type Session struct {
	scanner  *scan.Scanner
	gate     *gate.Gate
	clip     clipboard.Accessor
	prompter ui.Prompter
	notifier ui.Notifier
	resolver attribution.Resolver
	sink     decision.Sink

	user    string
	host    string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	holding bool
	pending *pendingDecision
}

// New creates a Session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = ui.NopNotifier
	}
	sink := opts.Sink
	if sink == nil {
		sink = decision.Discard
	}
	return &Session{
		scanner:  opts.Scanner,
		gate:     opts.Gate,
		clip:     opts.Clipboard,
		prompter: opts.Prompter,
		notifier: notifier,
		resolver: opts.Resolver,
		sink:     sink,
		user:     opts.User,
		host:     opts.Host,
		timeout:  opts.DecisionTimeout,
		logger:   logger.With("component", "session"),
	}
}

// Holding reports whether a decision is currently in flight.
func (s *Session) Holding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding
}

// InitialScan scans whatever is already on the clipboard at startup.
func (s *Session) InitialScan() {
	s.OnClipboardChanged()
}

// OnClipboardChanged handles one clipboard-change notification.
//
// The clipboard is read and released before any prompt or hook work;
// it is never held across UI. Change events arriving while a decision
// is pending are ignored entirely.
func (s *Session) OnClipboardChanged() {
	s.mu.Lock()
	if s.holding {
		s.mu.Unlock()
		s.logger.Debug("clipboard change ignored, decision pending")
		return
	}
	s.mu.Unlock()

	text, err := s.clip.ReadText()
	if err != nil {
		// Transient access failure: drop the event.
		s.logger.Debug("clipboard read failed, event dropped", "error", err)
		return
	}

	preview, ok := s.scanner.Scan(text)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.holding {
		s.mu.Unlock()
		return
	}
	s.holding = true
	pending := &pendingDecision{
		preview: preview,
		full:    text,
		source:  s.resolver.ProcessImageName(s.clip.OwnerWindow()),
	}
	s.pending = pending
	s.mu.Unlock()

	s.logger.Info("suspicious clipboard content detected",
		"pattern", preview.Pattern,
		"source_app", pending.source,
		"length", len(text),
	)

	if err := s.gate.Arm(s.finalizePaste); err != nil {
		// Gate unavailable: fail closed, the content never becomes
		// pasteable.
		s.logger.Error("input gate unavailable, discarding", "error", err)
		s.resolveDiscard(pending)
		return
	}

	allow, err := s.prompter.Confirm(promptTitle, promptBody, preview.Snippet, s.timeout)
	if err != nil {
		if errors.Is(err, ui.ErrTimeout) {
			s.logger.Warn("decision prompt expired, discarding")
		} else {
			s.logger.Error("decision prompt failed, discarding", "error", err)
		}
		allow = false
	}

	if !allow {
		if err := s.gate.Discard(); err != nil {
			s.logger.Warn("gate discard", "error", err)
		}
		s.resolveDiscard(pending)
		return
	}

	if err := s.gate.Allow(); err != nil {
		// The gate resolved underneath us; nothing more to do.
		s.logger.Warn("gate allow", "error", err)
		return
	}
	// An ungated allow resolves inside Allow itself, through the paste
	// callback; in that case the hold is already released and the
	// paste instruction would be noise.
	if s.Holding() {
		s.notify(notifyPasteNow)
	}
	// The rest of the cycle is driven by the gate's hook callbacks;
	// holding stays true until the authorized paste completes.
}

// resolveDiscard clears the clipboard and records the verdict.
func (s *Session) resolveDiscard(p *pendingDecision) {
	if err := s.clip.Clear(); err != nil {
		s.logger.Warn("clipboard clear failed", "error", err)
	}
	s.notify(notifyDiscarded)
	s.append(decision.NewRecord(
		s.user, s.host, p.source, destNone, p.preview.Snippet, decision.ActionDiscard))

	s.mu.Lock()
	s.holding = false
	s.pending = nil
	s.mu.Unlock()
}

// finalizePaste runs when the gate consumes the one authorized paste.
// Invoked from the hook callback; it must stay fast.
func (s *Session) finalizePaste(via gate.Via) {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.holding = false
	s.mu.Unlock()

	if p == nil {
		s.logger.Warn("paste callback with no pending decision")
		return
	}

	var hwnd uintptr
	switch via {
	case gate.ViaContextMenu:
		// The dialog interaction may have taken clipboard ownership;
		// put the approved content back before the paste lands.
		if err := s.clip.WriteText(p.full); err != nil {
			s.logger.Warn("clipboard restore failed", "error", err)
		}
		hwnd = s.resolver.WindowAtCursor()
	default:
		hwnd = s.resolver.ForegroundWindow()
	}

	dest := s.resolver.ProcessImageName(hwnd)
	s.logger.Info("authorized paste completed",
		"via", via.String(),
		"dest_app", dest,
	)
	s.append(decision.NewRecord(
		s.user, s.host, p.source, dest, p.preview.Snippet, decision.ActionKeep))
}

func (s *Session) notify(body string) {
	if err := s.notifier.Notify(notifyTitle, body); err != nil {
		s.logger.Debug("notification failed", "error", err)
	}
}

func (s *Session) append(r decision.Record) {
	if err := s.sink.Append(r); err != nil {
		s.logger.Error("decision record append failed",
			"action", string(r.Action),
			"error", err,
		)
	}
}

// Close resets the gate. Pending decisions resolve as if discarded but
// without clearing the clipboard; shutdown is not a verdict.
func (s *Session) Close() {
	s.gate.Reset()
	s.mu.Lock()
	s.holding = false
	s.pending = nil
	s.mu.Unlock()
}
