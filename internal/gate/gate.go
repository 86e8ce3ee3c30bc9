// Package gate implements the input gate: the state machine that
// blocks copy/cut/paste input while a clipboard decision is pending
// and permits exactly one paste once the operator approves.
//
// The gate drives process-wide low-level hooks through the Hooks
// interface. Platform hook procedures feed intercepted events back in
// through HandleKey and HandleMouse and swallow or forward them based
// on the returned verdict. One Gate per process; concurrent instances
// are unsupported.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is the gate's decision state. Transitions are validated; an
// invalid transition returns ErrInvalidTransition and changes nothing.
type State int

const (
	// StateIdle: no decision in flight, no hooks installed.
	StateIdle State = iota

	// StatePendingDecision: the operator prompt is open. All copy,
	// cut, and paste input is swallowed.
	StatePendingDecision

	// StateAwaitingPaste: the operator approved. Exactly one paste
	// gesture is permitted; everything else stays swallowed.
	StateAwaitingPaste
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingDecision:
		return "pending_decision"
	case StateAwaitingPaste:
		return "awaiting_paste"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gesture classifies an intercepted keyboard event.
type Gesture int

const (
	// GestureNone is any key event the gate does not care about.
	GestureNone Gesture = iota
	// GestureCopy is Ctrl+C.
	GestureCopy
	// GestureCut is Ctrl+X.
	GestureCut
	// GesturePaste is Ctrl+V or Shift+Insert.
	GesturePaste
)

// MouseButton identifies the mouse buttons the gate intercepts.
type MouseButton int

const (
	// ButtonRight opens context menus; right-button-up is the
	// context-menu paste gesture.
	ButtonRight MouseButton = iota
	// ButtonMiddle is middle-click paste. Never permitted, not even
	// as the one authorized paste.
	ButtonMiddle
)

// Via records how the authorized paste was performed.
type Via int

const (
	// ViaKeyboard: Ctrl+V or Shift+Insert. Destination is the
	// foreground window.
	ViaKeyboard Via = iota
	// ViaContextMenu: right-button-up. Destination is the window
	// under the cursor, and the clipboard is restored first because
	// the dialog interaction may have taken clipboard ownership.
	ViaContextMenu
)

func (v Via) String() string {
	if v == ViaContextMenu {
		return "context_menu"
	}
	return "keyboard"
}

// Gate errors.
var (
	// ErrInvalidTransition is returned for a transition not allowed
	// from the current state.
	ErrInvalidTransition = errors.New("gate: invalid state transition")

	// ErrHookInstall is returned by Arm when the platform hooks could
	// not be installed and the gate is configured fail-closed.
	ErrHookInstall = errors.New("gate: hook installation failed")
)

// Events is the callback surface the platform hook procedures invoke
// for every intercepted event. A true result means swallow the event;
// false forwards it to the application.
type Events interface {
	HandleKey(g Gesture) bool
	HandleMouse(b MouseButton, up bool) bool
}

// Hooks installs and removes the process-wide low-level keyboard and
// mouse hooks. Install is idempotent: installing over live hooks is a
// no-op. Implementations route hook callbacks to the registered
// Events.
type Hooks interface {
	Install(ev Events) error
	Uninstall()
	Installed() bool
}

// Gate is the input gate. All methods are safe for use from the hook
// procedures and the session; in practice everything runs on the one
// message-pump thread and the mutex is uncontended.
type Gate struct {
	mu        sync.Mutex
	hooks     Hooks
	state     State
	tokenUsed bool
	failOpen  bool
	onPaste   func(Via)
	logger    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithFailOpen keeps a pending decision alive even when hook
// installation fails, leaving input ungated. The default is
// fail-closed: Arm returns ErrHookInstall and the caller treats the
// decision as a discard.
func WithFailOpen(failOpen bool) Option {
	return func(g *Gate) { g.failOpen = failOpen }
}

// WithLogger sets the gate's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// New creates an idle Gate over the given hook layer.
func New(hooks Hooks, opts ...Option) *Gate {
	g := &Gate{
		hooks:  hooks,
		state:  StateIdle,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "gate")
	return g
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Arm transitions Idle -> PendingDecision and installs the hooks.
// onPaste is invoked exactly once if the decision later resolves as an
// authorized paste.
//
// When hook installation fails the gate stays Idle and returns
// ErrHookInstall unless configured fail-open, in which case the
// decision proceeds ungated.
func (g *Gate) Arm(onPaste func(Via)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateIdle {
		return fmt.Errorf("%w: arm from %s", ErrInvalidTransition, g.state)
	}

	if err := g.hooks.Install(g); err != nil {
		if !g.failOpen {
			return fmt.Errorf("%w: %v", ErrHookInstall, err)
		}
		g.logger.Warn("hooks unavailable, decision proceeds ungated", "error", err)
	}

	g.state = StatePendingDecision
	g.tokenUsed = false
	g.onPaste = onPaste
	g.logger.Debug("gate armed", "state", g.state.String())
	return nil
}

// Discard transitions PendingDecision -> Idle: the operator rejected
// the content. Hooks come down and the paste token resets.
func (g *Gate) Discard() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePendingDecision {
		return fmt.Errorf("%w: discard from %s", ErrInvalidTransition, g.state)
	}
	g.disarmLocked()
	g.logger.Debug("gate disarmed after discard")
	return nil
}

// Allow transitions PendingDecision -> AwaitingPaste: the operator
// approved a single paste. Hooks stay up; the keyboard hook narrows
// its block to everything except a genuine paste gesture.
//
// On an ungated arm (fail-open with no hooks installed) no hook can
// ever deliver the paste, so the decision resolves immediately: the
// paste callback fires once and the gate returns to Idle.
func (g *Gate) Allow() error {
	g.mu.Lock()

	if g.state != StatePendingDecision {
		g.mu.Unlock()
		return fmt.Errorf("%w: allow from %s", ErrInvalidTransition, g.state)
	}
	g.state = StateAwaitingPaste
	g.tokenUsed = false

	if !g.hooks.Installed() {
		cb := g.consumeTokenLocked()
		g.mu.Unlock()
		g.logger.Debug("gate ungated, allow resolved immediately")
		if cb != nil {
			cb(ViaKeyboard)
		}
		return nil
	}

	g.mu.Unlock()
	g.logger.Debug("gate awaiting the authorized paste")
	return nil
}

// Reset unconditionally returns the gate to Idle and removes hooks.
// Used at shutdown; not a normal transition.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disarmLocked()
}

// disarmLocked tears hooks down and clears all decision state.
// Callers hold g.mu.
func (g *Gate) disarmLocked() {
	g.hooks.Uninstall()
	g.state = StateIdle
	g.tokenUsed = false
	g.onPaste = nil
}

// HandleKey is invoked by the keyboard hook for every classified key
// event. Returns true to swallow the event.
func (g *Gate) HandleKey(ges Gesture) bool {
	if ges == GestureNone {
		return false
	}

	g.mu.Lock()

	switch g.state {
	case StatePendingDecision:
		// No copying, cutting, or pasting of anything while the
		// prompt is open.
		g.mu.Unlock()
		return true

	case StateAwaitingPaste:
		if ges != GesturePaste || g.tokenUsed {
			g.mu.Unlock()
			return true
		}
		cb := g.consumeTokenLocked()
		g.mu.Unlock()
		if cb != nil {
			cb(ViaKeyboard)
		}
		// The one authorized paste gesture goes through.
		return false
	}

	g.mu.Unlock()
	return false
}

// HandleMouse is invoked by the mouse hook for right and middle button
// events. Returns true to swallow the event.
func (g *Gate) HandleMouse(b MouseButton, up bool) bool {
	g.mu.Lock()

	switch g.state {
	case StatePendingDecision:
		g.mu.Unlock()
		return true

	case StateAwaitingPaste:
		if b == ButtonMiddle || g.tokenUsed {
			g.mu.Unlock()
			return true
		}
		if b == ButtonRight && up {
			cb := g.consumeTokenLocked()
			g.mu.Unlock()
			if cb != nil {
				cb(ViaContextMenu)
			}
			return false
		}
		// Right-button-down passes so the context menu can open.
		g.mu.Unlock()
		return false
	}

	g.mu.Unlock()
	return false
}

// consumeTokenLocked performs the edge-triggered, exactly-once
// resolution of the authorized paste: the token is set and hooks come
// down before any other action. Returns the paste callback to run
// outside the lock. Callers hold g.mu.
func (g *Gate) consumeTokenLocked() func(Via) {
	g.tokenUsed = true
	cb := g.onPaste
	g.onPaste = nil
	g.hooks.Uninstall()
	g.state = StateIdle
	g.logger.Debug("authorized paste consumed")
	return cb
}
