package gate

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

// fakeHooks records install/uninstall calls without touching the OS.
type fakeHooks struct {
	installed    bool
	installErr   error
	installCalls int
	events       Events
}

func (f *fakeHooks) Install(ev Events) error {
	f.installCalls++
	if f.installed {
		return nil
	}
	if f.installErr != nil {
		return f.installErr
	}
	f.installed = true
	f.events = ev
	return nil
}

func (f *fakeHooks) Uninstall() {
	f.installed = false
	f.events = nil
}

func (f *fakeHooks) Installed() bool { return f.installed }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T) (*Gate, *fakeHooks) {
	t.Helper()
	hooks := &fakeHooks{}
	return New(hooks, WithLogger(quietLogger())), hooks
}

func TestInitialState(t *testing.T) {
	g, hooks := newTestGate(t)
	if g.State() != StateIdle {
		t.Errorf("expected idle, got %s", g.State())
	}
	if hooks.Installed() {
		t.Error("no hooks should be installed while idle")
	}
}

func TestArmInstallsHooks(t *testing.T) {
	g, hooks := newTestGate(t)

	if err := g.Arm(nil); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if g.State() != StatePendingDecision {
		t.Errorf("expected pending_decision, got %s", g.State())
	}
	if !hooks.Installed() {
		t.Error("hooks must be installed when not idle")
	}
}

func TestArmWhileArmedRejected(t *testing.T) {
	g, _ := newTestGate(t)
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Arm(nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if g.State() != StatePendingDecision {
		t.Errorf("failed arm must not change state, got %s", g.State())
	}
}

func TestInvalidTransitions(t *testing.T) {
	g, _ := newTestGate(t)

	// Idle allows neither Discard nor Allow.
	if err := g.Discard(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Discard from idle: expected ErrInvalidTransition, got %v", err)
	}
	if err := g.Allow(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Allow from idle: expected ErrInvalidTransition, got %v", err)
	}

	// AwaitingPaste allows neither Arm nor Allow.
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Allow from awaiting_paste: expected ErrInvalidTransition, got %v", err)
	}
	if err := g.Arm(nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Arm from awaiting_paste: expected ErrInvalidTransition, got %v", err)
	}
}

func TestDiscardDisarms(t *testing.T) {
	g, hooks := newTestGate(t)
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if g.State() != StateIdle {
		t.Errorf("expected idle after discard, got %s", g.State())
	}
	if hooks.Installed() {
		t.Error("hooks must come down on discard")
	}
}

func TestAllowKeepsHooks(t *testing.T) {
	g, hooks := newTestGate(t)
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if g.State() != StateAwaitingPaste {
		t.Errorf("expected awaiting_paste, got %s", g.State())
	}
	if !hooks.Installed() {
		t.Error("hooks must stay up while awaiting the paste")
	}
}

func TestPendingSwallowsEverything(t *testing.T) {
	g, _ := newTestGate(t)
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}

	for _, ges := range []Gesture{GestureCopy, GestureCut, GesturePaste} {
		if !g.HandleKey(ges) {
			t.Errorf("gesture %d must be swallowed while pending", ges)
		}
	}
	for _, b := range []MouseButton{ButtonRight, ButtonMiddle} {
		for _, up := range []bool{false, true} {
			if !g.HandleMouse(b, up) {
				t.Errorf("button %d up=%v must be swallowed while pending", b, up)
			}
		}
	}
	if g.State() != StatePendingDecision {
		t.Errorf("swallowed input must not change state, got %s", g.State())
	}
}

func TestIdleForwardsEverything(t *testing.T) {
	g, _ := newTestGate(t)
	if g.HandleKey(GesturePaste) {
		t.Error("idle gate must not swallow key events")
	}
	if g.HandleMouse(ButtonRight, true) {
		t.Error("idle gate must not swallow mouse events")
	}
}

func TestExactlyOneKeyboardPaste(t *testing.T) {
	g, hooks := newTestGate(t)

	var pastes []Via
	if err := g.Arm(func(v Via) { pastes = append(pastes, v) }); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatal(err)
	}

	// Copy and cut stay blocked even while a paste is permitted.
	if !g.HandleKey(GestureCopy) || !g.HandleKey(GestureCut) {
		t.Error("copy/cut must stay swallowed while awaiting paste")
	}

	// The first paste goes through and resolves the gate.
	if g.HandleKey(GesturePaste) {
		t.Error("the authorized paste must be forwarded")
	}
	if len(pastes) != 1 || pastes[0] != ViaKeyboard {
		t.Fatalf("expected one keyboard paste callback, got %v", pastes)
	}
	if g.State() != StateIdle {
		t.Errorf("expected idle after the paste, got %s", g.State())
	}
	if hooks.Installed() {
		t.Error("hooks must come down with the paste")
	}

	// A second paste arrives after resolution: no second callback.
	g.HandleKey(GesturePaste)
	if len(pastes) != 1 {
		t.Errorf("paste callback must fire exactly once, got %d", len(pastes))
	}
}

func TestContextMenuPaste(t *testing.T) {
	g, _ := newTestGate(t)

	var pastes []Via
	if err := g.Arm(func(v Via) { pastes = append(pastes, v) }); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatal(err)
	}

	// Right-button-down opens the context menu; it must pass.
	if g.HandleMouse(ButtonRight, false) {
		t.Error("right-button-down must be forwarded while awaiting paste")
	}
	// Right-button-up is the paste gesture.
	if g.HandleMouse(ButtonRight, true) {
		t.Error("the authorized context-menu paste must be forwarded")
	}
	if len(pastes) != 1 || pastes[0] != ViaContextMenu {
		t.Fatalf("expected one context-menu paste callback, got %v", pastes)
	}
	if g.State() != StateIdle {
		t.Errorf("expected idle after the paste, got %s", g.State())
	}
}

func TestMiddleClickNeverPermitted(t *testing.T) {
	g, _ := newTestGate(t)

	fired := 0
	if err := g.Arm(func(Via) { fired++ }); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatal(err)
	}

	if !g.HandleMouse(ButtonMiddle, false) || !g.HandleMouse(ButtonMiddle, true) {
		t.Error("middle-click must always be swallowed")
	}
	if fired != 0 {
		t.Error("middle-click must never consume the paste token")
	}
	if g.State() != StateAwaitingPaste {
		t.Errorf("middle-click must not resolve the gate, got %s", g.State())
	}
}

func TestFailClosedHookInstall(t *testing.T) {
	hooks := &fakeHooks{installErr: errors.New("denied")}
	g := New(hooks, WithLogger(quietLogger()))

	err := g.Arm(nil)
	if !errors.Is(err, ErrHookInstall) {
		t.Fatalf("expected ErrHookInstall, got %v", err)
	}
	if g.State() != StateIdle {
		t.Errorf("failed arm must leave the gate idle, got %s", g.State())
	}
}

func TestFailOpenHookInstall(t *testing.T) {
	hooks := &fakeHooks{installErr: errors.New("denied")}
	g := New(hooks, WithFailOpen(true), WithLogger(quietLogger()))

	if err := g.Arm(nil); err != nil {
		t.Fatalf("fail-open arm should succeed: %v", err)
	}
	if g.State() != StatePendingDecision {
		t.Errorf("expected pending_decision, got %s", g.State())
	}
}

func TestFailOpenAllowResolvesImmediately(t *testing.T) {
	hooks := &fakeHooks{installErr: errors.New("denied")}
	g := New(hooks, WithFailOpen(true), WithLogger(quietLogger()))

	var pastes []Via
	if err := g.Arm(func(v Via) { pastes = append(pastes, v) }); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatalf("ungated allow should succeed: %v", err)
	}

	// No hook can ever deliver the paste, so the allow resolves on the
	// spot instead of waiting forever.
	if len(pastes) != 1 || pastes[0] != ViaKeyboard {
		t.Fatalf("expected one immediate paste callback, got %v", pastes)
	}
	if g.State() != StateIdle {
		t.Errorf("ungated allow must return the gate to idle, got %s", g.State())
	}

	// The gate is immediately reusable for the next decision.
	if err := g.Arm(nil); err != nil {
		t.Fatalf("re-arm after ungated allow: %v", err)
	}
}

func TestArmIdempotentInstall(t *testing.T) {
	g, hooks := newTestGate(t)

	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Discard(); err != nil {
		t.Fatal(err)
	}
	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if hooks.installCalls != 2 {
		t.Errorf("expected one install per arm, got %d", hooks.installCalls)
	}
	if !hooks.Installed() {
		t.Error("hooks must be up after re-arm")
	}
}

func TestResetFromAnyState(t *testing.T) {
	g, hooks := newTestGate(t)

	if err := g.Arm(nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Allow(); err != nil {
		t.Fatal(err)
	}

	g.Reset()
	if g.State() != StateIdle {
		t.Errorf("expected idle after reset, got %s", g.State())
	}
	if hooks.Installed() {
		t.Error("reset must remove hooks")
	}

	// Reset while idle is harmless.
	g.Reset()
}
