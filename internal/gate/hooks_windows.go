//go:build windows

package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx    = user32.NewProc("CallNextHookEx")
	procGetAsyncKeyState  = user32.NewProc("GetAsyncKeyState")
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandleW  = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208

	vkShift   = 0x10
	vkControl = 0x11
	vkInsert  = 0x2D
	vkC       = 0x43
	vkV       = 0x56
	vkX       = 0x58

	hcAction = 0
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// Low-level hook procedures are free functions with no per-instance
// context, so routing goes through a single registered Events. One
// gate per process; Register enforces it.
var (
	activeMu sync.Mutex
	active   Events
)

// register claims the process-wide hook routing slot.
func register(ev Events) error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil && active != ev {
		return errors.New("gate: another input gate is already registered in this process")
	}
	active = ev
	return nil
}

func unregister() {
	activeMu.Lock()
	active = nil
	activeMu.Unlock()
}

func currentEvents() Events {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active
}

// Hook callbacks must be created once; syscall.NewCallback allocations
// are never released.
var (
	keyboardProcPtr = syscall.NewCallback(lowLevelKeyboardProc)
	mouseProcPtr    = syscall.NewCallback(lowLevelMouseProc)
)

func lowLevelKeyboardProc(code uintptr, wParam uintptr, lParam uintptr) uintptr {
	if int32(code) == hcAction {
		if ev := currentEvents(); ev != nil {
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			if ev.HandleKey(classifyKey(kb.VkCode)) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, code, wParam, lParam)
	return ret
}

func lowLevelMouseProc(code uintptr, wParam uintptr, lParam uintptr) uintptr {
	if int32(code) == hcAction {
		if ev := currentEvents(); ev != nil {
			var (
				button MouseButton
				up     bool
				hit    = true
			)
			switch wParam {
			case wmRButtonDown:
				button = ButtonRight
			case wmRButtonUp:
				button, up = ButtonRight, true
			case wmMButtonDown:
				button = ButtonMiddle
			case wmMButtonUp:
				button, up = ButtonMiddle, true
			default:
				hit = false
			}
			if hit && ev.HandleMouse(button, up) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, code, wParam, lParam)
	return ret
}

// classifyKey maps a virtual key plus live modifier state to a gate
// gesture. Both key-down and key-up are classified so held shortcuts
// stay swallowed end to end.
func classifyKey(vk uint32) Gesture {
	ctrl := keyPressed(vkControl)
	shift := keyPressed(vkShift)

	switch {
	case ctrl && vk == vkC:
		return GestureCopy
	case ctrl && vk == vkX:
		return GestureCut
	case ctrl && vk == vkV:
		return GesturePaste
	case shift && vk == vkInsert:
		return GesturePaste
	default:
		return GestureNone
	}
}

func keyPressed(vk int) bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return ret&0x8000 != 0
}

// windowsHooks installs WH_KEYBOARD_LL and WH_MOUSE_LL. The installing
// thread must run a message pump or the OS silently disables the
// hooks.
type windowsHooks struct {
	mu     sync.Mutex
	kbHook windows.Handle
	msHook windows.Handle
	logger *slog.Logger
}

// NewHooks returns the Windows low-level hook layer.
func NewHooks(logger *slog.Logger) Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &windowsHooks{logger: logger.With("component", "hooks")}
}

func (h *windowsHooks) Install(ev Events) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.kbHook != 0 && h.msHook != 0 {
		return nil // already installed
	}

	if err := register(ev); err != nil {
		return err
	}

	mod, _, _ := procGetModuleHandleW.Call(0)

	if h.kbHook == 0 {
		hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, keyboardProcPtr, mod, 0)
		if hook == 0 {
			unregister()
			return fmt.Errorf("SetWindowsHookEx(WH_KEYBOARD_LL): %w", callErr)
		}
		h.kbHook = windows.Handle(hook)
	}

	if h.msHook == 0 {
		hook, _, callErr := procSetWindowsHookExW.Call(whMouseLL, mouseProcPtr, mod, 0)
		if hook == 0 {
			h.uninstallLocked()
			return fmt.Errorf("SetWindowsHookEx(WH_MOUSE_LL): %w", callErr)
		}
		h.msHook = windows.Handle(hook)
	}

	h.logger.Debug("low-level input hooks installed")
	return nil
}

func (h *windowsHooks) Uninstall() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uninstallLocked()
}

func (h *windowsHooks) uninstallLocked() {
	if h.kbHook != 0 {
		procUnhookWindowsHook.Call(uintptr(h.kbHook))
		h.kbHook = 0
	}
	if h.msHook != 0 {
		procUnhookWindowsHook.Call(uintptr(h.msHook))
		h.msHook = 0
	}
	unregister()
}

func (h *windowsHooks) Installed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kbHook != 0 && h.msHook != 0
}
