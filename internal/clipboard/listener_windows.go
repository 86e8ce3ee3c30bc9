//go:build windows

package clipboard

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	procRegisterClassW                = user32.NewProc("RegisterClassW")
	procCreateWindowExW               = user32.NewProc("CreateWindowExW")
	procDestroyWindow                 = user32.NewProc("DestroyWindow")
	procDefWindowProcW                = user32.NewProc("DefWindowProcW")
	procGetMessageW                   = user32.NewProc("GetMessageW")
	procTranslateMessage              = user32.NewProc("TranslateMessage")
	procDispatchMessageW              = user32.NewProc("DispatchMessageW")
	procPostMessageW                  = user32.NewProc("PostMessageW")
	procAddClipboardFormatListener    = user32.NewProc("AddClipboardFormatListener")
	procRemoveClipboardFormatListener = user32.NewProc("RemoveClipboardFormatListener")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	wmDestroy         = 0x0002
	wmClose           = 0x0010
	wmClipboardUpdate = 0x031D

	hwndMessage = ^uintptr(2) // HWND_MESSAGE
)

const listenerClassName = "ClipwardenListenerWnd"

type wndClass struct {
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
	private uint32
}

type point struct {
	X int32
	Y int32
}

// The window procedure is a free function; one listener per process,
// same constraint as the input hooks.
var (
	listenerMu     sync.Mutex
	activeListener *Listener
)

var listenerWndProcPtr = syscall.NewCallback(listenerWndProc)

func listenerWndProc(hwnd uintptr, message uintptr, wParam uintptr, lParam uintptr) uintptr {
	switch message {
	case wmClipboardUpdate:
		listenerMu.Lock()
		l := activeListener
		listenerMu.Unlock()
		if l != nil && l.onChange != nil {
			l.onChange()
		}
		return 0
	case wmDestroy:
		// The pump exits when the window dies.
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return ret
}

// Listener owns a hidden message-only window registered as a clipboard
// format listener. Run pumps messages on the calling goroutine, which
// it pins to its OS thread: the low-level hooks and the modal prompt
// must live on the same pump.
type Listener struct {
	hwnd     windows.Handle
	onChange func()
}

// NewListener creates the message-only window and registers for
// clipboard-update notifications. onChange runs on the pump thread,
// once per WM_CLIPBOARDUPDATE.
func NewListener(onChange func()) (*Listener, error) {
	listenerMu.Lock()
	defer listenerMu.Unlock()
	if activeListener != nil {
		return nil, fmt.Errorf("clipboard: listener already active in this process")
	}

	mod, _, _ := procGetModuleHandleW.Call(0)
	className, err := windows.UTF16PtrFromString(listenerClassName)
	if err != nil {
		return nil, err
	}

	wc := wndClass{
		WndProc:   listenerWndProcPtr,
		Instance:  windows.Handle(mod),
		ClassName: className,
	}
	procRegisterClassW.Call(uintptr(unsafe.Pointer(&wc)))

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		0, 0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		mod,
		0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("create listener window: %w", callErr)
	}

	if ret, _, callErr := procAddClipboardFormatListener.Call(hwnd); ret == 0 {
		procDestroyWindow.Call(hwnd)
		return nil, fmt.Errorf("AddClipboardFormatListener: %w", callErr)
	}

	l := &Listener{hwnd: windows.Handle(hwnd), onChange: onChange}
	activeListener = l
	return l, nil
}

// WindowHandle exposes the hidden window, usable as the owner for a
// tray icon.
func (l *Listener) WindowHandle() uintptr {
	return uintptr(l.hwnd)
}

// Run pumps window messages until Stop. Blocks; call from the
// goroutine that should own all UI and hook callbacks.
func (l *Listener) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// GetMessage returns 0 on WM_QUIT, -1 on error.
		if int32(ret) <= 0 {
			return
		}
		if m.Message == wmClose && m.Hwnd == l.hwnd {
			// Window teardown must happen on the owning thread.
			procRemoveClipboardFormatListener.Call(uintptr(l.hwnd))
			procDestroyWindow.Call(uintptr(l.hwnd))
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// Stop ends the pump. Safe to call from any goroutine; the pump thread
// performs the actual window teardown.
func (l *Listener) Stop() {
	listenerMu.Lock()
	if activeListener == l {
		activeListener = nil
	}
	listenerMu.Unlock()

	procPostMessageW.Call(uintptr(l.hwnd), wmClose, 0, 0)
}
