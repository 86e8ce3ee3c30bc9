//go:build windows

package attribution

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetCursorPos             = user32.NewProc("GetCursorPos")
	procWindowFromPoint          = user32.NewProc("WindowFromPoint")
)

type point struct {
	X int32
	Y int32
}

type windowsResolver struct{}

func newPlatformResolver() Resolver {
	return windowsResolver{}
}

func (windowsResolver) ForegroundWindow() uintptr {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return hwnd
}

func (windowsResolver) WindowAtCursor() uintptr {
	var pt point
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0
	}
	// POINT is passed by value; the 8-byte struct packs into a single
	// register on 64-bit Windows.
	packed := uintptr(uint32(pt.X)) | uintptr(uint32(pt.Y))<<32
	hwnd, _, _ := procWindowFromPoint.Call(packed)
	return hwnd
}

func (windowsResolver) ProcessImageName(hwnd uintptr) string {
	if hwnd == 0 {
		return Unknown
	}

	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return Unknown
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return Unknown
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return Unknown
	}

	full := windows.UTF16ToString(buf[:size])
	if full == "" {
		return Unknown
	}
	return filepath.Base(full)
}
