//go:build windows

package clipboard

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard     = user32.NewProc("OpenClipboard")
	procCloseClipboard    = user32.NewProc("CloseClipboard")
	procEmptyClipboard    = user32.NewProc("EmptyClipboard")
	procGetClipboardData  = user32.NewProc("GetClipboardData")
	procSetClipboardData  = user32.NewProc("SetClipboardData")
	procGetClipboardOwner = user32.NewProc("GetClipboardOwner")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

type windowsAccessor struct{}

func newPlatformAccessor() (Accessor, error) {
	return windowsAccessor{}, nil
}

func (windowsAccessor) ReadText() (string, error) {
	if ret, _, _ := procOpenClipboard.Call(0); ret == 0 {
		return "", ErrUnavailable
	}
	defer procCloseClipboard.Call()

	handle, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if handle == 0 {
		// No text on the clipboard; nothing to scan.
		return "", nil
	}

	ptr, _, _ := procGlobalLock.Call(handle)
	if ptr == 0 {
		return "", ErrUnavailable
	}
	defer procGlobalUnlock.Call(handle)

	// Copy out the NUL-terminated UTF-16 payload.
	var chars []uint16
	for i := uintptr(0); ; i++ {
		c := *(*uint16)(unsafe.Pointer(ptr + i*2))
		if c == 0 {
			break
		}
		chars = append(chars, c)
	}
	return windows.UTF16ToString(chars), nil
}

func (windowsAccessor) WriteText(text string) error {
	utf16, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("encode clipboard text: %w", err)
	}

	size := uintptr(len(utf16) * 2)
	mem, _, _ := procGlobalAlloc.Call(gmemMoveable, size)
	if mem == 0 {
		return ErrUnavailable
	}

	ptr, _, _ := procGlobalLock.Call(mem)
	if ptr == 0 {
		procGlobalFree.Call(mem)
		return ErrUnavailable
	}
	dst := unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), len(utf16))
	copy(dst, utf16)
	procGlobalUnlock.Call(mem)

	if ret, _, _ := procOpenClipboard.Call(0); ret == 0 {
		procGlobalFree.Call(mem)
		return ErrUnavailable
	}
	defer procCloseClipboard.Call()

	procEmptyClipboard.Call()
	if ret, _, _ := procSetClipboardData.Call(cfUnicodeText, mem); ret == 0 {
		// Ownership only transfers on success.
		procGlobalFree.Call(mem)
		return ErrUnavailable
	}
	return nil
}

func (windowsAccessor) Clear() error {
	if ret, _, _ := procOpenClipboard.Call(0); ret == 0 {
		return ErrUnavailable
	}
	defer procCloseClipboard.Call()
	procEmptyClipboard.Call()
	return nil
}

func (windowsAccessor) OwnerWindow() uintptr {
	hwnd, _, _ := procGetClipboardOwner.Call()
	return hwnd
}
