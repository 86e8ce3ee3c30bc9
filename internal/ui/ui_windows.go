//go:build windows

package ui

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32  = windows.NewLazySystemDLL("user32.dll")
	shell32 = windows.NewLazySystemDLL("shell32.dll")

	procMessageBoxW        = user32.NewProc("MessageBoxW")
	procMessageBoxTimeoutW = user32.NewProc("MessageBoxTimeoutW")
	procLoadIconW          = user32.NewProc("LoadIconW")
	procShellNotifyIconW   = shell32.NewProc("Shell_NotifyIconW")
)

const (
	mbYesNo         = 0x00000004
	mbIconWarning   = 0x00000030
	mbSetForeground = 0x00010000
	mbTopMost       = 0x00040000

	idYes     = 6
	idTimeout = 32000

	nimAdd    = 0x00000000
	nimModify = 0x00000001
	nimDelete = 0x00000002

	nifIcon = 0x00000002
	nifTip  = 0x00000004
	nifInfo = 0x00000010

	niifWarning = 0x00000002

	idiApplication = 32512
)

// MessageBoxPrompter shows a native modal Yes/No dialog. The call
// blocks the pump thread in the dialog's own message loop, which is
// the intended suspension point: no clipboard-change handling runs
// until the operator answers.
type MessageBoxPrompter struct{}

// Confirm shows the dialog. An expired timeout counts as "discard" and
// returns ErrTimeout.
//
// A configured timeout rides on MessageBoxTimeoutW, a user32 export
// that is undocumented but has been stable since XP. Without a
// timeout, and whenever that export is missing, the documented
// MessageBoxW is used instead and the prompt waits for an answer.
func (MessageBoxPrompter) Confirm(title, body, detail string, timeout time.Duration) (bool, error) {
	text := body
	if detail != "" {
		text = body + "\n\n" + detail
	}

	textPtr, err := windows.UTF16PtrFromString(text)
	if err != nil {
		return false, fmt.Errorf("encode prompt text: %w", err)
	}
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return false, fmt.Errorf("encode prompt title: %w", err)
	}

	const flags = mbYesNo | mbIconWarning | mbSetForeground | mbTopMost

	if timeout > 0 && procMessageBoxTimeoutW.Find() == nil {
		ret, _, _ := procMessageBoxTimeoutW.Call(
			0,
			uintptr(unsafe.Pointer(textPtr)),
			uintptr(unsafe.Pointer(titlePtr)),
			flags,
			0,
			uintptr(timeout.Milliseconds()),
		)
		switch ret {
		case idYes:
			return true, nil
		case idTimeout:
			return false, ErrTimeout
		default:
			return false, nil
		}
	}

	ret, _, _ := procMessageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(textPtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		flags,
	)
	return ret == idYes, nil
}

type notifyIconData struct {
	Size            uint32
	Wnd             windows.Handle
	ID              uint32
	Flags           uint32
	CallbackMessage uint32
	Icon            windows.Handle
	Tip             [128]uint16
	State           uint32
	StateMask       uint32
	Info            [256]uint16
	TimeoutVersion  uint32
	InfoTitle       [64]uint16
	InfoFlags       uint32
	GuidItem        [16]byte
	BalloonIcon     windows.Handle
}

// TrayNotifier shows transient balloon notifications from a minimal
// tray icon attached to an existing window (the clipboard listener's
// message window). The icon carries no menu; the tray shell proper is
// out of scope here.
type TrayNotifier struct {
	hwnd windows.Handle
	id   uint32
}

// NewTrayNotifier adds the tray icon. Call Close to remove it.
func NewTrayNotifier(hwnd uintptr, tip string) (*TrayNotifier, error) {
	n := &TrayNotifier{hwnd: windows.Handle(hwnd), id: 1}

	icon, _, _ := procLoadIconW.Call(0, idiApplication)

	nid := notifyIconData{
		Wnd:   n.hwnd,
		ID:    n.id,
		Flags: nifIcon | nifTip,
		Icon:  windows.Handle(icon),
	}
	nid.Size = uint32(unsafe.Sizeof(nid))
	copyToUTF16(nid.Tip[:], tip)

	if ret, _, callErr := procShellNotifyIconW.Call(nimAdd, uintptr(unsafe.Pointer(&nid))); ret == 0 {
		return nil, fmt.Errorf("Shell_NotifyIcon(NIM_ADD): %w", callErr)
	}
	return n, nil
}

// Notify shows a balloon with the given title and body.
func (n *TrayNotifier) Notify(title, body string) error {
	nid := notifyIconData{
		Wnd:       n.hwnd,
		ID:        n.id,
		Flags:     nifInfo,
		InfoFlags: niifWarning,
	}
	nid.Size = uint32(unsafe.Sizeof(nid))
	copyToUTF16(nid.InfoTitle[:], title)
	copyToUTF16(nid.Info[:], body)

	if ret, _, callErr := procShellNotifyIconW.Call(nimModify, uintptr(unsafe.Pointer(&nid))); ret == 0 {
		return fmt.Errorf("Shell_NotifyIcon(NIM_MODIFY): %w", callErr)
	}
	return nil
}

// Close removes the tray icon.
func (n *TrayNotifier) Close() {
	nid := notifyIconData{Wnd: n.hwnd, ID: n.id}
	nid.Size = uint32(unsafe.Sizeof(nid))
	procShellNotifyIconW.Call(nimDelete, uintptr(unsafe.Pointer(&nid)))
}

// ShowFatalError surfaces a startup-fatal error in a blocking dialog
// before the process exits.
func ShowFatalError(title, body string) {
	textPtr, err := windows.UTF16PtrFromString(body)
	if err != nil {
		return
	}
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	const mbOK, mbIconError = 0x0, 0x10
	procMessageBoxW.Call(0,
		uintptr(unsafe.Pointer(textPtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		mbOK|mbIconError|mbSetForeground)
}

func copyToUTF16(dst []uint16, s string) {
	src, err := windows.UTF16FromString(s)
	if err != nil {
		return
	}
	n := copy(dst, src)
	if n == len(dst) {
		dst[len(dst)-1] = 0
	}
}
