// Package attribution resolves windows to the display name of the
// owning process, for the source- and destination-application fields
// of decision records. Resolution is best-effort: every failure
// degrades to "Unknown" and is never fatal.
package attribution

// Unknown is the name reported when resolution fails at any step.
const Unknown = "Unknown"

// Resolver maps window handles to process image names and locates the
// windows relevant to paste attribution.
type Resolver interface {
	// ProcessImageName resolves the window's owning process to its
	// executable base name, or Unknown.
	ProcessImageName(hwnd uintptr) string

	// ForegroundWindow returns the focused window handle, or 0. Used
	// for keyboard-driven paste attribution.
	ForegroundWindow() uintptr

	// WindowAtCursor returns the window under the mouse cursor, or 0.
	// Used for context-menu paste attribution.
	WindowAtCursor() uintptr
}

// New returns the platform resolver.
func New() Resolver {
	return newPlatformResolver()
}
