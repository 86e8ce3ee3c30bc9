// Package clipboard provides text access to the system clipboard and
// a change listener for clipboard-update notifications.
//
// Windows uses the native clipboard API directly: the watcher needs
// the clipboard owner window for source attribution and strict
// acquire-read-release discipline around the prompt. Other platforms
// go through golang.design/x/clipboard and run without attribution.
//
// Only the Unicode text format is inspected. Images, file drops, and
// other binary formats are ignored.
package clipboard

import "errors"

// ErrUnavailable reports that the clipboard could not be opened or
// read. Transient and non-fatal: the change event is dropped.
var ErrUnavailable = errors.New("clipboard: unavailable")

// Accessor reads and writes clipboard text. Access must be
// short-lived: acquire, read, release; never held across a prompt.
type Accessor interface {
	// ReadText returns the clipboard's text content. Empty with a nil
	// error when the clipboard holds no text format.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Clear empties the clipboard.
	Clear() error

	// OwnerWindow returns the window handle of the clipboard owner,
	// or 0 when unknown. Used for source attribution.
	OwnerWindow() uintptr
}

// New returns the platform clipboard accessor.
func New() (Accessor, error) {
	return newPlatformAccessor()
}
