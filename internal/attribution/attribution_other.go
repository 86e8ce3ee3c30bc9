//go:build !windows

package attribution

// Window-to-process attribution needs platform window-system APIs that
// only the Windows build carries. Elsewhere everything resolves to
// Unknown, which the record format already accommodates.
type stubResolver struct{}

func newPlatformResolver() Resolver {
	return stubResolver{}
}

func (stubResolver) ProcessImageName(uintptr) string { return Unknown }
func (stubResolver) ForegroundWindow() uintptr       { return 0 }
func (stubResolver) WindowAtCursor() uintptr         { return 0 }
