//go:build !windows

package clipboard

import (
	"context"
	"fmt"
	"sync"

	xclip "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func initClipboard() error {
	initOnce.Do(func() {
		initErr = xclip.Init()
	})
	return initErr
}

type xAccessor struct{}

func newPlatformAccessor() (Accessor, error) {
	if err := initClipboard(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return xAccessor{}, nil
}

func (xAccessor) ReadText() (string, error) {
	return string(xclip.Read(xclip.FmtText)), nil
}

func (xAccessor) WriteText(text string) error {
	xclip.Write(xclip.FmtText, []byte(text))
	return nil
}

func (xAccessor) Clear() error {
	xclip.Write(xclip.FmtText, nil)
	return nil
}

// Owner attribution is a Windows concept; other platforms report
// Unknown through the resolver.
func (xAccessor) OwnerWindow() uintptr { return 0 }

// Listener polls for clipboard changes via golang.design/x/clipboard's
// watch channel.
type Listener struct {
	onChange func()
	cancel   context.CancelFunc
	ctx      context.Context
}

// NewListener subscribes to text clipboard changes. onChange runs on
// the listener goroutine.
func NewListener(onChange func()) (*Listener, error) {
	if err := initClipboard(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{onChange: onChange, ctx: ctx, cancel: cancel}, nil
}

// Run blocks, invoking onChange once per observed change, until Stop.
func (l *Listener) Run() {
	ch := xclip.Watch(l.ctx, xclip.FmtText)
	for {
		select {
		case <-l.ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if l.onChange != nil {
				l.onChange()
			}
		}
	}
}

// Stop ends the watch.
func (l *Listener) Stop() {
	l.cancel()
}
