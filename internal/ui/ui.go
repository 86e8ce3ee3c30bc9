// Package ui provides the operator-facing surfaces the watcher needs:
// a blocking Yes/No confirmation and a transient notification. The
// platform shell layer supplies the real implementations; a console
// fallback keeps headless and non-Windows builds usable.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrTimeout reports that a confirmation prompt expired unanswered.
// Callers treat it as a discard (fail closed).
var ErrTimeout = errors.New("ui: confirmation timed out")

// Prompter asks the operator a blocking Yes/No question. Confirm
// returns true to allow the flagged content, false to discard it.
// timeout of zero waits indefinitely.
type Prompter interface {
	Confirm(title, body, detail string, timeout time.Duration) (bool, error)
}

// Notifier shows a transient, non-blocking status notification.
type Notifier interface {
	Notify(title, body string) error
}

// NopNotifier silently drops notifications.
var NopNotifier Notifier = nopNotifier{}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }

// ConsolePrompter asks on a terminal. The default answer (used on
// timeout and read failure) is always "discard".
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and reads a y/n answer. Only an explicit
// "y" allows; anything else, EOF, or timeout discards.
func (p *ConsolePrompter) Confirm(title, body, detail string, timeout time.Duration) (bool, error) {
	fmt.Fprintf(p.Out, "%s\n%s\n", title, body)
	if detail != "" {
		fmt.Fprintf(p.Out, "  %s\n", detail)
	}
	fmt.Fprintf(p.Out, "Allow paste? [y/N]: ")

	answer := make(chan bool, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil {
			answer <- false
			return
		}
		answer <- strings.EqualFold(strings.TrimSpace(line), "y")
	}()

	if timeout <= 0 {
		return <-answer, nil
	}
	select {
	case allow := <-answer:
		return allow, nil
	case <-time.After(timeout):
		return false, ErrTimeout
	}
}

// ConsoleNotifier writes notifications to a stream.
type ConsoleNotifier struct {
	Out io.Writer
}

func (n *ConsoleNotifier) Notify(title, body string) error {
	_, err := fmt.Fprintf(n.Out, "[%s] %s\n", title, body)
	return err
}
