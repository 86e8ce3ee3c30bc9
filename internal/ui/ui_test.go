package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestConsolePrompterAllow(t *testing.T) {
	var out bytes.Buffer
	p := &ConsolePrompter{In: strings.NewReader("y\n"), Out: &out}

	allow, err := p.Confirm("Security Alert", "Suspicious clipboard content detected.", "api_key=…", 0)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if !allow {
		t.Error("explicit y must allow")
	}
	if !strings.Contains(out.String(), "Suspicious clipboard content detected.") {
		t.Error("prompt body missing from output")
	}
	if !strings.Contains(out.String(), "api_key=…") {
		t.Error("prompt detail missing from output")
	}
}

func TestConsolePrompterDefaultsToDiscard(t *testing.T) {
	cases := []string{"n\n", "\n", "yes but no\n", "Y es\n"}
	for _, input := range cases {
		p := &ConsolePrompter{In: strings.NewReader(input), Out: io.Discard}
		allow, err := p.Confirm("t", "b", "", 0)
		if err != nil {
			t.Fatalf("Confirm(%q) failed: %v", input, err)
		}
		if allow {
			t.Errorf("input %q must not allow", input)
		}
	}
}

func TestConsolePrompterEOFDiscards(t *testing.T) {
	p := &ConsolePrompter{In: strings.NewReader(""), Out: io.Discard}
	allow, err := p.Confirm("t", "b", "", 0)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if allow {
		t.Error("EOF must discard")
	}
}

func TestConsolePrompterTimeout(t *testing.T) {
	// A reader that never delivers: the prompt must expire.
	pr, _ := io.Pipe()
	p := &ConsolePrompter{In: pr, Out: io.Discard}

	allow, err := p.Confirm("t", "b", "", 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if allow {
		t.Error("timeout must not allow")
	}
}

func TestConsoleNotifier(t *testing.T) {
	var out bytes.Buffer
	n := &ConsoleNotifier{Out: &out}
	if err := n.Notify("Clipboard verdict", "Content discarded."); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if got := out.String(); got != "[Clipboard verdict] Content discarded.\n" {
		t.Errorf("unexpected notification output: %q", got)
	}
}
