// Package pattern compiles and holds the set of suspicious-content
// matchers the clipboard watcher runs against clipboard text.
//
// Patterns are regular expressions, always compiled case-insensitive.
// The watcher must never run with an empty rule set, so loading zero
// valid patterns is a fatal error.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// Loading errors. Both are fatal at startup.
var (
	// ErrNoPatterns is returned when no line compiled successfully.
	ErrNoPatterns = errors.New("pattern: no valid patterns loaded")

	// ErrSourceUnavailable is returned when the pattern source cannot
	// be opened or read.
	ErrSourceUnavailable = errors.New("pattern: source unavailable")
)

// Pattern is one compiled case-insensitive matcher plus the raw text
// it was compiled from. Immutable after construction.
type Pattern struct {
	re     *regexp.Regexp
	source string
}

// Match reports whether the pattern occurs anywhere in text.
func (p Pattern) Match(text string) bool {
	return p.re.MatchString(text)
}

// Source returns the raw pattern text, for diagnostics.
func (p Pattern) Source() string {
	return p.source
}

// InvalidPattern describes a line that failed to compile even after
// the brace-escaping retry. Reported, never silently dropped.
type InvalidPattern struct {
	Line int
	Text string
	Err  error
}

func (ip InvalidPattern) Error() string {
	return fmt.Sprintf("pattern: invalid regex at line %d: %q: %v", ip.Line, ip.Text, ip.Err)
}

// Store is an ordered, immutable collection of compiled patterns.
// Once loaded it is never mutated; hot reload swaps in a new Store
// through a Holder.
type Store struct {
	patterns []Pattern
}

// Load compiles the given raw lines into a Store.
//
// Per line: surrounding whitespace is trimmed, a trailing comment
// starting at an unescaped '#' is stripped, and a leading "(?i)"
// marker is removed (matching is case-insensitive regardless). Blank
// results are skipped. A line that fails to compile is retried with
// literal '{' and '}' escaped; if that also fails the line is returned
// in invalid and skipped.
//
// Load fails with ErrNoPatterns when nothing compiled.
func Load(lines []string) (*Store, []InvalidPattern, error) {
	var (
		patterns []Pattern
		invalid  []InvalidPattern
	)

	for i, line := range lines {
		raw := normalize(line)
		if raw == "" {
			continue
		}

		p, err := compile(raw)
		if err != nil {
			retry, retryErr := compile(escapeBraces(raw))
			if retryErr != nil {
				invalid = append(invalid, InvalidPattern{Line: i + 1, Text: raw, Err: err})
				continue
			}
			p = retry
			p.source = raw
		}
		patterns = append(patterns, p)
	}

	if len(patterns) == 0 {
		return nil, invalid, ErrNoPatterns
	}
	return &Store{patterns: patterns}, invalid, nil
}

// Len returns the number of compiled patterns.
func (s *Store) Len() int {
	return len(s.patterns)
}

// Patterns returns the compiled patterns in load order.
func (s *Store) Patterns() []Pattern {
	return s.patterns
}

// FirstMatch returns the first pattern, in load order, that occurs in
// text. Order is the only tie-break.
func (s *Store) FirstMatch(text string) (Pattern, bool) {
	if text == "" {
		return Pattern{}, false
	}
	for _, p := range s.patterns {
		if p.Match(text) {
			return p, true
		}
	}
	return Pattern{}, false
}

// normalize trims a raw line, strips a trailing unescaped-# comment,
// and drops the optional leading case-insensitive marker.
func normalize(line string) string {
	raw := strings.TrimSpace(line)

	if i := commentIndex(raw); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	raw = strings.TrimPrefix(raw, "(?i)")
	return strings.TrimSpace(raw)
}

// commentIndex returns the index of the first '#' not preceded by a
// backslash, or -1. An escaped \# stays in the pattern text; the regex
// engine treats it as a literal '#' anyway.
func commentIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

func compile(raw string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + raw)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{re: re, source: raw}, nil
}

// escapeBraces escapes literal '{' and '}' so patterns written with
// repetition-like braces that were never meant as quantifiers still
// compile.
func escapeBraces(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) * 2)
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' || raw[i] == '}' {
			b.WriteByte('\\')
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

// Provider yields the store the scanner should match against. It lets
// the hot-reload watcher swap rule sets without the scanner knowing.
type Provider interface {
	Current() *Store
}

// Static wraps a fixed store as a Provider.
func Static(s *Store) Provider {
	return staticProvider{s}
}

type staticProvider struct{ s *Store }

func (p staticProvider) Current() *Store { return p.s }

// Holder is an atomically swappable store reference. The zero value is
// not usable; create with NewHolder.
type Holder struct {
	v atomic.Pointer[Store]
}

// NewHolder creates a Holder seeded with the given store.
func NewHolder(s *Store) *Holder {
	h := &Holder{}
	h.v.Store(s)
	return h
}

// Current returns the active store.
func (h *Holder) Current() *Store {
	return h.v.Load()
}

// Swap replaces the active store. The new store must be non-empty;
// callers enforce that before swapping.
func (h *Holder) Swap(s *Store) {
	h.v.Store(s)
}
