// Package scan evaluates clipboard text against the loaded pattern set
// and produces a bounded preview for the operator prompt and the
// decision log.
package scan

import (
	"clipwarden/internal/pattern"
)

// PreviewLimit is the maximum number of characters kept in a preview.
const PreviewLimit = 100

// TruncationMarker is appended to previews of over-limit content.
const TruncationMarker = "…"

// Preview is the bounded excerpt of a matched clipboard snapshot.
type Preview struct {
	// Snippet is the first PreviewLimit characters, with
	// TruncationMarker appended when the content was longer.
	Snippet string

	// Truncated reports whether the content exceeded PreviewLimit.
	Truncated bool

	// Pattern is the source text of the matching pattern.
	Pattern string
}

// Scanner matches text against the current pattern store. It is
// side-effect-free and holds no locks, so it is safe to call from the
// clipboard-change handler.
type Scanner struct {
	patterns pattern.Provider
}

// New creates a Scanner over the given pattern provider.
func New(patterns pattern.Provider) *Scanner {
	return &Scanner{patterns: patterns}
}

// Scan reports whether text matches any loaded pattern. First match in
// load order wins; there is no priority system. Empty text never
// matches.
func (s *Scanner) Scan(text string) (Preview, bool) {
	if text == "" {
		return Preview{}, false
	}

	p, ok := s.patterns.Current().FirstMatch(text)
	if !ok {
		return Preview{}, false
	}

	return MakePreview(text, p.Source()), true
}

// MakePreview builds the bounded preview for content that matched
// matchedPattern. Truncation counts characters, not bytes.
func MakePreview(content, matchedPattern string) Preview {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return Preview{Snippet: content, Pattern: matchedPattern}
	}
	return Preview{
		Snippet:   string(runes[:PreviewLimit]) + TruncationMarker,
		Truncated: true,
		Pattern:   matchedPattern,
	}
}
