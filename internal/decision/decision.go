// Package decision records resolved clipboard decisions. Every
// kept-or-discarded verdict produces one Record, appended synchronously
// at the point of resolution.
//
// Two sinks exist: a hash-chained append-only log (the durable audit
// trail, offline-verifiable with clipwardenverify) and an optional
// SQLite store for querying. Sinks serialize writes internally; the
// session may call Append from hook callbacks, which must not block
// for long.
package decision

import (
	"time"
	"unicode/utf8"
)

// Action is the operator's verdict on flagged clipboard content.
type Action string

const (
	// ActionKeep: the operator approved and the single authorized
	// paste completed.
	ActionKeep Action = "Keep"

	// ActionDiscard: the operator rejected the content (or the gate
	// failed closed) and the clipboard was cleared.
	ActionDiscard Action = "Discard"
)

// Record is one resolved decision. Content is the bounded preview, not
// the full clipboard payload.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Host      string    `json:"host"`
	SourceApp string    `json:"source_app"`
	DestApp   string    `json:"dest_app"`
	Content   string    `json:"content"`
	Action    Action    `json:"action"`
	Length    int       `json:"length"`
}

// NewRecord builds a Record stamped with the current time. Length is
// the character count of the preview content.
func NewRecord(user, host, sourceApp, destApp, content string, action Action) Record {
	return Record{
		Timestamp: time.Now(),
		User:      user,
		Host:      host,
		SourceApp: sourceApp,
		DestApp:   destApp,
		Content:   content,
		Action:    action,
		Length:    utf8.RuneCountInString(content),
	}
}

// Sink receives resolved decisions.
type Sink interface {
	Append(Record) error
}

// Multi fans out to several sinks; the first error wins but all sinks
// still see the record.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Append(r Record) error {
	var firstErr error
	for _, s := range m {
		if err := s.Append(r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Discard is a Sink that drops everything. Useful in tests and
// monitor-only configurations.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Append(Record) error { return nil }
