package decision

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(action Action) Record {
	return NewRecord("alice", "workstation-7", "notepad.exe", "chrome.exe",
		"api_key=redacted-preview", action)
}

func TestNewRecordLength(t *testing.T) {
	r := NewRecord("u", "h", "s", "d", "héllo", ActionKeep)
	assert.Equal(t, 5, r.Length, "length counts characters, not bytes")
	assert.False(t, r.Timestamp.IsZero())
}

func TestChainLogAppendAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")

	log, err := OpenChainLog(path)
	require.NoError(t, err)

	require.NoError(t, log.Append(sampleRecord(ActionDiscard)))
	require.NoError(t, log.Append(sampleRecord(ActionKeep)))
	require.NoError(t, log.Append(sampleRecord(ActionDiscard)))
	require.NoError(t, log.Close())

	n, err := VerifyChainFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestChainLogReopenExtendsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")

	log, err := OpenChainLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(sampleRecord(ActionKeep)))
	require.NoError(t, log.Close())

	// Reopen and extend; the chain must stay intact across opens.
	log, err = OpenChainLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(sampleRecord(ActionDiscard)))
	require.NoError(t, log.Close())

	n, err := VerifyChainFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChainLogTamperDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")

	log, err := OpenChainLog(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(sampleRecord(ActionKeep)))
	}
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip one content byte in the third entry.
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 5)
	tampered := strings.Replace(lines[2], "redacted", "red4cted", 1)
	require.NotEqual(t, lines[2], tampered, "tamper target not found")
	lines[2] = tampered
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0640))

	n, err := VerifyChainFile(path)
	require.Error(t, err)

	var breakErr *ChainBreakError
	require.True(t, errors.As(err, &breakErr))
	assert.Equal(t, 3, breakErr.Entry)
	assert.Equal(t, 2, n, "entries before the break still verify")
}

func TestChainLogTruncationDetectedOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")

	log, err := OpenChainLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(sampleRecord(ActionKeep)))
	require.NoError(t, log.Append(sampleRecord(ActionDiscard)))
	require.NoError(t, log.Close())

	// Drop the first entry: every remaining prev_hash link breaks.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitN(string(data), "\n", 2)
	require.NoError(t, os.WriteFile(path, []byte(lines[1]), 0640))

	_, err = OpenChainLog(path)
	assert.Error(t, err, "a log that does not verify must refuse to open")
}

func TestMultiSinkFansOut(t *testing.T) {
	var a, b collectSink
	sink := Multi(&a, &b)

	require.NoError(t, sink.Append(sampleRecord(ActionKeep)))
	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
}

func TestMultiSinkFirstErrorWins(t *testing.T) {
	failing := errSink{err: errors.New("disk full")}
	var ok collectSink

	err := Multi(failing, &ok).Append(sampleRecord(ActionDiscard))
	assert.EqualError(t, err, "disk full")
	assert.Len(t, ok.records, 1, "later sinks still receive the record")
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")

	sink, err := OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()

	older := sampleRecord(ActionDiscard)
	newer := sampleRecord(ActionKeep)
	newer.Timestamp = older.Timestamp.Add(time.Second)
	require.NoError(t, sink.Append(older))
	require.NoError(t, sink.Append(newer))

	recent, err := sink.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ActionKeep, recent[0].Action, "newest first")
	assert.Equal(t, "alice", recent[0].User)
	assert.Equal(t, "notepad.exe", recent[0].SourceApp)
}

type collectSink struct {
	records []Record
}

func (c *collectSink) Append(r Record) error {
	c.records = append(c.records, r)
	return nil
}

type errSink struct{ err error }

func (e errSink) Append(Record) error { return e.err }
