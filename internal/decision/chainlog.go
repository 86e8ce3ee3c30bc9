package decision

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// chainHashSize is the digest size of the record chain (BLAKE2b-256).
const chainHashSize = 32

// genesisHash seeds the chain for the first record of a log file.
var genesisHash = make([]byte, chainHashSize)

// entry is one line of the chain log: the record plus its links.
type entry struct {
	Record   Record `json:"record"`
	PrevHash string `json:"prev_hash"`
	Hash     string `json:"hash"`
}

// ChainLog is an append-only, tamper-evident decision log. Each entry
// carries hash = BLAKE2b-256(prev_hash || canonical record JSON), so
// any modification, insertion, or deletion breaks the chain at the
// altered entry. Writes are mutex-serialized.
type ChainLog struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
	last []byte
}

// OpenChainLog opens or creates the chain log at path, walking any
// existing entries to recover the chain tip. An existing log that does
// not verify refuses to open.
func OpenChainLog(path string) (*ChainLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	last := append([]byte(nil), genesisHash...)
	if existing, err := os.Open(path); err == nil {
		tip, _, verr := walkChain(existing)
		existing.Close()
		if verr != nil {
			return nil, fmt.Errorf("existing log does not verify: %w", verr)
		}
		last = tip
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log for append: %w", err)
	}

	return &ChainLog{file: f, w: bufio.NewWriter(f), last: last}, nil
}

// Append writes one record, extending the chain.
func (c *ChainLog) Append(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	recordJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	h := chainHash(c.last, recordJSON)
	e := entry{
		Record:   r,
		PrevHash: hex.EncodeToString(c.last),
		Hash:     hex.EncodeToString(h),
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if _, err := c.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("flush entry: %w", err)
	}

	c.last = h
	return nil
}

// Close flushes and closes the underlying file.
func (c *ChainLog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.Flush(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}

func chainHash(prev, recordJSON []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(prev)
	h.Write(recordJSON)
	return h.Sum(nil)
}

// ChainBreakError reports the first entry at which verification
// failed. Entries index from 1 to match log line numbers.
type ChainBreakError struct {
	Entry  int
	Reason string
}

func (e *ChainBreakError) Error() string {
	return fmt.Sprintf("decision: chain broken at entry %d: %s", e.Entry, e.Reason)
}

// VerifyChainFile re-walks the chain log at path and returns the
// number of valid entries. A *ChainBreakError identifies the first
// break.
func VerifyChainFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	_, n, err := walkChain(f)
	return n, err
}

// walkChain validates every entry in order and returns the chain tip
// and entry count.
func walkChain(f *os.File) ([]byte, int, error) {
	prev := append([]byte(nil), genesisHash...)
	count := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		idx := count + 1

		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, count, &ChainBreakError{Entry: idx, Reason: fmt.Sprintf("malformed entry: %v", err)}
		}

		prevHash, err := hex.DecodeString(e.PrevHash)
		if err != nil || len(prevHash) != chainHashSize {
			return nil, count, &ChainBreakError{Entry: idx, Reason: "malformed prev_hash"}
		}
		claimed, err := hex.DecodeString(e.Hash)
		if err != nil || len(claimed) != chainHashSize {
			return nil, count, &ChainBreakError{Entry: idx, Reason: "malformed hash"}
		}

		if !bytes.Equal(prevHash, prev) {
			return nil, count, &ChainBreakError{Entry: idx, Reason: "prev_hash does not match chain tip"}
		}

		recordJSON, err := json.Marshal(e.Record)
		if err != nil {
			return nil, count, &ChainBreakError{Entry: idx, Reason: fmt.Sprintf("re-marshal record: %v", err)}
		}
		if !bytes.Equal(chainHash(prev, recordJSON), claimed) {
			return nil, count, &ChainBreakError{Entry: idx, Reason: "hash mismatch"}
		}

		prev = claimed
		count++
	}
	if err := sc.Err(); err != nil {
		return nil, count, fmt.Errorf("read log: %w", err)
	}
	return prev, count, nil
}
