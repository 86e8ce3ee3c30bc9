package pattern

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads one pattern per line from path and compiles them.
// Returns ErrSourceUnavailable (wrapped) when the file cannot be read.
func LoadFile(path string) (*Store, []InvalidPattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return Load(lines)
}

// LoadAny loads a pattern source by extension: .json is treated as a
// pattern pack, anything else as a plain line-oriented file.
func LoadAny(path string) (*Store, []InvalidPattern, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadPack(path)
	}
	return LoadFile(path)
}
