package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer over a log file that rotates on size and
// at day boundaries, gzips rotated files, and prunes old ones.
type FileRotator struct {
	cfg *Config

	mu     sync.Mutex
	file   *os.File
	size   int64
	opened time.Time
}

// NewFileRotator opens (creating directories as needed) the log file
// named in cfg.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{cfg: cfg}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, err
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	f, err := os.OpenFile(r.cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = f
	r.size = info.Size()
	r.opened = time.Now()
	return nil
}

func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.needsRotation(int64(len(p))) {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *FileRotator) needsRotation(pending int64) bool {
	if r.cfg.MaxSizeMB > 0 && r.size+pending > r.cfg.MaxSizeMB*1024*1024 {
		return true
	}
	return r.opened.Day() != time.Now().Day()
}

func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
	}

	dir := filepath.Dir(r.cfg.FilePath)
	base := filepath.Base(r.cfg.FilePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	rotated := filepath.Join(dir,
		fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405"), ext))

	if err := os.Rename(r.cfg.FilePath, rotated); err != nil && !os.IsNotExist(err) {
		return err
	}
	if r.cfg.Compress {
		go compress(rotated)
	}
	if err := r.open(); err != nil {
		return err
	}
	go r.prune()
	return nil
}

// compress gzips path and removes the original. Failures leave the
// uncompressed file in place.
func compress(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		os.Remove(path + ".gz")
		return
	}
	if err := gz.Close(); err != nil {
		os.Remove(path + ".gz")
		return
	}
	os.Remove(path)
}

// prune applies MaxBackups and MaxAgeDays to rotated files.
func (r *FileRotator) prune() {
	dir := filepath.Dir(r.cfg.FilePath)
	base := filepath.Base(r.cfg.FilePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	matches, err := filepath.Glob(filepath.Join(dir, stem+"-*"+ext+"*"))
	if err != nil {
		return
	}

	type rotatedFile struct {
		path string
		mod  time.Time
	}
	var files []rotatedFile
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, rotatedFile{m, info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	if r.cfg.MaxBackups > 0 && len(files) > r.cfg.MaxBackups {
		for _, f := range files[:len(files)-r.cfg.MaxBackups] {
			os.Remove(f.path)
		}
	}
	if r.cfg.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -r.cfg.MaxAgeDays)
		for _, f := range files {
			if f.mod.Before(cutoff) {
				os.Remove(f.path)
			}
		}
	}
}

// Close closes the underlying file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Sync flushes the underlying file.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}
