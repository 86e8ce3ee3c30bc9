package pattern

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadWatcher watches a pattern source file and swaps freshly
// compiled stores into a Holder. A reload that would yield zero valid
// patterns is rejected and the previous store stays active.
type ReloadWatcher struct {
	path     string
	holder   *Holder
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Store, []InvalidPattern)
	logger   *slog.Logger
	done     chan struct{}
}

// NewReloadWatcher creates a watcher for path feeding holder.
// onReload may be nil; when set it is invoked after each successful
// swap with the new store and any invalid lines.
func NewReloadWatcher(path string, holder *Holder, onReload func(*Store, []InvalidPattern), logger *slog.Logger) (*ReloadWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files by
	// rename, which drops per-file watches.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch pattern directory: %w", err)
	}

	w := &ReloadWatcher{
		path:     path,
		holder:   holder,
		watcher:  fw,
		debounce: 250 * time.Millisecond,
		onReload: onReload,
		logger:   logger.With("component", "pattern_reload"),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *ReloadWatcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts of writes into one reload.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("pattern watcher error", "error", err)
		}
	}
}

func (w *ReloadWatcher) reload() {
	store, invalid, err := LoadAny(w.path)
	if err != nil {
		// Keep the previous store. Running with no rules is never
		// acceptable, even transiently.
		w.logger.Warn("pattern reload rejected, keeping previous rule set",
			"path", w.path,
			"error", err,
		)
		return
	}

	for _, inv := range invalid {
		w.logger.Warn("skipping invalid pattern",
			"line", inv.Line,
			"pattern", inv.Text,
			"error", inv.Err,
		)
	}

	w.holder.Swap(store)
	w.logger.Info("pattern rule set reloaded",
		"path", w.path,
		"patterns", store.Len(),
		"invalid", len(invalid),
	)

	if w.onReload != nil {
		w.onReload(store, invalid)
	}
}

// Close stops watching. Safe to call once.
func (w *ReloadWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
