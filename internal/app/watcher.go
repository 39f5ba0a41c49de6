package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DatasetWatcher reports when the opened dataset or its .meta sidecar is
// rewritten on disk, typically by a processing chain still producing it.
// Bursts of events are coalesced into one callback per quiet period.
type DatasetWatcher struct {
	watcher  *fsnotify.Watcher
	names    map[string]bool
	quiet    time.Duration
	logger   *slog.Logger
	onChange func(path string)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewDatasetWatcher watches the directory holding path. Changes to any of
// the given file names in that directory trigger onChange.
func NewDatasetWatcher(path string, sidecars []string, quiet time.Duration, logger *slog.Logger, onChange func(path string)) (*DatasetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	names := map[string]bool{filepath.Clean(path): true}
	for _, s := range sidecars {
		names[filepath.Clean(s)] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetWatcher{
		watcher:  w,
		names:    names,
		quiet:    quiet,
		logger:   logger,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine. onChange is called from
// that goroutine.
func (d *DatasetWatcher) Start() {
	go d.loop()
}

// Stop ends the watch and releases the underlying handle.
func (d *DatasetWatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.watcher.Close()
	})
}

func (d *DatasetWatcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case <-d.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.names[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(d.quiet)
			} else {
				timer.Reset(d.quiet)
			}
			timerC = timer.C
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("Watcher: error", "error", err)
		case <-timerC:
			timerC = nil
			d.logger.Info("Watcher: dataset changed on disk", "path", pending)
			if d.onChange != nil {
				d.onChange(pending)
			}
		}
	}
}
