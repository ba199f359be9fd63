package site

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultReloadDelay = 500 * time.Millisecond

// Watcher reloads the page cache when definitions change on disk. Bursts
// of events are coalesced into a single reload.
type Watcher struct {
	pages *PageCache
	delay time.Duration
}

func NewWatcher(pages *PageCache, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	return &Watcher{pages: pages, delay: delay}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.pages.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.pages.Dir(), err)
	}

	slog.Info("Watching page definitions", "dir", w.pages.Dir())

	var (
		mu          sync.Mutex
		reloadTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Ext(event.Name) != ".yml" {
				continue
			}

			slog.Debug("Page definition changed", "file", event.Name, "op", event.Op.String())

			mu.Lock()
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.delay, w.reload)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.pages.Run(); err != nil {
		slog.Error("Failed to reload pages, keeping previous definitions", "error", err)
		return
	}
	slog.Info("Pages reloaded", "count", w.pages.GetPageCount())
}
