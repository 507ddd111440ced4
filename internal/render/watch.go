package render

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ogctz/internal/infrastructure"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a Renderer when template files under dir change
type Watcher struct {
	dir      string
	renderer *Renderer
	logger   *slog.Logger
	debounce time.Duration
	onReload func()
}

// NewWatcher creates a watcher for an on-disk template directory. onReload,
// if set, runs after every successful reload.
func NewWatcher(dir string, renderer *Renderer, logger *slog.Logger, onReload func()) *Watcher {
	return &Watcher{
		dir:      dir,
		renderer: renderer,
		logger:   infrastructure.WithComponent(logger, "template_watcher"),
		debounce: defaultDebounce,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled. Bursts of events within the debounce
// window cause a single reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "watching templates", slog.String("dir", w.dir))

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.logger.WarnContext(ctx, "watch new directory failed", slog.String("error", err.Error()))
					}
				}
			}
			if !relevant(ev) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "template watcher error", slog.String("error", err.Error()))

		case <-reload:
			reload = nil
			if err := w.renderer.Load(); err != nil {
				w.logger.ErrorContext(ctx, "template reload failed, keeping previous set",
					slog.String("error", err.Error()))
				continue
			}
			w.logger.InfoContext(ctx, "templates reloaded", slog.Int("pages", len(w.renderer.Pages())))
			if w.onReload != nil {
				w.onReload()
			}
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func relevant(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".html" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
