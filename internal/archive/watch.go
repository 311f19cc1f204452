package archive

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pricelens/internal/logging"
)

// ErrWatchUnsupported is returned by Watch for backends without files.
var ErrWatchUnsupported = errors.New("archive: backend cannot be watched")

// Watch reloads the store whenever another process rewrites the entry.
// It only works on file backends and is non-blocking; Close stops it.
func (s *Store) Watch(ctx context.Context) error {
	pkv, ok := s.kv.(PathKV)
	if !ok {
		return ErrWatchUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := newWatcher(pkv.Path(s.key), func() {
		if err := s.Reload(ctx); err != nil {
			logging.ArchiveWarn("reload after change failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.watcher = w
	go w.run(ctx)
	return nil
}

type watcher struct {
	fs       *fsnotify.Watcher
	path     string
	onChange func()
	debounce time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newWatcher(path string, onChange func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Writes replace the file by rename, so watch the directory.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	logging.Archive("watching %s", path)
	return &watcher{
		fs:       fw,
		path:     path,
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logging.ArchiveDebug("watch: %s %s", event.Op, event.Name)
			pending = time.Now()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.ArchiveWarn("watch error: %v", err)

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= w.debounce {
				pending = time.Time{}
				w.onChange()
			}
		}
	}
}

// Stop ends the event loop and waits for it.
func (w *watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		if err := w.fs.Close(); err != nil {
			logging.ArchiveWarn("closing watcher: %v", err)
		}
	})
}
