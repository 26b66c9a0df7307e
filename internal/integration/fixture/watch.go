package fixture

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay debounces bursts of write events from editors.
const reloadDelay = 100 * time.Millisecond

// watchData re-reads path whenever it is written or replaced. A file that
// fails to parse keeps the previous data in place.
func (s *Server) watchData(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("failed to start data watcher", "error", err)
		return nil
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of
	// writing it in place, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		s.logger.Error("failed to watch data file", "path", path, "error", err)
		return nil
	}
	target := filepath.Clean(path)

	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
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
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDelay, func() { s.reload(path) })
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("data watcher error", "error", err)
		}
	}
}

func (s *Server) reload(path string) {
	d, err := LoadData(path)
	if err != nil {
		s.logger.Warn("keeping previous fixture data", "error", err)
		return
	}
	s.SetData(d)
	s.logger.Info("fixture data reloaded", "path", path, "endpoints", s.Endpoints())
}
