package pantone

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "chromastudio/internal/log"
)

// ReloadDebounce is how long Watch waits for file activity to settle.
const ReloadDebounce = 200 * time.Millisecond

// Watch reloads the catalog whenever its file changes until ctx is done. The
// parent directory is watched so editors that replace the file by rename are
// picked up.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return errors.New("pantone catalog is embedded; nothing to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(c.path)

	go func() {
		defer watcher.Close()

		var (
			mu     sync.Mutex
			timer  *time.Timer
			closed bool
		)
		defer func() {
			mu.Lock()
			closed = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(ReloadDebounce, func() {
					mu.Lock()
					defer mu.Unlock()
					if closed {
						return
					}
					if err := c.Reload(ctx); err != nil {
						applog.Warn(ctx, "pantone catalog reload failed", "path", c.path, "error", err)
						return
					}
					applog.Info(ctx, "pantone catalog reloaded", "path", c.path, "entries", c.Len())
				})
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				applog.Error(ctx, "pantone catalog watcher error", "error", err)
			}
		}
	}()

	applog.Debug(ctx, "watching pantone catalog", "path", c.path)
	return nil
}
