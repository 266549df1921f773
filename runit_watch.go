//go:build unix

package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// superviseRecheck is how often the control path is re-checked when the
// filesystem does not deliver events (network mounts, overlayfs)
const superviseRecheck = 500 * time.Millisecond

// awaitSupervise blocks until runsv has created supervise/control under
// dir, the SuperviseTimeout elapses, or ctx is done.
func (b *RunitBackend) awaitSupervise(ctx context.Context, dir string) error {
	supervise := filepath.Join(dir, superviseDir)
	control := filepath.Join(supervise, controlFile)
	if exists(control) {
		return nil
	}

	timeout := b.SuperviseTimeout
	if timeout <= 0 {
		timeout = DefaultSuperviseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	// supervise may already exist while control is still missing
	_ = watcher.Add(supervise)

	ready := make(chan struct{})
	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	sctx.Go(func(sctx *stopper.Context) error {
		ticker := time.NewTicker(superviseRecheck)
		defer ticker.Stop()

		for {
			select {
			case <-sctx.Stopping():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Name == supervise && event.Has(fsnotify.Create) {
					_ = watcher.Add(supervise)
				}
			case _, ok := <-watcher.Errors:
				// watcher errors are not fatal, the ticker re-checks anyway
				if !ok {
					return nil
				}
			case <-ticker.C:
			}

			if exists(control) {
				close(ready)
				return nil
			}
		}
	})

	var result error
	select {
	case <-ready:
	case <-ctx.Done():
		if exists(control) {
			break
		}
		result = ctx.Err()
		if errors.Is(result, context.DeadlineExceeded) {
			result = fmt.Errorf("%w: %s did not appear within %s", ErrTimeout, control, timeout)
		}
	}

	sctx.Stop(100 * time.Millisecond)
	_ = sctx.Wait()
	return result
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
