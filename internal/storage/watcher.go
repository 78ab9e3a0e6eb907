// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/lingua-tui/internal/logging"
)

// DefaultDebounce coalesces the burst of events produced by one atomic write.
const DefaultDebounce = 150 * time.Millisecond

// Watch reports changes to the file backing a store. It watches the parent
// directory so that atomic renames and SQLite WAL files are seen, and sends
// one value on the returned channel per debounced burst of changes. The
// channel is closed when ctx is done.
//
// Writes made by this process are reported too; callers simply reload.
func Watch(ctx context.Context, path string, debounce time.Duration) (<-chan struct{}, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	base := filepath.Base(path)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer w.Close()

		// fire is nil until an event arms it.
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Base(ev.Name), base) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				fire = time.After(debounce)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warnf("STORE_WATCH_ERROR | path=%s error=%v", path, err)

			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}

// WatchBackend watches b when it is file based. It returns a nil channel and
// no error for backends without a path, such as MemoryBackend.
func WatchBackend(ctx context.Context, b Backend) (<-chan struct{}, error) {
	p, ok := b.(Pather)
	if !ok {
		return nil, nil
	}
	return Watch(ctx, p.Path(), DefaultDebounce)
}
