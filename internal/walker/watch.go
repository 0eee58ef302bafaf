// Copyright 2024 The refactorctl Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package walker

import (
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an optional background filesystem watcher that calls
// [Walker.Invalidate] whenever a file under the root is created,
// removed, or renamed (spec §4.5: "filelist caching may be kept fresh
// by an optional filesystem watch rather than TTL expiry alone"). The
// returned stop function terminates the watcher; calling Watch again
// after stopping starts a fresh one. A failure to start the watcher
// (e.g. too many open files) is logged and treated as a no-op: the
// TTL-based cache remains the source of truth either way.
func (w *Walker) Watch(logger *slog.Logger) (stop func()) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	if w.watching {
		return func() {}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		if logger != nil {
			logger.Warn("filelist watch disabled: could not start watcher", "error", err)
		}
		return func() {}
	}
	if err := addRecursive(fw, w.root); err != nil {
		if logger != nil {
			logger.Warn("filelist watch disabled: could not register root", "error", err)
		}
		fw.Close()
		return func() {}
	}

	done := make(chan struct{})
	w.watching = true
	w.stopWatch = done

	go func() {
		defer fw.Close()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) && isDirEvent(ev.Name) {
					_ = fw.Add(ev.Name)
				}
				w.Invalidate()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if logger != nil {
					logger.Warn("filelist watch error", "error", err)
				}
			}
		}
	}()

	return func() {
		w.watchMu.Lock()
		defer w.watchMu.Unlock()
		if !w.watching {
			return
		}
		close(done)
		w.watching = false
	}
}

func isDirEvent(path string) bool {
	base := filepath.Base(path)
	return !skipElement(base)
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != filepath.Base(root) && skipElement(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
