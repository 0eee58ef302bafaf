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

// Package walker implements the Project File Walker (C5): a cached,
// ignore-aware enumeration of a project's candidate files, with
// optional filesystem-change notification.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/typemill-go/refactorctl/internal/core"
)

// walkConcurrency bounds the number of directories read in parallel
// during a work-stealing traversal (spec §4.5: "the walker is parallel
// (work-stealing directory traversal)").
const walkConcurrency = 32

// universalExclusions are directory element names skipped regardless
// of ignore-file configuration (spec §4.5: "a fixed set of directories
// is always excluded"). Mirrors the "dotfile, underscore-prefixed,
// testdata" convention the teacher's own package loader applies when
// walking a module tree.
var universalExclusions = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"testdata":     true,
	".refactorctl-cache": true,
}

func skipElement(name string) bool {
	if universalExclusions[name] {
		return true
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	return false
}

// Walker enumerates and caches a project's file list, honoring
// .gitignore-style ignore files and a caller-supplied [core.RenameScope]
// exclude list (spec §4.5).
type Walker struct {
	root string

	mu        sync.Mutex
	cached    []string
	cachedAt  time.Time
	cacheTTL  time.Duration

	watchMu  sync.Mutex
	watching bool
	stopWatch chan struct{}
}

// New returns a Walker rooted at root. A zero cacheTTL disables
// caching (every call re-walks the tree).
func New(root string, cacheTTL time.Duration) *Walker {
	return &Walker{root: root, cacheTTL: cacheTTL}
}

// List returns every candidate file under the project root, applying
// universal exclusions, the project root's .gitignore, and scope's
// exclude patterns; nested .gitignore files and global ignore files
// are not read. Results are relative-to-root, forward-slash paths.
// A cached result younger than the walker's TTL is returned without
// touching the filesystem (spec §4.5: "filelist caching with a
// configurable TTL").
func (w *Walker) List(ctx context.Context, scope core.RenameScope) ([]string, error) {
	w.mu.Lock()
	if w.cacheTTL > 0 && w.cached != nil && time.Since(w.cachedAt) < w.cacheTTL {
		cached := append([]string(nil), w.cached...)
		w.mu.Unlock()
		return filterScope(cached, scope), nil
	}
	w.mu.Unlock()

	matcher, err := loadIgnore(w.root)
	if err != nil {
		return nil, err
	}

	out, err := w.walkParallel(ctx, matcher)
	if err != nil {
		return nil, err
	}
	sort.Strings(out)

	w.mu.Lock()
	w.cached = out
	w.cachedAt = time.Now()
	w.mu.Unlock()

	return filterScope(append([]string(nil), out...), scope), nil
}

// walkParallel traverses the project tree work-stealing style: each
// directory read spawns one goroutine per non-excluded subdirectory,
// bounded by walkConcurrency, rather than descending depth-first on a
// single goroutine. A directory with many children fans out across the
// pool the same way a directory with few children does, so the walk's
// wall-clock cost tracks the tree's widest level instead of its total
// file count.
func (w *Walker) walkParallel(ctx context.Context, matcher *ignore.GitIgnore) ([]string, error) {
	var (
		mu  sync.Mutex
		out []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(walkConcurrency)

	var walkDir func(dir string) error
	walkDir = func(dir string) error {
		if gctx.Err() != nil {
			return gctx.Err()
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		var files, subdirs []string
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			rel, relErr := filepath.Rel(w.root, full)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			name := entry.Name()

			if entry.IsDir() {
				if skipElement(name) || (matcher != nil && matcher.MatchesPath(rel)) {
					continue
				}
				subdirs = append(subdirs, full)
				continue
			}
			if skipElement(name) || (matcher != nil && matcher.MatchesPath(rel)) {
				continue
			}
			files = append(files, rel)
		}

		if len(files) > 0 {
			mu.Lock()
			out = append(out, files...)
			mu.Unlock()
		}
		for _, sub := range subdirs {
			sub := sub
			g.Go(func() error { return walkDir(sub) })
		}
		return nil
	}

	g.Go(func() error { return walkDir(w.root) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func filterScope(files []string, scope core.RenameScope) []string {
	if len(scope.ExcludePatterns) == 0 {
		return files
	}
	out := files[:0]
	for _, f := range files {
		if !scope.Excluded(f) {
			out = append(out, f)
		}
	}
	return out
}

// Invalidate drops the cached file list, forcing the next [Walker.List]
// call to re-walk the filesystem.
func (w *Walker) Invalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cached = nil
}

func loadIgnore(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return ignore.CompileIgnoreFile(path)
}
