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

// Package importcache implements the process-wide Import Cache (C3):
// a reverse index from a path to the files that import it, plus a
// short-lived memoization of LSP importer queries. A single instance
// is constructed at server start and shared by reference across every
// Reference Updater transaction (spec §4.3, §9).
package importcache

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const defaultLSPTTL = 30 * time.Second

// shardCount controls how many internal maps back the reverse index,
// trading memory for reduced lock contention under concurrent reads
// (spec §4.3: "internal sharded maps are recommended").
const shardCount = 16

type shard struct {
	mu    sync.RWMutex
	byKey map[string]map[string]struct{}
}

// Cache is the Import Cache described in spec §4.3. The zero value is
// not usable; construct with [New].
type Cache struct {
	fileShards [shardCount]*shard
	dirShards  [shardCount]*shard

	lspMu    sync.Mutex
	lspTTL   time.Duration
	lspCache map[lspKey]lspEntry

	populated atomic.Bool
}

type lspKey struct {
	path  string
	isDir bool
}

type lspEntry struct {
	files    []string
	expireAt time.Time
}

// New returns an empty, ready-to-use Cache. lspTTL of zero uses the
// spec's default of 30 seconds.
func New(lspTTL time.Duration) *Cache {
	if lspTTL <= 0 {
		lspTTL = defaultLSPTTL
	}
	c := &Cache{
		lspTTL:   lspTTL,
		lspCache: make(map[lspKey]lspEntry),
	}
	for i := range c.fileShards {
		c.fileShards[i] = &shard{byKey: make(map[string]map[string]struct{})}
	}
	for i := range c.dirShards {
		c.dirShards[i] = &shard{byKey: make(map[string]map[string]struct{})}
	}
	return c
}

func shardFor(shards [shardCount]*shard, key string) *shard {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return shards[h%shardCount]
}

func clean(p string) string { return filepath.Clean(p) }

// GetImporters returns the set of files known to import path.
func (c *Cache) GetImporters(path string) []string {
	return readSet(shardFor(c.fileShards, clean(path)), clean(path))
}

// GetImportersForDirectory returns the set of files known to import
// anything under dir.
func (c *Cache) GetImportersForDirectory(dir string) []string {
	return readSet(shardFor(c.dirShards, clean(dir)), clean(dir))
}

func readSet(s *shard, key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byKey[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return out
}

// Insert records that importer imports every path in importedPaths,
// and (for each imported directory ancestor) that importer imports
// something under that directory.
func (c *Cache) Insert(importer string, importedPaths []string) {
	importer = clean(importer)
	for _, p := range importedPaths {
		p = clean(p)
		addToSet(shardFor(c.fileShards, p), p, importer)
		for dir := filepath.Dir(p); dir != "." && dir != string(filepath.Separator) && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			addToSet(shardFor(c.dirShards, dir), dir, importer)
		}
	}
	c.populated.Store(true)
}

func addToSet(s *shard, key, val string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byKey[key]
	if !ok {
		set = make(map[string]struct{})
		s.byKey[key] = set
	}
	set[val] = struct{}{}
}

// Invalidate drops any entry whose key is path, and removes path from
// every value-set it appears in across both indexes (spec §4.3). This
// must be called for every modified file after a successful
// transaction (spec §8: cache coherence).
func (c *Cache) Invalidate(path string) {
	path = clean(path)
	deleteKey(shardFor(c.fileShards, path), path)
	deleteKey(shardFor(c.dirShards, path), path)
	for i := range c.fileShards {
		removeFromAllSets(c.fileShards[i], path)
	}
	for i := range c.dirShards {
		removeFromAllSets(c.dirShards[i], path)
	}
}

func deleteKey(s *shard, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byKey, key)
}

func removeFromAllSets(s *shard, val string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, set := range s.byKey {
		if _, ok := set[val]; ok {
			delete(set, val)
			if len(set) == 0 {
				delete(s.byKey, key)
			}
		}
	}
}

// GetLSPCached returns a previously cached LSP importer-finder result
// for (path, isDir), if present and not expired.
func (c *Cache) GetLSPCached(path string, isDir bool) ([]string, bool) {
	c.lspMu.Lock()
	defer c.lspMu.Unlock()
	e, ok := c.lspCache[lspKey{clean(path), isDir}]
	if !ok || time.Now().After(e.expireAt) {
		return nil, false
	}
	return e.files, true
}

// SetLSPCached memoizes an LSP importer-finder result for (path, isDir)
// for the cache's configured TTL.
func (c *Cache) SetLSPCached(path string, isDir bool, files []string) {
	c.lspMu.Lock()
	defer c.lspMu.Unlock()
	c.lspCache[lspKey{clean(path), isDir}] = lspEntry{files: files, expireAt: time.Now().Add(c.lspTTL)}
}

// IsPopulated reports whether at least one full scan (or LSP-backed
// insert) has completed.
func (c *Cache) IsPopulated() bool {
	return c.populated.Load()
}

// HasAnyReverseEntries is a coarse readiness signal distinct from
// IsPopulated: it reports whether the reverse index currently holds
// any data at all (it can go back to false after invalidation even
// once IsPopulated has latched true).
func (c *Cache) HasAnyReverseEntries() bool {
	for _, s := range c.fileShards {
		s.mu.RLock()
		n := len(s.byKey)
		s.mu.RUnlock()
		if n > 0 {
			return true
		}
	}
	return false
}
