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

package importcache

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// cacheFileVersion is bumped whenever the on-disk snapshot's shape
// changes incompatibly; entries written by an older version are
// treated as absent (spec §6: "entries older than the TTL are
// considered absent").
const cacheFileVersion = 1

// snapshot is the versioned on-disk form of a scoped cache entry
// (spec §3, §6: "each entry is keyed by (version, scope_key) and
// carries a timestamp").
type snapshot struct {
	Version    int                 `yaml:"version"`
	ScopeKey   string              `yaml:"scope_key"`
	Timestamp  time.Time           `yaml:"timestamp"`
	ReverseIdx map[string][]string `yaml:"reverse_index"`
}

func cacheDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".refactorctl-cache")
}

func cacheFilePath(projectRoot, scopeKey string) string {
	return filepath.Join(cacheDir(projectRoot), "importcache-"+scopeKey+".yaml")
}

// LoadFromDisk populates c's reverse index from a previously persisted
// snapshot for scopeKey, if one exists, is the current version, and is
// within ttl of now. It returns false if no usable snapshot was found.
func (c *Cache) LoadFromDisk(projectRoot, scopeKey string, ttl time.Duration) (bool, error) {
	data, err := os.ReadFile(cacheFilePath(projectRoot, scopeKey))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return false, err
	}
	if snap.Version != cacheFileVersion {
		return false, nil
	}
	if ttl > 0 && time.Since(snap.Timestamp) > ttl {
		return false, nil
	}
	for importer, imports := range snap.ReverseIdx {
		c.Insert(importer, imports)
	}
	return true, nil
}

// SaveFilelistCache persists the current reverse index for scopeKey
// under projectRoot's cache directory, opportunistically (a failure to
// persist must never fail the caller's transaction, spec §4.3).
func (c *Cache) SaveFilelistCache(projectRoot, scopeKey string) error {
	reverse := make(map[string][]string)
	for i := range c.fileShards {
		s := c.fileShards[i]
		s.mu.RLock()
		for imported, importers := range s.byKey {
			for importer := range importers {
				reverse[importer] = append(reverse[importer], imported)
			}
		}
		s.mu.RUnlock()
	}
	snap := snapshot{
		Version:    cacheFileVersion,
		ScopeKey:   scopeKey,
		Timestamp:  time.Now(),
		ReverseIdx: reverse,
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	dir := cacheDir(projectRoot)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	return os.WriteFile(cacheFilePath(projectRoot, scopeKey), data, 0o666)
}
