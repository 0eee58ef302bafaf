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

package plugin

import (
	"strings"
	"sync"
)

// Registry is the Plugin Registry (C4): a mapping from file extension
// to the plugins willing to handle it, in registration order. The
// first registered plugin for an extension wins ties when more than
// one plugin claims it (spec §4.4: "registration order establishes
// precedence").
type Registry struct {
	mu          sync.RWMutex
	byExt       map[string][]Plugin
	order       []Plugin
	manifestExt map[string]Plugin // manifest filename -> owning plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:       make(map[string][]Plugin),
		manifestExt: make(map[string]Plugin),
	}
}

// Register adds p to the registry. Later calls for an extension that
// already has a registrant are appended after it, preserving
// first-registered precedence in [Registry.ForExtension].
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = append(r.order, p)
	meta := p.Metadata()
	for _, ext := range meta.Extensions {
		ext = normalizeExt(ext)
		r.byExt[ext] = append(r.byExt[ext], p)
	}
	if meta.ManifestFilename != "" {
		if _, exists := r.manifestExt[meta.ManifestFilename]; !exists {
			r.manifestExt[meta.ManifestFilename] = p
		}
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ForExtension returns every plugin registered for ext, in
// registration order. The caller typically uses the first entry that
// reports HandlesExtension(ext) true and falls back to later entries
// only when the first declines.
func (r *Registry) ForExtension(ext string) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps := r.byExt[normalizeExt(ext)]
	out := make([]Plugin, len(ps))
	copy(out, ps)
	return out
}

// ForFile is a convenience wrapper that derives the extension from
// path and returns the first plugin willing to handle it, or nil if
// none claims it (spec §4.4: falls back to generic handling).
func (r *Registry) ForFile(path string) Plugin {
	ext := extOf(path)
	for _, p := range r.ForExtension(ext) {
		if p.HandlesExtension(ext) {
			return p
		}
	}
	return nil
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

// ForManifest returns the plugin that owns manifestFilename (e.g.
// "package.json", "Cargo.toml"), or nil if no registered plugin claims
// it.
func (r *Registry) ForManifest(manifestFilename string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifestExt[manifestFilename]
}

// All returns every registered plugin in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.order))
	copy(out, r.order)
	return out
}
