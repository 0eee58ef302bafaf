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

// Package alias implements the Path-Alias Resolver (C9) for the
// TypeScript/JavaScript ecosystem: tsconfig.json/jsconfig.json
// "compilerOptions.paths" mapping, with wildcard patterns and
// directory-to-nearest-config caching (spec §4.9).
package alias

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/typemill-go/refactorctl/internal/plugin"
)

var _ plugin.AliasResolver = (*TSConfigResolver)(nil)

// TSConfigResolver resolves specifiers through tsconfig.json/
// jsconfig.json path mappings, the way SvelteKit's `$lib/*`, Next.js'
// `@/*`, and Vite's `~/*` conventions are all expressed: a
// `compilerOptions.baseUrl` plus a `paths` map of wildcard patterns to
// candidate replacement paths. A config's own patterns are tried before
// the ones it inherits through `extends`; among the patterns of one
// file the order is not defined, since they are decoded through a Go
// map.
type TSConfigResolver struct {
	mu          sync.Mutex
	configCache map[string]*resolvedConfig // tsconfig path -> parsed
	nearestPath map[string]string          // directory -> nearest config path ("" = none found)
}

// NewTSConfigResolver returns a ready-to-use resolver with empty
// caches.
func NewTSConfigResolver() *TSConfigResolver {
	return &TSConfigResolver{
		configCache: make(map[string]*resolvedConfig),
		nearestPath: make(map[string]string),
	}
}

type resolvedConfig struct {
	baseURL string
	paths   []pathMapping // own patterns first, then inherited ones
}

type pathMapping struct {
	pattern      string
	replacements []string // each already resolved to an absolute path
}

type tsconfigFile struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// ResolveAlias implements [plugin.AliasResolver].
func (r *TSConfigResolver) ResolveAlias(ctx context.Context, specifier, fromFile, projectRoot string) (string, bool, error) {
	if !isPotentialAlias(specifier) {
		return "", false, nil
	}
	cfgPath := r.findNearestConfig(fromFile)
	if cfgPath == "" {
		return "", false, nil
	}
	cfg, err := r.loadConfig(cfgPath)
	if err != nil {
		return "", false, err
	}
	if cfg == nil {
		return "", false, nil
	}
	for _, m := range cfg.paths {
		if resolved, ok := matchPattern(specifier, m.pattern, m.replacements); ok {
			return resolved, true, nil
		}
	}
	return "", false, nil
}

// PathToAlias implements [plugin.AliasResolver].
func (r *TSConfigResolver) PathToAlias(ctx context.Context, path, fromFile, projectRoot string) (string, bool, error) {
	cfgPath := r.findNearestConfig(fromFile)
	if cfgPath == "" {
		return "", false, nil
	}
	cfg, err := r.loadConfig(cfgPath)
	if err != nil {
		return "", false, err
	}
	if cfg == nil {
		return "", false, nil
	}
	stripped := stripJSExtension(path)
	for _, m := range cfg.paths {
		for _, repl := range m.replacements {
			if alias, ok := convertToAlias(stripped, m.pattern, repl); ok {
				return alias, true, nil
			}
		}
	}
	return "", false, nil
}

// InvalidateConfig implements [plugin.AliasResolver].
func (r *TSConfigResolver) InvalidateConfig(projectRoot string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dir := range r.nearestPath {
		if strings.HasPrefix(dir, projectRoot) {
			delete(r.nearestPath, dir)
		}
	}
	for path := range r.configCache {
		if strings.HasPrefix(path, projectRoot) {
			delete(r.configCache, path)
		}
	}
}

func isPotentialAlias(specifier string) bool {
	if strings.HasPrefix(specifier, "$") || strings.HasPrefix(specifier, "@") || strings.HasPrefix(specifier, "~") {
		return true
	}
	return !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/")
}

// findNearestConfig walks up from fromFile's directory looking for
// tsconfig.json then jsconfig.json, caching the per-directory answer
// (including "" for "none found") so repeated lookups from files in
// the same directory don't re-touch the filesystem.
func (r *TSConfigResolver) findNearestConfig(fromFile string) string {
	dir := filepath.Dir(fromFile)
	var visited []string
	for {
		r.mu.Lock()
		cached, ok := r.nearestPath[dir]
		r.mu.Unlock()
		if ok {
			r.cacheAncestors(visited, cached)
			return cached
		}

		for _, name := range [...]string{"tsconfig.json", "jsconfig.json"} {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				r.mu.Lock()
				r.nearestPath[dir] = candidate
				r.mu.Unlock()
				r.cacheAncestors(visited, candidate)
				return candidate
			}
		}

		visited = append(visited, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			r.cacheAncestors(visited, "")
			return ""
		}
		dir = parent
	}
}

func (r *TSConfigResolver) cacheAncestors(dirs []string, result string) {
	if len(dirs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range dirs {
		r.nearestPath[d] = result
	}
}

func (r *TSConfigResolver) loadConfig(cfgPath string) (*resolvedConfig, error) {
	r.mu.Lock()
	if cfg, ok := r.configCache[cfgPath]; ok {
		r.mu.Unlock()
		return cfg, nil
	}
	r.mu.Unlock()

	cfg, err := parseTSConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.configCache[cfgPath] = cfg
	r.mu.Unlock()
	return cfg, nil
}

// parseTSConfig reads cfgPath and, if it extends a base config,
// recursively merges that base's baseUrl/paths underneath (the
// extending config's own entries win on key conflict).
func parseTSConfig(cfgPath string) (*resolvedConfig, error) {
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var raw tsconfigFile
	if err := json.Unmarshal(stripJSONComments(data), &raw); err != nil {
		return nil, err
	}

	dir := filepath.Dir(cfgPath)
	baseURL := dir
	if raw.CompilerOptions.BaseURL != "" {
		baseURL = filepath.Join(dir, raw.CompilerOptions.BaseURL)
	}

	cfg := &resolvedConfig{baseURL: baseURL}

	if raw.Extends != "" {
		basePath := raw.Extends
		if !filepath.IsAbs(basePath) {
			basePath = filepath.Join(dir, basePath)
		}
		if base, err := parseTSConfig(basePath); err == nil && base != nil {
			cfg.paths = append(cfg.paths, base.paths...)
		}
	}

	for pattern, repls := range raw.CompilerOptions.Paths {
		abs := make([]string, 0, len(repls))
		for _, r := range repls {
			abs = append(abs, filepath.Join(baseURL, r))
		}
		cfg.paths = append([]pathMapping{{pattern: pattern, replacements: abs}}, cfg.paths...)
	}

	return cfg, nil
}

// stripJSONComments removes // line comments, a tolerance tsconfig.json
// files commonly rely on (JSON with Comments) that encoding/json alone
// rejects. Only applied outside of string literals.
func stripJSONComments(data []byte) []byte {
	var out []byte
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(data) && data[i+1] == '/' {
			for i < len(data) && data[i] != '\n' {
				i++
			}
			out = append(out, '\n')
			continue
		}
		out = append(out, c)
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func stripJSExtension(path string) string {
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".js", ".jsx":
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// matchPattern implements spec §4.9's wildcard matching: a pattern
// like "@/*" against replacements like "/abs/src/*" substitutes the
// captured portion into the first replacement whose substituted result
// exists on disk, falling back to the first replacement if none do
// (grounded on the original's try_match_pattern).
func matchPattern(specifier, pattern string, replacements []string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if pattern != specifier {
			return "", false
		}
		for _, repl := range replacements {
			if fileExistsWithExt(repl) {
				return repl, true
			}
		}
		if len(replacements) > 0 {
			return replacements[0], true
		}
		return "", false
	}

	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	captured := specifier[len(prefix) : len(specifier)-len(suffix)]

	var fallback string
	for i, repl := range replacements {
		resolved := substituteStar(repl, captured)
		if i == 0 {
			fallback = resolved
		}
		if fileExistsWithExt(resolved) {
			return resolved, true
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

func substituteStar(s, captured string) string {
	i := strings.IndexByte(s, '*')
	if i < 0 {
		return s
	}
	return s[:i] + captured + s[i+1:]
}

var jsLikeExtensions = [...]string{"", ".ts", ".tsx", ".js", ".jsx", ".d.ts"}

func fileExistsWithExt(base string) bool {
	for _, ext := range jsLikeExtensions {
		if fileExists(base + ext) {
			return true
		}
	}
	return false
}

// convertToAlias is the reverse of matchPattern: given an absolute
// (extension-stripped) path, find the pattern/replacement pair whose
// replacement prefix it falls under and rebuild the alias specifier
// (grounded on the original's try_convert_path_to_alias).
func convertToAlias(path, pattern, replacement string) (string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if path == stripJSExtension(replacement) {
			return pattern, true
		}
		return "", false
	}
	patternPrefix, patternSuffix := pattern[:star], pattern[star+1:]

	rstar := strings.IndexByte(replacement, '*')
	if rstar < 0 {
		rel, ok := cutPrefixPath(path, replacement)
		if !ok {
			return "", false
		}
		return patternPrefix + rel + patternSuffix, true
	}

	replPrefix, replSuffix := replacement[:rstar], replacement[rstar+1:]
	rel, ok := cutPrefixPath(path, replPrefix)
	if !ok {
		return "", false
	}
	captured := strings.TrimSuffix(rel, replSuffix)
	if captured == rel && replSuffix != "" {
		return "", false
	}
	if captured == "" {
		return strings.TrimSuffix(patternPrefix, "/") + patternSuffix, true
	}
	return patternPrefix + captured + patternSuffix, true
}

func cutPrefixPath(path, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(path[len(prefix):], "/")
	return rel, true
}
