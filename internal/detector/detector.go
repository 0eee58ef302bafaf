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

// Package detector implements the Generic Reference Detector (C6): the
// fallback used when no plugin-specific [plugin.ReferenceDetector] is
// available, or to supplement one with textual matches plugins don't
// understand (comments, docs, string literals), gated on the scope
// flags merged into RenameInfo (spec §4.6).
package detector

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/plugin"
)

// Detector finds which candidate files reference a path, using a
// three-stage pipeline: a cheap substring prefilter, a plugin-reported
// import resolution pass, and an optional generic text scan (spec
// §4.6).
type Detector struct {
	registry *plugin.Registry
	cache    *importcache.Cache
}

// New returns a Detector backed by registry (for plugin-reported
// imports) and cache (for recording and reusing reverse-index
// results).
func New(registry *plugin.Registry, cache *importcache.Cache) *Detector {
	return &Detector{registry: registry, cache: cache}
}

// DetectReferences returns the subset of candidateFiles (workspace-
// root-relative) that reference oldPath, recording every resolved
// import relationship into the Import Cache as it goes (spec §4.6
// step 5: "every resolution the detector performs is recorded").
func (d *Detector) DetectReferences(ctx context.Context, candidateFiles []string, oldPath, projectRoot string, info core.RenameInfo) ([]string, error) {
	needle := filepath.Base(oldPath)
	needleNoExt := strings.TrimSuffix(needle, filepath.Ext(needle))

	var out []string
	for _, rel := range candidateFiles {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		abs := filepath.Join(projectRoot, rel)
		content, err := readFile(abs)
		if err != nil {
			continue // unreadable file cannot reference anything; spec §4.6: skip, don't fail the whole scan
		}

		// Stage 1: cheap prefilter. A file whose content doesn't even
		// contain the bare filename (with or without extension) cannot
		// plausibly reference oldPath by any syntax this engine knows
		// about.
		if !strings.Contains(content, needle) && !strings.Contains(content, needleNoExt) {
			continue
		}

		matched := false

		// Stage 2: plugin-reported imports, resolved relative to abs,
		// falling through to the plugin's path-alias resolver (C9) for
		// any specifier a relative-path resolution doesn't explain.
		if p := d.registry.ForFile(abs); p != nil {
			if rd := p.ReferenceDetector(); rd != nil {
				resolver := p.PathAliasResolver()
				for _, spec := range rd.Imports(content, abs) {
					if importResolvesTo(ctx, spec, abs, oldPath, projectRoot, resolver) {
						matched = true
						d.cache.Insert(abs, []string{oldPath})
						break
					}
				}
			}
		}

		// Stage 3: generic text scan, gated on scope flags (spec §4.6
		// step 4: code/doc/comment/string-literal/exact-match modes are
		// independently toggled via the merged RenameInfo).
		if !matched && genericScanEnabled(info) {
			if containsGenericReference(content, needle, needleNoExt, info) {
				matched = true
			}
		}

		if matched {
			out = append(out, rel)
		}
	}
	return out, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// importResolvesTo reports whether spec, as written in fromFile,
// denotes oldPath. Relative specifiers are resolved against fromFile's
// directory. A non-relative specifier is first offered to resolver (the
// plugin's path-alias resolver, C9) when one is configured for this
// ecosystem; anything it doesn't resolve falls back to a suffix match
// against oldPath's slash-normalized form, which catches bare
// module-relative imports without needing per-ecosystem resolution
// logic here (spec §4.6 step 2).
func importResolvesTo(ctx context.Context, spec, fromFile, oldPath, projectRoot string, resolver plugin.AliasResolver) bool {
	oldPath = filepath.ToSlash(oldPath)
	if strings.HasPrefix(spec, ".") {
		resolved := filepath.Join(filepath.Dir(fromFile), spec)
		resolved = filepath.ToSlash(resolved)
		return strings.HasSuffix(oldPath, resolved) || strings.HasSuffix(oldPath, resolved+filepath.Ext(oldPath))
	}
	if resolver != nil {
		if resolved, ok, err := resolver.ResolveAlias(ctx, spec, fromFile, projectRoot); err == nil && ok {
			resolved = filepath.ToSlash(resolved)
			return strings.HasSuffix(oldPath, resolved) || strings.HasSuffix(oldPath, resolved+filepath.Ext(oldPath))
		}
	}
	return strings.HasSuffix(oldPath, filepath.ToSlash(spec))
}

func genericScanEnabled(info core.RenameInfo) bool {
	return info.Bool("update_all") || info.Bool("update_code") || info.Bool("update_docs") ||
		info.Bool("update_comments") || info.Bool("update_string_literals") ||
		info.Bool("update_markdown_prose") || info.Bool("update_exact_matches")
}

// containsGenericReference performs a line-oriented textual scan for
// needle/needleNoExt, suitable for files with no plugin coverage
// (config files, prose, arbitrary text). It does not attempt to
// distinguish comments from code; that distinction belongs to a
// language-aware plugin. It runs for every file stage 2 did not match,
// whether or not a plugin claims the file.
func containsGenericReference(content, needle, needleNoExt string, info core.RenameInfo) bool {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if info.Bool("update_exact_matches") && (strings.Contains(line, needle) || strings.Contains(line, needleNoExt)) {
			return true
		}
		if (info.Bool("update_docs") || info.Bool("update_markdown_prose") || info.Bool("update_comments") || info.Bool("update_all")) &&
			strings.Contains(line, needleNoExt) {
			return true
		}
	}
	return false
}
