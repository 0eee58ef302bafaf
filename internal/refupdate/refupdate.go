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

// Package refupdate implements the Reference Updater (C7): the
// central orchestration algorithm that, given a rename or
// consolidation, finds every file that needs its references rewritten
// and assembles the resulting [core.EditPlan] (spec §4.7).
package refupdate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/detector"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/walker"
)

// minConcurrency and maxConcurrency bound the rewrite fan-out (spec
// §5: "bounded parallel rewrite, concurrency clamped to [4, 64]").
const (
	minConcurrency = 4
	maxConcurrency = 64
)

// Kind classifies the shape of a rename for the purposes of candidate
// enumeration (spec §4.7 step 2).
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindPackage
)

// Updater is the Reference Updater. A single instance is typically
// shared across a project's lifetime, the same way its collaborators
// (Import Cache, Plugin Registry, Walker) are.
type Updater struct {
	registry    *plugin.Registry
	cache       *importcache.Cache
	detector    *detector.Detector
	walker      *walker.Walker
	concurrency int
	logger      *slog.Logger
}

// New returns an Updater. concurrency is clamped to [4, 64]; a value
// of 0 uses the maximum.
func New(registry *plugin.Registry, cache *importcache.Cache, det *detector.Detector, w *walker.Walker, concurrency int, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		registry:    registry,
		cache:       cache,
		detector:    det,
		walker:      w,
		concurrency: clampConcurrency(concurrency),
		logger:      logger,
	}
}

func clampConcurrency(n int) int {
	if n <= 0 {
		return maxConcurrency
	}
	if n < minConcurrency {
		return minConcurrency
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}

// Request describes a single path rename whose references across the
// project must be kept consistent (spec §4.7).
type Request struct {
	OldPath     string
	NewPath     string
	Kind        Kind
	ProjectRoot string
	Scope       core.RenameScope
	Info        core.RenameInfo
}

// UpdateReferences enumerates candidate files, rewrites each through
// its owning plugin (falling back to the generic detector when no
// plugin claims the file or the plugin's own detector declines), and
// assembles the resulting edit plan. No file is read or written twice:
// a full-file replace edit is emitted per changed file (spec §4.7 step
// 6: "a plugin rewrite replaces the whole file's relevant content, not
// a sub-span").
func (u *Updater) UpdateReferences(ctx context.Context, req Request) (*core.EditPlan, error) {
	merged := req.Info.Merge(req.Scope)

	candidates, err := u.enumerateCandidates(ctx, req, merged)
	if err != nil {
		return nil, err
	}

	edits, err := u.rewriteAll(ctx, req, merged, candidates)
	if err != nil {
		return nil, err
	}

	return &core.EditPlan{
		Edits: edits,
		Metadata: core.PlanMetadata{
			IntentName: "update_references",
			IntentArgs: map[string]any{
				"old_path": req.OldPath,
				"new_path": req.NewPath,
			},
			Complexity:  len(edits),
			ImpactAreas: uniqueTargets(edits),
		},
	}, nil
}

// enumerateCandidates picks the file set to examine, following spec
// §4.7 step 2-4's special cases: a comprehensive scope (update_all)
// bypasses reference-based pruning entirely and examines every walked
// file; a directory or package rename widens the prefix match; a plain
// file rename uses the fast importer-lookup chain (cache -> generic
// detector fallback) before falling back to a full walk.
func (u *Updater) enumerateCandidates(ctx context.Context, req Request, merged core.RenameInfo) ([]string, error) {
	if req.Scope.IsComprehensive() {
		return u.walker.List(ctx, req.Scope)
	}

	switch req.Kind {
	case KindDirectory, KindPackage:
		return u.candidatesForPrefix(ctx, req, merged)
	default:
		return u.candidatesForFile(ctx, req, merged)
	}
}

// candidatesForFile implements the fast lookup chain (spec §4.7 step
// 4): Import Cache first (cheap, already-resolved), else the generic
// detector scanning every walked file.
func (u *Updater) candidatesForFile(ctx context.Context, req Request, merged core.RenameInfo) ([]string, error) {
	if u.cache.IsPopulated() {
		if importers := u.cache.GetImporters(req.OldPath); len(importers) > 0 {
			return toRelative(req.ProjectRoot, importers), nil
		}
	}

	all, err := u.walker.List(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	return u.detector.DetectReferences(ctx, all, req.OldPath, req.ProjectRoot, merged)
}

// candidatesForPrefix widens the reference search to anything that
// imports a file anywhere under the renamed directory/package (spec
// §4.7 step 3: "a directory rename's reference set is the union of
// every contained file's importers"). Every file inside old_path is
// unconditionally part of the candidate set regardless of what the
// cache or detector find, since those files have internal references
// (to their own old directory name) that need updating even when
// nothing outside the directory points at them; the generic
// directory-level detector always runs alongside the cache fast path,
// not instead of it, since the cache's reverse index only tracks
// resolved imports, not the string-literal references a text scan
// catches (spec §4.7 step 5).
func (u *Updater) candidatesForPrefix(ctx context.Context, req Request, merged core.RenameInfo) ([]string, error) {
	all, err := u.walker.List(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	internal := filesUnderPrefix(req.ProjectRoot, req.OldPath, all)

	detected, err := u.detector.DetectReferences(ctx, all, req.OldPath, req.ProjectRoot, merged)
	if err != nil {
		return nil, err
	}

	var cached []string
	if u.cache.IsPopulated() {
		if importers := u.cache.GetImportersForDirectory(req.OldPath); len(importers) > 0 {
			cached = toRelative(req.ProjectRoot, importers)
		}
	}

	return mergeUnique(internal, cached, detected), nil
}

// filesUnderPrefix returns the subset of all (workspace-root-relative)
// that falls inside the directory absDir.
func filesUnderPrefix(root, absDir string, all []string) []string {
	relDir := filepath.ToSlash(relOrSelf(root, absDir))
	prefix := relDir + "/"
	var out []string
	for _, rel := range all {
		if rel == relDir || strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
	}
	return out
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// mergeUnique concatenates lists, dropping duplicates while keeping
// first-occurrence order.
func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// rewriteAll runs the plugin rewrite for every candidate file
// concurrently, bounded by u.concurrency (spec §5), collecting a
// full-file replace [core.TextEdit] for every file that actually
// changed. A file whose plugin declines, or which has no registered
// plugin, is passed to the generic detector's textual rewrite as the
// compatibility-gate fallback (spec §4.7 step 6).
func (u *Updater) rewriteAll(ctx context.Context, req Request, merged core.RenameInfo, candidates []string) ([]core.TextEdit, error) {
	type result struct {
		edit core.TextEdit
		ok   bool
	}
	results := make([]result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, rel := range candidates {
		i, rel := i, rel
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			abs := filepath.Join(req.ProjectRoot, rel)
			edit, ok, err := u.rewriteOne(abs, req, merged)
			if err != nil {
				u.logger.Warn("reference rewrite failed", "file", rel, "error", err)
				return nil // spec §7: a single file's rewrite failure doesn't abort the whole scan
			}
			results[i] = result{edit: edit, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var edits []core.TextEdit
	for _, r := range results {
		if r.ok {
			edits = append(edits, r.edit)
			u.cache.Invalidate(r.edit.FilePath)
		}
	}
	return edits, nil
}

func (u *Updater) rewriteOne(abs string, req Request, merged core.RenameInfo) (core.TextEdit, bool, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return core.TextEdit{}, false, err
	}
	content := string(data)

	var newContent string
	var changed bool

	if p := u.registry.ForFile(abs); p != nil && extensionsCompatible(req.OldPath, abs) {
		newContent, _, changed = p.RewriteFileReferences(content, req.OldPath, req.NewPath, abs, req.ProjectRoot, merged)
	}
	if !changed {
		newContent, changed = genericRewrite(content, req.OldPath, req.NewPath, merged)
	}
	if !changed {
		return core.TextEdit{}, false, nil
	}

	return core.TextEdit{
		FilePath:     abs,
		EditType:     core.EditReplace,
		Location:     fullFileRange(content),
		OriginalText: content,
		NewText:      newContent,
		Description:  "reference update: " + req.OldPath + " -> " + req.NewPath,
	}, true, nil
}

// docConfigExts accept reference updates from any source (spec §4.7
// step 6.d).
var docConfigExts = map[string]bool{
	".md": true, ".markdown": true, ".toml": true,
	".yaml": true, ".yml": true, ".json": true,
}

// webGroupExts are mutually compatible with each other but with
// nothing outside the group (spec §4.7 step 6.d).
var webGroupExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".svelte": true,
}

// extensionsCompatible implements the compatibility gate (spec §4.7
// step 6.d): a plugin is only dispatched when the renamed path's
// extension is compatible with the candidate file's extension.
// Directory and package renames have no extension of their own; the
// gate doesn't apply to them, since the plugin lookup on abs already
// scoped the call to that plugin's own ecosystem.
func extensionsCompatible(oldPath, abs string) bool {
	oldExt := extOf(oldPath)
	if oldExt == "" {
		return true
	}
	targetExt := extOf(abs)
	if docConfigExts[targetExt] {
		return true
	}
	if webGroupExts[oldExt] && webGroupExts[targetExt] {
		return true
	}
	return oldExt == targetExt
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// genericRewrite is the textual fallback used when no plugin claims a
// file (or the plugin declined): a literal substring replace of the
// old path's basename with the new one, gated on update_exact_matches
// the same way the generic detector gates its scan (spec §4.7 step 6).
func genericRewrite(content, oldPath, newPath string, merged core.RenameInfo) (string, bool) {
	if !merged.Bool("update_exact_matches") && !merged.Bool("update_all") {
		return content, false
	}
	oldBase := filepath.Base(oldPath)
	newBase := filepath.Base(newPath)
	if !strings.Contains(content, oldBase) {
		return content, false
	}
	return strings.ReplaceAll(content, oldBase, newBase), true
}

func fullFileRange(content string) core.Range {
	line, col := 0, 0
	for _, r := range content {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return core.Range{Start: core.Position{}, End: core.Position{Line: line, Column: col}}
}

func toRelative(root string, abs []string) []string {
	out := make([]string, 0, len(abs))
	for _, a := range abs {
		rel, err := filepath.Rel(root, a)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func uniqueTargets(edits []core.TextEdit) []string {
	seen := make(map[string]bool, len(edits))
	var out []string
	for _, e := range edits {
		t := e.TargetFile("")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
