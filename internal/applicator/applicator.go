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

// Package applicator implements the Atomic Edit-Plan Applicator (C8):
// it drains the Operation Queue, snapshots every file an [core.EditPlan]
// touches, applies its edits and dependency updates against the
// snapshots, and rolls every file back to its snapshot on any failure
// (spec §4.8).
package applicator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/locks"
	"github.com/typemill-go/refactorctl/internal/opqueue"
	"github.com/typemill-go/refactorctl/internal/plugin"
)

// Validator runs optional post-application checks (e.g. "does this
// still compile") over the files an applied plan touched. A non-nil
// error triggers a full rollback (spec §4.8 step 7).
type Validator func(ctx context.Context, modifiedFiles []string) error

// Applicator is the Edit-Plan Applicator. One instance is shared by a
// project's engine alongside its Operation Queue, Lock Manager, and
// Import Cache.
type Applicator struct {
	queue     *opqueue.Queue
	locks     *locks.Manager
	cache     *importcache.Cache
	registry  *plugin.Registry
	validator Validator
	logger    *slog.Logger
}

// New returns an Applicator. validator may be nil to skip post-
// application validation.
func New(queue *opqueue.Queue, lm *locks.Manager, cache *importcache.Cache, registry *plugin.Registry, validator Validator, logger *slog.Logger) *Applicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applicator{queue: queue, locks: lm, cache: cache, registry: registry, validator: validator, logger: logger}
}

// Result reports what a successful [Applicator.Apply] changed.
type Result struct {
	ModifiedFiles []string
	Metadata      core.PlanMetadata
}

// Apply executes plan atomically: every affected file is restored to
// its pre-application snapshot if any step fails (spec §4.8).
func (a *Applicator) Apply(ctx context.Context, plan *core.EditPlan) (*Result, error) {
	// Step 1: the queue must be idle before snapshotting, or a
	// concurrently-draining rename could race with our read (spec §4.8
	// step 1, grounded on the original's "wait_until_idle before
	// creating snapshots" comment).
	a.queue.WaitUntilIdle()

	// Step 2: collect every file this plan touches.
	affected := plan.AffectedFiles()
	if len(affected) == 0 {
		return &Result{Metadata: plan.Metadata}, nil
	}

	handles := a.locks.LockAll(affected)
	defer locks.UnlockAll(handles)

	// Step 3: snapshot before any modification.
	snapshots, err := snapshotAll(affected)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, err, "failed to snapshot affected files")
	}

	// Step 4: apply text edits grouped by file, from the snapshot, not
	// from a fresh disk read (spec §4.8 step 4: "edits are applied
	// in-memory against the snapshot to guarantee atomicity").
	// Every file's new content is computed before any file is written,
	// so an edit error in one file leaves every file on disk untouched.
	var modified []string
	byFile := plan.EditsByFile()
	newContents := make(map[string]string, len(byFile))
	for file, edits := range byFile {
		abs := file
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(filepath.Dir(plan.SourceFile), file)
		}
		snap, ok := snapshots[abs]
		if !ok {
			a.rollback(snapshots)
			return nil, errs.New(errs.Internal, "file not found in snapshots").WithPath(abs)
		}

		newContent, err := applyEdits(snap.Content, edits)
		if err != nil {
			a.rollback(snapshots)
			return nil, errs.Wrap(errs.ValidationFailure, err, "failed to apply edits").WithPath(abs)
		}
		newContents[abs] = newContent
	}
	for abs, newContent := range newContents {
		if err := os.WriteFile(abs, []byte(newContent), 0o666); err != nil {
			a.rollback(snapshots)
			return nil, errs.Wrap(errs.IOFailure, err, "failed to write file").WithPath(abs)
		}
		modified = append(modified, abs)
	}

	// Step 5: apply dependency updates by delegating to each target's
	// owning plugin (spec §3: DependencyUpdate is plugin-interpreted,
	// never applied as raw text).
	for _, dep := range plan.DependencyUpdates {
		abs := dep.TargetFile
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(filepath.Dir(plan.SourceFile), dep.TargetFile)
		}
		p := a.registry.ForFile(abs)
		if p == nil {
			a.logger.Warn("dependency update has no owning plugin, skipping", "file", abs)
			continue
		}
		support := p.ImportAdvancedSupport()
		if support == nil {
			a.logger.Warn("plugin has no advanced import support, skipping dependency update", "file", abs)
			continue
		}

		content, err := readCurrent(abs, snapshots)
		if err != nil {
			a.rollback(snapshots)
			return nil, errs.Wrap(errs.IOFailure, err, "failed to read file for dependency update").WithPath(abs)
		}
		newContent, changed, err := support.ApplyDependencyUpdate(content, dep)
		if err != nil {
			a.rollback(snapshots)
			return nil, errs.Wrap(errs.PluginFailure, err, "dependency update failed").WithPath(abs)
		}
		if changed {
			if err := os.WriteFile(abs, []byte(newContent), 0o666); err != nil {
				a.rollback(snapshots)
				return nil, errs.Wrap(errs.IOFailure, err, "failed to write dependency update").WithPath(abs)
			}
			modified = append(modified, abs)
		}
	}

	// Step 6: invalidate caches for everything that changed.
	for _, f := range modified {
		a.cache.Invalidate(f)
	}

	// Step 7: optional post-application validation with full rollback
	// on failure (spec §4.8 step 7, grounded on the original's
	// automatic "git reset --hard HEAD" validation-failure path; this
	// engine rolls back from in-memory snapshots instead of shelling to
	// the VCS, since not every project is VCS-tracked).
	if a.validator != nil {
		if err := a.validator(ctx, modified); err != nil {
			a.rollback(snapshots)
			return nil, errs.Wrap(errs.ValidationFailure, err, "post-application validation failed, changes rolled back")
		}
	}

	return &Result{ModifiedFiles: modified, Metadata: plan.Metadata}, nil
}

func readCurrent(path string, snapshots map[string]fileSnapshot) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if snap, ok := snapshots[path]; ok {
				return snap.Content, nil
			}
		}
		return "", err
	}
	return string(data), nil
}

// rollback restores every snapshotted file to its pre-application
// state: files that existed are rewritten with their original content,
// files that didn't exist are removed (spec §4.8 step 8, grounded on
// the original's rollback_from_snapshots).
func (a *Applicator) rollback(snapshots map[string]fileSnapshot) {
	for path, snap := range snapshots {
		if !snap.Existed {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				a.logger.Error("rollback: failed to remove file created during failed apply", "file", path, "error", err)
			}
			continue
		}
		if err := os.WriteFile(path, []byte(snap.Content), 0o666); err != nil {
			a.logger.Error("rollback: failed to restore file", "file", path, "error", err)
		}
	}
}

type fileSnapshot struct {
	Content string
	Existed bool
}

// snapshotAll reads every affected file's current content. A read
// that comes back empty for a file whose size is non-zero is retried
// once after a short delay: the original implementation worked around
// an OS page-cache staleness bug by dropping the cache and re-reading
// (POSIX_FADV_DONTNEED); Go has no portable equivalent of that syscall,
// so the same symptom is handled with a bounded retry instead, which
// catches the same transient "zero bytes read from a non-empty file"
// condition without depending on cgo or a build-tag-gated syscall.
func snapshotAll(paths []string) (map[string]fileSnapshot, error) {
	out := make(map[string]fileSnapshot, len(paths))
	for _, p := range paths {
		snap, err := snapshotOne(p)
		if err != nil {
			return nil, err
		}
		out[p] = snap
	}
	return out, nil
}

func snapshotOne(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileSnapshot{Existed: false}, nil
		}
		return fileSnapshot{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileSnapshot{}, err
	}
	if len(data) == 0 && info.Size() > 0 {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return fileSnapshot{}, err
		}
	}
	return fileSnapshot{Content: string(data), Existed: true}, nil
}

// applyEdits rejects ambiguous overlaps, then sorts the survivors by
// descending (line, column) and applies them from the end of the file
// towards the beginning, so earlier edits' positions remain valid as
// later (by position) ones are applied first (spec §4.8 step 5,
// grounded on the original's apply_edits_to_content sort_by). Edits at
// the same position keep their original relative order (stable sort).
func applyEdits(content string, edits []core.TextEdit) (string, error) {
	if len(edits) == 0 {
		return content, nil
	}
	resolved, err := resolveOverlaps(edits)
	if err != nil {
		return "", err
	}

	sorted := make([]core.TextEdit, len(resolved))
	copy(sorted, resolved)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Location.Start.Line != sorted[j].Location.Start.Line {
			return sorted[i].Location.Start.Line > sorted[j].Location.Start.Line
		}
		return sorted[i].Location.Start.Column > sorted[j].Location.Start.Column
	})

	out := content
	for _, e := range sorted {
		next, err := applySingleEdit(out, e)
		if err != nil {
			return "", err
		}
		out = next
	}
	return out, nil
}

// resolveOverlaps implements the "overlap rejection" testable property:
// if two edits in one file overlap and neither strictly precedes the
// other in (position, priority), application fails before a single
// byte is written. Overlapping ranges can only be ordered by Priority
// (their positions, by definition of overlap, don't separate them), so
// the edit with the strictly higher Priority survives and the other is
// dropped; an overlap between equal priorities has no way to resolve
// and is an error (spec §3 EditPlan invariant (a), spec §8).
func resolveOverlaps(edits []core.TextEdit) ([]core.TextEdit, error) {
	kept := make([]bool, len(edits))
	for i := range kept {
		kept[i] = true
	}
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if !kept[i] || !kept[j] || !rangesOverlap(edits[i].Location, edits[j].Location) {
				continue
			}
			switch {
			case edits[i].Priority > edits[j].Priority:
				kept[j] = false
			case edits[j].Priority > edits[i].Priority:
				kept[i] = false
			default:
				return nil, errors.New("overlapping edits at equal priority")
			}
		}
	}

	out := make([]core.TextEdit, 0, len(edits))
	for i, e := range edits {
		if kept[i] {
			out = append(out, e)
		}
	}
	return out, nil
}

// rangesOverlap reports whether a and b share at least one character
// position; ranges that merely touch end-to-end (a.End == b.Start)
// don't overlap.
func rangesOverlap(a, b core.Range) bool {
	return a.Start.Less(b.End) && b.Start.Less(a.End)
}

// applySingleEdit splices e into content at its rune-based (line,
// column) span. A Replace whose span covers the whole file (as
// produced by the Reference Updater for a full-file plugin rewrite) is
// special-cased to avoid an expensive line/column walk: it simply
// returns NewText.
func applySingleEdit(content string, e core.TextEdit) (string, error) {
	if e.Location.Start == (core.Position{}) && e.Location.End == fullFileEnd(content) {
		return e.NewText, nil
	}

	startOff, err := offsetOf(content, e.Location.Start)
	if err != nil {
		return "", err
	}
	endOff, err := offsetOf(content, e.Location.End)
	if err != nil {
		return "", err
	}
	if endOff < startOff {
		return "", errors.New("edit end position precedes start position")
	}

	switch e.EditType {
	case core.EditInsert:
		return content[:startOff] + e.NewText + content[startOff:], nil
	case core.EditDelete:
		return content[:startOff] + content[endOff:], nil
	default: // EditReplace
		return content[:startOff] + e.NewText + content[endOff:], nil
	}
}

func fullFileEnd(content string) core.Position {
	line, col := 0, 0
	for _, r := range content {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return core.Position{Line: line, Column: col}
}

// offsetOf converts a rune-based (line, column) position into a byte
// offset into content.
func offsetOf(content string, pos core.Position) (int, error) {
	line, col := 0, 0
	for i, r := range content {
		if line == pos.Line && col == pos.Column {
			return i, nil
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	if line == pos.Line && col == pos.Column {
		return len(content), nil
	}
	return 0, errors.New("position out of range")
}
