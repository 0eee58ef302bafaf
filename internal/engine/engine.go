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

// Package engine wires every component into the operation entry points
// described in spec §6 (rename_file, rename_directory,
// consolidate_package, rename_symbol, extract_*/inline_variable,
// create/delete/read/write_file, list_files, apply_edits,
// notify_file_*). It is the thin dispatcher behind the RPC/CLI layer
// the spec calls out of scope: each exported method corresponds to one
// top-level operation and returns the {modified_files, edits_applied,
// success, validation} result document.
package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/typemill-go/refactorctl/internal/applicator"
	"github.com/typemill-go/refactorctl/internal/config"
	"github.com/typemill-go/refactorctl/internal/consolidate"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/detector"
	"github.com/typemill-go/refactorctl/internal/errs"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/locks"
	"github.com/typemill-go/refactorctl/internal/opqueue"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refupdate"
	"github.com/typemill-go/refactorctl/internal/vcsutil"
	"github.com/typemill-go/refactorctl/internal/walker"
)

// Engine owns one project's long-lived component graph: a single
// instance is shared across every operation for the lifetime of the
// process, the same way the teacher's build shares one *cue.Context
// for a session (spec §1: "a long-running service").
type Engine struct {
	root string
	cfg  config.Config

	registry   *plugin.Registry
	locksMgr   *locks.Manager
	queue      *opqueue.Queue
	cache      *importcache.Cache
	walkerImpl *walker.Walker
	detect     *detector.Detector
	updater    *refupdate.Updater
	applier    *applicator.Applicator
	consolider *consolidate.Orchestrator

	mu      sync.Mutex
	lastVal *ValidationOutcome

	logger *slog.Logger
}

// New wires the full component graph for a project rooted at root. vcs
// may be nil to disable VCS-aware renames.
func New(root string, registry *plugin.Registry, cfg config.Config, vcs vcsutil.VCS, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	lm := locks.NewManager()
	queue := opqueue.New(lm, vcs, logger)
	cache := importcache.New(cfg.FileListCacheTTL)
	w := walker.New(root, cfg.FileListCacheTTL)
	det := detector.New(registry, cache)
	upd := refupdate.New(registry, cache, det, w, cfg.RewriteConcurrency, logger)

	e := &Engine{
		root:       root,
		cfg:        cfg,
		registry:   registry,
		locksMgr:   lm,
		queue:      queue,
		cache:      cache,
		walkerImpl: w,
		detect:     det,
		updater:    upd,
		logger:     logger,
	}

	var validator applicator.Validator
	if cfg.Validation.Enabled {
		validator = e.validatorFunc()
	}
	app := applicator.New(queue, lm, cache, registry, validator, logger)
	e.applier = app
	e.consolider = consolidate.New(registry, upd, app, w, logger)
	return e
}

// OperationResult is the result document returned to callers of every
// top-level operation (spec §6): the files the operation actually
// touched, how many edits were applied, whether it succeeded, and the
// outcome of the validation hook when one ran.
type OperationResult struct {
	ModifiedFiles []string           `json:"modified_files,omitempty"`
	EditsApplied  int                `json:"edits_applied"`
	Success       bool               `json:"success"`
	DryRun        bool               `json:"dry_run,omitempty"`
	Plan          *core.EditPlan     `json:"plan,omitempty"`
	Validation    *ValidationOutcome `json:"validation,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
}

func (e *Engine) resultFromApply(plan *core.EditPlan, res *applicator.Result) *OperationResult {
	return &OperationResult{
		ModifiedFiles: res.ModifiedFiles,
		EditsApplied:  len(plan.Edits),
		Success:       true,
	}
}

// applyOrPreview runs plan through the Edit-Plan Applicator unless
// dryRun is set, in which case the plan itself is returned as a
// preview without touching the filesystem (spec §6: "returns either a
// preview summary or a result document").
func (e *Engine) applyOrPreview(ctx context.Context, plan *core.EditPlan, dryRun bool) (*OperationResult, error) {
	if dryRun {
		return &OperationResult{
			DryRun:       true,
			Plan:         plan,
			EditsApplied: len(plan.Edits),
			Success:      true,
		}, nil
	}
	res, err := e.applier.Apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	out := e.resultFromApply(plan, res)
	if e.cfg.Validation.Enabled {
		out.Validation = e.lastValidation()
	}
	return out, nil
}

// RenameFile implements the rename_file operation (spec §6).
func (e *Engine) RenameFile(ctx context.Context, oldPath, newPath string, dryRun bool, scope *core.RenameScope) (*OperationResult, error) {
	return e.rename(ctx, oldPath, newPath, refupdate.KindFile, dryRun, scope, nil)
}

// RenameDirectory implements the rename_directory operation (spec §6).
// When asConsolidation is true, it delegates to the Package-Consolidation
// Orchestrator (C11) instead of a plain reference-updating rename.
func (e *Engine) RenameDirectory(ctx context.Context, oldPath, newPath string, dryRun, asConsolidation bool, scope *core.RenameScope) (*OperationResult, error) {
	if asConsolidation {
		return e.ConsolidatePackage(ctx, oldPath, newPath, dryRun)
	}
	return e.rename(ctx, oldPath, newPath, refupdate.KindDirectory, dryRun, scope, directoryRenameInfo(oldPath, newPath))
}

// directoryRenameInfo derives the crate/module-qualifier RenameInfo a
// plain (non-consolidating) directory rename needs for ecosystem
// plugins that rewrite path-qualified references by name rather than
// by file path (spec §4.7's Rust example: "use utils::helpers::f"
// follows "src/utils" the same way a crate rename's manifest-derived
// name does in the consolidation path, just taken from the directory's
// own basename instead of a manifest).
func directoryRenameInfo(oldPath, newPath string) core.RenameInfo {
	oldName := filepath.Base(oldPath)
	newName := filepath.Base(newPath)
	return core.RenameInfo{
		core.KeyOldCrateName:    oldName,
		core.KeyNewCrateName:    newName,
		core.KeyNewImportPrefix: newName,
	}
}

func (e *Engine) rename(ctx context.Context, oldPath, newPath string, kind refupdate.Kind, dryRun bool, scope *core.RenameScope, info core.RenameInfo) (*OperationResult, error) {
	s := core.DefaultRenameScope()
	if scope != nil {
		s = *scope
	}
	req := refupdate.Request{
		OldPath:     oldPath,
		NewPath:     newPath,
		Kind:        kind,
		ProjectRoot: e.root,
		Scope:       s,
		Info:        info,
	}
	plan, err := e.updater.UpdateReferences(ctx, req)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		e.queue.Enqueue(core.OperationTransaction{
			ID: uuid.NewString(),
			Operations: []core.FileOperation{{
				Kind:   core.OpRename,
				Target: core.AbsolutePath(oldPath),
				Params: map[string]string{"new_path": newPath},
			}},
		})
		e.queue.WaitUntilIdle()
	}
	return e.applyOrPreview(ctx, plan, dryRun)
}

// ConsolidatePackage implements the consolidate_package operation
// (spec §6), delegating entirely to C11.
func (e *Engine) ConsolidatePackage(ctx context.Context, oldPath, newPath string, dryRun bool) (*OperationResult, error) {
	res, err := e.consolider.Consolidate(ctx, oldPath, newPath, dryRun, consolidate.Options{ProjectRoot: e.root})
	if err != nil {
		return nil, err
	}
	return &OperationResult{
		ModifiedFiles: res.ModifiedFiles,
		EditsApplied:  res.ImportsUpdated,
		Success:       !res.PartialImportUpdate,
		DryRun:        res.DryRun,
		Warnings:      res.Warnings,
	}, nil
}

// RenameSymbol is the rename_symbol entry point (spec §6). It looks up
// the owning plugin and probes SupportsRefactoring("rename_symbol"),
// and performs no rename: it returns NotFound when no plugin owns file
// and InvalidRequest otherwise, including when the plugin answers true,
// because [plugin.RefactoringProvider] has no symbol-rename method to
// call.
func (e *Engine) RenameSymbol(ctx context.Context, file, oldName, newName string) (*OperationResult, error) {
	p := e.registry.ForFile(file)
	if p == nil {
		return nil, errs.New(errs.NotFound, "no plugin owns file %s", file).WithPath(file)
	}
	rp := p.RefactoringProvider()
	if rp == nil || !rp.SupportsRefactoring("rename_symbol") {
		return nil, errs.New(errs.InvalidRequest, "plugin for %s does not support rename_symbol", file).WithPath(file)
	}
	return nil, errs.New(errs.InvalidRequest, "rename_symbol is not implemented by the generic refactoring provider; the owning plugin must expose a dedicated symbol-rename method").WithPath(file)
}
