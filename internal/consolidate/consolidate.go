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

// Package consolidate implements the Package-Consolidation Orchestrator
// (C11): moving an entire ecosystem package into a submodule of another
// package, merging manifests, pruning workspace members, rewriting
// dependent manifests, and updating in-code imports (spec §4.11).
package consolidate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/typemill-go/refactorctl/internal/applicator"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
	"github.com/typemill-go/refactorctl/internal/manifest"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refupdate"
	"github.com/typemill-go/refactorctl/internal/walker"
)

// Orchestrator is the Package-Consolidation Orchestrator (C11). It
// composes the Reference Updater (C7) and Edit-Plan Applicator (C8)
// rather than duplicating their logic; its own job is the sequence of
// filesystem and manifest steps spec §4.11 specifies around them.
type Orchestrator struct {
	registry   *plugin.Registry
	updater    *refupdate.Updater
	applicator *applicator.Applicator
	walker     *walker.Walker
	logger     *slog.Logger
}

// New returns an Orchestrator.
func New(registry *plugin.Registry, updater *refupdate.Updater, app *applicator.Applicator, w *walker.Walker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{registry: registry, updater: updater, applicator: app, walker: w, logger: logger}
}

// Options configures a single consolidation.
type Options struct {
	ProjectRoot string

	// CircularDeps is the caller-supplied table of (dependency, target)
	// name pairs that would close a cycle if merged, consulted by
	// [manifest.WouldCreateCircularDependency] (spec §4.11 step 4's
	// Open Question: see DESIGN.md).
	CircularDeps [][2]string
}

// RenameInfo is the consolidation-specific rename metadata computed
// from the old package's manifest and the new location (spec §4.11
// step 1), merged into the [core.RenameInfo] passed to the Reference
// Updater and into plugin rewrite calls.
type RenameInfo struct {
	OldCrateName    string
	NewImportPrefix string
	SubmoduleName   string
	TargetCrateName string
}

func (r RenameInfo) toCore() core.RenameInfo {
	return core.RenameInfo{
		core.KeyOldCrateName:    r.OldCrateName,
		core.KeyNewImportPrefix: r.NewImportPrefix,
		core.KeySubmoduleName:   r.SubmoduleName,
		core.KeyTargetCrateName: r.TargetCrateName,
	}
}

// Result summarizes what a consolidation did (or, for a dry run, would
// do).
type Result struct {
	DryRun                 bool
	RenameInfo             RenameInfo
	FilesMoved             []string
	ManifestsUpdated       []string
	ModuleDeclarationAdded bool
	ImportsUpdated         int
	ModifiedFiles          []string

	// PartialImportUpdate is set when the physical move, manifest
	// merge, and workspace prune all succeeded but the post-move import
	// rewrite (step 8) or module declaration (step 9) failed (spec §7:
	// "consolidation succeeded but import updates partial").
	PartialImportUpdate bool
	Warnings            []string
}

// Consolidate moves oldPackagePath into newPackagePath as a submodule
// (spec §4.11). Failures before the old directory is deleted abort with
// no filesystem changes surviving beyond what already landed; failures
// after it is deleted downgrade to a partial-success [Result] rather
// than attempting to undo the move (spec §7's staged error policy for
// C11 — unlike C8, consolidation has no snapshot to roll back to once
// files have been relocated across directories).
func (o *Orchestrator) Consolidate(ctx context.Context, oldPackagePath, newPackagePath string, dryRun bool, opts Options) (*Result, error) {
	oldAbs := o.toAbsolute(opts.ProjectRoot, oldPackagePath)
	newAbs := o.toAbsolute(opts.ProjectRoot, newPackagePath)
	o.logger.Info("consolidating package", "old_path", oldAbs, "new_path", newAbs, "dry_run", dryRun)

	p, manifestFilename := o.findManifestPlugin(oldAbs)
	if p == nil {
		return nil, errs.New(errs.InvalidRequest, "no plugin claims the manifest in %s", oldAbs).WithPath(oldAbs)
	}
	ms := p.ManifestSupport()
	if ms == nil {
		return nil, errs.New(errs.InvalidRequest, "plugin %s does not support consolidation", p.Metadata().Name).WithPath(oldAbs)
	}

	oldManifestPath := filepath.Join(oldAbs, manifestFilename)
	if _, err := os.Stat(oldManifestPath); err != nil {
		return nil, errs.Wrap(errs.InvalidRequest, err, "source is not a package (no %s)", manifestFilename).WithPath(oldAbs)
	}
	oldSrcDir := filepath.Join(oldAbs, ms.SourceDir())
	if _, err := os.Stat(oldSrcDir); err != nil {
		return nil, errs.Wrap(errs.NotFound, err, "source directory does not have a %s folder", ms.SourceDir()).WithPath(oldAbs)
	}

	renameInfo, err := o.computeRenameInfo(oldManifestPath, newAbs, ms, manifestFilename, opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	if dryRun {
		return &Result{DryRun: true, RenameInfo: renameInfo}, nil
	}

	// Step 2: move source files.
	moved, err := moveSourceTree(oldSrcDir, newAbs)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, err, "failed to move source files").WithPath(oldSrcDir)
	}

	// Step 3: rename the entry-point file for directory-module
	// conventions, e.g. lib.rs -> mod.rs.
	if entry, dirEntry := ms.EntryFileName(), ms.DirectoryEntryFileName(); entry != "" && dirEntry != "" {
		oldEntry := filepath.Join(newAbs, entry)
		if _, statErr := os.Stat(oldEntry); statErr == nil {
			if err := os.Rename(oldEntry, filepath.Join(newAbs, dirEntry)); err != nil {
				return nil, errs.Wrap(errs.IOFailure, err, "failed to rename %s to %s", entry, dirEntry).WithPath(oldEntry)
			}
		}
	}

	// Step 4: merge manifest dependencies into the nearest ancestor
	// package manifest.
	targetManifestPath, err := findParentManifest(newAbs, manifestFilename, opts.ProjectRoot, ms)
	var manifestsUpdated []string
	var warnings []string
	if err != nil {
		o.logger.Warn("could not locate target package manifest for dependency merge", "error", err)
		warnings = append(warnings, "could not locate target package manifest for dependency merge: "+err.Error())
	} else {
		if err := mergeManifestDependencies(oldManifestPath, targetManifestPath, ms, opts.CircularDeps); err != nil {
			return nil, errs.Wrap(errs.IOFailure, err, "failed to merge manifest dependencies").WithPath(targetManifestPath)
		}
		manifestsUpdated = append(manifestsUpdated, targetManifestPath)
	}

	// Step 5: remove the old package from the workspace members list.
	if err := removeFromWorkspaceMembers(oldAbs, opts.ProjectRoot, manifestFilename, ms); err != nil {
		o.logger.Warn("failed to update workspace manifest", "error", err)
		warnings = append(warnings, "failed to update workspace manifest: "+err.Error())
	}

	// Step 6: rewrite every other manifest in the workspace that
	// depended on the old package.
	targetCrateName := renameInfo.TargetCrateName
	updatedDependents, err := o.updateDependentManifests(ctx, oldAbs, opts.ProjectRoot, manifestFilename, renameInfo.OldCrateName, targetCrateName, ms)
	if err != nil {
		o.logger.Warn("failed to update some dependent manifests, continuing with consolidation", "error", err)
		warnings = append(warnings, "failed to update some dependent manifests: "+err.Error())
	}
	manifestsUpdated = append(manifestsUpdated, updatedDependents...)

	// Step 7: delete the old package directory. This is the point of
	// no return: everything after this cannot be rolled back by
	// restoring old_package_path, so failures from here on downgrade to
	// partial success instead of returning an error (spec §7).
	if err := os.RemoveAll(oldAbs); err != nil {
		return nil, errs.Wrap(errs.IOFailure, err, "failed to delete old package directory").WithPath(oldAbs)
	}

	result := &Result{RenameInfo: renameInfo, FilesMoved: moved, ManifestsUpdated: manifestsUpdated, Warnings: warnings}

	// Step 8: update imports across the workspace via the Reference
	// Updater, using virtual old/new entry paths as the rename anchor
	// (spec §4.11 step 8).
	virtualOld := filepath.Join(oldAbs, ms.SourceDir(), firstNonEmpty(ms.EntryFileName(), "mod"))
	virtualNew := filepath.Join(newAbs, firstNonEmpty(ms.EntryFileName(), "mod"))
	plan, err := o.updater.UpdateReferences(ctx, refupdate.Request{
		OldPath:     virtualOld,
		NewPath:     virtualNew,
		Kind:        refupdate.KindPackage,
		ProjectRoot: opts.ProjectRoot,
		Scope:       core.RenameScope{UpdateAll: true, UpdateCode: true},
		Info:        renameInfo.toCore(),
	})
	if err != nil {
		result.PartialImportUpdate = true
		result.Warnings = append(result.Warnings, "failed to create import update plan, but consolidation succeeded: "+err.Error())
		return result, nil
	}
	result.ImportsUpdated = len(plan.Edits)

	applyResult, err := o.applicator.Apply(ctx, plan)
	if err != nil {
		result.PartialImportUpdate = true
		result.Warnings = append(result.Warnings, "failed to apply import updates, but consolidation succeeded: "+err.Error())
	} else {
		result.ModifiedFiles = applyResult.ModifiedFiles
	}

	// Step 9: add the module declaration to the target package's entry
	// file.
	targetEntry := filepath.Join(filepath.Dir(targetManifestPath), ms.SourceDir(), ms.EntryFileName())
	if targetManifestPath == "" {
		result.PartialImportUpdate = true
		result.Warnings = append(result.Warnings, "no target manifest found, module declaration not added")
	} else if ms.EntryFileName() == "" {
		// This ecosystem has no single entry file convention (e.g. a
		// directory-based module system); nothing to declare.
	} else if content, readErr := os.ReadFile(targetEntry); readErr != nil {
		result.PartialImportUpdate = true
		result.Warnings = append(result.Warnings, "target entry file not found, please add module declaration manually: "+readErr.Error())
	} else {
		newContent, added := ms.InsertModuleDeclaration(string(content), renameInfo.SubmoduleName)
		if added {
			if err := os.WriteFile(targetEntry, []byte(newContent), 0o666); err != nil {
				result.PartialImportUpdate = true
				result.Warnings = append(result.Warnings, "failed to write module declaration: "+err.Error())
			} else {
				result.ModuleDeclarationAdded = true
			}
		}
	}

	o.logger.Info("consolidation complete",
		"old_path", oldAbs, "new_path", newAbs,
		"files_moved", len(result.FilesMoved), "imports_updated", result.ImportsUpdated,
		"partial", result.PartialImportUpdate)

	return result, nil
}

func (o *Orchestrator) toAbsolute(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

// findManifestPlugin returns the plugin that owns whichever manifest
// filename is present in dir, and that filename, by checking dir's
// entries against the registry's manifest-filename index (manifest
// files aren't looked up by extension: a plugin's source extensions,
// e.g. ".rs", say nothing about its manifest's own extension).
func (o *Orchestrator) findManifestPlugin(dir string) (plugin.Plugin, string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if p := o.registry.ForManifest(e.Name()); p != nil {
			return p, e.Name()
		}
	}
	return nil, ""
}

func (o *Orchestrator) computeRenameInfo(oldManifestPath, newAbs string, ms plugin.ManifestSupport, manifestFilename, projectRoot string) (RenameInfo, error) {
	oldContent, err := os.ReadFile(oldManifestPath)
	if err != nil {
		return RenameInfo{}, errs.Wrap(errs.IOFailure, err, "failed to read old manifest").WithPath(oldManifestPath)
	}
	oldManifest, err := ms.ParseManifest(string(oldContent))
	if err != nil {
		return RenameInfo{}, errs.Wrap(errs.InvalidRequest, err, "failed to parse old manifest").WithPath(oldManifestPath)
	}
	oldCrateName := oldManifest.PackageName

	targetManifestPath, err := findParentManifest(newAbs, manifestFilename, projectRoot, ms)
	if err != nil {
		return RenameInfo{}, errs.Wrap(errs.NotFound, err, "could not find target package manifest").WithPath(newAbs)
	}
	targetContent, err := os.ReadFile(targetManifestPath)
	if err != nil {
		return RenameInfo{}, errs.Wrap(errs.IOFailure, err, "failed to read target manifest").WithPath(targetManifestPath)
	}
	targetManifest, err := ms.ParseManifest(string(targetContent))
	if err != nil {
		return RenameInfo{}, errs.Wrap(errs.InvalidRequest, err, "failed to parse target manifest").WithPath(targetManifestPath)
	}

	submoduleName := filepath.Base(newAbs)
	return RenameInfo{
		OldCrateName:    oldCrateName,
		NewImportPrefix: targetManifest.PackageName + "::" + submoduleName,
		SubmoduleName:   submoduleName,
		TargetCrateName: targetManifest.PackageName,
	}, nil
}

// moveSourceTree moves every file under srcDir to the equivalent
// relative path under destDir (spec §4.11 step 2).
func moveSourceTree(srcDir, destDir string) ([]string, error) {
	var moved []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
			return err
		}
		if err := os.Rename(path, target); err != nil {
			return err
		}
		moved = append(moved, target)
		return nil
	})
	return moved, err
}

// findParentManifest walks up from start looking for an ancestor
// directory whose manifest file declares a package, stopping at
// projectRoot (spec §4.11 step 4: "the nearest parent ancestor that is
// a real package").
func findParentManifest(start, manifestFilename, projectRoot string, ms plugin.ManifestSupport) (string, error) {
	current := start
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		candidate := filepath.Join(parent, manifestFilename)
		if content, err := os.ReadFile(candidate); err == nil {
			if m, err := ms.ParseManifest(string(content)); err == nil && m.IsPackage {
				return candidate, nil
			}
		}
		if parent == projectRoot {
			break
		}
		current = parent
	}
	return "", errs.New(errs.NotFound, "no ancestor package manifest found above %s", start)
}

// mergeManifestDependencies merges every dependency section from
// sourcePath into targetPath, skipping self- and circular dependencies
// (spec §4.11 step 4).
func mergeManifestDependencies(sourcePath, targetPath string, ms plugin.ManifestSupport, circularDeps [][2]string) error {
	sourceContent, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	targetContent, err := os.ReadFile(targetPath)
	if err != nil {
		return err
	}
	source, err := ms.ParseManifest(string(sourceContent))
	if err != nil {
		return err
	}
	target, err := ms.ParseManifest(string(targetContent))
	if err != nil {
		return err
	}

	if target.Sections == nil {
		target.Sections = make(map[string]map[string]string)
	}
	for _, section := range manifest.Sections {
		srcDeps := source.Sections[section]
		if len(srcDeps) == 0 {
			continue
		}
		filtered := make(map[string]string, len(srcDeps))
		for name, ver := range srcDeps {
			if manifest.WouldCreateCircularDependency(name, target.PackageName, circularDeps) {
				continue
			}
			filtered[name] = ver
		}
		target.Sections[section] = manifest.MergeDependencies(target.Sections[section], filtered)
	}

	return os.WriteFile(targetPath, []byte(ms.SerializeManifest(target)), 0o666)
}

// removeFromWorkspaceMembers walks up from packageDir looking for the
// workspace manifest and removes packageDir's relative path from its
// member list (spec §4.11 step 5).
func removeFromWorkspaceMembers(packageDir, projectRoot, manifestFilename string, ms plugin.ManifestSupport) error {
	current := filepath.Dir(packageDir)
	for {
		candidate := filepath.Join(current, manifestFilename)
		content, err := os.ReadFile(candidate)
		if err == nil {
			m, err := ms.ParseManifest(string(content))
			if err == nil && m.IsWorkspace {
				rel, err := filepath.Rel(current, packageDir)
				if err != nil {
					return err
				}
				rel = filepath.ToSlash(rel)
				members, removed := manifest.RemoveWorkspaceMember(m.WorkspaceMembers, rel)
				if !removed {
					return nil
				}
				m.WorkspaceMembers = members
				return os.WriteFile(candidate, []byte(ms.SerializeManifest(m)), 0o666)
			}
		}
		if current == projectRoot {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return nil
}

// updateDependentManifests scans every manifest file in the workspace
// (other than the one being deleted) and, for each that depends on the
// old package, renames the dependency key to the target package's name
// and drops any explicit path override (spec §4.11 step 6).
func (o *Orchestrator) updateDependentManifests(ctx context.Context, oldPackageDir, projectRoot, manifestFilename, oldCrateName, targetCrateName string, ms plugin.ManifestSupport) ([]string, error) {
	all, err := o.walker.List(ctx, core.RenameScope{UpdateAll: true})
	if err != nil {
		return nil, err
	}

	var updated []string
	var firstErr error
	for _, rel := range all {
		if filepath.Base(rel) != manifestFilename {
			continue
		}
		abs := filepath.Join(projectRoot, rel)
		if strings.HasPrefix(abs, oldPackageDir+string(filepath.Separator)) || abs == oldPackageDir {
			continue
		}

		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		if !strings.Contains(string(content), oldCrateName) {
			continue
		}

		m, err := ms.ParseManifest(string(content))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		changed := false
		for _, section := range manifest.Sections {
			deps := m.Sections[section]
			if deps == nil {
				continue
			}
			ver, ok := deps[oldCrateName]
			if !ok {
				continue
			}
			delete(deps, oldCrateName)
			if _, exists := deps[targetCrateName]; !exists {
				deps[targetCrateName] = ver
			}
			changed = true
		}
		if !changed {
			continue
		}
		if err := os.WriteFile(abs, []byte(ms.SerializeManifest(m)), 0o666); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated = append(updated, abs)
	}
	return updated, firstErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
