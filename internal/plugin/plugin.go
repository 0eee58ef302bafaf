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

// Package plugin defines the language-plugin contract (spec §4.4) and
// the Plugin Registry (C4) that maps file extensions to plugin
// handles. Plugins are modeled as a capability set: a fixed set of
// methods plus optional capability accessors that return nil when a
// plugin does not implement that capability. There is no runtime
// downcasting — callers dispatch purely through the capability table
// (spec §9).
package plugin

import (
	"context"

	"github.com/typemill-go/refactorctl/internal/core"
)

// Metadata describes a plugin's identity and the ecosystem it serves.
type Metadata struct {
	Name             string
	Extensions       []string
	ManifestFilename string // empty if this ecosystem has no manifest file
}

// Plugin is the fixed capability set every language plugin exposes
// (spec §4.4). Optional capabilities return nil when unimplemented;
// callers must nil-check before use rather than type-asserting.
type Plugin interface {
	Metadata() Metadata
	HandlesExtension(ext string) bool

	// RewriteFileReferences rewrites every reference in content that
	// points at oldPath to point at newPath. It returns ok=false when
	// no change is applicable, and newContent with changeCount >= 1
	// when changes were made. The function is pure: no I/O.
	RewriteFileReferences(content, oldPath, newPath, currentFile, projectRoot string, renameInfo core.RenameInfo) (newContent string, changeCount int, ok bool)

	// RewriteFileReferencesBatch is the same operation across many
	// renames in one call, used for directory moves. The default
	// behavior (see [LoopingBatch]) is to loop calling
	// RewriteFileReferences once per rename; plugins with a more
	// efficient batched implementation may override this directly.
	RewriteFileReferencesBatch(content string, renames []Rename, currentFile, projectRoot string, renameInfo core.RenameInfo) (newContent string, changeCount int, ok bool)

	// ReferenceDetector returns the plugin's fast-path detector, or nil
	// to fall back to the generic detector (C6).
	ReferenceDetector() ReferenceDetector

	// ImportAdvancedSupport returns the plugin's AST-level dependency
	// update interpreter, or nil if this plugin has none.
	ImportAdvancedSupport() ImportAdvancedSupport

	// PathAliasResolver returns the plugin's ecosystem alias resolver
	// (C9), or nil if this ecosystem has no alias configuration.
	PathAliasResolver() AliasResolver

	// RefactoringProvider returns the plugin's extract/inline engine
	// (C10), or nil if this plugin does not opt into refactorings.
	RefactoringProvider() RefactoringProvider

	// Lifecycle returns the plugin's file-open/save/close notification
	// hooks, or nil if this plugin doesn't care about them.
	Lifecycle() Lifecycle

	// ManifestSupport returns the plugin's package-manifest conventions
	// for the Package-Consolidation Orchestrator (C11), or nil if this
	// ecosystem cannot be consolidated.
	ManifestSupport() ManifestSupport
}

// Rename is a single (old, new) path pair used by batch rewrites and
// directory-level reference detection.
type Rename struct {
	Old string
	New string
}

// ReferenceDetector is a plugin-specific fast path for "which files
// reference this path?", used in preference to the generic detector
// when present (spec §4.4, §4.7 step 4).
type ReferenceDetector interface {
	// DetectReferences returns the subset of candidateFiles that
	// reference oldPath, according to this plugin's own understanding
	// of its ecosystem's import syntax.
	DetectReferences(ctx context.Context, oldPath string, candidateFiles []string, projectRoot string, renameInfo core.RenameInfo) ([]string, error)

	// Imports enumerates the import specifiers found in content,
	// without resolving them; used by the generic detector's
	// plugin-reported-imports pass (spec §4.6 step 2).
	Imports(content, filePath string) []string
}

// ImportAdvancedSupport interprets a [core.DependencyUpdate] by
// mutating AST-level imports rather than text (spec §4.4).
type ImportAdvancedSupport interface {
	ApplyDependencyUpdate(content string, update core.DependencyUpdate) (newContent string, changed bool, err error)
}

// Lifecycle notifies a plugin of editor-level file events. These are
// pure notifications: no return value influences the engine.
type Lifecycle interface {
	FileOpened(path string)
	FileSaved(path string)
	FileClosed(path string)
}

// LoopingBatch is the default implementation of
// RewriteFileReferencesBatch described in spec §4.4: loop over renames
// calling rewrite once per pair, accumulating the total change count.
// Plugins call this from RewriteFileReferencesBatch to get the default
// without reimplementing it, and
// override the method directly when they have a more efficient batched
// form.
func LoopingBatch(p Plugin, content string, renames []Rename, currentFile, projectRoot string, renameInfo core.RenameInfo) (string, int, bool) {
	total := 0
	cur := content
	for _, r := range renames {
		next, n, ok := p.RewriteFileReferences(cur, r.Old, r.New, currentFile, projectRoot, renameInfo)
		if ok {
			cur = next
			total += n
		}
	}
	return cur, total, total > 0
}
