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

// Package rust is the Cargo-ecosystem language plugin: ".rs" sources,
// "Cargo.toml" manifests, "pub mod"/"mod" submodule declarations, and
// "crate_name::" path-qualified references. It opts into the
// Package-Consolidation Orchestrator (C11), as the web plugin also
// does; Cargo's workspace/crate model is the ecosystem that operation
// was grounded on.
package rust

import (
	"regexp"
	"strings"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refactor"
)

// Plugin implements [plugin.Plugin] for Rust/Cargo source files.
type Plugin struct {
	refactoring *refactor.Engine
}

// New returns a ready-to-register Rust plugin.
func New() *Plugin {
	return &Plugin{refactoring: refactor.NewEngine(refactor.RustConfig())}
}

var _ plugin.Plugin = (*Plugin)(nil)

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "rust", Extensions: []string{".rs"}, ManifestFilename: "Cargo.toml"}
}

func (p *Plugin) HandlesExtension(ext string) bool {
	return strings.EqualFold(strings.TrimPrefix(ext, "."), "rs")
}

// pathQualifier matches a crate-qualified path reference, e.g.
// "old_crate::thing" or "old_crate :: thing" (rustfmt tolerates the
// spaced form), capturing nothing beyond the crate name itself since
// the replacement only ever touches the segment before "::".
func pathQualifier(crateName string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(crateName) + `\s*::`)
}

// RewriteFileReferences rewrites every "old_crate_name::" qualifier in
// content to "new_import_prefix::" and every bare "extern crate
// old_crate_name;" declaration to the new name, grounded on the
// reference updater's crate-qualified-path rewrite pass (spec §4.7).
// RenameInfo carries the crate identifiers rather than oldPath/newPath
// directly, since Rust references crates by name, not by file path.
func (p *Plugin) RewriteFileReferences(content, oldPath, newPath, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	oldName := info.String(core.KeyOldCrateName)
	newPrefix := info.String(core.KeyNewImportPrefix)
	if oldName == "" || newPrefix == "" {
		return content, 0, false
	}

	total := 0
	out := pathQualifier(oldName).ReplaceAllStringFunc(content, func(string) string {
		total++
		return newPrefix + "::"
	})

	oldExternDecl := "extern crate " + oldName + ";"
	if strings.Contains(out, oldExternDecl) {
		newName := info.String(core.KeyNewCrateName)
		if newName == "" {
			newName = newPrefix
		}
		n := strings.Count(out, oldExternDecl)
		out = strings.ReplaceAll(out, oldExternDecl, "extern crate "+newName+";")
		total += n
	}

	return out, total, total > 0
}

// RewriteFileReferencesBatch applies RewriteFileReferences once per
// rename (C11 directory moves rewrite many crate-qualified paths per
// file in one pass); Rust's textual rewrite has no shortcut over the
// default loop.
func (p *Plugin) RewriteFileReferencesBatch(content string, renames []plugin.Rename, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	return plugin.LoopingBatch(p, content, renames, currentFile, projectRoot, info)
}

// ReferenceDetector returns nil: the generic content-scan detector
// (C6) already finds "crate_name::" occurrences without a dedicated
// fast path.
func (p *Plugin) ReferenceDetector() plugin.ReferenceDetector { return nil }

// ImportAdvancedSupport returns nil: Cargo.toml dependency edits go
// through [plugin.ManifestSupport] (C11's own merge path), not a
// source-file import rewrite.
func (p *Plugin) ImportAdvancedSupport() plugin.ImportAdvancedSupport { return nil }

// PathAliasResolver returns nil: Cargo has no path-alias configuration
// equivalent to tsconfig's "paths".
func (p *Plugin) PathAliasResolver() plugin.AliasResolver { return nil }

// RefactoringProvider returns the generic extract/inline engine
// configured for Rust syntax.
func (p *Plugin) RefactoringProvider() plugin.RefactoringProvider { return p.refactoring }

// Lifecycle returns nil: this plugin keeps no open-file state.
func (p *Plugin) Lifecycle() plugin.Lifecycle { return nil }

// ManifestSupport returns the Cargo.toml conventions C11 consolidates
// against.
func (p *Plugin) ManifestSupport() plugin.ManifestSupport { return cargoManifest{} }
