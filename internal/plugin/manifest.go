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

import "github.com/typemill-go/refactorctl/internal/manifest"

// ManifestSupport exposes the ecosystem conventions the Package-
// Consolidation Orchestrator (C11) needs but that vary per ecosystem:
// where sources live under a package root, what its directory-module
// entry file is called, how its manifest is parsed and serialized, and
// how a submodule declaration is spelled and detected. A plugin that
// returns nil from [Plugin.ManifestSupport] cannot be consolidated.
type ManifestSupport interface {
	// SourceDir is the conventional source root under a package
	// directory, e.g. "src".
	SourceDir() string

	// EntryFileName is the package's single-file entry point, e.g.
	// "lib.rs". Empty if this ecosystem has none.
	EntryFileName() string

	// DirectoryEntryFileName is what EntryFileName is renamed to when
	// its package becomes a submodule directory of another, e.g.
	// "mod.rs". Empty if the ecosystem has no such rename convention,
	// in which case C11 skips the rename step entirely.
	DirectoryEntryFileName() string

	// ParseManifest parses a manifest file's content into the generic
	// [manifest.Manifest] shape.
	ParseManifest(content string) (manifest.Manifest, error)

	// SerializeManifest renders m back to this ecosystem's manifest
	// format.
	SerializeManifest(m manifest.Manifest) string

	// ModuleDeclaration renders the statement that makes name a visible
	// submodule, e.g. "pub mod foo;".
	ModuleDeclaration(name string) string

	// HasModuleDeclaration reports whether content already declares
	// name as a submodule.
	HasModuleDeclaration(content, name string) bool

	// InsertModuleDeclaration inserts ModuleDeclaration(name) into
	// content at the ecosystem's conventional insertion point, and
	// reports whether a change was made.
	InsertModuleDeclaration(content, name string) (string, bool)
}
