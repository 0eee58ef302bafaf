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

// Package manifest implements generic package-manifest parsing and
// dependency merging shared by the Package-Consolidation Orchestrator
// (C11) and by ecosystem plugins. A [Manifest] is a minimal, format-
// agnostic view over a manifest file: a package name, a set of
// dependency name/version-constraint pairs, and the raw text so
// textual edits can be applied without a full round-trip encoder.
package manifest

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Manifest is a generic view over a single package manifest file
// (Cargo.toml, package.json, go.mod, pyproject.toml, ...). Plugins
// parse their ecosystem's native format into this shape; C11 operates
// purely in terms of it so the orchestrator needs no per-ecosystem
// branching.
type Manifest struct {
	PackageName string

	// IsPackage is true when this manifest declares a single package
	// (has a name, can be depended on). IsWorkspace is true when it
	// additionally (or instead) declares a set of member packages.
	// Most ecosystems' manifests are exactly one of the two; Cargo
	// workspaces can be both at once.
	IsPackage        bool
	IsWorkspace      bool
	WorkspaceMembers []string

	// Sections maps a canonical section name (see Section* constants)
	// to its dependency-name -> version-constraint entries. A plugin's
	// ParseManifest/SerializeManifest is responsible for translating to
	// and from its ecosystem's native section names.
	Sections map[string]map[string]string

	Raw string
}

// Canonical dependency-section names C11 iterates over (spec §4.11
// step 4: "for each dependency section (regular, dev, build)").
const (
	SectionDependencies      = "dependencies"
	SectionDevDependencies   = "dev-dependencies"
	SectionBuildDependencies = "build-dependencies"
)

// Sections is the canonical iteration order for dependency merging and
// dependent-manifest rewriting.
var Sections = []string{SectionDependencies, SectionDevDependencies, SectionBuildDependencies}

// RemoveWorkspaceMember returns members with relPath removed, and
// whether it was present.
func RemoveWorkspaceMember(members []string, relPath string) ([]string, bool) {
	for i, m := range members {
		if m == relPath {
			out := make([]string, 0, len(members)-1)
			out = append(out, members[:i]...)
			out = append(out, members[i+1:]...)
			return out, true
		}
	}
	return members, false
}

// MergeDependencies merges src's dependencies into dst, preferring the
// higher semantic version on conflict (spec §4.11: "merging takes the
// more permissive/higher of the two constraints"). Constraints that
// aren't valid semver (path/workspace dependencies, git refs) are left
// as whichever dst already had, since there's no principled way to
// compare them; src's entry is only added if dst had no entry at all
// (grounded on the original's merge_cargo_dependencies, which always
// prefers an existing explicit version over inferring one).
func MergeDependencies(dst, src map[string]string) map[string]string {
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for name, srcVer := range src {
		dstVer, exists := out[name]
		if !exists {
			out[name] = srcVer
			continue
		}
		if higher, ok := higherVersion(dstVer, srcVer); ok {
			out[name] = higher
		}
	}
	return out
}

func higherVersion(a, b string) (string, bool) {
	av, bv := normalizeSemver(a), normalizeSemver(b)
	if av == "" || bv == "" {
		return "", false
	}
	if semver.Compare(av, bv) >= 0 {
		return a, true
	}
	return b, true
}

// normalizeSemver strips common non-semver prefixes (^, ~, =, >=) that
// ecosystem manifests use, and ensures the stdlib-expected leading "v"
// golang.org/x/mod/semver requires. Returns "" if the remainder still
// isn't valid semver.
func normalizeSemver(constraint string) string {
	s := strings.TrimSpace(constraint)
	s = strings.TrimLeft(s, "^~=><")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return ""
	}
	return s
}

// WouldCreateCircularDependency reports whether depending on depName
// from within targetName would close a dependency cycle. A
// self-dependency always qualifies; beyond that, cycles caused by
// transitive relationships the manifest alone can't see are reported
// by consulting a caller-supplied table of known (dependency, target)
// pairs rather than by building a full dependency graph (spec §9 Open
// Question resolution: see DESIGN.md).
func WouldCreateCircularDependency(depName, targetName string, known [][2]string) bool {
	if depName == targetName {
		return true
	}
	for _, pair := range known {
		if pair[0] == depName && pair[1] == targetName {
			return true
		}
	}
	return false
}

// HasModuleDeclaration reports whether content already declares
// moduleName as a submodule, matching either of the two spellings the
// original guards against ("pub mod x;" and "pub mod x ;").
func HasModuleDeclaration(content, moduleName string) bool {
	decl := fmt.Sprintf("pub mod %s;", moduleName)
	spaced := fmt.Sprintf("pub mod %s ;", moduleName)
	return strings.Contains(content, decl) || strings.Contains(content, spaced)
}

// InsertModuleDeclaration returns content with "pub mod moduleName;"
// inserted after the last existing `mod`/`pub mod` declaration block
// (or at the top if there is none), and reports whether it made a
// change (false if the declaration was already present). Grounded on
// the original's add_module_declaration: insertion point tracking
// stops at the first non-comment, non-blank line following a run of
// mod declarations.
func InsertModuleDeclaration(content, moduleName string) (string, bool) {
	if HasModuleDeclaration(content, moduleName) {
		return content, false
	}

	declaration := fmt.Sprintf("pub mod %s;", moduleName)
	hadTrailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")

	insertAt := 0
	foundModDecl := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		isModLine := strings.HasPrefix(trimmed, "pub mod ") || strings.HasPrefix(trimmed, "mod ")
		if isModLine {
			insertAt = i + 1
			foundModDecl = true
			continue
		}
		if foundModDecl && trimmed != "" && !strings.HasPrefix(trimmed, "//") {
			break
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, declaration)
	out = append(out, lines[insertAt:]...)

	joined := strings.Join(out, "\n")
	if hadTrailingNewline && !strings.HasSuffix(joined, "\n") {
		joined += "\n"
	}
	return joined, true
}
