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

package rust

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/typemill-go/refactorctl/internal/manifest"
)

// cargoManifest implements [plugin.ManifestSupport] against the Cargo
// package layout: sources under "src", a single-file entry point
// "lib.rs" that becomes "mod.rs" once the crate is consolidated into a
// parent as a submodule directory, and "pub mod x;"/"mod x;"
// declarations, matching the original's cargo.rs consolidation path.
type cargoManifest struct{}

func (cargoManifest) SourceDir() string             { return "src" }
func (cargoManifest) EntryFileName() string          { return "lib.rs" }
func (cargoManifest) DirectoryEntryFileName() string { return "mod.rs" }

type cargoTOML struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Workspace struct {
		Members      []string          `toml:"members"`
		Dependencies map[string]string `toml:"dependencies"`
	} `toml:"workspace"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

// ParseManifest decodes a Cargo.toml into the generic [manifest.Manifest]
// shape. Dependency values that are inline tables (e.g. `{ path = "../foo",
// version = "1.0" }`, used for workspace path dependencies) are reduced
// to their "version" field, or "*" when absent, since C11's merge logic
// (spec §4.11) only reasons about version constraints.
func (cargoManifest) ParseManifest(content string) (manifest.Manifest, error) {
	var doc cargoTOML
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return manifest.Manifest{}, fmt.Errorf("parsing Cargo.toml: %w", err)
	}

	m := manifest.Manifest{
		PackageName:      doc.Package.Name,
		IsPackage:        doc.Package.Name != "",
		IsWorkspace:      len(doc.Workspace.Members) > 0 || len(doc.Workspace.Dependencies) > 0,
		WorkspaceMembers: doc.Workspace.Members,
		Sections:         map[string]map[string]string{},
		Raw:              content,
	}
	m.Sections[manifest.SectionDependencies] = flattenDeps(doc.Dependencies)
	m.Sections[manifest.SectionDevDependencies] = flattenDeps(doc.DevDependencies)
	m.Sections[manifest.SectionBuildDependencies] = flattenDeps(doc.BuildDependencies)
	return m, nil
}

func flattenDeps(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case string:
			out[name] = val
		case map[string]any:
			if ver, ok := val["version"].(string); ok {
				out[name] = ver
			} else {
				out[name] = "*"
			}
		default:
			out[name] = "*"
		}
	}
	return out
}

// SerializeManifest renders m back to Cargo.toml syntax. It is a plain
// textual emitter rather than a round-trip encoder: C11 only calls it
// to produce a brand-new manifest (a moved package's merged
// dependencies section), never to rewrite an existing file in place,
// so comments and formatting in a hand-edited Cargo.toml are never at
// risk of being dropped.
func (cargoManifest) SerializeManifest(m manifest.Manifest) string {
	var b strings.Builder
	if m.IsPackage {
		fmt.Fprintf(&b, "[package]\nname = %q\nversion = \"0.1.0\"\n", m.PackageName)
	}
	if m.IsWorkspace {
		b.WriteString("\n[workspace]\n")
		if len(m.WorkspaceMembers) > 0 {
			members := append([]string(nil), m.WorkspaceMembers...)
			sort.Strings(members)
			quoted := make([]string, len(members))
			for i, mem := range members {
				quoted[i] = fmt.Sprintf("%q", mem)
			}
			fmt.Fprintf(&b, "members = [%s]\n", strings.Join(quoted, ", "))
		}
	}
	writeDepSection(&b, "dependencies", m.Sections[manifest.SectionDependencies])
	writeDepSection(&b, "dev-dependencies", m.Sections[manifest.SectionDevDependencies])
	writeDepSection(&b, "build-dependencies", m.Sections[manifest.SectionBuildDependencies])
	return b.String()
}

func writeDepSection(b *strings.Builder, section string, deps map[string]string) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(b, "\n[%s]\n", section)
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "%s = %q\n", name, deps[name])
	}
}

func (cargoManifest) ModuleDeclaration(name string) string {
	return fmt.Sprintf("pub mod %s;", name)
}

func (cargoManifest) HasModuleDeclaration(content, name string) bool {
	return manifest.HasModuleDeclaration(content, name)
}

func (cargoManifest) InsertModuleDeclaration(content, name string) (string, bool) {
	return manifest.InsertModuleDeclaration(content, name)
}
