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

package web

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/typemill-go/refactorctl/internal/manifest"
)

// packageJSONManifest implements [plugin.ManifestSupport] against the
// npm package layout: no conventional source subdirectory (npm has no
// "src" requirement the way Cargo does), no single-file entry point or
// directory-entry rename convention, and ES module re-export
// statements in place of Rust's "pub mod" declarations.
type packageJSONManifest struct{}

func (packageJSONManifest) SourceDir() string             { return "" }
func (packageJSONManifest) EntryFileName() string          { return "" }
func (packageJSONManifest) DirectoryEntryFileName() string { return "" }

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Workspaces      []string          `json:"workspaces,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// ParseManifest decodes a package.json into the generic
// [manifest.Manifest] shape. npm has no build-dependencies section, so
// [manifest.SectionBuildDependencies] is always left empty.
func (packageJSONManifest) ParseManifest(content string) (manifest.Manifest, error) {
	var doc packageJSON
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return manifest.Manifest{}, fmt.Errorf("parsing package.json: %w", err)
	}
	return manifest.Manifest{
		PackageName:      doc.Name,
		IsPackage:        doc.Name != "",
		IsWorkspace:      len(doc.Workspaces) > 0,
		WorkspaceMembers: doc.Workspaces,
		Sections: map[string]map[string]string{
			manifest.SectionDependencies:      doc.Dependencies,
			manifest.SectionDevDependencies:    doc.DevDependencies,
			manifest.SectionBuildDependencies: {},
		},
		Raw: content,
	}, nil
}

// SerializeManifest renders m back to package.json syntax, with
// dependency keys sorted for deterministic output (npm's own tooling
// keeps package.json dependencies alphabetized by convention).
func (packageJSONManifest) SerializeManifest(m manifest.Manifest) string {
	doc := packageJSON{
		Name:            m.PackageName,
		Version:         "0.1.0",
		Workspaces:      m.WorkspaceMembers,
		Dependencies:    sortedCopy(m.Sections[manifest.SectionDependencies]),
		DevDependencies: sortedCopy(m.Sections[manifest.SectionDevDependencies]),
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return m.Raw
	}
	return string(out) + "\n"
}

func sortedCopy(deps map[string]string) map[string]string {
	if len(deps) == 0 {
		return nil
	}
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]string, len(deps))
	for _, name := range names {
		out[name] = deps[name]
	}
	return out
}

// ModuleDeclaration renders a barrel re-export statement, the npm
// ecosystem's closest analog to Cargo's "pub mod" submodule
// declaration.
func (packageJSONManifest) ModuleDeclaration(name string) string {
	return fmt.Sprintf("export * from './%s';", name)
}

func (packageJSONManifest) HasModuleDeclaration(content, name string) bool {
	decl := fmt.Sprintf("export * from './%s';", name)
	return strings.Contains(content, decl)
}

func (packageJSONManifest) InsertModuleDeclaration(content, name string) (string, bool) {
	decl := fmt.Sprintf("export * from './%s';", name)
	if strings.Contains(content, decl) {
		return content, false
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + decl + "\n", true
}
