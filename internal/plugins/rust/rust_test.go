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
	"testing"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/manifest"
)

func TestRewriteFileReferencesQualifiedPath(t *testing.T) {
	p := New()
	content := "use old_crate::helper;\n\nfn main() {\n    old_crate::helper();\n}\n"
	info := core.RenameInfo{
		core.KeyOldCrateName:    "old_crate",
		core.KeyNewImportPrefix: "new_crate",
	}

	out, n, ok := p.RewriteFileReferences(content, "", "", "main.rs", "", info)
	if !ok {
		t.Fatal("expected a change")
	}
	if n != 2 {
		t.Fatalf("expected 2 replacements, got %d", n)
	}
	want := "use new_crate::helper;\n\nfn main() {\n    new_crate::helper();\n}\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRewriteFileReferencesNoMatch(t *testing.T) {
	p := New()
	info := core.RenameInfo{core.KeyOldCrateName: "old_crate", core.KeyNewImportPrefix: "new_crate"}
	out, n, ok := p.RewriteFileReferences("fn main() {}\n", "", "", "main.rs", "", info)
	if ok || n != 0 || out != "fn main() {}\n" {
		t.Fatalf("expected no-op, got (%q, %d, %v)", out, n, ok)
	}
}

func TestCargoManifestParseAndSerialize(t *testing.T) {
	m := cargoManifest{}
	content := `
[package]
name = "widgets"
version = "0.1.0"

[dependencies]
serde = "1.0.0"

[dev-dependencies]
mockall = "0.11.0"
`
	parsed, err := m.ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if parsed.PackageName != "widgets" || !parsed.IsPackage {
		t.Fatalf("unexpected package fields: %+v", parsed)
	}
	if parsed.Sections[manifest.SectionDependencies]["serde"] != "1.0.0" {
		t.Fatalf("expected serde dependency, got %+v", parsed.Sections)
	}

	out := m.SerializeManifest(parsed)
	reparsed, err := m.ParseManifest(out)
	if err != nil {
		t.Fatalf("ParseManifest(serialized): %v\n%s", err, out)
	}
	if reparsed.PackageName != "widgets" {
		t.Fatalf("round-trip lost package name: %+v", reparsed)
	}
	if reparsed.Sections[manifest.SectionDependencies]["serde"] != "1.0.0" {
		t.Fatalf("round-trip lost serde dependency: %+v", reparsed.Sections)
	}
}

func TestCargoManifestModuleDeclaration(t *testing.T) {
	m := cargoManifest{}
	content := "pub mod existing;\n"
	if m.HasModuleDeclaration(content, "moved") {
		t.Fatal("did not expect moved to be declared yet")
	}
	out, changed := m.InsertModuleDeclaration(content, "moved")
	if !changed {
		t.Fatal("expected InsertModuleDeclaration to report a change")
	}
	if !m.HasModuleDeclaration(out, "moved") {
		t.Fatalf("expected moved module declared in %q", out)
	}
}

func TestCargoManifestWorkspaceRoundTrip(t *testing.T) {
	m := cargoManifest{}
	content := `
[workspace]
members = ["crates/a", "crates/b"]
`
	parsed, err := m.ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if !parsed.IsWorkspace || len(parsed.WorkspaceMembers) != 2 {
		t.Fatalf("unexpected workspace fields: %+v", parsed)
	}
}
