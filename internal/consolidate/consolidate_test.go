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

package consolidate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/typemill-go/refactorctl/internal/applicator"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/detector"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/locks"
	"github.com/typemill-go/refactorctl/internal/manifest"
	"github.com/typemill-go/refactorctl/internal/opqueue"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refupdate"
	"github.com/typemill-go/refactorctl/internal/testutil"
	"github.com/typemill-go/refactorctl/internal/walker"
)

// toyPlugin is a minimal Rust-flavored test double: ".rs" source files,
// "Toy.toml" manifests shaped like a simplified Cargo.toml, and
// "pub mod x;" module declarations.
type toyPlugin struct{}

func (toyPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "toy", Extensions: []string{".rs"}, ManifestFilename: "Toy.toml"}
}
func (toyPlugin) HandlesExtension(ext string) bool { return ext == ".rs" }
func (toyPlugin) RewriteFileReferences(content, oldPath, newPath, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	oldName := info.String(core.KeyOldCrateName)
	newPrefix := info.String(core.KeyNewImportPrefix)
	if oldName == "" || !strings.Contains(content, oldName+"::") {
		return content, 0, false
	}
	n := strings.Count(content, oldName+"::")
	return strings.ReplaceAll(content, oldName+"::", newPrefix+"::"), n, true
}
func (toyPlugin) RewriteFileReferencesBatch(content string, renames []plugin.Rename, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	return plugin.LoopingBatch(toyPlugin{}, content, renames, currentFile, projectRoot, info)
}
func (toyPlugin) ReferenceDetector() plugin.ReferenceDetector         { return nil }
func (toyPlugin) ImportAdvancedSupport() plugin.ImportAdvancedSupport { return nil }
func (toyPlugin) PathAliasResolver() plugin.AliasResolver             { return nil }
func (toyPlugin) RefactoringProvider() plugin.RefactoringProvider     { return nil }
func (toyPlugin) Lifecycle() plugin.Lifecycle                         { return nil }
func (toyPlugin) ManifestSupport() plugin.ManifestSupport             { return toyManifestSupport{} }

var _ plugin.Plugin = toyPlugin{}

type toyManifestSupport struct{}

func (toyManifestSupport) SourceDir() string             { return "src" }
func (toyManifestSupport) EntryFileName() string         { return "lib.rs" }
func (toyManifestSupport) DirectoryEntryFileName() string { return "mod.rs" }

// ParseManifest understands a tiny synthetic format:
//
//	name = foo
//	workspace = true          (optional)
//	members = a, b, c         (optional, only if workspace)
//	dep:serde = 1.0.0
//	devdep:mockall = 0.11.0
func (toyManifestSupport) ParseManifest(content string) (manifest.Manifest, error) {
	m := manifest.Manifest{Sections: map[string]map[string]string{}, Raw: content}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch {
		case key == "name":
			m.PackageName = val
			m.IsPackage = true
		case key == "workspace":
			m.IsWorkspace = val == "true"
		case key == "members":
			for _, mem := range strings.Split(val, ",") {
				m.WorkspaceMembers = append(m.WorkspaceMembers, strings.TrimSpace(mem))
			}
		case strings.HasPrefix(key, "dep:"):
			if m.Sections[manifest.SectionDependencies] == nil {
				m.Sections[manifest.SectionDependencies] = map[string]string{}
			}
			m.Sections[manifest.SectionDependencies][strings.TrimPrefix(key, "dep:")] = val
		case strings.HasPrefix(key, "devdep:"):
			if m.Sections[manifest.SectionDevDependencies] == nil {
				m.Sections[manifest.SectionDevDependencies] = map[string]string{}
			}
			m.Sections[manifest.SectionDevDependencies][strings.TrimPrefix(key, "devdep:")] = val
		}
	}
	return m, nil
}

func (toyManifestSupport) SerializeManifest(m manifest.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name = %s\n", m.PackageName)
	if m.IsWorkspace {
		b.WriteString("workspace = true\n")
		if len(m.WorkspaceMembers) > 0 {
			fmt.Fprintf(&b, "members = %s\n", strings.Join(m.WorkspaceMembers, ", "))
		}
	}
	for name, ver := range m.Sections[manifest.SectionDependencies] {
		fmt.Fprintf(&b, "dep:%s = %s\n", name, ver)
	}
	for name, ver := range m.Sections[manifest.SectionDevDependencies] {
		fmt.Fprintf(&b, "devdep:%s = %s\n", name, ver)
	}
	return b.String()
}

func (toyManifestSupport) ModuleDeclaration(name string) string { return fmt.Sprintf("pub mod %s;", name) }
func (toyManifestSupport) HasModuleDeclaration(content, name string) bool {
	return manifest.HasModuleDeclaration(content, name)
}
func (toyManifestSupport) InsertModuleDeclaration(content, name string) (string, bool) {
	return manifest.InsertModuleDeclaration(content, name)
}

var _ plugin.ManifestSupport = toyManifestSupport{}

func newTestOrchestrator(root string) *Orchestrator {
	registry := plugin.NewRegistry()
	registry.Register(toyPlugin{})

	cache := importcache.New(time.Second)
	det := detector.New(registry, cache)
	w := walker.New(root, 0)
	upd := refupdate.New(registry, cache, det, w, 4, nil)
	app := applicator.New(opqueue.New(locks.NewManager(), nil, nil), locks.NewManager(), cache, registry, nil, nil)

	return New(registry, upd, app, w, nil)
}

func TestConsolidateMovesSourcesAndMergesManifest(t *testing.T) {
	root := t.TempDir()

	testutil.WriteArchive(t, root, `
-- Toy.toml --
name = workspace-root
workspace = true
members = crates/old-crate, crates/target-crate
-- crates/old-crate/Toy.toml --
name = old-crate
dep:serde = 1.0.0
-- crates/old-crate/src/lib.rs --
pub fn helper() {}
-- crates/old-crate/src/util.rs --
use old_crate::helper;
-- crates/target-crate/Toy.toml --
name = target-crate
-- crates/target-crate/src/lib.rs --
pub mod existing;
-- crates/other-crate/Toy.toml --
name = other-crate
dep:old-crate = 2.0.0
`)

	o := newTestOrchestrator(root)
	result, err := o.Consolidate(context.Background(), "crates/old-crate", "crates/target-crate/src/moved", false, Options{ProjectRoot: root})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "crates/old-crate")); !os.IsNotExist(err) {
		t.Fatal("expected old crate directory to be deleted")
	}
	if _, err := os.Stat(filepath.Join(root, "crates/target-crate/src/moved/mod.rs")); err != nil {
		t.Fatalf("expected lib.rs renamed to mod.rs at destination: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "crates/target-crate/src/moved/util.rs")); err != nil {
		t.Fatalf("expected util.rs moved: %v", err)
	}

	targetManifest, err := os.ReadFile(filepath.Join(root, "crates/target-crate/Toy.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(targetManifest), "dep:serde = 1.0.0") {
		t.Fatalf("expected merged dependency in target manifest, got:\n%s", targetManifest)
	}

	workspaceManifest, err := os.ReadFile(filepath.Join(root, "Toy.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(workspaceManifest), "crates/old-crate") {
		t.Fatalf("expected old-crate removed from workspace members, got:\n%s", workspaceManifest)
	}

	otherManifest, err := os.ReadFile(filepath.Join(root, "crates/other-crate/Toy.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(otherManifest), "old-crate") || !strings.Contains(string(otherManifest), "target-crate") {
		t.Fatalf("expected dependent manifest rewritten to target-crate, got:\n%s", otherManifest)
	}

	entryContent, err := os.ReadFile(filepath.Join(root, "crates/target-crate/src/lib.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(entryContent), "pub mod moved;") {
		t.Fatalf("expected module declaration added, got:\n%s", entryContent)
	}
	if !result.ModuleDeclarationAdded {
		t.Fatal("expected ModuleDeclarationAdded = true")
	}
}

func TestConsolidateDryRunMakesNoChanges(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- Toy.toml --
name = workspace-root
workspace = true
members = crates/old-crate
-- crates/old-crate/Toy.toml --
name = old-crate
-- crates/old-crate/src/lib.rs --
pub fn helper() {}
-- crates/target-crate/Toy.toml --
name = target-crate
-- crates/target-crate/src/lib.rs --

`)

	o := newTestOrchestrator(root)
	result, err := o.Consolidate(context.Background(), "crates/old-crate", "crates/target-crate/src/moved", true, Options{ProjectRoot: root})
	if err != nil {
		t.Fatalf("Consolidate (dry run) failed: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected DryRun = true")
	}
	if result.RenameInfo.SubmoduleName != "moved" || result.RenameInfo.TargetCrateName != "target-crate" {
		t.Fatalf("unexpected rename info: %+v", result.RenameInfo)
	}
	if _, err := os.Stat(filepath.Join(root, "crates/old-crate")); err != nil {
		t.Fatal("dry run must not delete the old crate directory")
	}
}
