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

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/typemill-go/refactorctl/internal/config"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refactor"
)

// pyPlugin is a minimal Python-flavored test double wiring the generic
// extract/inline engine in, the same way a real ecosystem plugin
// would.
type pyPlugin struct {
	rp *refactor.Engine
}

func (p pyPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "py", Extensions: []string{".py"}}
}
func (p pyPlugin) HandlesExtension(ext string) bool { return ext == ".py" }
func (p pyPlugin) RewriteFileReferences(content, oldPath, newPath, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	return content, 0, false
}
func (p pyPlugin) RewriteFileReferencesBatch(content string, renames []plugin.Rename, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	return plugin.LoopingBatch(p, content, renames, currentFile, projectRoot, info)
}
func (p pyPlugin) ReferenceDetector() plugin.ReferenceDetector         { return nil }
func (p pyPlugin) ImportAdvancedSupport() plugin.ImportAdvancedSupport { return nil }
func (p pyPlugin) PathAliasResolver() plugin.AliasResolver             { return nil }
func (p pyPlugin) RefactoringProvider() plugin.RefactoringProvider     { return p.rp }
func (p pyPlugin) Lifecycle() plugin.Lifecycle                         { return nil }
func (p pyPlugin) ManifestSupport() plugin.ManifestSupport             { return nil }

var _ plugin.Plugin = pyPlugin{}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	reg := plugin.NewRegistry()
	reg.Register(pyPlugin{rp: refactor.NewEngine(refactor.PythonConfig())})
	cfg, err := config.Load(func(string) string { return "" }, root, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return New(root, reg, cfg, nil, nil)
}

func TestEngineExtractConstant(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.py")
	if err := os.WriteFile(path, []byte("x = 42\ny = 42\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, root)

	plan, err := e.ExtractConstant(path, 0, 4, "ANSWER")
	if err != nil {
		t.Fatalf("ExtractConstant: %v", err)
	}
	if len(plan.Edits) != 3 {
		t.Fatalf("expected 1 insert + 2 replace edits, got %d", len(plan.Edits))
	}
}

func TestEngineExtractConstantUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rb")
	if err := os.WriteFile(path, []byte("x = 1"), 0o666); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, root)

	if _, err := e.ExtractConstant(path, 0, 4, "ANSWER"); err == nil {
		t.Fatal("expected error for an extension with no owning plugin")
	}
}

func TestEngineFileOpsRoundTrip(t *testing.T) {
	root := t.TempDir()
	e := newTestEngine(t, root)
	path := filepath.Join(root, "created.txt")

	if err := e.CreateFile(path, "hello"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	got, err := e.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "hello" {
		t.Fatalf("ReadFile = %q, want %q", got, "hello")
	}

	if err := e.WriteFile(path, "updated"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err = e.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after write: %v", err)
	}
	if got != "updated" {
		t.Fatalf("ReadFile after write = %q, want %q", got, "updated")
	}

	if err := e.DeleteFile(path); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("expected file to be gone after DeleteFile")
	}
}

func TestEngineApplyEdits(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, root)

	plan := &core.EditPlan{
		SourceFile: path,
		Edits: []core.TextEdit{{
			EditType:     core.EditReplace,
			Location:     core.Range{Start: core.Position{Line: 0, Column: 4}, End: core.Position{Line: 0, Column: 5}},
			OriginalText: "1",
			NewText:      "2",
		}},
	}
	res, err := e.ApplyEdits(context.Background(), plan)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if !res.Success || len(res.ModifiedFiles) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "x = 2\n" {
		t.Fatalf("file content = %q, want %q", got, "x = 2\n")
	}
}

func TestEngineListFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("pass"), 0o666); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, root)

	files, err := e.ListFiles(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d: %v", len(files), files)
	}
}

func TestEngineRenameSymbolUnsupported(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.py")
	if err := os.WriteFile(path, []byte("x = 1"), 0o666); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, root)

	if _, err := e.RenameSymbol(context.Background(), path, "x", "y"); err == nil {
		t.Fatal("expected error: generic refactoring provider does not support rename_symbol")
	}
}
