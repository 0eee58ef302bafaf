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
	"path/filepath"
	"testing"

	"github.com/typemill-go/refactorctl/internal/config"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/plugins"
	"github.com/typemill-go/refactorctl/internal/testutil"
)

// TestEndToEndSingleFileRenameWithOneImporter replays the concrete
// single-file-rename scenario against the real web plugin end to end:
// an importer's relative specifier is rewritten and the renamed file's
// content survives the move unchanged.
func TestEndToEndSingleFileRenameWithOneImporter(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- src/a.ts --
import { X } from './b';
export const Y = X;
-- src/b.ts --
export const X = 1;
`)

	reg := plugins.Default()
	cfg, err := config.Load(func(string) string { return "" }, root, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	e := New(root, reg, cfg, nil, nil)

	_, err = e.RenameFile(context.Background(), filepath.Join(root, "src/b.ts"), filepath.Join(root, "src/c.ts"), false, nil)
	if err != nil {
		t.Fatalf("RenameFile: %v", err)
	}

	got := testutil.ReadTree(t, root)
	want := testutil.ArchiveFiles(`
-- src/a.ts --
import { X } from './c';
export const Y = X;
-- src/c.ts --
export const X = 1;
`)
	testutil.AssertTree(t, got, want)
}

// TestEndToEndDirectoryRenameRewritesQualifiedPath replays the
// directory-rename scenario against the real Rust plugin: an external
// file's crate/module-qualified path tracks the renamed directory's
// new basename.
func TestEndToEndDirectoryRenameRewritesQualifiedPath(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- src/utils/mod.rs --
pub mod helpers;
-- src/utils/helpers.rs --
pub fn f() {}
-- src/main.rs --
use utils::helpers::f; fn main() { f(); }
`)

	reg := plugins.Default()
	cfg, err := config.Load(func(string) string { return "" }, root, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	e := New(root, reg, cfg, nil, nil)

	_, err = e.RenameDirectory(context.Background(), filepath.Join(root, "src/utils"), filepath.Join(root, "src/helpers_pkg"), false, false, nil)
	if err != nil {
		t.Fatalf("RenameDirectory: %v", err)
	}

	got := testutil.ReadTree(t, root)
	want := testutil.ArchiveFiles(`
-- src/helpers_pkg/mod.rs --
pub mod helpers;
-- src/helpers_pkg/helpers.rs --
pub fn f() {}
-- src/main.rs --
use helpers_pkg::helpers::f; fn main() { f(); }
`)
	testutil.AssertTree(t, got, want)
}

// TestEndToEndComprehensiveScopePicksUpMarkdown replays the
// comprehensive-scope directory rename scenario: with update_docs and
// update_exact_matches both on, a plain-text mention of the renamed
// directory's path in a markdown file is rewritten by the generic
// detector and rewriter even though no plugin claims ".md" files.
func TestEndToEndComprehensiveScopePicksUpMarkdown(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- old_dir/x.rs --
pub fn f() {}
-- README.md --
See old_dir/x.rs for details.
`)

	reg := plugins.Default()
	cfg, err := config.Load(func(string) string { return "" }, root, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	e := New(root, reg, cfg, nil, nil)

	scope := &core.RenameScope{UpdateCode: true, UpdateDocs: true, UpdateExactMatches: true}
	_, err = e.RenameDirectory(context.Background(), filepath.Join(root, "old_dir"), filepath.Join(root, "new_dir"), false, false, scope)
	if err != nil {
		t.Fatalf("RenameDirectory: %v", err)
	}

	got := testutil.ReadTree(t, root)
	want := testutil.ArchiveFiles(`
-- new_dir/x.rs --
pub fn f() {}
-- README.md --
See new_dir/x.rs for details.
`)
	testutil.AssertTree(t, got, want)
}

// TestEndToEndExtractConstantThreeOccurrences replays the three-
// occurrence constant extraction scenario against the real Rust
// plugin: one inserted declaration ahead of every use, each literal
// occurrence replaced, applied to disk through the ordinary
// extract-then-apply_edits flow a caller would use.
func TestEndToEndExtractConstantThreeOccurrences(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArchive(t, root, `
-- src/lib.rs --
let price = 0.08;
let tax = 0.08;
let rate = 0.08;
`)

	reg := plugins.Default()
	cfg, err := config.Load(func(string) string { return "" }, root, "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	e := New(root, reg, cfg, nil, nil)

	file := filepath.Join(root, "src/lib.rs")
	plan, err := e.ExtractConstant(file, 0, 13, "TAX_RATE")
	if err != nil {
		t.Fatalf("ExtractConstant: %v", err)
	}
	if len(plan.Edits) != 4 {
		t.Fatalf("expected 1 insert + 3 replace edits, got %d", len(plan.Edits))
	}

	if _, err := e.ApplyEdits(context.Background(), plan); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	got := testutil.ReadTree(t, root)
	want := testutil.ArchiveFiles(`
-- src/lib.rs --
const TAX_RATE: f64 = 0.08;
let price = TAX_RATE;
let tax = TAX_RATE;
let rate = TAX_RATE;
`)
	testutil.AssertTree(t, got, want)
}
