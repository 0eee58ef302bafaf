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

package refupdate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/detector"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/walker"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o666); err != nil {
		t.Fatal(err)
	}
}

func TestClampConcurrency(t *testing.T) {
	cases := map[int]int{0: 64, 1: 4, 4: 4, 30: 30, 1000: 64}
	for in, want := range cases {
		if got := clampConcurrency(in); got != want {
			t.Errorf("clampConcurrency(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestUpdateReferencesGenericFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "see utils.go for helpers")
	writeFile(t, filepath.Join(root, "utils.go"), "package main")

	reg := plugin.NewRegistry()
	cache := importcache.New(time.Second)
	w := walker.New(root, 0)
	det := detector.New(reg, cache)
	u := New(reg, cache, det, w, 4, nil)

	req := Request{
		OldPath:     filepath.Join(root, "utils.go"),
		NewPath:     filepath.Join(root, "helpers.go"),
		Kind:        KindFile,
		ProjectRoot: root,
		Scope:       core.RenameScope{UpdateAll: true},
	}

	plan, err := u.UpdateReferences(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Edits) != 1 {
		t.Fatalf("got %d edits, want 1: %+v", len(plan.Edits), plan.Edits)
	}
	edit := plan.Edits[0]
	if edit.FilePath != filepath.Join(root, "README.md") {
		t.Fatalf("edit targets %q, want README.md", edit.FilePath)
	}
	if edit.NewText == edit.OriginalText {
		t.Fatal("expected content to change")
	}
}

func TestUpdateReferencesNoMatchesProducesEmptyPlan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "nothing relevant here")

	reg := plugin.NewRegistry()
	cache := importcache.New(time.Second)
	w := walker.New(root, 0)
	det := detector.New(reg, cache)
	u := New(reg, cache, det, w, 4, nil)

	req := Request{
		OldPath:     filepath.Join(root, "utils.go"),
		NewPath:     filepath.Join(root, "helpers.go"),
		Kind:        KindFile,
		ProjectRoot: root,
		Scope:       core.RenameScope{UpdateAll: true},
	}

	plan, err := u.UpdateReferences(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Edits) != 0 {
		t.Fatalf("got %d edits, want 0", len(plan.Edits))
	}
}
