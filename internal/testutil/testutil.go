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

// Package testutil is a small txtar-based fixture harness shared by
// component tests: a multi-file "before" project is written out as one
// txtar archive literal, an operation runs against it, and the
// resulting tree is read back and compared against an "after" archive
// — the same shape the teacher uses its own txtar fixtures for
// (gopls's integration sandbox, modcache's registry fixtures), adapted
// here to project-tree-before/after comparisons instead of a single
// decoded CUE value.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// WriteArchive parses archive (txtar format: a sequence of "-- name --"
// file headers followed by that file's content) and materializes every
// file under dir, creating parent directories as needed. It returns
// dir for chaining.
func WriteArchive(t *testing.T, dir, archive string) string {
	t.Helper()
	a := txtar.Parse([]byte(archive))
	for _, f := range a.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
			t.Fatalf("testutil: mkdir for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o666); err != nil {
			t.Fatalf("testutil: write %s: %v", f.Name, err)
		}
	}
	return dir
}

// ReadTree walks dir and returns every regular file's project-relative,
// slash-separated path mapped to its content, for comparison against an
// expected txtar archive via [ArchiveFiles] or a hand-built map.
func ReadTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("testutil: walking %s: %v", dir, err)
	}
	return out
}

// ArchiveFiles parses archive and returns its files as a path->content
// map, in the same shape [ReadTree] returns, so a test can write the
// expected "after" state as a second txtar literal instead of a
// hand-built Go map.
func ArchiveFiles(archive string) map[string]string {
	a := txtar.Parse([]byte(archive))
	out := make(map[string]string, len(a.Files))
	for _, f := range a.Files {
		out[f.Name] = string(f.Data)
	}
	return out
}

// AssertTree fails the test with a readable diff if got doesn't exactly
// match want (both path->content maps, e.g. from [ReadTree] and
// [ArchiveFiles]).
func AssertTree(t *testing.T, got, want map[string]string) {
	t.Helper()
	var missing, extra, mismatched []string
	for path, wantContent := range want {
		gotContent, ok := got[path]
		if !ok {
			missing = append(missing, path)
			continue
		}
		if gotContent != wantContent {
			mismatched = append(mismatched, path)
		}
	}
	for path := range got {
		if _, ok := want[path]; !ok {
			extra = append(extra, path)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(mismatched)

	var msg strings.Builder
	if len(missing) > 0 {
		fmtList(&msg, "missing files", missing)
	}
	if len(extra) > 0 {
		fmtList(&msg, "unexpected files", extra)
	}
	for _, path := range mismatched {
		msg.WriteString("content mismatch in " + path + ":\n")
		msg.WriteString("  got:  " + got[path] + "\n")
		msg.WriteString("  want: " + want[path] + "\n")
	}
	if msg.Len() > 0 {
		t.Fatalf("tree mismatch:\n%s", msg.String())
	}
}

func fmtList(b *strings.Builder, label string, paths []string) {
	b.WriteString(label + ": " + strings.Join(paths, ", ") + "\n")
}
