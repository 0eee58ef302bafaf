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

package alias

import (
	"context"
	"os"
	"path/filepath"
	"testing"
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

func TestResolveAliasWildcard(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "@/*": ["src/*"] }
		}
	}`)
	writeFile(t, filepath.Join(root, "src", "utils.ts"), "export const x = 1;")

	r := NewTSConfigResolver()
	fromFile := filepath.Join(root, "src", "app.ts")
	resolved, ok, err := r.ResolveAlias(context.Background(), "@/utils", fromFile, root)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected alias to resolve")
	}
	want := filepath.Join(root, "src", "utils")
	if resolved != want {
		t.Fatalf("ResolveAlias = %q, want %q", resolved, want)
	}
}

func TestResolveAliasNonAliasSpecifierSkipped(t *testing.T) {
	root := t.TempDir()
	r := NewTSConfigResolver()
	_, ok, err := r.ResolveAlias(context.Background(), "./sibling", filepath.Join(root, "a.ts"), root)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("relative specifiers should not be treated as aliases")
	}
}

func TestPathToAliasRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "@/*": ["src/*"] }
		}
	}`)
	fromFile := filepath.Join(root, "src", "app.ts")

	r := NewTSConfigResolver()
	abs := filepath.Join(root, "src", "utils.ts")
	got, ok, err := r.PathToAlias(context.Background(), abs, fromFile, root)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "@/utils" {
		t.Fatalf("PathToAlias = %q, ok=%v, want @/utils", got, ok)
	}
}

func TestFindNearestConfigCachesAncestors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"compilerOptions":{"paths":{}}}`)
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o777); err != nil {
		t.Fatal(err)
	}

	r := NewTSConfigResolver()
	got := r.findNearestConfig(filepath.Join(deep, "x.ts"))
	want := filepath.Join(root, "tsconfig.json")
	if got != want {
		t.Fatalf("findNearestConfig = %q, want %q", got, want)
	}
	if cached, ok := r.nearestPath[deep]; !ok || cached != want {
		t.Fatalf("expected ancestor directory to be cached, got %q ok=%v", cached, ok)
	}
}
