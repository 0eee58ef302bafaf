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

package manifest

import "testing"

func TestMergeDependenciesPrefersHigherVersion(t *testing.T) {
	dst := map[string]string{"serde": "1.0.0", "only-dst": "2.0.0"}
	src := map[string]string{"serde": "1.2.0", "only-src": "0.5.0"}

	got := MergeDependencies(dst, src)
	if got["serde"] != "1.2.0" {
		t.Fatalf("serde = %q, want 1.2.0", got["serde"])
	}
	if got["only-dst"] != "2.0.0" || got["only-src"] != "0.5.0" {
		t.Fatalf("unexpected merge result: %+v", got)
	}
}

func TestMergeDependenciesNonSemverLeftAlone(t *testing.T) {
	dst := map[string]string{"local-dep": "{ path = \"../local-dep\" }"}
	src := map[string]string{"local-dep": "1.0.0"}

	got := MergeDependencies(dst, src)
	if got["local-dep"] != "{ path = \"../local-dep\" }" {
		t.Fatalf("expected non-semver dst entry preserved, got %q", got["local-dep"])
	}
}

func TestWouldCreateCircularDependency(t *testing.T) {
	known := [][2]string{{"cb-core", "cb-types"}}
	if !WouldCreateCircularDependency("cb-types", "cb-types", known) {
		t.Fatal("self-dependency should be circular")
	}
	if !WouldCreateCircularDependency("cb-core", "cb-types", known) {
		t.Fatal("known pattern should be circular")
	}
	if WouldCreateCircularDependency("unrelated", "cb-types", known) {
		t.Fatal("unrelated dependency should not be circular")
	}
}

func TestInsertModuleDeclarationIdempotent(t *testing.T) {
	content := "pub mod foo;\npub mod bar;\n\nfn main() {}\n"
	out, changed := InsertModuleDeclaration(content, "baz")
	if !changed {
		t.Fatal("expected change on first insert")
	}
	want := "pub mod foo;\npub mod bar;\npub mod baz;\n\nfn main() {}\n"
	if out != want {
		t.Fatalf("InsertModuleDeclaration =\n%q\nwant\n%q", out, want)
	}

	out2, changed2 := InsertModuleDeclaration(out, "baz")
	if changed2 {
		t.Fatal("expected no-op on second insert")
	}
	if out2 != out {
		t.Fatal("idempotent call should not alter content")
	}
}

func TestRemoveWorkspaceMember(t *testing.T) {
	members := []string{"crates/a", "crates/b", "crates/c"}
	got, removed := RemoveWorkspaceMember(members, "crates/b")
	if !removed {
		t.Fatal("expected member to be removed")
	}
	want := []string{"crates/a", "crates/c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("RemoveWorkspaceMember = %v, want %v", got, want)
	}

	_, removed2 := RemoveWorkspaceMember(members, "crates/missing")
	if removed2 {
		t.Fatal("expected no removal for absent member")
	}
}

func TestInsertModuleDeclarationNoExistingMods(t *testing.T) {
	content := "fn main() {}\n"
	out, changed := InsertModuleDeclaration(content, "baz")
	if !changed {
		t.Fatal("expected change")
	}
	want := "pub mod baz;\nfn main() {}\n"
	if out != want {
		t.Fatalf("InsertModuleDeclaration =\n%q\nwant\n%q", out, want)
	}
}
