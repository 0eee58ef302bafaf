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

package importcache

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestInsertAndGetImporters(t *testing.T) {
	c := New(time.Second)
	c.Insert("/repo/a.go", []string{"/repo/b.go"})
	c.Insert("/repo/c.go", []string{"/repo/b.go"})

	got := c.GetImporters("/repo/b.go")
	sort.Strings(got)
	want := []string{"/repo/a.go", "/repo/c.go"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetImporters mismatch (-want +got):\n%s", diff)
	}
}

func TestGetImportersForDirectory(t *testing.T) {
	c := New(time.Second)
	c.Insert("/repo/main.go", []string{"/repo/utils/helpers.go"})

	got := c.GetImportersForDirectory("/repo/utils")
	if len(got) != 1 || got[0] != "/repo/main.go" {
		t.Fatalf("GetImportersForDirectory = %v", got)
	}
}

func TestInvalidateRemovesKeyAndMemberships(t *testing.T) {
	c := New(time.Second)
	c.Insert("/repo/a.go", []string{"/repo/b.go"})

	c.Invalidate("/repo/a.go")
	if got := c.GetImporters("/repo/b.go"); len(got) != 0 {
		t.Fatalf("expected no importers after invalidating importer, got %v", got)
	}

	c.Insert("/repo/a.go", []string{"/repo/b.go"})
	c.Invalidate("/repo/b.go")
	if got := c.GetImporters("/repo/b.go"); len(got) != 0 {
		t.Fatalf("expected invalidated key to be gone, got %v", got)
	}
}

func TestLSPCacheTTL(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.SetLSPCached("/repo/x", false, []string{"/repo/y.go"})

	got, ok := c.GetLSPCached("/repo/x", false)
	if !ok || len(got) != 1 {
		t.Fatalf("expected cached entry, got %v ok=%v", got, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.GetLSPCached("/repo/x", false); ok {
		t.Fatal("expected TTL expiry")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(time.Second)
	c.Insert("/repo/a.go", []string{"/repo/b.go"})

	if err := c.SaveFilelistCache(dir, "code"); err != nil {
		t.Fatal(err)
	}

	c2 := New(time.Second)
	ok, err := c2.LoadFromDisk(dir, "code", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected snapshot to load")
	}
	if got := c2.GetImporters("/repo/b.go"); len(got) != 1 || got[0] != "/repo/a.go" {
		t.Fatalf("GetImporters after load = %v", got)
	}
}
