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

package opqueue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/locks"
)

func TestQueuePreservesOrderAndDrains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	q := New(locks.NewManager(), nil, nil)

	q.Enqueue(core.OperationTransaction{
		ID: "t1",
		Operations: []core.FileOperation{
			{Kind: core.OpCreateFile, Target: core.AbsolutePath(path), Params: map[string]string{"content": "one"}},
		},
	})
	q.Enqueue(core.OperationTransaction{
		ID: "t2",
		Operations: []core.FileOperation{
			{Kind: core.OpWrite, Target: core.AbsolutePath(path), Params: map[string]string{"content": "two"}},
		},
	})

	q.WaitUntilIdle()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("content = %q, want %q (enqueue order not preserved)", got, "two")
	}
}

func TestQueueCreateDirAndDelete(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	file := filepath.Join(sub, "f.txt")

	q := New(locks.NewManager(), nil, nil)
	q.Enqueue(core.OperationTransaction{
		ID: "t1",
		Operations: []core.FileOperation{
			{Kind: core.OpCreateDir, Target: core.AbsolutePath(sub)},
			{Kind: core.OpCreateFile, Target: core.AbsolutePath(file), Params: map[string]string{"content": "x"}},
		},
	})
	q.WaitUntilIdle()
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("file not created: %v", err)
	}

	q.Enqueue(core.OperationTransaction{
		ID: "t2",
		Operations: []core.FileOperation{
			{Kind: core.OpDelete, Target: core.AbsolutePath(file)},
		},
	})
	q.WaitUntilIdle()
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("file not deleted: err=%v", err)
	}
}
