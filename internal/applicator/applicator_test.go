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

package applicator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/importcache"
	"github.com/typemill-go/refactorctl/internal/locks"
	"github.com/typemill-go/refactorctl/internal/opqueue"
	"github.com/typemill-go/refactorctl/internal/plugin"
)

func TestApplyAppliesEditsFromEndToStart(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("hello world\n"), 0o666); err != nil {
		t.Fatal(err)
	}

	a := New(opqueue.New(locks.NewManager(), nil, nil), locks.NewManager(), importcache.New(time.Second), plugin.NewRegistry(), nil, nil)

	plan := &core.EditPlan{
		Edits: []core.TextEdit{
			{
				FilePath: file,
				EditType: core.EditReplace,
				Location: core.Range{Start: core.Position{Line: 0, Column: 0}, End: core.Position{Line: 0, Column: 5}},
				NewText:  "howdy",
			},
			{
				FilePath: file,
				EditType: core.EditReplace,
				Location: core.Range{Start: core.Position{Line: 0, Column: 6}, End: core.Position{Line: 0, Column: 11}},
				NewText:  "planet",
			},
		},
	}

	res, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ModifiedFiles) != 1 {
		t.Fatalf("modified files = %v", res.ModifiedFiles)
	}

	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "howdy planet\n" {
		t.Fatalf("content = %q, want %q", got, "howdy planet\n")
	}
}

func TestApplyRollsBackOnValidationFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	original := "original content\n"
	if err := os.WriteFile(file, []byte(original), 0o666); err != nil {
		t.Fatal(err)
	}

	failingValidator := func(ctx context.Context, modified []string) error {
		return errors.New("validation failed")
	}

	a := New(opqueue.New(locks.NewManager(), nil, nil), locks.NewManager(), importcache.New(time.Second), plugin.NewRegistry(), failingValidator, nil)

	plan := &core.EditPlan{
		Edits: []core.TextEdit{
			{
				FilePath: file,
				EditType: core.EditReplace,
				Location: core.Range{Start: core.Position{Line: 0, Column: 0}, End: core.Position{Line: 0, Column: 8}},
				NewText:  "replaced",
			},
		},
	}

	_, err := a.Apply(context.Background(), plan)
	if err == nil {
		t.Fatal("expected validation error")
	}

	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != original {
		t.Fatalf("content after rollback = %q, want original %q", got, original)
	}
}

func TestApplyEmptyPlanIsNoop(t *testing.T) {
	a := New(opqueue.New(locks.NewManager(), nil, nil), locks.NewManager(), importcache.New(time.Second), plugin.NewRegistry(), nil, nil)
	res, err := a.Apply(context.Background(), &core.EditPlan{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ModifiedFiles) != 0 {
		t.Fatalf("expected no modified files, got %v", res.ModifiedFiles)
	}
}
