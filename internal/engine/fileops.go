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

	"github.com/google/uuid"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
)

// CreateFile implements the create_file operation (spec §6): a
// primitive wrapper around C1/C2. The write goes through the
// Operation Queue so it serializes with any in-flight transaction
// touching the same path.
func (e *Engine) CreateFile(path, content string) error {
	e.queue.Enqueue(core.OperationTransaction{
		ID: uuid.NewString(),
		Operations: []core.FileOperation{{
			Kind:   core.OpCreateFile,
			Target: core.AbsolutePath(path),
			Params: map[string]string{"content": content},
		}},
	})
	e.queue.WaitUntilIdle()
	if _, err := os.Stat(path); err != nil {
		return errs.Wrap(errs.IOFailure, err, "create_file %s did not take effect", path).WithPath(path)
	}
	return nil
}

// DeleteFile implements the delete_file operation (spec §6).
func (e *Engine) DeleteFile(path string) error {
	e.queue.Enqueue(core.OperationTransaction{
		ID: uuid.NewString(),
		Operations: []core.FileOperation{{
			Kind:   core.OpDelete,
			Target: core.AbsolutePath(path),
		}},
	})
	e.queue.WaitUntilIdle()
	if _, err := os.Stat(path); err == nil {
		return errs.New(errs.IOFailure, "delete_file %s did not take effect", path).WithPath(path)
	}
	e.cache.Invalidate(path)
	return nil
}

// ReadFile implements the read_file operation (spec §6). Reads bypass
// the Operation Queue; the path's read lock is held for the single
// os.ReadFile call only, so a read waits for a writer currently holding
// that path's write lock and runs alongside other readers.
func (e *Engine) ReadFile(path string) (string, error) {
	h := e.locksMgr.RLock(path)
	defer h.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.NotFound, err, "read_file %s", path).WithPath(path)
	}
	return string(data), nil
}

// WriteFile implements the write_file operation (spec §6).
func (e *Engine) WriteFile(path, content string) error {
	e.queue.Enqueue(core.OperationTransaction{
		ID: uuid.NewString(),
		Operations: []core.FileOperation{{
			Kind:   core.OpWrite,
			Target: core.AbsolutePath(path),
			Params: map[string]string{"content": content},
		}},
	})
	e.queue.WaitUntilIdle()
	e.cache.Invalidate(path)
	return nil
}

// ListFiles implements the list_files operation (spec §6): a
// primitive wrapper around the file-walker (C5).
func (e *Engine) ListFiles(ctx context.Context, scope *core.RenameScope) ([]string, error) {
	s := core.DefaultRenameScope()
	if scope != nil {
		s = *scope
	}
	return e.walkerImpl.List(ctx, s)
}

// ApplyEdits implements the apply_edits operation (spec §6): it runs
// an externally produced EditPlan through the Edit-Plan Applicator
// (C8). Positions in plan are assumed zero-based, per §6's wire format
// note.
func (e *Engine) ApplyEdits(ctx context.Context, plan *core.EditPlan) (*OperationResult, error) {
	if plan == nil {
		return nil, errs.New(errs.InvalidRequest, "apply_edits requires a non-nil edit plan")
	}
	res, err := e.applier.Apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	out := e.resultFromApply(plan, res)
	if e.cfg.Validation.Enabled {
		out.Validation = e.lastValidation()
	}
	return out, nil
}

// NotifyFileOpened relays the notify_file_opened lifecycle hook (spec
// §6) to the owning plugin, if any, if it cares about lifecycle events.
func (e *Engine) NotifyFileOpened(path string) { e.notify(path, func(l notifier) { l.FileOpened(path) }) }

// NotifyFileSaved relays the notify_file_saved lifecycle hook.
func (e *Engine) NotifyFileSaved(path string) { e.notify(path, func(l notifier) { l.FileSaved(path) }) }

// NotifyFileClosed relays the notify_file_closed lifecycle hook.
func (e *Engine) NotifyFileClosed(path string) { e.notify(path, func(l notifier) { l.FileClosed(path) }) }

type notifier interface {
	FileOpened(path string)
	FileSaved(path string)
	FileClosed(path string)
}

func (e *Engine) notify(path string, call func(notifier)) {
	p := e.registry.ForFile(path)
	if p == nil {
		return
	}
	lc := p.Lifecycle()
	if lc == nil {
		return
	}
	call(lc)
}
