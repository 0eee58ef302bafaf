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

// Package opqueue implements the Operation Queue (spec §4.2): a
// single-consumer queue that executes primitive filesystem operations
// serially, in submission order, so that snapshots taken by the
// Edit-Plan Applicator (C8) see a settled filesystem view.
package opqueue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/locks"
	"github.com/typemill-go/refactorctl/internal/vcsutil"
)

// Queue is a single in-process, single-consumer worker that applies
// FileOperations in the order they were enqueued.
type Queue struct {
	locks *locks.Manager
	vcs   vcsutil.VCS // optional; nil disables VCS-aware rename

	mu       sync.Mutex
	pending  []core.OperationTransaction
	notEmpty chan struct{}
	idle     chan struct{}
	running  bool

	logger *slog.Logger
}

// New returns a Queue backed by lm for per-path locking. If vcs is
// non-nil, rename operations for tracked paths delegate to it instead
// of a plain os.Rename (spec §4.2).
func New(lm *locks.Manager, vcs vcsutil.VCS, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		locks:    lm,
		vcs:      vcs,
		notEmpty: make(chan struct{}, 1),
		idle:     make(chan struct{}),
		logger:   logger,
	}
	close(q.idle) // starts idle
	go q.run()
	return q
}

// Enqueue submits a transaction for execution. It returns immediately;
// use [Queue.WaitUntilIdle] to block until all submitted transactions,
// including this one, have been applied.
func (q *Queue) Enqueue(tx core.OperationTransaction) {
	q.mu.Lock()
	q.pending = append(q.pending, tx)
	wasIdle := !q.running
	if wasIdle {
		q.running = true
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// WaitUntilIdle returns only when the queue is empty and the worker is
// not mid-operation (spec §4.2).
func (q *Queue) WaitUntilIdle() {
	for {
		q.mu.Lock()
		idleCh := q.idle
		empty := len(q.pending) == 0 && !q.running
		q.mu.Unlock()
		if empty {
			return
		}
		<-idleCh
	}
}

func (q *Queue) run() {
	for range q.notEmpty {
		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.running = false
				idleCh := q.idle
				q.mu.Unlock()
				close(idleCh)
				break
			}
			tx := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()

			q.execute(tx)
		}
	}
}

func (q *Queue) execute(tx core.OperationTransaction) {
	for _, op := range tx.Operations {
		if err := q.executeOne(op); err != nil {
			// A background-worker failure must not abort the process
			// (spec §9): log it and continue so the queue stays live
			// for later transactions. Callers discover the failure
			// through the filesystem state / a subsequent applicator
			// error rather than through this queue directly.
			q.logger.Error("operation queue: operation failed",
				"transaction", tx.ID,
				"kind", op.Kind,
				"target", op.Target,
				"error", err)
		}
	}
}

func (q *Queue) executeOne(op core.FileOperation) error {
	h := q.locks.Lock(string(op.Target))
	defer h.Unlock()

	switch op.Kind {
	case core.OpCreateDir:
		return os.MkdirAll(string(op.Target), 0o777)
	case core.OpCreateFile:
		if err := os.MkdirAll(string(op.Target.Dir()), 0o777); err != nil {
			return err
		}
		return os.WriteFile(string(op.Target), []byte(op.Params["content"]), 0o666)
	case core.OpWrite:
		return os.WriteFile(string(op.Target), []byte(op.Params["content"]), 0o666)
	case core.OpDelete:
		return os.Remove(string(op.Target))
	case core.OpRename:
		newPath := op.Params["new_path"]
		if newPath == "" {
			return fmt.Errorf("rename operation for %s missing new_path param", op.Target)
		}
		return q.rename(string(op.Target), newPath)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// rename delegates to the configured VCS when the source is tracked,
// otherwise performs a plain rename, creating the destination's parent
// directory if absent (spec §4.2).
func (q *Queue) rename(oldPath, newPath string) error {
	if q.vcs != nil {
		tracked, err := q.vcs.IsTracked(context.Background(), oldPath)
		if err == nil && tracked {
			if err := os.MkdirAll(parentOf(newPath), 0o777); err != nil {
				return err
			}
			return q.vcs.Rename(context.Background(), oldPath, newPath)
		}
	}
	if err := os.MkdirAll(parentOf(newPath), 0o777); err != nil {
		return err
	}
	return os.Rename(oldPath, newPath)
}

func parentOf(path string) string {
	return core.AbsolutePath(path).Dir().String()
}
