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

package core

// FileSnapshot is the pre-transaction content of a file held in memory
// for rollback (spec §3). An empty Content means "did not exist before
// this transaction; delete on rollback."
type FileSnapshot struct {
	Path    AbsolutePath
	Content string
}

// Existed reports whether the file existed before the transaction
// began.
func (s FileSnapshot) Existed() bool {
	return s.Content != ""
}

// OperationKind enumerates the primitive filesystem operations the
// Operation Queue (C2) executes.
type OperationKind string

const (
	OpCreateFile OperationKind = "create_file"
	OpCreateDir  OperationKind = "create_dir"
	OpWrite      OperationKind = "write"
	OpDelete     OperationKind = "delete"
	OpRename     OperationKind = "rename"
)

// FileOperation is a single primitive filesystem action consumed by
// the Operation Queue (spec §3).
type FileOperation struct {
	Owner  string
	Kind   OperationKind
	Target AbsolutePath
	// Params carries kind-specific data: the new path for OpRename, the
	// content for OpWrite/OpCreateFile.
	Params map[string]string
}

// OperationTransaction is an ordered list of FileOperations the queue
// executes atomically with respect to submission order (spec §4.2).
type OperationTransaction struct {
	ID         string
	Operations []FileOperation
}
