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

package plugin

import (
	"context"

	"github.com/typemill-go/refactorctl/internal/core"
)

// AliasResolver is the C9 contract a plugin exposes when its ecosystem
// supports path-alias configuration (e.g. tsconfig "paths", Python
// namespace packages). The Reference Updater consults it both to turn
// an alias specifier back into a concrete path, and to turn a path
// into the preferred alias form for rewriting (spec §4.9).
type AliasResolver interface {
	// ResolveAlias turns specifier (as written in an import) into an
	// absolute file path, or ok=false if specifier isn't aliased.
	ResolveAlias(ctx context.Context, specifier, fromFile, projectRoot string) (resolved string, ok bool, err error)

	// PathToAlias turns an absolute path into the alias specifier a
	// file at fromFile should use to reference it, or ok=false if no
	// alias configuration covers that path.
	PathToAlias(ctx context.Context, path, fromFile, projectRoot string) (specifier string, ok bool, err error)

	// InvalidateConfig drops any cached alias configuration for
	// projectRoot, forcing rediscovery on next use (e.g. after a
	// tsconfig.json edit).
	InvalidateConfig(projectRoot string)
}

// RefactoringProvider is the C10 contract a plugin exposes to opt into
// extract/inline refactorings (spec §4.10). A plugin with no
// refactoring support returns nil from Plugin.RefactoringProvider.
// Every operation is pure: it reads source and returns an [core.EditPlan]
// without touching the filesystem, leaving application to C8.
type RefactoringProvider interface {
	// SupportsRefactoring reports whether this plugin implements the
	// named refactoring kind (e.g. "extract_constant").
	SupportsRefactoring(kind string) bool

	// ExtractConstant extracts the literal at (cursorLine, cursorCol)
	// into a named constant, replacing every valid textual occurrence.
	ExtractConstant(source string, cursorLine, cursorCol int, name, filePath string) (*core.EditPlan, error)

	// ExtractVariable extracts the expression spanning
	// (startLine,startCol)-(endLine,endCol) into a new local variable.
	// An empty name asks the provider to suggest one.
	ExtractVariable(source string, startLine, startCol, endLine, endCol int, name, filePath string) (*core.EditPlan, error)

	// ExtractFunction extracts the statements spanning
	// (startLine,startCol)-(endLine,endCol) into a new function named
	// newFunctionName, replacing the selection with a call.
	ExtractFunction(source string, startLine, startCol, endLine, endCol int, newFunctionName, filePath string) (*core.EditPlan, error)

	// InlineVariable replaces every reference to the variable declared
	// at (cursorLine, cursorCol) with its initializer expression, then
	// removes the declaration.
	InlineVariable(source string, cursorLine, cursorCol int, filePath string) (*core.EditPlan, error)
}
