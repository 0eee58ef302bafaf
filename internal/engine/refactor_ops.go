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
	"os"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
	"github.com/typemill-go/refactorctl/internal/plugin"
)

// providerFor looks up the plugin owning file and returns its
// refactoring provider, or a NotFound error if the file has no owning
// plugin and an InvalidRequest error if the plugin doesn't implement C10.
func (e *Engine) providerFor(file string) (plugin.RefactoringProvider, error) {
	p := e.registry.ForFile(file)
	if p == nil {
		return nil, errs.New(errs.NotFound, "no plugin owns file %s", file).WithPath(file)
	}
	rp := p.RefactoringProvider()
	if rp == nil {
		return nil, errs.New(errs.InvalidRequest, "plugin for %s does not support extract/inline refactorings", file).WithPath(file)
	}
	return rp, nil
}

// ExtractConstant implements the extract_constant operation (spec
// §4.10, §6). It reads file's current content, asks the owning
// plugin's refactoring provider to plan the extraction, and returns
// the resulting plan without applying it (apply_edits does that).
func (e *Engine) ExtractConstant(file string, cursorLine, cursorCol int, name string) (*core.EditPlan, error) {
	rp, err := e.providerFor(file)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, err, "reading %s", file).WithPath(file)
	}
	return rp.ExtractConstant(string(source), cursorLine, cursorCol, name, file)
}

// ExtractVariable implements the extract_variable operation (spec
// §4.10, §6).
func (e *Engine) ExtractVariable(file string, startLine, startCol, endLine, endCol int, name string) (*core.EditPlan, error) {
	rp, err := e.providerFor(file)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, err, "reading %s", file).WithPath(file)
	}
	return rp.ExtractVariable(string(source), startLine, startCol, endLine, endCol, name, file)
}

// ExtractFunction implements the extract_function operation (spec
// §4.10, §6).
func (e *Engine) ExtractFunction(file string, startLine, startCol, endLine, endCol int, newFunctionName string) (*core.EditPlan, error) {
	rp, err := e.providerFor(file)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, err, "reading %s", file).WithPath(file)
	}
	return rp.ExtractFunction(string(source), startLine, startCol, endLine, endCol, newFunctionName, file)
}

// InlineVariable implements the inline_variable operation (spec §4.10, §6).
func (e *Engine) InlineVariable(file string, cursorLine, cursorCol int) (*core.EditPlan, error) {
	rp, err := e.providerFor(file)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, err, "reading %s", file).WithPath(file)
	}
	return rp.InlineVariable(string(source), cursorLine, cursorCol, file)
}
