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

package refactor

import (
	"strings"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
)

// ExtractFunction implements plugin.RefactoringProvider (spec §4.10).
// The minimal extraction the spec describes does not infer parameters
// or a return type: the new function is a bare, zero-argument
// procedure whose body is the selected text.
func (e *Engine) ExtractFunction(source string, startLine, startCol, endLine, endCol int, newFunctionName, filePath string) (*core.EditPlan, error) {
	lines := strings.Split(source, "\n")
	selected, err := extractRangeText(lines, startLine, startCol, endLine, endCol)
	if err != nil {
		return nil, err
	}

	insertAfter, ok := e.findEnclosingFunctionEnd(lines, startLine)
	if !ok {
		return nil, errs.New(errs.InvalidRequest, "no enclosing function found for the selected range")
	}

	body := indentBody(selected, e.indentUnit())
	functionCode := e.cfg.FunctionDecl(newFunctionName, "", body)
	callCode := e.cfg.FunctionCall(newFunctionName, "")

	edits := []core.TextEdit{
		{
			EditType:    core.EditInsert,
			Location:    pointAt(insertAfter, 0),
			NewText:     functionCode + "\n\n",
			Priority:    100,
			Description: "create extracted function " + newFunctionName,
		},
		{
			EditType:     core.EditReplace,
			Location:     core.Range{Start: core.Position{Line: startLine, Column: startCol}, End: core.Position{Line: endLine, Column: endCol}},
			OriginalText: selected,
			NewText:      callCode,
			Priority:     90,
			Description:  "replace selection with call to " + newFunctionName,
		},
	}

	return newPlan(filePath, "extract_function", edits, map[string]any{
		"function_name": newFunctionName,
		"start_line":    startLine, "start_col": startCol, "end_line": endLine, "end_col": endCol,
	}, "verify syntax is valid after function extraction", "function_extraction"), nil
}

func (e *Engine) indentUnit() string {
	if e.cfg.IndentUnit != "" {
		return e.cfg.IndentUnit
	}
	return "    "
}

func indentBody(body, unit string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = unit + line
	}
	return strings.Join(lines, "\n")
}

// findEnclosingFunctionEnd locates the function/declaration enclosing
// startLine and returns the line index immediately after its body,
// where the extracted function should be inserted (spec §4.10:
// "immediately after the enclosing function"). Brace-delimited
// languages count braces to find the closing one; indentation-based
// languages look for the first subsequent line that dedents to or past
// the declaration's own indentation.
func (e *Engine) findEnclosingFunctionEnd(lines []string, startLine int) (int, bool) {
	declLine := -1
	for i := startLine; i >= 0; i-- {
		if e.cfg.IsDeclarationStart != nil && e.cfg.IsDeclarationStart(strings.TrimSpace(lines[i])) {
			declLine = i
			break
		}
	}
	if declLine < 0 {
		return 0, false
	}

	if e.cfg.BraceDelimited {
		depth := 0
		seenOpen := false
		for i := declLine; i < len(lines); i++ {
			for _, r := range lines[i] {
				switch r {
				case '{':
					depth++
					seenOpen = true
				case '}':
					depth--
				}
			}
			if seenOpen && depth <= 0 {
				return i + 1, true
			}
		}
		return len(lines), true
	}

	declIndent := len(lineIndent(lines[declLine]))
	for i := declLine + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if len(lineIndent(lines[i])) <= declIndent {
			return i, true
		}
	}
	return len(lines), true
}
