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

// extractRangeText returns the text from (startLine,startCol) up to, but
// not including, (endLine,endCol), clipping the first and last line to
// their columns.
func extractRangeText(lines []string, startLine, startCol, endLine, endCol int) (string, error) {
	if startLine < 0 || endLine >= len(lines) || startLine > endLine {
		return "", errs.New(errs.InvalidRequest, "range out of bounds")
	}
	if startLine == endLine {
		line := lines[startLine]
		if startCol < 0 || endCol > len(line) || startCol > endCol {
			return "", errs.New(errs.InvalidRequest, "column range out of bounds")
		}
		return line[startCol:endCol], nil
	}
	var b strings.Builder
	first := lines[startLine]
	if startCol > len(first) {
		startCol = len(first)
	}
	b.WriteString(first[startCol:])
	for i := startLine + 1; i < endLine; i++ {
		b.WriteByte('\n')
		b.WriteString(lines[i])
	}
	last := lines[endLine]
	if endCol > len(last) {
		endCol = len(last)
	}
	b.WriteByte('\n')
	b.WriteString(last[:endCol])
	return b.String(), nil
}

func lineIndent(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// ExtractVariable implements plugin.RefactoringProvider (spec §4.10).
func (e *Engine) ExtractVariable(source string, startLine, startCol, endLine, endCol int, name, filePath string) (*core.EditPlan, error) {
	lines := strings.Split(source, "\n")
	expr, err := extractRangeText(lines, startLine, startCol, endLine, endCol)
	if err != nil {
		return nil, err
	}

	var blocking []string
	trimmed := strings.TrimSpace(expr)
	if e.cfg.IsDeclarationStart != nil && e.cfg.IsDeclarationStart(trimmed) {
		blocking = append(blocking, "cannot extract a declaration")
	}
	if strings.Contains(expr, "=") && !strings.Contains(expr, "==") && !strings.Contains(expr, "!=") {
		blocking = append(blocking, "cannot extract an assignment statement")
	}
	if strings.Contains(expr, "\n") && !strings.HasPrefix(trimmed, "(") {
		blocking = append(blocking, "multi-line expressions must be parenthesized")
	}
	if len(blocking) > 0 {
		return nil, errs.New(errs.InvalidRequest, "cannot extract expression: %s", strings.Join(blocking, ", "))
	}

	if name == "" {
		name = e.suggestVariableName(expr)
	}
	indent := lineIndent(lines[startLine])
	declaration := indent + e.cfg.VariableDecl(name, expr) + "\n"

	edits := []core.TextEdit{
		{
			EditType:    core.EditInsert,
			Location:    pointAt(startLine, 0),
			NewText:     declaration,
			Priority:    100,
			Description: "extract expression into variable " + name,
		},
		{
			EditType:     core.EditReplace,
			Location:     rangeAt(startLine, startCol, endCol),
			OriginalText: expr,
			NewText:      name,
			Priority:     90,
			Description:  "replace expression with " + name,
		},
	}
	// Multi-line selections need the replace edit to span every
	// touched line, not just the first.
	if startLine != endLine {
		edits[1].Location = core.Range{
			Start: core.Position{Line: startLine, Column: startCol},
			End:   core.Position{Line: endLine, Column: endCol},
		}
	}

	return newPlan(filePath, "extract_variable", edits, map[string]any{
		"expression": expr, "variable_name": name,
		"start_line": startLine, "start_col": startCol, "end_line": endLine, "end_col": endCol,
	}, "verify syntax is valid after variable extraction", "variable_extraction"), nil
}

// suggestVariableName guesses a variable name from an extracted
// expression's shape, generalizing the reference plugins'
// suggest_variable_name heuristics.
func (e *Engine) suggestVariableName(expression string) string {
	expr := strings.TrimSpace(expression)
	switch {
	case strings.Contains(expr, "len("):
		return "length"
	case strings.Contains(expr, ".split("):
		return "parts"
	case strings.Contains(expr, ".join("):
		return "joined"
	case strings.HasPrefix(expr, `"`) || strings.HasPrefix(expr, "'"):
		return "text"
	}
	for _, kw := range e.cfg.KeywordLiterals {
		if expr == kw {
			return "flag"
		}
	}
	if strings.HasPrefix(expr, "[") {
		return "items"
	}
	if strings.HasPrefix(expr, "{") {
		return "data"
	}
	if isNumericExpr(expr) {
		return "value"
	}
	if strings.ContainsAny(expr, "+-*/") {
		return "result"
	}
	return "extracted"
}

func isNumericExpr(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '-' && i == 0 {
			continue
		}
		return false
	}
	return true
}
