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

// InlineVariable implements plugin.RefactoringProvider (spec §4.10).
// The enclosing scope is approximated as "from the declaration to the
// end of the file", matching the reference plugins' behavior when no
// intervening block closes first.
func (e *Engine) InlineVariable(source string, cursorLine, cursorCol int, filePath string) (*core.EditPlan, error) {
	lines := strings.Split(source, "\n")
	if cursorLine < 0 || cursorLine >= len(lines) {
		return nil, errs.New(errs.InvalidRequest, "line %d out of range", cursorLine)
	}

	declLine := lines[cursorLine]
	m := e.cfg.declarationPattern().FindStringSubmatch(declLine)
	if m == nil {
		return nil, errs.New(errs.InvalidRequest, "no variable declaration found at %d:%d", cursorLine, cursorCol)
	}
	name := m[1]
	initializer := strings.TrimSpace(m[2])

	replacement := initializer
	if isCompoundExpression(initializer) {
		replacement = "(" + initializer + ")"
	}

	var edits []core.TextEdit
	priority := uint8(100)
	for lineNum := cursorLine + 1; lineNum < len(lines); lineNum++ {
		for _, occ := range findIdentifierOccurrences(lines[lineNum], name) {
			edits = append(edits, core.TextEdit{
				EditType:     core.EditReplace,
				Location:     rangeAt(lineNum, occ[0], occ[1]),
				OriginalText: name,
				NewText:      replacement,
				Priority:     priority,
				Description:  "inline " + name,
			})
			if priority > 1 {
				priority--
			}
		}
	}

	edits = append(edits, core.TextEdit{
		EditType:     core.EditDelete,
		Location:     rangeAt(cursorLine, 0, len(declLine)),
		OriginalText: declLine,
		NewText:      "",
		Priority:     50,
		Description:  "remove declaration of " + name,
	})

	return newPlan(filePath, "inline_variable", edits, map[string]any{
		"variable": name, "line": cursorLine, "column": cursorCol,
	}, "verify syntax is valid after inlining", "variable_inlining"), nil
}

// isCompoundExpression reports whether expr contains a space and any of
// the operator characters + - * / % anywhere in it, parentheses and
// quotes included, and treats such an expression as needing
// parenthesizing when substituted into a context where precedence could
// change its meaning.
func isCompoundExpression(expr string) bool {
	if !strings.Contains(expr, " ") {
		return false
	}
	return strings.ContainsAny(expr, "+-*/%")
}

// findIdentifierOccurrences returns the [start,end) column ranges of
// every whole-word occurrence of name in line.
func findIdentifierOccurrences(line, name string) [][2]int {
	var out [][2]int
	start := 0
	for {
		idx := strings.Index(line[start:], name)
		if idx < 0 {
			break
		}
		pos := start + idx
		end := pos + len(name)
		beforeOK := pos == 0 || !isIdentChar(rune(line[pos-1]))
		afterOK := end == len(line) || !isIdentChar(rune(line[end]))
		if beforeOK && afterOK {
			out = append(out, [2]int{pos, end})
		}
		start = pos + 1
		if start >= len(line) {
			break
		}
	}
	return out
}
