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

// ExtractConstant implements plugin.RefactoringProvider (spec §4.10).
func (e *Engine) ExtractConstant(source string, cursorLine, cursorCol int, name, filePath string) (*core.EditPlan, error) {
	if !IsScreamingSnakeCase(name) {
		return nil, errs.New(errs.ValidationFailure, "constant name %q is not SCREAMING_SNAKE_CASE", name)
	}

	lines := strings.Split(source, "\n")
	if cursorLine < 0 || cursorLine >= len(lines) {
		return nil, errs.New(errs.InvalidRequest, "line %d out of range", cursorLine)
	}
	literal, _, _, ok := e.findLiteralAt(lines[cursorLine], cursorCol)
	if !ok {
		return nil, errs.New(errs.InvalidRequest, "no literal found at %d:%d", cursorLine, cursorCol)
	}

	occurrences := e.findLiteralOccurrences(source, literal)
	if len(occurrences) == 0 {
		return nil, errs.New(errs.InvalidRequest, "literal %q has no valid occurrences to replace", literal)
	}

	insertionLine := e.findPreambleEnd(lines)

	typ := ""
	if e.cfg.InferType != nil {
		if t, ok := e.cfg.InferType(literal); ok {
			typ = t
		}
	}

	declaration := e.cfg.ConstantDecl(name, typ, literal)
	edits := []core.TextEdit{{
		EditType:    core.EditInsert,
		Location:    pointAt(insertionLine, 0),
		NewText:     declaration + "\n",
		Priority:    100,
		Description: "insert constant declaration for " + name,
	}}
	priority := uint8(90)
	for _, occ := range occurrences {
		edits = append(edits, core.TextEdit{
			EditType:     core.EditReplace,
			Location:     occ,
			OriginalText: literal,
			NewText:      name,
			Priority:     priority,
			Description:  "replace literal with " + name,
		})
		if priority > 1 {
			priority--
		}
	}

	return newPlan(filePath, "extract_constant", edits, map[string]any{
		"line": cursorLine, "column": cursorCol, "name": name,
	}, "verify syntax is valid after constant extraction", "constant_extraction"), nil
}

// findPreambleEnd returns the line index immediately after the module's
// leading preamble (import/package lines, and a leading docstring or
// block comment), stopping at the first declaration (spec §4.10 step
// 4). Generalizes the reference plugins' insertion-point scans, which
// differ only in what counts as "preamble" per language.
func (e *Engine) findPreambleEnd(lines []string) int {
	insertionLine := 0
	inBlock := false

	blockStart, blockEnd := e.cfg.TripleQuote, e.cfg.TripleQuote
	if e.cfg.BlockCommentStart != "" {
		blockStart, blockEnd = e.cfg.BlockCommentStart, e.cfg.BlockCommentEnd
	}

	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)

		if blockStart != "" {
			if inBlock {
				if strings.Contains(trimmed, blockEnd) {
					inBlock = false
					insertionLine = idx + 1
				}
				continue
			}
			if strings.HasPrefix(trimmed, blockStart) {
				if !strings.HasSuffix(trimmed, blockEnd) || trimmed == blockStart {
					inBlock = true
					continue
				}
				insertionLine = idx + 1
				continue
			}
		}

		if e.cfg.IsPreambleLine != nil && e.cfg.IsPreambleLine(trimmed) {
			insertionLine = idx + 1
			continue
		}
		if e.cfg.IsDeclarationStart != nil && e.cfg.IsDeclarationStart(trimmed) {
			break
		}
	}
	return insertionLine
}
