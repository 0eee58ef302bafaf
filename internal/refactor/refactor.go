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

// Package refactor implements the Extract/Inline Refactoring Engine
// (C10): extract-constant, extract-variable, extract-function, and
// inline-variable, each producing a [core.EditPlan] without touching
// the filesystem (spec §4.10). The engine works line- and regex-based
// rather than against a real grammar, the same way the reference
// plugins it is grounded on analyze source: a cursor position, a
// handful of textual scans, and a small set of per-language knobs
// (comment markers, quote styles, keyword literals, declaration
// templates) supplied by a [Config]. Concrete ecosystems plug in their
// own [Config] rather than the engine growing per-language branches.
package refactor

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/typemill-go/refactorctl/internal/core"
)

// Config supplies the per-language knobs the engine needs. A nil
// InferType means the language has no extract-constant type annotation
// (e.g. Python); a non-nil one receives the literal's raw text and
// returns the inferred type name plus whether inference succeeded.
type Config struct {
	Language string

	LineComment        string   // e.g. "#", "//"; "" disables line-comment exclusion
	BlockCommentStart  string   // e.g. "/*"; "" disables block-comment exclusion
	BlockCommentEnd    string   // e.g. "*/"
	TripleQuote        string   // e.g. `"""`; "" if the language has no triple-quoted strings
	SingleQuoteChars   []byte   // quote characters checked for single/double-quoted strings
	KeywordLiterals    []string // e.g. {"True", "False", "None"} or {"true", "false", "nullptr"}

	// InferType infers an extract-constant's declared type from its
	// literal text. Nil for dynamically typed languages.
	InferType func(literal string) (typ string, ok bool)

	// ConstantDecl renders a module-level constant declaration. typ is
	// "" when InferType is nil or returned ok=false.
	ConstantDecl func(name, typ, value string) string
	// VariableDecl renders a local variable declaration.
	VariableDecl func(name, value string) string
	// FunctionDecl renders a new function/procedure declaration with
	// the given name and body (already indented). params is always ""
	// for the minimal extraction the spec describes.
	FunctionDecl func(name, params, body string) string
	// FunctionCall renders a call expression/statement invoking name.
	FunctionCall func(name, params string) string

	// IsPreambleLine reports whether a trimmed line is a module-level
	// preamble statement (import, package directive, ...) that pushes
	// the constant-insertion point forward.
	IsPreambleLine func(trimmed string) bool
	// IsDeclarationStart reports whether a trimmed line begins a
	// function or type declaration, stopping preamble/enclosing-scope
	// scans.
	IsDeclarationStart func(trimmed string) bool

	// BraceDelimited selects brace-counting (C-family) rather than
	// indentation-based (Python-family) block-extent detection for
	// extract-function's enclosing-function search.
	BraceDelimited bool
	IndentUnit     string // e.g. "    "

	// DeclarationPattern matches a single-line variable declaration,
	// capturing the declared name in group 1 and its initializer
	// expression in group 2. Defaults to an optional-type-prefix
	// assignment (`[type] name = value[;]`) when nil.
	DeclarationPattern *regexp.Regexp
}

func (c Config) declarationPattern() *regexp.Regexp {
	if c.DeclarationPattern != nil {
		return c.DeclarationPattern
	}
	return regexp.MustCompile(`^\s*(?:[\w:<>,\.\*&\s]+\s+)?(\w+)\s*=\s*(.+?);?\s*$`)
}

// Engine implements [plugin.RefactoringProvider] for one language
// Config. It is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine configured for one language.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

var refactoringKinds = map[string]bool{
	"extract_constant": true,
	"extract_variable": true,
	"extract_function": true,
	"inline_variable":  true,
}

// SupportsRefactoring implements plugin.RefactoringProvider.
func (e *Engine) SupportsRefactoring(kind string) bool { return refactoringKinds[kind] }

// IsScreamingSnakeCase reports whether name is a valid extract-constant
// identifier per spec §4.10: a nonempty run of uppercase letters,
// digits, and underscores, not starting or ending with an underscore,
// containing at least one uppercase letter.
func IsScreamingSnakeCase(name string) bool {
	if name == "" || strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_") {
		return false
	}
	hasUpper := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r) || r == '_':
		default:
			return false
		}
	}
	return hasUpper
}

func newPlan(filePath, intent string, edits []core.TextEdit, args map[string]any, validation, impactArea string) *core.EditPlan {
	complexity := len(edits)
	if complexity < 1 {
		complexity = 1
	}
	if complexity > 10 {
		complexity = 10
	}
	return &core.EditPlan{
		SourceFile: filePath,
		Edits:      edits,
		Validations: []string{validation},
		Metadata: core.PlanMetadata{
			IntentName:    intent,
			IntentArgs:    args,
			Complexity:    complexity,
			ImpactAreas:   []string{impactArea},
			TransactionID: uuid.NewString(),
		},
	}
}

func rangeAt(line, startCol, endCol int) core.Range {
	return core.Range{
		Start: core.Position{Line: line, Column: startCol},
		End:   core.Position{Line: line, Column: endCol},
	}
}

func pointAt(line, col int) core.Range {
	return core.Range{Start: core.Position{Line: line, Column: col}, End: core.Position{Line: line, Column: col}}
}
