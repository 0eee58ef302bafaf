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
	"fmt"
	"strings"
)

// PythonConfig returns the Config a Python-ecosystem plugin wires into
// [NewEngine], grounded directly on the reference Python refactoring
// module: "#" comments, triple-quoted strings and docstrings,
// True/False/None keyword literals, indentation-delimited function
// bodies, and no type annotations on extracted constants.
func PythonConfig() Config {
	return Config{
		Language:          "python",
		LineComment:       "#",
		TripleQuote:       `"""`,
		SingleQuoteChars:  []byte{'"', '\''},
		KeywordLiterals:   []string{"True", "False", "None"},
		InferType:         nil,
		ConstantDecl:      func(name, _, value string) string { return fmt.Sprintf("%s = %s", name, value) },
		VariableDecl:      func(name, value string) string { return fmt.Sprintf("%s = %s", name, value) },
		FunctionDecl: func(name, _, body string) string {
			return fmt.Sprintf("def %s():\n%s", name, body)
		},
		FunctionCall: func(name, _ string) string { return fmt.Sprintf("%s()", name) },
		IsPreambleLine: func(trimmed string) bool {
			return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")
		},
		IsDeclarationStart: func(trimmed string) bool {
			return strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class ")
		},
		BraceDelimited: false,
		IndentUnit:     "    ",
	}
}

// CStyleConfig returns the Config a C-family ecosystem plugin (C++,
// Java, C#, Go-like-syntax languages) wires into [NewEngine], grounded
// on the reference C++ refactoring module: "//"/"/* */" comments,
// brace-delimited function bodies, true/false keyword literals, and
// suffix/prefix-based numeric type inference.
func CStyleConfig() Config {
	return Config{
		Language:          "cpp",
		LineComment:       "//",
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		SingleQuoteChars:  []byte{'"', '\''},
		KeywordLiterals:   []string{"true", "false", "nullptr"},
		InferType:         inferCStyleConstantType,
		ConstantDecl: func(name, typ, value string) string {
			if typ == "" {
				typ = "auto"
			}
			return fmt.Sprintf("constexpr %s %s = %s;", typ, name, value)
		},
		VariableDecl: func(name, value string) string { return fmt.Sprintf("auto %s = %s;", name, value) },
		FunctionDecl: func(name, _, body string) string {
			return fmt.Sprintf("void %s() {\n%s\n}", name, body)
		},
		FunctionCall: func(name, _ string) string { return fmt.Sprintf("%s();", name) },
		IsPreambleLine: func(trimmed string) bool {
			return strings.HasPrefix(trimmed, "#include") || strings.HasPrefix(trimmed, "using ")
		},
		IsDeclarationStart: func(trimmed string) bool {
			return (strings.Contains(trimmed, "(") && strings.HasSuffix(strings.TrimSpace(trimmed), "{")) ||
				strings.HasPrefix(trimmed, "class ") || strings.HasPrefix(trimmed, "struct ")
		},
		BraceDelimited: true,
		IndentUnit:     "    ",
	}
}

// inferCStyleConstantType infers a C++ literal's declared type from
// its suffix and format (hex/binary/octal/decimal, L/UL/U/f/F
// suffixes), grounded on the reference plugin's infer_cpp_constant_type.
func inferCStyleConstantType(literal string) (string, bool) {
	lower := strings.ToLower(literal)
	switch {
	case literal == "true" || literal == "false":
		return "bool", true
	case strings.HasPrefix(lower, "0x"):
		if strings.HasSuffix(lower, "ul") {
			return "unsigned long", true
		}
		if strings.HasSuffix(lower, "l") {
			return "long", true
		}
		return "int", true
	case strings.HasPrefix(lower, "0b"):
		return "int", true
	case strings.HasPrefix(literal, "0") && len(literal) > 1 && !strings.Contains(literal, "."):
		return "int", true
	case strings.ContainsAny(literal, ".eE"):
		if strings.HasSuffix(lower, "f") {
			return "float", true
		}
		return "double", true
	case strings.HasSuffix(lower, "ul"):
		return "unsigned long", true
	case strings.HasSuffix(lower, "l"):
		return "long", true
	case strings.HasSuffix(lower, "u"):
		return "unsigned int", true
	default:
		return "int", true
	}
}

// RustConfig returns the Config a Cargo-ecosystem plugin wires into
// [NewEngine]: "//"/"/* */" comments, true/false keyword literals,
// brace-delimited fn bodies, and typed const declarations ("const NAME:
// TYPE = VALUE;"), the one ecosystem in this set whose extracted
// constants require an explicit type since Rust has no "auto"/implicit
// module-level const.
func RustConfig() Config {
	return Config{
		Language:          "rust",
		LineComment:       "//",
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		SingleQuoteChars:  []byte{'"', '\''},
		KeywordLiterals:   []string{"true", "false"},
		InferType:         inferRustConstantType,
		ConstantDecl: func(name, typ, value string) string {
			if typ == "" {
				typ = "i64"
			}
			return fmt.Sprintf("const %s: %s = %s;", name, typ, value)
		},
		VariableDecl: func(name, value string) string { return fmt.Sprintf("let %s = %s;", name, value) },
		FunctionDecl: func(name, _, body string) string {
			return fmt.Sprintf("fn %s() {\n%s\n}", name, body)
		},
		FunctionCall: func(name, _ string) string { return fmt.Sprintf("%s();", name) },
		IsPreambleLine: func(trimmed string) bool {
			return strings.HasPrefix(trimmed, "use ") || strings.HasPrefix(trimmed, "extern crate ") || strings.HasPrefix(trimmed, "mod ") || strings.HasPrefix(trimmed, "pub mod ")
		},
		IsDeclarationStart: func(trimmed string) bool {
			return strings.HasPrefix(trimmed, "fn ") || strings.HasPrefix(trimmed, "pub fn ") ||
				strings.HasPrefix(trimmed, "struct ") || strings.HasPrefix(trimmed, "impl ") || strings.HasPrefix(trimmed, "enum ")
		},
		BraceDelimited: true,
		IndentUnit:     "    ",
	}
}

// inferRustConstantType infers a Rust literal's declared type from its
// format and suffix, grounded on the same suffix/format heuristics as
// [inferCStyleConstantType] adjusted to Rust's own integer/float suffix
// spellings (i32/u32/i64/f64 rather than C's L/UL/U/F).
func inferRustConstantType(literal string) (string, bool) {
	lower := strings.ToLower(literal)
	switch {
	case literal == "true" || literal == "false":
		return "bool", true
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0b"), strings.HasPrefix(lower, "0o"):
		return "i64", true
	case strings.HasSuffix(lower, "u32"):
		return "u32", true
	case strings.HasSuffix(lower, "i32"):
		return "i32", true
	case strings.HasSuffix(lower, "u64"):
		return "u64", true
	case strings.HasSuffix(lower, "i64"):
		return "i64", true
	case strings.HasSuffix(lower, "f32"):
		return "f32", true
	case strings.HasSuffix(lower, "f64"), strings.ContainsAny(literal, ".eE"):
		return "f64", true
	default:
		return "i64", true
	}
}

