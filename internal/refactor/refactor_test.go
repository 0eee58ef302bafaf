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
	"testing"
)

func TestIsScreamingSnakeCase(t *testing.T) {
	cases := map[string]bool{
		"TAX_RATE":  true,
		"MAX_USERS": true,
		"answer":    false,
		"_LEADING":  false,
		"TRAILING_": false,
		"":          false,
		"ALL123":    true,
		"lower_mix": false,
	}
	for name, want := range cases {
		if got := IsScreamingSnakeCase(name); got != want {
			t.Errorf("IsScreamingSnakeCase(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSuggestVariableNamePython(t *testing.T) {
	e := NewEngine(PythonConfig())
	cases := map[string]string{
		"len(items)":       "length",
		"text.split(',')":  "parts",
		`"hello"`:          "text",
		"42":               "value",
		"[1, 2, 3]":        "items",
		"a + b":            "result",
		"some_function()":  "extracted",
	}
	for expr, want := range cases {
		if got := e.suggestVariableName(expr); got != want {
			t.Errorf("suggestVariableName(%q) = %q, want %q", expr, got, want)
		}
	}
}

func TestExtractVariablePython(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "\ndef calculate():\n    result = 10 + 20\n    return result\n"
	plan, err := e.ExtractVariable(source, 2, 13, 2, 20, "", "test.py")
	if err != nil {
		t.Fatalf("ExtractVariable failed: %v", err)
	}
	if len(plan.Edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(plan.Edits))
	}
	if plan.Edits[1].OriginalText != "10 + 20" {
		t.Fatalf("unexpected extracted expression: %q", plan.Edits[1].OriginalText)
	}
}

func TestExtractVariableBlocksAssignment(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "x = 1\n"
	if _, err := e.ExtractVariable(source, 0, 0, 0, 5, "y", "test.py"); err == nil {
		t.Fatal("expected error extracting an assignment statement")
	}
}

func TestInlineVariablePython(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "x = 42\ny = x + 1\nz = x * 2"
	plan, err := e.InlineVariable(source, 0, 0, "test.py")
	if err != nil {
		t.Fatalf("InlineVariable failed: %v", err)
	}
	// 2 usages + 1 delete
	if len(plan.Edits) != 3 {
		t.Fatalf("expected 3 edits, got %d", len(plan.Edits))
	}
	last := plan.Edits[len(plan.Edits)-1]
	if last.EditType != "delete" {
		t.Fatalf("expected last edit to delete the declaration, got %v", last.EditType)
	}
}

func TestExtractConstantPythonNumber(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "x = 42\ny = 42\n"
	plan, err := e.ExtractConstant(source, 0, 4, "ANSWER", "test.py")
	if err != nil {
		t.Fatalf("ExtractConstant failed: %v", err)
	}
	if len(plan.Edits) != 3 {
		t.Fatalf("expected 1 insert + 2 replace edits, got %d", len(plan.Edits))
	}
}

func TestExtractConstantRejectsLowercaseName(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "x = 42\n"
	if _, err := e.ExtractConstant(source, 0, 4, "answer", "test.py"); err == nil {
		t.Fatal("expected rejection of lowercase constant name")
	}
}

func TestExtractConstantSkipsEscapedQuoteOccurrence(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "RATE = 0.08\n" +
		`description = "The rate is \"0.08\" percent"` + "\n" +
		"tax = 0.08"
	plan, err := e.ExtractConstant(source, 0, 7, "TAX_RATE", "test.py")
	if err != nil {
		t.Fatalf("ExtractConstant failed: %v", err)
	}
	if len(plan.Edits) != 3 {
		t.Fatalf("expected 1 insert + 2 replace edits (string-embedded literal excluded), got %d", len(plan.Edits))
	}
}

func TestExtractFunctionPython(t *testing.T) {
	e := NewEngine(PythonConfig())
	source := "def outer():\n    a = 1\n    b = 2\n    print(a + b)\n"
	plan, err := e.ExtractFunction(source, 1, 4, 2, 9, "helper", "test.py")
	if err != nil {
		t.Fatalf("ExtractFunction failed: %v", err)
	}
	if len(plan.Edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(plan.Edits))
	}
	if !strings.Contains(plan.Edits[0].NewText, "def helper():") {
		t.Fatalf("expected new function declaration, got %q", plan.Edits[0].NewText)
	}
	if plan.Edits[1].NewText != "helper()" {
		t.Fatalf("expected call to helper(), got %q", plan.Edits[1].NewText)
	}
}

func TestInferCStyleConstantType(t *testing.T) {
	cases := map[string]string{
		"42":     "int",
		"0xFF":   "int",
		"3.14":   "double",
		"2.5f":   "float",
		"100L":   "long",
		"true":   "bool",
		"100UL":  "unsigned long",
		"5U":     "unsigned int",
	}
	for literal, want := range cases {
		got, ok := inferCStyleConstantType(literal)
		if !ok {
			t.Fatalf("inferCStyleConstantType(%q) failed", literal)
		}
		if got != want {
			t.Errorf("inferCStyleConstantType(%q) = %q, want %q", literal, got, want)
		}
	}
}

func TestExtractConstantCStyleAnnotatesType(t *testing.T) {
	e := NewEngine(CStyleConfig())
	source := "void f() {\n    int x = 42;\n}\n"
	plan, err := e.ExtractConstant(source, 1, 13, "ANSWER", "test.cpp")
	if err != nil {
		t.Fatalf("ExtractConstant failed: %v", err)
	}
	if !strings.Contains(plan.Edits[0].NewText, "constexpr int ANSWER = 42;") {
		t.Fatalf("expected typed constant declaration, got %q", plan.Edits[0].NewText)
	}
}

func TestExtractConstantRustAnnotatesType(t *testing.T) {
	e := NewEngine(RustConfig())
	source := "fn f() {\n    let x = 42;\n}\n"
	plan, err := e.ExtractConstant(source, 1, 13, "ANSWER", "test.rs")
	if err != nil {
		t.Fatalf("ExtractConstant failed: %v", err)
	}
	if !strings.Contains(plan.Edits[0].NewText, "const ANSWER: i64 = 42;") {
		t.Fatalf("expected typed constant declaration, got %q", plan.Edits[0].NewText)
	}
}
