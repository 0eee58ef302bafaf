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
)

// findLiteralAt locates the literal spanning col within line, trying
// numeric, then string, then keyword literals in that order and
// returning on the first match (grounded on the reference plugins'
// find_*_literal_at_position priority order).
func (e *Engine) findLiteralAt(line string, col int) (literal string, startCol, endCol int, ok bool) {
	if lit, s, en, ok := findNumericLiteral(line, col); ok {
		return lit, s, en, true
	}
	if lit, s, en, ok := e.findStringLiteral(line, col); ok {
		return lit, s, en, true
	}
	if lit, s, en, ok := findKeywordLiteral(line, col, e.cfg.KeywordLiterals); ok {
		return lit, s, en, true
	}
	return "", 0, 0, false
}

func findNumericLiteral(line string, col int) (string, int, int, bool) {
	if col < 0 || col >= len(line) {
		return "", 0, 0, false
	}
	isNumChar := func(c byte) bool { return c >= '0' && c <= '9' || c == '.' || c == '_' }

	start := col
	for start > 0 && isNumChar(line[start-1]) {
		start--
	}
	if start > 0 && line[start-1] == '-' {
		start--
	}
	end := col
	for end < len(line) && isNumChar(line[end]) {
		end++
	}
	// extend end over a trailing type suffix (L, UL, f, F, u, U in any order)
	for end < len(line) && strings.ContainsRune("lLuUfF", rune(line[end])) {
		end++
	}

	if start >= end || end > len(line) {
		return "", 0, 0, false
	}
	text := line[start:end]
	hasDigit := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return "", 0, 0, false
	}
	return text, start, end, true
}

func (e *Engine) findStringLiteral(line string, col int) (string, int, int, bool) {
	if col < 0 || col >= len(line) {
		return "", 0, 0, false
	}
	if tq := e.cfg.TripleQuote; tq != "" {
		if lit, s, en, ok := findTripleQuoted(line, col, tq); ok {
			return lit, s, en, true
		}
	}
	quotes := e.cfg.SingleQuoteChars
	if len(quotes) == 0 {
		quotes = []byte{'"', '\''}
	}
	limit := col
	if limit > len(line) {
		limit = len(line)
	}
	for i := limit - 1; i >= 0; i-- {
		ch := line[i]
		if !containsByte(quotes, ch) {
			continue
		}
		for j := col; j < len(line); j++ {
			if line[j] == ch {
				return line[i : j+1], i, j + 1, true
			}
		}
		break
	}
	return "", 0, 0, false
}

func findTripleQuoted(line string, col int, tq string) (string, int, int, bool) {
	n := len(tq)
	if col < n {
		return "", 0, 0, false
	}
	checkPos := col - n
	if checkPos+n > len(line) || line[checkPos:checkPos+n] != tq {
		return "", 0, 0, false
	}
	for i := checkPos; i >= 0; i-- {
		if i+n <= len(line) && line[i:i+n] == tq {
			rest := line[i+n:]
			if closeIdx := strings.Index(rest, tq); closeIdx >= 0 {
				end := i + n + closeIdx + n
				if col >= i && col <= end && end <= len(line) {
					return line[i:end], i, end, true
				}
			}
		}
	}
	return "", 0, 0, false
}

func findKeywordLiteral(line string, col int, keywords []string) (string, int, int, bool) {
	for _, kw := range keywords {
		n := len(kw)
		lo := col - n
		if lo < 0 {
			lo = 0
		}
		hi := col
		if max := len(line) - n; hi > max {
			hi = max
		}
		for start := lo; start <= hi; start++ {
			if start < 0 || start+n > len(line) {
				continue
			}
			if line[start:start+n] != kw {
				continue
			}
			beforeOK := start == 0 || !isIdentChar(rune(line[start-1]))
			afterOK := start+n == len(line) || !isIdentChar(rune(line[start+n]))
			if beforeOK && afterOK {
				return kw, start, start + n, true
			}
		}
	}
	return "", 0, 0, false
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func containsByte(set []byte, b byte) bool {
	for _, s := range set {
		if s == b {
			return true
		}
	}
	return false
}

// countUnescapedQuotes counts occurrences of quote in text not preceded
// by an odd number of backslashes.
func countUnescapedQuotes(text string, quote byte) int {
	count := 0
	backslashes := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' {
			backslashes++
			continue
		}
		if c == quote && backslashes%2 == 0 {
			count++
		}
		backslashes = 0
	}
	return count
}

// isValidLiteralLocation reports whether pos in line is outside any
// string literal and outside a line comment, generalizing the
// reference plugins' is_valid_*_literal_location.
func (e *Engine) isValidLiteralLocation(line string, pos int) bool {
	if pos > len(line) {
		pos = len(line)
	}
	before := line[:pos]
	quotes := e.cfg.SingleQuoteChars
	if len(quotes) == 0 {
		quotes = []byte{'"', '\''}
	}
	for _, q := range quotes {
		if countUnescapedQuotes(before, q)%2 == 1 {
			return false
		}
	}
	if lc := e.cfg.LineComment; lc != "" {
		if idx := strings.Index(line, lc); idx >= 0 {
			beforeComment := line[:idx]
			insideString := false
			for _, q := range quotes {
				if countUnescapedQuotes(beforeComment, q)%2 == 1 {
					insideString = true
				}
			}
			if !insideString && pos > idx {
				return false
			}
		}
	}
	return true
}

// findLiteralOccurrences returns every textual occurrence of literal in
// source that is a valid literal location, with a word-boundary guard
// for bare (unquoted) literals so a numeric match never lands inside a
// larger identifier (spec §4.10 step 3).
func (e *Engine) findLiteralOccurrences(source, literal string) []core.Range {
	var out []core.Range
	bareLiteral := literal == "" || (literal[0] != '"' && literal[0] != '\'')
	lines := strings.Split(source, "\n")
	for lineNum, line := range lines {
		start := 0
		for {
			idx := strings.Index(line[start:], literal)
			if idx < 0 {
				break
			}
			pos := start + idx
			end := pos + len(literal)
			valid := e.isValidLiteralLocation(line, pos)
			if valid && bareLiteral {
				beforeOK := pos == 0 || !isIdentChar(rune(line[pos-1]))
				afterOK := end == len(line) || !isIdentChar(rune(line[end]))
				valid = beforeOK && afterOK
			}
			if valid {
				out = append(out, rangeAt(lineNum, pos, end))
			}
			start = pos + 1
			if start >= len(line) {
				break
			}
		}
	}
	return out
}
