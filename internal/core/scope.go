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

package core

import "github.com/bmatcuk/doublestar/v4"

// RenameScope configures what the walker scans and what textual
// contexts the rewriter is allowed to touch (spec §3).
type RenameScope struct {
	UpdateCode           bool     `json:"update_code" yaml:"update_code"`
	UpdateDocs           bool     `json:"update_docs" yaml:"update_docs"`
	UpdateConfigs        bool     `json:"update_configs" yaml:"update_configs"`
	UpdateGitignore      bool     `json:"update_gitignore" yaml:"update_gitignore"`
	UpdateStringLiterals bool     `json:"update_string_literals" yaml:"update_string_literals"`
	UpdateComments       bool     `json:"update_comments" yaml:"update_comments"`
	UpdateMarkdownProse  bool     `json:"update_markdown_prose" yaml:"update_markdown_prose"`
	UpdateExactMatches   bool     `json:"update_exact_matches" yaml:"update_exact_matches"`
	UpdateAll            bool     `json:"update_all" yaml:"update_all"`
	ExcludePatterns      []string `json:"exclude_patterns,omitempty" yaml:"exclude_patterns,omitempty"`
}

// DefaultRenameScope is the scope used when the caller supplies none:
// code, docs and configs are in scope with exact-match rewriting on;
// gitignore, comments, string literals and markdown prose are left off.
func DefaultRenameScope() RenameScope {
	return RenameScope{
		UpdateCode:         true,
		UpdateDocs:         true,
		UpdateConfigs:      true,
		UpdateGitignore:    false,
		UpdateExactMatches: true,
	}
}

// IsComprehensive reports whether every file passing the scope should
// be treated as a rewrite candidate with no reference-based pruning
// (spec §3: "is_comprehensive() is true iff update_all is set").
func (s RenameScope) IsComprehensive() bool {
	return s.UpdateAll
}

// Excluded reports whether relPath (workspace-root relative, forward
// slashes) matches one of the scope's exclude globs.
func (s RenameScope) Excluded(relPath string) bool {
	for _, pat := range s.ExcludePatterns {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}

// ToMap serializes the scope into the flat mapping the Reference
// Updater merges into RenameInfo before every plugin call (spec §4.4,
// §4.7 step 1), so plugins can gate textual heuristics on these flags
// without needing to know about [RenameScope] itself.
func (s RenameScope) ToMap() map[string]any {
	return map[string]any{
		"update_code":            s.UpdateCode,
		"update_docs":            s.UpdateDocs,
		"update_configs":         s.UpdateConfigs,
		"update_gitignore":       s.UpdateGitignore,
		"update_string_literals": s.UpdateStringLiterals,
		"update_comments":        s.UpdateComments,
		"update_markdown_prose":  s.UpdateMarkdownProse,
		"update_exact_matches":   s.UpdateExactMatches,
		"update_all":             s.UpdateAll,
	}
}

// RenameInfo is free-form structured data, semantically always a
// mapping, that the caller supplies and plugins consume (spec §3). The
// core merges the serialized [RenameScope] into it so plugins always
// see both together (spec §4.7 step 1).
type RenameInfo map[string]any

// Merge returns a new RenameInfo containing every key of scope's
// serialized form plus every key of info, with info's keys taking
// precedence on conflict (the caller's explicit rename metadata wins
// over the scope's derived flags).
func (info RenameInfo) Merge(scope RenameScope) RenameInfo {
	out := make(RenameInfo, len(info)+8)
	for k, v := range scope.ToMap() {
		out[k] = v
	}
	for k, v := range info {
		out[k] = v
	}
	return out
}

// Bool reads a boolean field, defaulting to false if absent or of the
// wrong type. Plugins use this to gate heuristics on scope flags
// merged into their rename_info (spec §4.4).
func (info RenameInfo) Bool(key string) bool {
	v, ok := info[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// String reads a string field, defaulting to "".
func (info RenameInfo) String(key string) string {
	v, ok := info[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Well-known RenameInfo keys used by ecosystem plugins for package
// renames and consolidations (spec §3).
const (
	KeyOldCrateName     = "old_crate_name"
	KeyNewCrateName     = "new_crate_name"
	KeyNewImportPrefix  = "new_import_prefix"
	KeySubmoduleName    = "submodule_name"
	KeyTargetCrateName  = "target_crate_name"
)
