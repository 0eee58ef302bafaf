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

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/typemill-go/refactorctl/internal/core"
)

// scopeFlags binds a rename's --update-* and --exclude flags, one set
// per command that accepts a [core.RenameScope].
type scopeFlags struct {
	updateCode           bool
	updateDocs           bool
	updateConfigs        bool
	updateGitignore      bool
	updateStringLiterals bool
	updateComments       bool
	updateMarkdownProse  bool
	updateExactMatches   bool
	updateAll            bool
	exclude              []string
}

// addScopeFlags registers the rename-scope flags, defaulted to
// [core.DefaultRenameScope] so an invocation that sets none of them
// behaves exactly like the default scope.
func addScopeFlags(cmd *cobra.Command) *scopeFlags {
	d := core.DefaultRenameScope()
	f := &scopeFlags{}
	flags := cmd.Flags()
	flags.BoolVar(&f.updateCode, "update-code", d.UpdateCode, "rewrite import/reference statements in source code")
	flags.BoolVar(&f.updateDocs, "update-docs", d.UpdateDocs, "rewrite references inside documentation files")
	flags.BoolVar(&f.updateConfigs, "update-configs", d.UpdateConfigs, "rewrite references inside config files")
	flags.BoolVar(&f.updateGitignore, "update-gitignore", d.UpdateGitignore, "rewrite matching .gitignore entries")
	flags.BoolVar(&f.updateStringLiterals, "update-string-literals", d.UpdateStringLiterals, "rewrite matching string literals in source code")
	flags.BoolVar(&f.updateComments, "update-comments", d.UpdateComments, "rewrite matching mentions inside code comments")
	flags.BoolVar(&f.updateMarkdownProse, "update-markdown-prose", d.UpdateMarkdownProse, "rewrite matching prose mentions in markdown files")
	flags.BoolVar(&f.updateExactMatches, "update-exact-matches", d.UpdateExactMatches, "rewrite exact textual matches the generic detector finds")
	flags.BoolVar(&f.updateAll, "update-all", d.UpdateAll, "treat every scanned file as a rewrite candidate, bypassing reference detection")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "glob pattern to exclude from scanning (repeatable)")
	return f
}

func (f *scopeFlags) scope() *core.RenameScope {
	return &core.RenameScope{
		UpdateCode:           f.updateCode,
		UpdateDocs:           f.updateDocs,
		UpdateConfigs:        f.updateConfigs,
		UpdateGitignore:      f.updateGitignore,
		UpdateStringLiterals: f.updateStringLiterals,
		UpdateComments:       f.updateComments,
		UpdateMarkdownProse:  f.updateMarkdownProse,
		UpdateExactMatches:   f.updateExactMatches,
		UpdateAll:            f.updateAll,
		ExcludePatterns:      f.exclude,
	}
}
