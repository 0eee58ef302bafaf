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

// Package web is the TypeScript/JavaScript language plugin: ".ts",
// ".tsx", ".js", ".jsx" sources, "package.json" manifests, and
// relative-import rewriting plus tsconfig.json/jsconfig.json path
// aliases (C9). It is the plugin this tree's [alias.TSConfigResolver]
// was built for.
package web

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/typemill-go/refactorctl/internal/alias"
	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/refactor"
)

var extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Plugin implements [plugin.Plugin] for TypeScript/JavaScript source
// files.
type Plugin struct {
	aliases     *alias.TSConfigResolver
	refactoring *refactor.Engine
}

// New returns a ready-to-register web plugin.
func New() *Plugin {
	return &Plugin{
		aliases:     alias.NewTSConfigResolver(),
		refactoring: refactor.NewEngine(refactor.CStyleConfig()),
	}
}

var _ plugin.Plugin = (*Plugin)(nil)

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: "web", Extensions: extensions, ManifestFilename: "package.json"}
}

func (p *Plugin) HandlesExtension(ext string) bool {
	ext = "." + strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// importSpecifier matches an ES module import/export/require specifier
// of any shape, relative ("./x", "../x") or aliased ("@/x", "$lib/x",
// "~/x", a bare package-style name), capturing the quote character and
// the specifier body so it can be rewritten without disturbing the
// surrounding statement.
var importSpecifier = regexp.MustCompile(`(from\s+|require\(\s*|import\(\s*)(['"])([^'"]+)(['"])`)

// RewriteFileReferences rewrites every import specifier in content that
// resolves to oldPath so it resolves to newPath instead, grounded on
// the reference updater's relative-import rewrite pass (spec §4.7).
// Relative specifiers are resolved against currentFile's directory; a
// non-relative specifier is resolved through the tsconfig/jsconfig
// path-alias resolver (C9), since "@/utils/helper" and "./helper" can
// both name the same file depending on project configuration (spec
// §4.6 step 2, §4.9). Either way the match is extension-insensitive,
// since TS/JS imports conventionally omit the source extension.
func (p *Plugin) RewriteFileReferences(content, oldPath, newPath, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	ctx := context.Background()
	dir := path.Dir(currentFile)
	total := 0
	out := importSpecifier.ReplaceAllStringFunc(content, func(match string) string {
		groups := importSpecifier.FindStringSubmatch(match)
		specifier := groups[3]

		var matches bool
		if isRelativeSpecifier(specifier) {
			matches = specifierMatchesPath(path.Join(dir, specifier), oldPath)
		} else if p.aliases != nil {
			if resolved, ok, err := p.aliases.ResolveAlias(ctx, specifier, currentFile, projectRoot); err == nil && ok {
				matches = specifierMatchesPath(resolved, oldPath)
			}
		}
		if !matches {
			return match
		}
		total++
		return groups[1] + groups[2] + p.newSpecifier(ctx, isRelativeSpecifier(specifier), dir, currentFile, newPath, projectRoot) + groups[4]
	})
	return out, total, total > 0
}

// isRelativeSpecifier reports whether specifier is relative-path-rooted
// ("./x", "../x") rather than aliased or bare.
func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// newSpecifier picks the replacement specifier for a rewritten import:
// a relative import stays relative; an aliased import is re-expressed
// through the alias resolver's reverse mapping (C9) when one covers
// newPath, falling back to a plain relative specifier when it doesn't
// (e.g. the file moved outside every configured alias root).
func (p *Plugin) newSpecifier(ctx context.Context, wasRelative bool, dir, currentFile, newPath, projectRoot string) string {
	if !wasRelative && p.aliases != nil {
		if aliased, ok, err := p.aliases.PathToAlias(ctx, newPath, currentFile, projectRoot); err == nil && ok {
			return aliased
		}
	}
	return relativeSpecifier(dir, newPath)
}

// specifierMatchesPath compares a resolved specifier against a
// candidate path ignoring trailing ".ts"/".tsx"/".js"/".jsx" on either
// side and a trailing "/index" on the candidate, since
// "./components/button" and "./components/button/index.tsx" name the
// same module.
func specifierMatchesPath(resolved, candidate string) bool {
	r := stripKnownExt(resolved)
	c := strings.TrimSuffix(stripKnownExt(candidate), "/index")
	return r == c || r == c+"/index"
}

func stripKnownExt(p string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

func relativeSpecifier(fromDir, target string) string {
	rel, err := filepathRel(fromDir, stripKnownExt(target))
	if err != nil {
		return target
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// filepathRel is path.Dir/path.Join-compatible relative-path math (the
// reference updater works in slash-separated project-relative paths
// throughout, never host path separators), grounded on the same
// specifier-construction approach the reference TypeScript plugin uses
// when rewriting an import back to relative form.
func filepathRel(fromDir, target string) (string, error) {
	fromParts := splitNonEmpty(fromDir)
	targetParts := splitNonEmpty(target)

	common := 0
	for common < len(fromParts) && common < len(targetParts) && fromParts[common] == targetParts[common] {
		common++
	}

	ups := len(fromParts) - common
	rel := strings.Repeat("../", ups) + strings.Join(targetParts[common:], "/")
	if rel == "" {
		rel = "."
	}
	return rel, nil
}

func splitNonEmpty(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// RewriteFileReferencesBatch applies RewriteFileReferences once per
// rename.
func (p *Plugin) RewriteFileReferencesBatch(content string, renames []plugin.Rename, currentFile, projectRoot string, info core.RenameInfo) (string, int, bool) {
	return plugin.LoopingBatch(p, content, renames, currentFile, projectRoot, info)
}

// ReferenceDetector reports this file's import specifiers so the
// generic detector's plugin-reported-imports pass (spec §4.6 step 2)
// can resolve aliased imports through PathAliasResolver, not just the
// relative ones it could already find by text matching alone.
func (p *Plugin) ReferenceDetector() plugin.ReferenceDetector { return importReporter{} }

// importReporter implements [plugin.ReferenceDetector].Imports by
// reusing the same specifier grammar RewriteFileReferences rewrites
// against.
type importReporter struct{}

func (importReporter) Imports(content, filePath string) []string {
	var out []string
	for _, m := range importSpecifier.FindAllStringSubmatch(content, -1) {
		out = append(out, m[3])
	}
	return out
}

// DetectReferences defers to the generic detector's own candidate loop,
// which already drives Imports per file; this plugin has no faster
// whole-project index to offer.
func (importReporter) DetectReferences(ctx context.Context, oldPath string, candidateFiles []string, projectRoot string, renameInfo core.RenameInfo) ([]string, error) {
	return nil, nil
}

// ImportAdvancedSupport returns nil: this plugin's import rewriting is
// handled entirely by RewriteFileReferences; dependency-version edits
// to package.json go through [plugin.ManifestSupport] instead.
func (p *Plugin) ImportAdvancedSupport() plugin.ImportAdvancedSupport { return nil }

// PathAliasResolver exposes the tsconfig.json/jsconfig.json "paths"
// resolver (C9).
func (p *Plugin) PathAliasResolver() plugin.AliasResolver { return p.aliases }

// RefactoringProvider returns the generic extract/inline engine
// configured for brace-delimited, C-family-like TypeScript/JavaScript
// syntax.
func (p *Plugin) RefactoringProvider() plugin.RefactoringProvider { return p.refactoring }

// Lifecycle invalidates the alias resolver's cached tsconfig/jsconfig
// configuration whenever one is saved, so a path-mapping edit takes
// effect on the next reference update without waiting for the
// resolver's directory-walk cache to expire on its own.
func (p *Plugin) Lifecycle() plugin.Lifecycle { return lifecycle{p.aliases} }

type lifecycle struct {
	aliases *alias.TSConfigResolver
}

func (l lifecycle) FileOpened(_ string) {}
func (l lifecycle) FileClosed(_ string) {}

func (l lifecycle) FileSaved(p string) {
	base := path.Base(p)
	if base == "tsconfig.json" || base == "jsconfig.json" {
		l.aliases.InvalidateConfig(path.Dir(p))
	}
}

// ManifestSupport returns the package.json conventions C11
// consolidates against.
func (p *Plugin) ManifestSupport() plugin.ManifestSupport { return packageJSONManifest{} }
