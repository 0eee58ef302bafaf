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

// Package core defines the data model shared by every component of the
// refactoring engine (spec §3): absolute paths, positions, text edits,
// edit plans, rename scope/info, and the snapshot/operation types used
// by the applicator and operation queue.
package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AbsolutePath is a normalized absolute filesystem path: the canonical
// identity of a file or directory throughout the engine. Relative
// paths must be resolved against the project root before entering any
// component; every exported function in this module that accepts a
// path documents whether it expects an AbsolutePath or a root-relative
// string.
type AbsolutePath string

// NewAbsolutePath resolves p against root (if p is relative) and
// cleans the result. It rejects paths that would escape root.
func NewAbsolutePath(root, p string) (AbsolutePath, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	rootClean := filepath.Clean(root)
	rel, err := filepath.Rel(rootClean, p)
	if err != nil {
		return "", fmt.Errorf("cannot relate %q to project root %q: %w", p, rootClean, err)
	}
	if rel == ".." || (len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside project root %q", p, rootClean)
	}
	return AbsolutePath(p), nil
}

func (p AbsolutePath) String() string { return string(p) }

// Rel returns p's path relative to root, using forward slashes
// regardless of platform, matching the wire format's path convention.
func (p AbsolutePath) Rel(root string) string {
	rel, err := filepath.Rel(root, string(p))
	if err != nil {
		return string(p)
	}
	return filepath.ToSlash(rel)
}

// Dir returns the parent directory of p.
func (p AbsolutePath) Dir() AbsolutePath {
	return AbsolutePath(filepath.Dir(string(p)))
}

// Base returns the final path element of p.
func (p AbsolutePath) Base() string {
	return filepath.Base(string(p))
}

// Ext returns the file extension of p, including the leading dot,
// lower-cased.
func (p AbsolutePath) Ext() string {
	return strings.ToLower(filepath.Ext(string(p)))
}

// Under reports whether p is dir itself or is contained within dir.
func (p AbsolutePath) Under(dir AbsolutePath) bool {
	if p == dir {
		return true
	}
	rel, err := filepath.Rel(string(dir), string(p))
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	sep := string(filepath.Separator)
	return len(rel) >= 3 && rel[:2] == ".." && rel[2:3] == sep
}
