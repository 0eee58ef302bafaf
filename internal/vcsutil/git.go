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

package vcsutil

import (
	"context"
	"path/filepath"
	"strings"
)

type gitVCS struct {
	root string
}

func newGitVCS(dir string) (VCS, error) {
	root := findRoot(dir, ".git")
	if root == "" {
		return nil, &notFoundError{kind: "git", dir: dir}
	}
	return gitVCS{root: root}, nil
}

// Root implements [VCS.Root].
func (v gitVCS) Root() string {
	return v.root
}

func (v gitVCS) fixPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(v.root, p)
}

// IsTracked implements [VCS.IsTracked].
func (v gitVCS) IsTracked(ctx context.Context, path string) (bool, error) {
	abs := v.fixPath(path)
	out, err := runCmd(ctx, v.root, "git", "ls-files", "-z", "--error-unmatch", "--", abs)
	if err != nil {
		// git exits non-zero when the path isn't tracked; treat that as
		// "not tracked" rather than a hard failure.
		return false, nil
	}
	return strings.TrimSuffix(out, "\x00") != "", nil
}

// Rename implements [VCS.Rename]. It shells out to "git mv" so that
// history and the index follow the move; for directories this updates
// every tracked file beneath oldPath in one call.
func (v gitVCS) Rename(ctx context.Context, oldPath, newPath string) error {
	oldAbs := v.fixPath(oldPath)
	newAbs := v.fixPath(newPath)
	_, err := runCmd(ctx, v.root, "git", "mv", "-f", oldAbs, newAbs)
	return err
}
