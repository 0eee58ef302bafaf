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

// Package vcsutil provides access to the version control operations the
// Operation Queue (C2) needs when a rename target falls inside a tracked
// working copy: a plain filesystem rename loses history for VCS-tracked
// files, so the queue prefers the VCS's own rename/move command when one
// is configured and the source path is tracked.
package vcsutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// VCS provides the operations this package needs on a particular
// instance of a version control system.
type VCS interface {
	// Root returns the root of the directory controlled by the VCS
	// (e.g. the directory containing .git).
	Root() string

	// IsTracked reports whether path (relative to, or absolute and
	// contained by, Root) is tracked by the VCS.
	IsTracked(ctx context.Context, path string) (bool, error)

	// Rename moves a tracked file or directory from oldPath to newPath
	// using the VCS's own rename/move operation, so history and
	// staged-but-uncommitted state follow the move. Both paths are
	// absolute or relative to Root.
	Rename(ctx context.Context, oldPath, newPath string) error
}

var vcsTypes = map[string]func(dir string) (VCS, error){
	"git": newGitVCS,
}

// Detect returns the VCS controlling dir, trying each known VCS type in
// turn. It returns (nil, nil) if dir is not under any recognized VCS.
func Detect(dir string) (VCS, error) {
	for _, ctor := range vcsTypes {
		v, err := ctor(dir)
		if err == nil {
			return v, nil
		}
		var notFound *notFoundError
		if !asNotFound(err, &notFound) {
			return nil, err
		}
	}
	return nil, nil
}

// New returns a new VCS value representing the version control system
// of the given type that controls the given directory.
func New(vcsType, dir string) (VCS, error) {
	ctor := vcsTypes[vcsType]
	if ctor == nil {
		return nil, fmt.Errorf("unrecognized VCS type %q", vcsType)
	}
	return ctor(dir)
}

// findRoot inspects dir and its parents to find the VCS repository
// signified by the presence of one of the given root names.
func findRoot(dir string, rootNames ...string) string {
	dir = filepath.Clean(dir)
	for {
		for _, root := range rootNames {
			if _, err := os.Stat(filepath.Join(dir, root)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if len(parent) >= len(dir) {
			break
		}
		dir = parent
	}
	return ""
}

func runCmd(ctx context.Context, dir, cmdName string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, cmdName, args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return "", fmt.Errorf("running %q %q: %v: %s", cmdName, args, err, bytes.TrimSpace(exitErr.Stderr))
	} else if err != nil {
		return "", fmt.Errorf("running %q %q: %v", cmdName, args, err)
	}
	return string(out), nil
}

type notFoundError struct {
	kind string
	dir  string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s VCS not found in any parent of %q", e.kind, e.dir)
}

func asNotFound(err error, target **notFoundError) bool {
	nf, ok := err.(*notFoundError)
	if ok {
		*target = nf
	}
	return ok
}

func homeEnvName() string {
	switch runtime.GOOS {
	case "windows":
		return "USERPROFILE"
	case "plan9":
		return "home"
	default:
		return "HOME"
	}
}

// TestEnv builds an environment so that any executed VCS command run
// with it won't be affected by the outer level environment.
func TestEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		homeEnvName() + "=/no-home",
	}
	if runtime.GOOS == "windows" {
		env = append(env, "SYSTEMROOT="+os.Getenv("SYSTEMROOT"))
	}
	return env
}
