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

// Package cmd builds the refctl command tree: one subcommand per
// top-level engine operation, each resolving its own [engine.Engine]
// against the invocation's --project-root rather than sharing one
// across the process, since a CLI invocation is one operation and
// exits.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/typemill-go/refactorctl/internal/config"
	"github.com/typemill-go/refactorctl/internal/engine"
	"github.com/typemill-go/refactorctl/internal/errs"
	"github.com/typemill-go/refactorctl/internal/plugins"
	"github.com/typemill-go/refactorctl/internal/vcsutil"
)

// Command is the active invocation: the cobra command tree plus the
// project root every subcommand's RunE resolves an [engine.Engine]
// against.
type Command struct {
	*cobra.Command

	projectRoot string
}

type runFunction func(c *Command, args []string) error

// mkRunE adapts a runFunction to cobra's RunE signature, keeping c's
// embedded *cobra.Command pointed at whichever subcommand is actually
// executing so Out/ErrOrStderr resolve correctly.
func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cc *cobra.Command, args []string) error {
		c.Command = cc
		return f(c, args)
	}
}

// New builds the root command for args (normally os.Args[1:]).
func New(args []string) (*Command, error) {
	c := &Command{}
	root := &cobra.Command{
		Use:           "refctl",
		Short:         "refctl applies cross-language renames, consolidations, and edit plans",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&c.projectRoot, "project-root", ".", "root of the project the operation resolves paths and scanning against")
	c.Command = root

	for _, newSub := range []func(*Command) *cobra.Command{
		newRenameFileCmd,
		newRenameDirectoryCmd,
		newConsolidatePackageCmd,
		newRenameSymbolCmd,
		newExtractConstantCmd,
		newExtractVariableCmd,
		newExtractFunctionCmd,
		newInlineVariableCmd,
		newApplyEditsCmd,
		newCreateFileCmd,
		newDeleteFileCmd,
		newReadFileCmd,
		newWriteFileCmd,
		newListFilesCmd,
		newNotifyFileOpenedCmd,
		newNotifyFileSavedCmd,
		newNotifyFileClosedCmd,
	} {
		root.AddCommand(newSub(c))
	}

	root.SetArgs(args)
	return c, nil
}

// newEngine wires the component graph rooted at c.projectRoot,
// detecting a controlling VCS when one is present so renames use its
// own move operation instead of a plain filesystem rename.
func (c *Command) newEngine() (*engine.Engine, error) {
	absRoot, err := filepath.Abs(c.projectRoot)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidRequest, err, "resolving --project-root %q", c.projectRoot)
	}
	vcs, err := vcsutil.Detect(absRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(os.Getenv, absRoot, filepath.Join(absRoot, ".refactorctl.yaml"))
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(c.ErrOrStderr(), nil))
	return engine.New(absRoot, plugins.Default(), cfg, vcs, logger), nil
}

// printResult writes v to the command's configured stdout as indented
// JSON, the wire-format result document every top-level operation
// returns.
func printResult(c *Command, v any) error {
	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// absArg resolves a CLI-supplied path against c.projectRoot.
func (c *Command) absArg(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectRoot, path)
}

// Main runs the CLI for os.Args[1:] and returns a process exit code,
// printing a structured rendering of a *[errs.Error] failure when one
// surfaces instead of cobra's default bare error line.
func Main() int {
	c, err := New(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "refctl:", err)
		return 1
	}
	if err := c.Execute(); err != nil {
		printErr(err)
		return 1
	}
	return 0
}

func printErr(err error) {
	var e *errs.Error
	if errors.As(err, &e) {
		fmt.Fprintf(os.Stderr, "refctl: %s: %s", e.Kind, e.Message)
		if e.AffectedPath != "" {
			fmt.Fprintf(os.Stderr, " (%s)", e.AffectedPath)
		}
		fmt.Fprintln(os.Stderr)
		if e.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  suggestion: %s\n", e.Suggestion)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "refctl:", err)
}
