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
)

func newRenameFileCmd(c *Command) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "rename-file <old-path> <new-path>",
		Short: "rename a file and rewrite every reference to it",
		Args:  cobra.ExactArgs(2),
	}
	scope := addScopeFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "return the edit plan without applying it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		res, err := e.RenameFile(cmd.Context(), c.absArg(args[0]), c.absArg(args[1]), dryRun, scope.scope())
		if err != nil {
			return err
		}
		return printResult(c, res)
	})
	return cmd
}

func newRenameDirectoryCmd(c *Command) *cobra.Command {
	var dryRun, asConsolidation bool
	cmd := &cobra.Command{
		Use:   "rename-directory <old-path> <new-path>",
		Short: "rename a directory and rewrite every reference under its tree",
		Args:  cobra.ExactArgs(2),
	}
	scope := addScopeFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "return the edit plan without applying it")
	cmd.Flags().BoolVar(&asConsolidation, "consolidate", false, "treat the move as a package consolidation instead of a plain rename")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		res, err := e.RenameDirectory(cmd.Context(), c.absArg(args[0]), c.absArg(args[1]), dryRun, asConsolidation, scope.scope())
		if err != nil {
			return err
		}
		return printResult(c, res)
	})
	return cmd
}

func newConsolidatePackageCmd(c *Command) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "consolidate-package <old-path> <new-path>",
		Short: "merge a package directory into another, rewriting imports and resolving manifest conflicts",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without applying it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		res, err := e.ConsolidatePackage(cmd.Context(), c.absArg(args[0]), c.absArg(args[1]), dryRun)
		if err != nil {
			return err
		}
		return printResult(c, res)
	})
	return cmd
}

func newRenameSymbolCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename-symbol <file> <old-name> <new-name>",
		Short: "rename a symbol via the owning plugin's refactoring provider",
		Args:  cobra.ExactArgs(3),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		res, err := e.RenameSymbol(cmd.Context(), c.absArg(args[0]), args[1], args[2])
		if err != nil {
			return err
		}
		return printResult(c, res)
	})
	return cmd
}
