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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/typemill-go/refactorctl/internal/core"
)

// emitPlan prints plan as the apply_edits operation's wire format
// expects it, optionally running it through ApplyEdits immediately
// when apply is set, so a caller doesn't need a second invocation
// piping the plan back in through stdin.
func emitPlan(c *Command, apply bool, plan *core.EditPlan, err error) error {
	if err != nil {
		return err
	}
	if !apply {
		return printResult(c, plan)
	}
	e, err := c.newEngine()
	if err != nil {
		return err
	}
	res, err := e.ApplyEdits(c.Context(), plan)
	if err != nil {
		return err
	}
	return printResult(c, res)
}

func newExtractConstantCmd(c *Command) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "extract-constant <file> <cursor-line> <cursor-col> <name>",
		Short: "extract the literal at cursor into a named constant declared above its first occurrence",
		Args:  cobra.ExactArgs(4),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the resulting edit plan immediately instead of only printing it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		col, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		plan, err := e.ExtractConstant(c.absArg(args[0]), line, col, args[3])
		return emitPlan(c, apply, plan, err)
	})
	return cmd
}

func newExtractVariableCmd(c *Command) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "extract-variable <file> <start-line> <start-col> <end-line> <end-col> <name>",
		Short: "extract the expression spanning start..end into a named variable declared above its statement",
		Args:  cobra.ExactArgs(6),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the resulting edit plan immediately instead of only printing it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		sl, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		sc, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		el, err := strconv.Atoi(args[3])
		if err != nil {
			return err
		}
		ec, err := strconv.Atoi(args[4])
		if err != nil {
			return err
		}
		plan, err := e.ExtractVariable(c.absArg(args[0]), sl, sc, el, ec, args[5])
		return emitPlan(c, apply, plan, err)
	})
	return cmd
}

func newExtractFunctionCmd(c *Command) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "extract-function <file> <start-line> <start-col> <end-line> <end-col> <new-function-name>",
		Short: "extract the statements spanning start..end into a new function, replacing them with a call",
		Args:  cobra.ExactArgs(6),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the resulting edit plan immediately instead of only printing it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		sl, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		sc, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		el, err := strconv.Atoi(args[3])
		if err != nil {
			return err
		}
		ec, err := strconv.Atoi(args[4])
		if err != nil {
			return err
		}
		plan, err := e.ExtractFunction(c.absArg(args[0]), sl, sc, el, ec, args[5])
		return emitPlan(c, apply, plan, err)
	})
	return cmd
}

func newInlineVariableCmd(c *Command) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "inline-variable <file> <cursor-line> <cursor-col>",
		Short: "inline the variable at cursor into every one of its uses and remove its declaration",
		Args:  cobra.ExactArgs(3),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the resulting edit plan immediately instead of only printing it")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		col, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		plan, err := e.InlineVariable(c.absArg(args[0]), line, col)
		return emitPlan(c, apply, plan, err)
	})
	return cmd
}
