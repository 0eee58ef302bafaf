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
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCreateFileCmd(c *Command) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "create-file <path> [content]",
		Short: "create a file through the operation queue",
		Args:  cobra.RangeArgs(1, 2),
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the file's content from stdin instead of an argument")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		content, err := fileContent(c, args, fromStdin)
		if err != nil {
			return err
		}
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		if err := e.CreateFile(c.absArg(args[0]), content); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "created", args[0])
		return nil
	})
	return cmd
}

func newDeleteFileCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-file <path>",
		Short: "delete a file through the operation queue",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		if err := e.DeleteFile(c.absArg(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "deleted", args[0])
		return nil
	})
	return cmd
}

func newReadFileCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read-file <path>",
		Short: "print a file's current content",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		content, err := e.ReadFile(c.absArg(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprint(c.OutOrStdout(), content)
		return nil
	})
	return cmd
}

func newWriteFileCmd(c *Command) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "write-file <path> [content]",
		Short: "overwrite a file's content through the operation queue",
		Args:  cobra.RangeArgs(1, 2),
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the file's content from stdin instead of an argument")
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		content, err := fileContent(c, args, fromStdin)
		if err != nil {
			return err
		}
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		if err := e.WriteFile(c.absArg(args[0]), content); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "wrote", args[0])
		return nil
	})
	return cmd
}

// fileContent resolves the content argument for create-file/write-file:
// stdin when --stdin is set (any args[1] is then ignored), otherwise
// args[1], or "" when args has no second element.
func fileContent(c *Command, args []string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(c.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) < 2 {
		return "", nil
	}
	return args[1], nil
}
