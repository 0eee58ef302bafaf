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

	"github.com/spf13/cobra"
)

func newListFilesCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-files",
		Short: "list every file the walker scans under --project-root, honoring --exclude",
		Args:  cobra.NoArgs,
	}
	scope := addScopeFlags(cmd)
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		files, err := e.ListFiles(cmd.Context(), scope.scope())
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(c.OutOrStdout(), f)
		}
		return nil
	})
	return cmd
}
