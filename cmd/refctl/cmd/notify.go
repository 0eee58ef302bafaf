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

// The notify-file-* commands are thin relays to the owning plugin's
// lifecycle hook, for a host (an editor integration, typically) that
// isn't already calling the Go API directly.

func newNotifyFileOpenedCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify-file-opened <path>",
		Short: "relay the file-opened lifecycle hook to the owning plugin",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		e.NotifyFileOpened(c.absArg(args[0]))
		return nil
	})
	return cmd
}

func newNotifyFileSavedCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify-file-saved <path>",
		Short: "relay the file-saved lifecycle hook to the owning plugin",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		e.NotifyFileSaved(c.absArg(args[0]))
		return nil
	})
	return cmd
}

func newNotifyFileClosedCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify-file-closed <path>",
		Short: "relay the file-closed lifecycle hook to the owning plugin",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		e.NotifyFileClosed(c.absArg(args[0]))
		return nil
	})
	return cmd
}
