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
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/typemill-go/refactorctl/internal/core"
	"github.com/typemill-go/refactorctl/internal/errs"
)

func newApplyEditsCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply-edits",
		Short: "apply an edit plan read as JSON from stdin",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = mkRunE(c, func(c *Command, args []string) error {
		var plan core.EditPlan
		dec := json.NewDecoder(c.InOrStdin())
		if err := dec.Decode(&plan); err != nil {
			return errs.Wrap(errs.InvalidRequest, err, "decoding edit plan from stdin")
		}
		e, err := c.newEngine()
		if err != nil {
			return err
		}
		res, err := e.ApplyEdits(c.Context(), &plan)
		if err != nil {
			return err
		}
		return printResult(c, res)
	})
	return cmd
}
