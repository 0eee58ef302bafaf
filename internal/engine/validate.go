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

package engine

import (
	"context"
	"os/exec"

	"github.com/typemill-go/refactorctl/internal/config"
	"github.com/typemill-go/refactorctl/internal/errs"
)

// ValidationOutcome is the optional validation field of the §6 result
// document: whether the hook ran, whether it passed, and its output.
type ValidationOutcome struct {
	Ran       bool             `json:"ran"`
	Passed    bool             `json:"passed"`
	Output    string           `json:"output,omitempty"`
	OnFailure config.OnFailure `json:"on_failure,omitempty"`
}

// validatorFunc builds the [applicator.Validator] closure run after
// C8 succeeds (spec §6: "validation.enabled ... runs in the project
// root after C8 succeeds"). Whether a failing validation rolls back
// the just-applied changes depends on validation.on_failure:
// Rollback returns an error so the applicator restores every
// snapshot; Report records the failure without undoing anything.
// Interactive has no human in this process to prompt, so it is
// handled the same as Report with OnFailure left set to Interactive
// in the outcome, letting the caller surface the prompt out of
// process — an Open Question resolution, see DESIGN.md.
func (e *Engine) validatorFunc() func(ctx context.Context, modifiedFiles []string) error {
	return func(ctx context.Context, modifiedFiles []string) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", e.cfg.Validation.Command)
		cmd.Dir = e.root
		output, runErr := cmd.CombinedOutput()

		outcome := &ValidationOutcome{
			Ran:       true,
			Passed:    runErr == nil,
			Output:    string(output),
			OnFailure: e.cfg.Validation.OnFailure,
		}
		e.mu.Lock()
		e.lastVal = outcome
		e.mu.Unlock()

		if runErr == nil {
			return nil
		}
		e.logger.Warn("validation hook failed", "command", e.cfg.Validation.Command, "on_failure", e.cfg.Validation.OnFailure, "error", runErr)
		if e.cfg.Validation.OnFailure == config.Rollback {
			return errs.Wrap(errs.ValidationFailure, runErr, "validation command failed: %s", output)
		}
		return nil
	}
}

func (e *Engine) lastValidation() *ValidationOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastVal
}
