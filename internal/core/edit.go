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

package core

import "time"

// Position is a zero-based (line, column) character offset, per spec §3.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Less reports whether p sorts strictly before o.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Range is a half-open-by-convention span; Start must be <= End.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// EditType enumerates the kinds of atomic textual modification a
// [TextEdit] can make.
type EditType string

const (
	EditInsert  EditType = "insert"
	EditReplace EditType = "replace"
	EditDelete  EditType = "delete"
)

// TextEdit is an atomic modification to a single file (spec §3). When
// FilePath is empty, the edit applies to the owning [EditPlan]'s
// SourceFile.
type TextEdit struct {
	FilePath     string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	EditType     EditType `json:"edit_type" yaml:"edit_type"`
	Location     Range    `json:"location" yaml:"location"`
	OriginalText string   `json:"original_text" yaml:"original_text"`
	NewText      string   `json:"new_text" yaml:"new_text"`
	Priority     uint8    `json:"priority" yaml:"priority"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// TargetFile resolves the file this edit applies to, given the owning
// plan's SourceFile.
func (e TextEdit) TargetFile(sourceFile string) string {
	if e.FilePath != "" {
		return e.FilePath
	}
	return sourceFile
}

// DependencyUpdateType enumerates high-level, plugin-interpreted
// transformations of an import/reference.
type DependencyUpdateType string

const (
	DependencyImportPath DependencyUpdateType = "import_path"
)

// DependencyUpdate is a high-level transformation of an import or
// reference in a specific target file, applied by delegating to the
// owning plugin's advanced-import hook rather than by raw text
// replacement (spec §3).
type DependencyUpdate struct {
	TargetFile   string               `json:"target_file" yaml:"target_file"`
	UpdateType   DependencyUpdateType `json:"update_type" yaml:"update_type"`
	OldReference string               `json:"old_reference" yaml:"old_reference"`
	NewReference string               `json:"new_reference" yaml:"new_reference"`
}

// ConsolidationInfo carries the C11-specific metadata an EditPlan
// produced by the consolidation orchestrator records for observability.
type ConsolidationInfo struct {
	OldPackagePath string `json:"old_package_path" yaml:"old_package_path"`
	NewPackagePath string `json:"new_package_path" yaml:"new_package_path"`
	SubmoduleName  string `json:"submodule_name" yaml:"submodule_name"`
}

// PlanMetadata records why a plan exists and how expensive it was to
// compute, for the result document returned to callers (spec §6).
type PlanMetadata struct {
	IntentName     string            `json:"intent_name" yaml:"intent_name"`
	IntentArgs     map[string]any    `json:"intent_arguments,omitempty" yaml:"intent_arguments,omitempty"`
	CreatedAt      time.Time         `json:"created_at" yaml:"created_at"`
	Complexity     int               `json:"complexity" yaml:"complexity"`
	ImpactAreas    []string          `json:"impact_areas,omitempty" yaml:"impact_areas,omitempty"`
	Consolidation  *ConsolidationInfo `json:"consolidation,omitempty" yaml:"consolidation,omitempty"`
	TransactionID  string            `json:"transaction_id" yaml:"transaction_id"`
}

// EditPlan is the unit of transactional change (spec §3): a bundle of
// textual edits and dependency updates, plus metadata. An empty
// SourceFile denotes a pure multi-file plan.
type EditPlan struct {
	SourceFile        string             `json:"source_file" yaml:"source_file"`
	Edits             []TextEdit         `json:"edits" yaml:"edits"`
	DependencyUpdates []DependencyUpdate `json:"dependency_updates,omitempty" yaml:"dependency_updates,omitempty"`
	Validations       []string           `json:"validations,omitempty" yaml:"validations,omitempty"`
	Metadata          PlanMetadata       `json:"metadata" yaml:"metadata"`
}

// EditsByFile groups the plan's edits by the file each targets,
// resolving edits with an empty FilePath against SourceFile, matching
// the applicator's grouping step (spec §4.8 step 4).
func (p *EditPlan) EditsByFile() map[string][]TextEdit {
	out := make(map[string][]TextEdit)
	for _, e := range p.Edits {
		target := e.TargetFile(p.SourceFile)
		out[target] = append(out[target], e)
	}
	return out
}

// AffectedFiles returns the union of SourceFile (if non-empty), every
// edit's target file, and every dependency update's target file,
// matching the applicator's collection step (spec §4.8 step 2).
func (p *EditPlan) AffectedFiles() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if f == "" || seen[f] {
			return
		}
		seen[f] = true
		out = append(out, f)
	}
	add(p.SourceFile)
	for _, e := range p.Edits {
		add(e.TargetFile(p.SourceFile))
	}
	for _, d := range p.DependencyUpdates {
		add(d.TargetFile)
	}
	return out
}
