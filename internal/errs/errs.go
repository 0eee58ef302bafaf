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

// Package errs defines the error taxonomy shared across the refactoring
// engine (see spec §7). Every fallible operation that crosses a
// component boundary returns a *[Error] (or wraps one) rather than an
// ad hoc error string, so callers at the edge of the system (the thin
// RPC/CLI dispatcher) can render a structured failure document.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an [Error] for the purposes of the wire-format
// failure document in spec §7.
type Kind int

const (
	// Internal is the zero value so an unclassified error surfaces as
	// a broken invariant rather than silently looking like success.
	Internal Kind = iota
	InvalidRequest
	NotFound
	AlreadyExists
	Conflict
	PluginFailure
	IOFailure
	ValidationFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "InvalidRequest"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Conflict:
		return "Conflict"
	case PluginFailure:
		return "PluginFailure"
	case IOFailure:
		return "IOFailure"
	case ValidationFailure:
		return "ValidationFailure"
	default:
		return "Internal"
	}
}

// Error is the structured failure document described in spec §7:
// {kind, message, affected_path?, suggestion?}.
type Error struct {
	Kind         Kind
	Message      string
	AffectedPath string
	Suggestion   string
	Err          error
}

func (e *Error) Error() string {
	if e.AffectedPath != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.AffectedPath)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an [Error] of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an [Error] of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithPath returns a copy of e with AffectedPath set.
func (e *Error) WithPath(path string) *Error {
	e2 := *e
	e2.AffectedPath = path
	return &e2
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *Error) WithSuggestion(s string) *Error {
	e2 := *e
	e2.Suggestion = s
	return &e2
}

// KindOf returns the Kind of err if it is (or wraps) an *Error,
// otherwise Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
