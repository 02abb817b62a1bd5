// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package inline

import (
	"encoding/json"
	"fmt"
	"go/token"
	"strings"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// Diagnostic is a warning or error attached to a source position.
type Diagnostic struct {
	Pos      token.Position
	Severity Severity
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %v", d.Pos, d.Severity, d.Err)
}

// Request is one missing key recorded by a [MissingLocalizationError].
type Request struct {
	Key    string
	Values map[string]any
	Pos    token.Position
}

// MissingLocalizationError collects every key in one file that has no message
// in the target locale. A file carries at most one such error; later keys are
// appended to it.
type MissingLocalizationError struct {
	File     string
	Requests []Request
}

// Add records key unless it is already present. It reports whether key was added.
func (e *MissingLocalizationError) Add(key string, values map[string]any, pos token.Position) bool {
	for _, r := range e.Requests {
		if r.Key == key {
			return false
		}
	}

	e.Requests = append(e.Requests, Request{Key: key, Values: values, Pos: pos})

	return true
}

// Keys returns the missing keys in the order they were found.
func (e *MissingLocalizationError) Keys() []string {
	keys := make([]string, len(e.Requests))
	for i, r := range e.Requests {
		keys[i] = r.Key
	}

	return keys
}

func (e *MissingLocalizationError) Error() string {
	lines := make([]string, 0, len(e.Requests))

	for _, r := range e.Requests {
		line := "Missing localization: " + r.Key

		if len(r.Values) > 0 {
			// Map keys are sorted by encoding/json, which keeps messages stable.
			if b, err := json.Marshal(r.Values); err == nil {
				line += " (" + string(b) + ")"
			}
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// Report holds the diagnostics produced for one source file.
type Report struct {
	File     string
	Warnings []Diagnostic
	Errors   []Diagnostic

	missing *MissingLocalizationError
}

// Missing returns the file's missing localization error, or nil.
func (r *Report) Missing() *MissingLocalizationError {
	return r.missing
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Empty reports whether the file produced no diagnostics at all.
func (r *Report) Empty() bool {
	return len(r.Warnings) == 0 && len(r.Errors) == 0
}

// Diagnostics returns errors followed by warnings.
func (r *Report) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)

	return append(out, r.Warnings...)
}

func (r *Report) addError(pos token.Position, err error) {
	r.Errors = append(r.Errors, Diagnostic{Pos: pos, Severity: SeverityError, Err: err})
}

// addMissing records key on the file's single missing localization error,
// creating and filing it on first use.
func (r *Report) addMissing(pos token.Position, key string, values map[string]any, fail bool) {
	if r.missing != nil {
		r.missing.Add(key, values, pos)
		return
	}

	r.missing = &MissingLocalizationError{File: r.File}
	r.missing.Add(key, values, pos)

	d := Diagnostic{Pos: pos, Err: r.missing}

	if fail {
		d.Severity = SeverityError
		r.Errors = append(r.Errors, d)

		return
	}

	r.Warnings = append(r.Warnings, d)
}
