// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import "errors"

// Exit codes.
const (
	ExitFailure = 1 // inlining reported errors
	ExitConfig  = 2 // the configuration could not be loaded
)

var errMissingLocalizations = errors.New("inlining reported errors")

// ExitError wraps an error with a specific process exit code.
// Use errors.As to extract it from an error chain.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }
