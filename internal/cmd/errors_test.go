// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("inner cause")
	err := &ExitError{Code: 2, Err: inner}

	assert.Equal(t, "inner cause", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestExitError_ExtractFromChain(t *testing.T) {
	t.Parallel()

	inner := &ExitError{Code: 130, Err: fmt.Errorf("interrupted")}
	wrapped := fmt.Errorf("run failed: %w", inner)

	var exitErr *ExitError
	require.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, 130, exitErr.Code)
}
