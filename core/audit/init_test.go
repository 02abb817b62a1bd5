// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyDiagnostic(t *testing.T) {
	t.Parallel()

	m := map[string]any{"sys": "build", "pos": "main.go:3:9", "error": "Missing localization: hi", "message": "Inline diagnostic"}
	require.NoError(t, prettyDiagnostic(m))
	assert.Equal(t, map[string]any{"message": "main.go:3:9: Missing localization: hi"}, m)

	other := map[string]any{"sys": "watch", "message": "Watching"}
	require.NoError(t, prettyDiagnostic(other))
	assert.Equal(t, "Watching", other["message"])
}

func TestConsoleWriter_NotTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := consoleWriter(&buf, false)
	assert.True(t, w.NoColor)
	assert.Nil(t, w.FormatPrepare)

	logger := zerolog.New(w)
	logger.Warn().Str("sys", "build").Str("pos", "main.go:3:9").Msg("Inline diagnostic")

	out := buf.String()
	assert.Contains(t, out, "Inline diagnostic")
	assert.Contains(t, out, "pos=main.go:3:9")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsoleWriter_Terminal(t *testing.T) {
	t.Parallel()

	w := consoleWriter(&bytes.Buffer{}, true)
	assert.False(t, w.NoColor)
	assert.NotNil(t, w.FormatPrepare)
}
