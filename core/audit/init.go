// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package audit holds the console log output and timing spans for build stages.
package audit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger logs to stderr until the configuration installs its outputs.
func SetDefaultLogger() {
	log.Logger = log.Output(ConsoleWriter(os.Stderr))
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsoleWriter returns a human-readable zerolog writer for f. Colour and
// compiler-style diagnostics are only used on terminals.
func ConsoleWriter(f *os.File) io.Writer {
	return consoleWriter(f, isTerminal(f))
}

func consoleWriter(w io.Writer, terminal bool) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: !terminal, TimeFormat: time.DateTime}

	if terminal {
		cw.FormatPrepare = prettyDiagnostic
	}

	return cw
}

// prettyDiagnostic renders inline diagnostics compiler style, as "pos: error".
func prettyDiagnostic(m map[string]any) error {
	if sys, ok := m["sys"]; !ok || sys != "build" {
		return nil
	}

	pos, ok := m["pos"]
	if !ok {
		return nil
	}

	m["message"] = fmt.Sprintf("%s: %s", pos, m[zerolog.ErrorFieldName])
	delete(m, "sys")
	delete(m, "pos")
	delete(m, zerolog.ErrorFieldName)

	return nil
}
