// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/msginline/core/catalog"
)

// Skeleton formats.
const (
	FormatYAML = "yaml"
	FormatPO   = "po"
)

var errUnknownFormat = errors.New("unknown skeleton format")

// WriteYAML writes entries as a flat YAML catalog. Each key carries its
// translation from table, or an empty string, preceded by comments listing its
// source references and arguments.
func WriteYAML(w io.Writer, entries []Entry, table catalog.Table) error {
	var b bytes.Buffer

	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}

		writeComments(&b, "# ", e)

		msg, _ := table.Lookup(e.Key)

		// A Go quoted string is a valid YAML double-quoted scalar.
		fmt.Fprintf(&b, "%s: %s\n", strconv.Quote(e.Key), strconv.Quote(msg))
	}

	// Refuse to emit anything a catalog loader could not read back.
	var check map[string]any
	if err := yaml.Unmarshal(b.Bytes(), &check); err != nil {
		return fmt.Errorf("generated invalid YAML: %w", err)
	}

	_, err := w.Write(b.Bytes())

	return err
}

// WritePO writes entries as a gettext catalog for locale, keyed by msgid.
func WritePO(w io.Writer, locale string, entries []Entry, table catalog.Table) error {
	var b strings.Builder

	writePOHeader(&b, locale)

	for i, e := range entries {
		writeComments(&b, "#. ", Entry{Args: e.Args})

		fmt.Fprint(&b, "#:")

		for _, r := range e.Refs {
			fmt.Fprintf(&b, " %s", r)
		}

		fmt.Fprintln(&b)

		msg, _ := table.Lookup(e.Key)
		fmt.Fprintf(&b, "msgid %s\n", poQuote(e.Key))
		fmt.Fprintf(&b, "msgstr %s\n", poQuote(msg))

		// Add a separating blank line, but not after the very last entry.
		if i < len(entries)-1 {
			fmt.Fprintln(&b)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// poEscaper applies the C escapes gettext tools read back. Everything else,
// including non-ASCII text, is written as is.
var poEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func poQuote(s string) string {
	return `"` + poEscaper.Replace(s) + `"`
}

func writeComments(w io.Writer, prefix string, e Entry) {
	for _, r := range e.Refs {
		fmt.Fprintf(w, "%s%s\n", prefix, r)
	}

	if len(e.Args) > 0 {
		fmt.Fprintf(w, "%sargs: %s\n", prefix, strings.Join(e.Args, ", "))
	}
}

// writePOHeader emits a PO header.
func writePOHeader(w io.Writer, locale string) {
	fmt.Fprintln(w, `msgid ""`)
	fmt.Fprintln(w, `msgstr ""`)
	fmt.Fprintf(w, "\"Language: %s\\n\"\n", strings.ReplaceAll(locale, "-", "_"))
	fmt.Fprintln(w, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(w, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(w, `"Content-Transfer-Encoding: 8bit\n"`)
	fmt.Fprintln(w)
}

// WriteFiles writes one skeleton per locale into dir as <locale>.<format> and
// returns the paths written. Existing translations come from languages.
func WriteFiles(dir, format string, locales []string, entries []Entry, languages catalog.Languages) ([]string, error) {
	var write func(io.Writer, string, catalog.Table) error

	switch format {
	case FormatYAML, "":
		format = FormatYAML
		write = func(w io.Writer, _ string, t catalog.Table) error { return WriteYAML(w, entries, t) }
	case FormatPO:
		write = func(w io.Writer, locale string, t catalog.Table) error { return WritePO(w, locale, entries, t) }
	default:
		return nil, fmt.Errorf("%w %q", errUnknownFormat, format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(locales))

	for _, locale := range locales {
		canonical, err := catalog.Canonical(locale)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := write(&buf, canonical, languages.Table(canonical)); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, canonical+"."+format)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write output file %s: %w", path, err)
		}

		log.Info().
			Str("sys", "extract").
			Str("locale", canonical).
			Str("file", path).
			Int("keys", len(entries)).
			Msg("Wrote catalog skeleton")

		paths = append(paths, path)
	}

	return paths, nil
}
