// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package catalog loads the per-locale message tables that msginline resolves keys against.

A table is flat: keys map directly to ICU MessageFormat patterns. Nested maps in
YAML, JSON or TOML sources are flattened with "." so that

	nav:
	  home: Home

is looked up as "nav.home".

An entry whose message is empty counts as missing.
*/
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// poDomain is the gettext domain .po tables are registered under.
const poDomain = "messages"

var (
	errUnsupportedValue = errors.New("unsupported message value")
	errDuplicateLocale  = errors.New("locale defined more than once")
	errUnsupportedFile  = errors.New("unsupported catalog file")
)

// Table resolves message keys for a single locale.
type Table interface {
	// Lookup returns the message for key. ok is false when the key is
	// absent or its message is empty.
	Lookup(key string) (msg string, ok bool)
}

// Map is an in-memory Table.
type Map map[string]string

// Lookup implements [Table].
func (m Map) Lookup(key string) (string, bool) {
	msg, ok := m[key]

	return msg, ok && msg != ""
}

// poTable serves lookups from a parsed gettext catalog, using msgid as the key.
type poTable struct {
	loc     *gotext.Locale
	entries map[string]*gotext.Translation
}

func newPoTable(locale string, po *gotext.Po) poTable {
	loc := gotext.NewLocale("", locale)
	loc.AddTranslator(poDomain, po)

	return poTable{loc: loc, entries: po.GetDomain().GetTranslations()}
}

// Lookup asks for the singular form, since messages carry their own plural rules.
func (t poTable) Lookup(key string) (string, bool) {
	if !t.loc.IsTranslatedND(poDomain, key, 1) {
		return "", false
	}

	entry, ok := t.entries[key]
	if !ok {
		return "", false
	}

	msg := entry.Get()

	return msg, msg != ""
}

// Languages maps canonical BCP 47 tags (for example "en", "pt-BR") to their tables.
type Languages map[string]Table

// Canonical normalises a locale name such as "pt_br" to its BCP 47 form ("pt-BR").
func Canonical(locale string) (string, error) {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	return t.String(), nil
}

// Has reports whether a table is loaded for locale.
func (l Languages) Has(locale string) bool {
	c, err := Canonical(locale)
	if err != nil {
		return false
	}

	_, ok := l[c]

	return ok
}

// Table returns the table for locale. Unknown or invalid locales get an empty
// table, so every lookup through it reports a missing key.
func (l Languages) Table(locale string) Table {
	if c, err := Canonical(locale); err == nil {
		if t, ok := l[c]; ok && t != nil {
			return t
		}
	}

	return Map{}
}

// Tags returns the loaded locales sorted by tag string.
func (l Languages) Tags() []language.Tag {
	out := make([]language.Tag, 0, len(l))
	for k := range l {
		out = append(out, language.Make(k))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}

// add registers t under locale, rejecting duplicates.
func (l Languages) add(locale string, t Table) error {
	c, err := Canonical(locale)
	if err != nil {
		return err
	}

	if _, dup := l[c]; dup {
		return fmt.Errorf("%w: %s", errDuplicateLocale, c)
	}

	l[c] = t

	return nil
}

// flatten copies src into dst, joining nested keys with ".".
func flatten(prefix string, src map[string]any, dst Map) error {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch x := v.(type) {
		case string:
			dst[key] = x
		case nil:
			dst[key] = ""
		case bool, int, int64, uint64, float64:
			dst[key] = fmt.Sprint(x)
		case map[string]any, map[any]any:
			nested, _ := asStringMap(x)
			if err := flatten(key, nested, dst); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w %T for key %q", errUnsupportedValue, v, key)
		}
	}

	return nil
}

// asStringMap accepts the map shapes YAML and TOML decoders produce.
func asStringMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = val
		}

		return m, true
	case nil:
		return map[string]any{}, true
	default:
		return nil, false
	}
}
