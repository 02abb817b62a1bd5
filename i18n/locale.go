// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// BaseLocale is the locale used before Setup has been called.
const BaseLocale = "en"

// baseTag is the canonical tag for BaseLocale.
var baseTag = language.Make(BaseLocale)

// Locale returns the default locale installed by Setup, or [BaseLocale].
func Locale() language.Tag {
	if b := current.Load(); b != nil {
		return b.base
	}

	return baseTag
}

// Languages returns the loaded language tags, sorted by tag string.
// The returned slice is a copy and is safe to retain.
//
// Setup must be called successfully before using Languages; otherwise it panics.
func Languages() []language.Tag {
	b := current.Load()
	if b == nil {
		panic("i18n: Setup must be called before calling Languages")
	}

	out := make([]language.Tag, len(b.tags))
	copy(out, b.tags)

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}

// resolve matches t against the loaded locales and returns the matched tag's
// canonical string. Without Setup it returns the base locale.
func resolve(b *bundle, t language.Tag) string {
	if b == nil {
		return baseTag.String()
	}

	if t == (language.Tag{}) {
		t = b.base
	}

	matched, _ := language.MatchStrings(b.matcher, t.String())

	return strippedTagString(matched)
}
