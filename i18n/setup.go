// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/msgformat"
)

// bundle is everything Setup installs. It is replaced wholesale, never mutated.
type bundle struct {
	base     language.Tag
	tables   catalog.Languages
	tags     []language.Tag
	matcher  language.Matcher
	compiler *msgformat.Compiler
}

var current atomic.Pointer[bundle]

// Setup installs languages as the message source and locale as the default
// locale used by [T]. The default locale leads the matcher, so it is also the
// fallback for unmatched tags in [Tr]. formats may be nil.
//
// Calling Setup again replaces the previous state.
func Setup(locale string, languages catalog.Languages, formats *msgformat.Formats) error {
	SetLogger(log.With().Str("sys", "i18n").Logger())

	canonical, err := catalog.Canonical(locale)
	if err != nil {
		return err
	}

	compiler, err := msgformat.NewCompiler(0, formats)
	if err != nil {
		return fmt.Errorf("invalid custom formats: %w", err)
	}

	base := language.Make(canonical)

	// base is first to make it the default fallback for matching.
	all := []language.Tag{base}

	for _, t := range languages.Tags() {
		if t == base {
			continue
		}

		all = append(all, t)
	}

	current.Store(&bundle{
		base:     base,
		tables:   languages,
		tags:     all,
		matcher:  language.NewMatcher(all),
		compiler: compiler,
	})

	getLogger().Info().
		Str("locale", canonical).
		Int("languages", len(languages)).
		Msg("Loaded message catalogs")

	return nil
}

// SetupDir loads catalogs from path with [catalog.Load] and calls [Setup].
func SetupDir(locale, path string, formats *msgformat.Formats) error {
	languages, err := catalog.Load(path)
	if err != nil {
		return err
	}

	return Setup(locale, languages, formats)
}
