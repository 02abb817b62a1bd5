// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

var (
	logger atomic.Pointer[zerolog.Logger]

	// missingKeyOnce deduplicates WARN logs for missing keys.
	// The key is locale+"\x00"+key.
	missingKeyOnce sync.Map

	// formatErrorOnce does the same for messages that fail to format.
	formatErrorOnce sync.Map
)

// SetLogger replaces the logger used by package i18n. [Setup] installs one
// derived from the global logger.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

func getLogger() *zerolog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}

	l := log.With().Str("sys", "i18n").Logger()

	return &l
}

// logMissingOnce logs a missing translation warning once per (locale, key) pair.
func logMissingOnce(locale, key string) {
	id := locale + "\x00" + key
	if _, loaded := missingKeyOnce.LoadOrStore(id, struct{}{}); !loaded {
		getLogger().Warn().
			Str("locale", locale).
			Str("key", key).
			Msg("Missing localization")
	}
}

func logFormatErrorOnce(locale, key string, err error) {
	id := locale + "\x00" + key
	if _, loaded := formatErrorOnce.LoadOrStore(id, struct{}{}); !loaded {
		getLogger().WithLevel(zerolog.ErrorLevel).
			Err(err).
			Str("locale", locale).
			Str("key", key).
			Msg("Failed to format message")
	}
}

// strippedTagString removes variants and extensions to form a stable key using
// base, script and region only.
func strippedTagString(tag language.Tag) string {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped.String()
}
