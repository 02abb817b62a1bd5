// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"

	"golang.org/x/text/language"
)

// Values holds the arguments of a message.
type Values map[string]any

// T returns the message for key in the default locale, formatted with values.
// Several Values are merged, later ones winning.
//
// If the key has no message, T returns the key unchanged. If the message
// cannot be formatted, T returns the unformatted message.
func T(key string, values ...Values) string {
	return translate(language.Tag{}, key, values)
}

// Tr is like [T] but formats for the locale carried by ctx (see [WithTag]).
func Tr(ctx context.Context, key string, values ...Values) string {
	return translate(TagFrom(ctx), key, values)
}

func translate(t language.Tag, key string, values []Values) string {
	b := current.Load()
	locale := resolve(b, t)

	if b == nil {
		logMissingOnce(locale, key)
		return key
	}

	msg, ok := b.tables.Table(locale).Lookup(key)
	if !ok {
		logMissingOnce(locale, key)
		return key
	}

	out, err := b.compiler.Format(msg, locale, merge(values))
	if err != nil {
		logFormatErrorOnce(locale, key, err)
		return msg
	}

	return out
}

// merge flattens vs into one map. It returns nil for no values, which matches a
// call made with the key alone.
func merge(vs []Values) map[string]any {
	switch len(vs) {
	case 0:
		return nil
	case 1:
		return vs[0]
	}

	out := make(map[string]any)

	for _, v := range vs {
		for k, x := range v {
			out[k] = x
		}
	}

	return out
}
