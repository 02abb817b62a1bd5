// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n is the run-time side of msginline. It resolves message keys and
formats them with ICU MessageFormat, exactly as "msginline build" does ahead of
time, so that the same source compiles and behaves the same with or without the
overlay.

# Quick start

Load the catalogs once at start-up:

	if err := i18n.SetupDir("en", "locales", nil); err != nil {
		return err
	}

Then translate with a constant key and, optionally, a composite literal of values:

	i18n.T("greeting", i18n.Values{"name": user.Name})
	i18n.T("inbox.count", i18n.Values{"count": n})

Calls written this way are replaced by string literals when the build runs with
function name "codeberg.org/pixivfe/msginline/i18n.T". Calls whose values are not
constant stay in place and are served by this package instead.

# Per-request locales

[Tr] formats for the locale stored in a context by [WithTag], falling back to the
closest loaded locale:

	ctx = i18n.WithTag(ctx, language.French)
	i18n.Tr(ctx, "greeting", i18n.Values{"name": "Ann"})

# Missing translations

Missing keys return the key unchanged. Each missing locale+key pair is logged
once at warn level.
*/
package i18n
