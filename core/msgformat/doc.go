// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package msgformat formats ICU MessageFormat patterns.

It covers the part of the ICU syntax that message catalogs use in practice:

	Hello, {name}!
	{count, number} items ({ratio, number, percent})
	Released on {when, date, long} at {when, time, short}
	{count, plural, offset:1 =0 {nobody} =1 {just {host}} one {{host} and # other} other {{host} and # others}}
	{place, selectordinal, one {#st} two {#nd} few {#rd} other {#th}}
	{gender, select, female {her} male {his} other {their}} turn

Plural categories follow CLDR rules from [golang.org/x/text/feature/plural]; numbers are
printed with locale-aware grouping through [golang.org/x/text/message].

# Quoting

An apostrophe starts a literal run only when it is followed by '{', '}' or, inside a
plural case, '#'. Two apostrophes always produce one. Any other apostrophe is literal:

	'{'braces'}' are literal, don''t worry

# Dates

Date and time arguments accept a [time.Time], an RFC 3339 string, or a number of
milliseconds since the Unix epoch. They are rendered in UTC using Go reference-time
layouts; custom layouts can be supplied through [Formats].
*/
package msgformat
