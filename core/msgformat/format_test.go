// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package msgformat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func format(t *testing.T, pattern, locale string, values map[string]any) string {
	t.Helper()

	m, err := New(pattern, locale, nil)
	require.NoError(t, err, "pattern %q", pattern)

	out, err := m.Format(values)
	require.NoError(t, err, "pattern %q", pattern)

	return out
}

func TestFormat_Simple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		values  map[string]any
		want    string
	}{
		{"plain text", "Settings", nil, "Settings"},
		{"string argument", "Hello, {name}!", map[string]any{"name": "World"}, "Hello, World!"},
		{"padded argument", "Hello, { name }!", map[string]any{"name": "World"}, "Hello, World!"},
		{"number argument", "{n} left", map[string]any{"n": 2.5}, "2.5 left"},
		{"integer argument", "{n} left", map[string]any{"n": int64(3)}, "3 left"},
		{"pound outside plural", "Issue #{id}", map[string]any{"id": 7}, "Issue #7"},
		{"repeated argument", "{a}-{a}", map[string]any{"a": "x"}, "x-x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, format(t, tt.pattern, "en", tt.values))
		})
	}
}

func TestFormat_Quoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		want    string
	}{
		{"It's fine", "It's fine"},
		{"don''t", "don't"},
		{"'{'braces'}'", "{braces}"},
		{"'{literal}' text", "{literal} text"},
		{"'{it''s}'", "{it's}"},
		{"trailing '", "trailing '"},
		{"{n, plural, other {'#' is #}}", "# is 4"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, format(t, tt.pattern, "en", map[string]any{"n": 4}))
		})
	}
}

func TestFormat_Plural(t *testing.T) {
	t.Parallel()

	const items = "{count, plural, =0 {no items} one {# item} other {# items}}"

	assert.Equal(t, "no items", format(t, items, "en", map[string]any{"count": 0}))
	assert.Equal(t, "1 item", format(t, items, "en", map[string]any{"count": 1}))
	assert.Equal(t, "5 items", format(t, items, "en", map[string]any{"count": 5}))
	assert.Equal(t, "1,000 items", format(t, items, "en", map[string]any{"count": 1000}))
	assert.Equal(t, "1.5 items", format(t, items, "en", map[string]any{"count": 1.5}))
	assert.Equal(t, "2 items", format(t, items, "en", map[string]any{"count": "2"}))
}

func TestFormat_PluralOffset(t *testing.T) {
	t.Parallel()

	const guests = "{n, plural, offset:1 =0 {nobody} =1 {{host}} one {{host} and # other} other {{host} and # others}}"

	values := func(n int) map[string]any { return map[string]any{"n": n, "host": "Ann"} }

	assert.Equal(t, "nobody", format(t, guests, "en", values(0)))
	assert.Equal(t, "Ann", format(t, guests, "en", values(1)))
	assert.Equal(t, "Ann and 1 other", format(t, guests, "en", values(2)))
	assert.Equal(t, "Ann and 2 others", format(t, guests, "en", values(3)))
}

func TestFormat_PluralPolish(t *testing.T) {
	t.Parallel()

	const files = "{n, plural, one {# plik} few {# pliki} many {# plików} other {# pliku}}"

	assert.Equal(t, "1 plik", format(t, files, "pl", map[string]any{"n": 1}))
	assert.Equal(t, "3 pliki", format(t, files, "pl", map[string]any{"n": 3}))
	assert.Equal(t, "5 plików", format(t, files, "pl", map[string]any{"n": 5}))
	assert.Equal(t, "22 pliki", format(t, files, "pl", map[string]any{"n": 22}))
}

func TestFormat_SelectOrdinal(t *testing.T) {
	t.Parallel()

	const place = "{p, selectordinal, one {#st} two {#nd} few {#rd} other {#th}}"

	for n, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 22: "22nd", 103: "103rd"} {
		assert.Equal(t, want, format(t, place, "en", map[string]any{"p": n}))
	}
}

func TestFormat_Select(t *testing.T) {
	t.Parallel()

	const turn = "{gender, select, female {her} male {his} other {their}} turn"

	assert.Equal(t, "her turn", format(t, turn, "en", map[string]any{"gender": "female"}))
	assert.Equal(t, "their turn", format(t, turn, "en", map[string]any{"gender": "robot"}))

	// A select nested in a plural still sees '#'.
	const nested = "{n, plural, other {{kind, select, cat {# cats} other {# things}}}}"
	assert.Equal(t, "3 cats", format(t, nested, "en", map[string]any{"n": 3, "kind": "cat"}))
}

func TestFormat_Number(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234.5", format(t, "{n, number}", "en", map[string]any{"n": 1234.5}))
	assert.Equal(t, "1.234,5", format(t, "{n, number}", "de", map[string]any{"n": 1234.5}))
	assert.Equal(t, "25%", format(t, "{n, number, percent}", "en", map[string]any{"n": 0.25}))
	assert.Equal(t, "4", format(t, "{n, number, integer}", "en", map[string]any{"n": 3.7}))
}

func TestFormat_DateTime(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	ms := when.UnixMilli()

	assert.Equal(t, "March 5, 2024", format(t, "{d, date, long}", "en", map[string]any{"d": ms}))
	assert.Equal(t, "Mar 5, 2024", format(t, "{d, date}", "en", map[string]any{"d": when}))
	assert.Equal(t, "2:30 PM", format(t, "{d, time, short}", "en", map[string]any{"d": "2024-03-05T14:30:00Z"}))
}

func TestFormat_CustomFormats(t *testing.T) {
	t.Parallel()

	formats := &Formats{
		Number: map[string]NumberFormat{
			"twoPlaces": {Style: StyleDecimal, MinimumFractionDigits: 2, MaximumFractionDigits: 2},
			"usd":       {Style: StyleCurrency, Currency: "USD"},
		},
		Date: map[string]string{"iso": "2006-01-02"},
	}

	c, err := NewCompiler(0, formats)
	require.NoError(t, err)

	out, err := c.Format("{n, number, twoPlaces}", "en", map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, "3.00", out)

	out, err = c.Format("{d, date, iso}", "en", map[string]any{"d": 0})
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01", out)

	out, err = c.Format("{n, number, usd}", "en", map[string]any{"n": 1234.5})
	require.NoError(t, err)
	assert.Contains(t, out, "1,234")
}

func TestFormat_Errors(t *testing.T) {
	t.Parallel()

	syntax := []string{
		"Hello {name",
		"Hello }",
		"{}",
		"{n, plural, one {x}}",
		"{n, select, a {x}}",
		"{n, foo}",
		"{n, plural, lots {x} other {y}}",
		"{n, plural, =x {x} other {y}}",
		"{n, plural, offset:z other {y}}",
		"{n, number, }",
		"{n, select, a {x} a {y} other {z}}",
	}

	for _, pattern := range syntax {
		_, err := New(pattern, "en", nil)

		var se *SyntaxError
		assert.True(t, errors.As(err, &se), "pattern %q: got %v", pattern, err)
	}

	values := []struct {
		pattern string
		values  map[string]any
	}{
		{"Hello {name}", nil},
		{"{n, plural, other {#}}", map[string]any{"n": "many"}},
		{"{n, number}", map[string]any{"n": true}},
		{"{d, date}", map[string]any{"d": "yesterday"}},
		{"{g, select, other {x}}", map[string]any{}},
	}

	for _, tt := range values {
		m, err := New(tt.pattern, "en", nil)
		require.NoError(t, err)

		_, err = m.Format(tt.values)

		var ve *ValueError
		assert.True(t, errors.As(err, &ve), "pattern %q: got %v", tt.pattern, err)
	}

	m, err := New("{n, number, fancy}", "en", nil)
	require.NoError(t, err)

	_, err = m.Format(map[string]any{"n": 1})
	assert.ErrorIs(t, err, errUnknownStyle)
}

func TestFormat_InvalidLocaleFallsBack(t *testing.T) {
	t.Parallel()

	m, err := New("{n, plural, one {one} other {other}}", "not a locale", nil)
	require.NoError(t, err)
	assert.Equal(t, "en", m.Locale().String())
}

func TestFormats_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (*Formats)(nil).Validate())

	bad := &Formats{Number: map[string]NumberFormat{"money": {Style: StyleCurrency}}}
	assert.ErrorIs(t, bad.Validate(), errCurrencyMissing)

	bad = &Formats{Number: map[string]NumberFormat{"odd": {Style: "roman"}}}
	assert.ErrorIs(t, bad.Validate(), errUnknownStyle)

	bad = &Formats{Number: map[string]NumberFormat{"inv": {MinimumFractionDigits: 3, MaximumFractionDigits: 1}}}
	assert.Error(t, bad.Validate())
}

func TestCompiler_Caches(t *testing.T) {
	t.Parallel()

	c, err := NewCompiler(4, nil)
	require.NoError(t, err)

	a, err := c.Compile("Hi {name}", "en")
	require.NoError(t, err)

	b, err := c.Compile("Hi {name}", "en")
	require.NoError(t, err)

	assert.Same(t, a, b)

	other, err := c.Compile("Hi {name}", "fr")
	require.NoError(t, err)
	assert.NotSame(t, a, other)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, 2, st.Len)
}

func TestOperands(t *testing.T) {
	t.Parallel()

	i, v, w, f, tt := operands(1.25)
	assert.Equal(t, []int{1, 2, 2, 25, 25}, []int{i, v, w, f, tt})

	i, v, _, f, _ = operands(-7)
	assert.Equal(t, []int{7, 0, 0}, []int{i, v, f})
}
