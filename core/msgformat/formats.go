// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package msgformat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Number styles understood by [NumberFormat.Style] and as built-in pattern styles.
const (
	StyleDecimal  = "decimal"
	StyleInteger  = "integer"
	StylePercent  = "percent"
	StyleCurrency = "currency"
)

var (
	errUnknownStyle    = errors.New("unknown format style")
	errCurrencyMissing = errors.New("currency style requires a currency code")
)

// Formats holds named custom formats that patterns can refer to as
// {arg, number, name}, {arg, date, name} or {arg, time, name}.
//
// Date and time entries are Go reference-time layouts such as "2006-01-02".
type Formats struct {
	Number map[string]NumberFormat `toml:"number" yaml:"number"`
	Date   map[string]string       `toml:"date"   yaml:"date"`
	Time   map[string]string       `toml:"time"   yaml:"time"`
}

// NumberFormat describes a named number format.
// Zero fraction digit fields mean "use the locale default".
type NumberFormat struct {
	Style                 string `toml:"style"                 yaml:"style"`
	Currency              string `toml:"currency"              yaml:"currency"`
	MinimumFractionDigits int    `toml:"minimumFractionDigits" yaml:"minimumFractionDigits"`
	MaximumFractionDigits int    `toml:"maximumFractionDigits" yaml:"maximumFractionDigits"`
}

var builtinNumber = map[string]NumberFormat{
	StyleDecimal: {Style: StyleDecimal},
	StyleInteger: {Style: StyleInteger},
	StylePercent: {Style: StylePercent},
}

var builtinDate = map[string]string{
	"short":  "1/2/06",
	"medium": "Jan 2, 2006",
	"long":   "January 2, 2006",
	"full":   "Monday, January 2, 2006",
}

var builtinTime = map[string]string{
	"short":  "3:04 PM",
	"medium": "3:04:05 PM",
	"long":   "3:04:05 PM MST",
	"full":   "3:04:05 PM MST",
}

// Validate checks custom number formats for unusable combinations.
func (f *Formats) Validate() error {
	if f == nil {
		return nil
	}

	for name, nf := range f.Number {
		switch nf.Style {
		case "", StyleDecimal, StyleInteger, StylePercent:
		case StyleCurrency:
			if _, err := currency.ParseISO(nf.Currency); err != nil {
				return fmt.Errorf("number format %q: %w", name, errCurrencyMissing)
			}
		default:
			return fmt.Errorf("number format %q: %w %q", name, errUnknownStyle, nf.Style)
		}

		if nf.MaximumFractionDigits != 0 && nf.MinimumFractionDigits > nf.MaximumFractionDigits {
			return fmt.Errorf("number format %q: minimumFractionDigits exceeds maximumFractionDigits", name)
		}
	}

	return nil
}

func (f *Formats) number(style string) (NumberFormat, error) {
	if style == "" {
		return builtinNumber[StyleDecimal], nil
	}

	if f != nil {
		if nf, ok := f.Number[style]; ok {
			return nf, nil
		}
	}

	if nf, ok := builtinNumber[style]; ok {
		return nf, nil
	}

	return NumberFormat{}, fmt.Errorf("%w %q for number", errUnknownStyle, style)
}

func (f *Formats) layout(typ argType, style string) (string, error) {
	if style == "" {
		style = "medium"
	}

	var custom map[string]string

	builtin, kind := builtinDate, "date"
	if typ == argTime {
		builtin, kind = builtinTime, "time"
	}

	if f != nil {
		custom = f.Date
		if typ == argTime {
			custom = f.Time
		}
	}

	if l, ok := custom[style]; ok {
		return l, nil
	}

	if l, ok := builtin[style]; ok {
		return l, nil
	}

	return "", fmt.Errorf("%w %q for %s", errUnknownStyle, style, kind)
}

// formatNumber renders v per nf using locale conventions of p.
func formatNumber(p *message.Printer, v float64, nf NumberFormat) (string, error) {
	var opts []number.Option

	if nf.MinimumFractionDigits > 0 {
		opts = append(opts, number.MinFractionDigits(nf.MinimumFractionDigits))
	}

	if nf.MaximumFractionDigits > 0 {
		opts = append(opts, number.MaxFractionDigits(nf.MaximumFractionDigits))
	}

	switch nf.Style {
	case "", StyleDecimal:
		return p.Sprint(number.Decimal(v, opts...)), nil
	case StyleInteger:
		return p.Sprint(number.Decimal(v, number.MaxFractionDigits(0))), nil
	case StylePercent:
		return p.Sprint(number.Percent(v, opts...)), nil
	case StyleCurrency:
		unit, err := currency.ParseISO(nf.Currency)
		if err != nil {
			return "", errCurrencyMissing
		}

		return p.Sprint(currency.Symbol(unit.Amount(v))), nil
	default:
		return "", fmt.Errorf("%w %q for number", errUnknownStyle, nf.Style)
	}
}

// toTime converts a date argument value. Numbers are milliseconds since the epoch.
func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(x))
		if err != nil {
			return time.Time{}, false
		}

		return t.UTC(), true
	}

	if ms, ok := toFloat(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}

	return time.Time{}, false
}
