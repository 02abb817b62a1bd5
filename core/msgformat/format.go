// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package msgformat

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValueError reports a missing or unusable argument value.
type ValueError struct {
	Name   string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("msgformat: %s for argument %q", e.Reason, e.Name)
}

// Message is a parsed pattern bound to a locale. It is immutable and safe for
// concurrent use.
type Message struct {
	pattern string
	tag     language.Tag
	parts   []part
	formats *Formats
}

// New parses pattern for the given locale. Locales that fail to parse fall back
// to English, matching how runtime formatters fall back to a default locale.
// formats may be nil.
func New(pattern, locale string, formats *Formats) (*Message, error) {
	parts, err := parse(pattern)
	if err != nil {
		return nil, err
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		tag = language.English
	}

	return &Message{pattern: pattern, tag: tag, parts: parts, formats: formats}, nil
}

// Pattern returns the source pattern.
func (m *Message) Pattern() string { return m.pattern }

// Locale returns the tag the message formats for.
func (m *Message) Locale() language.Tag { return m.tag }

// Format renders the message with values. Every argument referenced on the
// rendered path must be present in values.
func (m *Message) Format(values map[string]any) (string, error) {
	var b strings.Builder

	p := message.NewPrinter(m.tag)

	if err := m.render(&b, p, m.parts, values, nil); err != nil {
		return "", err
	}

	return b.String(), nil
}

// render writes parts to b. pound is the value '#' stands for, nil outside plurals.
func (m *Message) render(b *strings.Builder, p *message.Printer, parts []part, values map[string]any, pound *float64) error {
	for _, pt := range parts {
		switch x := pt.(type) {
		case textPart:
			b.WriteString(string(x))
		case poundPart:
			if pound == nil {
				b.WriteByte('#')
				continue
			}

			s, err := formatNumber(p, *pound, NumberFormat{})
			if err != nil {
				return err
			}

			b.WriteString(s)
		case argPart:
			s, err := m.formatArg(p, x, values)
			if err != nil {
				return err
			}

			b.WriteString(s)
		case pluralPart:
			v, ok := values[x.name]
			if !ok {
				return &ValueError{Name: x.name, Reason: "a value must be provided"}
			}

			n, ok := toFloat(v)
			if !ok {
				return &ValueError{Name: x.name, Reason: fmt.Sprintf("plural value %v is not a number", v)}
			}

			rel := n - x.offset

			if err := m.render(b, p, x.pick(m.tag, n, rel), values, &rel); err != nil {
				return err
			}
		case selectPart:
			v, ok := values[x.name]
			if !ok {
				return &ValueError{Name: x.name, Reason: "a value must be provided"}
			}

			msg, ok := x.cases[stringify(v)]
			if !ok {
				msg = x.cases["other"]
			}

			if err := m.render(b, p, msg, values, pound); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *Message) formatArg(p *message.Printer, a argPart, values map[string]any) (string, error) {
	v, ok := values[a.name]
	if !ok {
		return "", &ValueError{Name: a.name, Reason: "a value must be provided"}
	}

	switch a.typ {
	case argNumber:
		n, ok := toFloat(v)
		if !ok {
			return "", &ValueError{Name: a.name, Reason: fmt.Sprintf("value %v is not a number", v)}
		}

		nf, err := m.formats.number(a.style)
		if err != nil {
			return "", err
		}

		return formatNumber(p, n, nf)
	case argDate, argTime:
		t, ok := toTime(v)
		if !ok {
			return "", &ValueError{Name: a.name, Reason: fmt.Sprintf("value %v is not a date", v)}
		}

		layout, err := m.formats.layout(a.typ, a.style)
		if err != nil {
			return "", err
		}

		return t.Format(layout), nil
	default:
		return stringify(v), nil
	}
}

// pick selects the case for n. Exact selectors compare against n itself;
// categories are chosen for n minus the offset.
func (pp pluralPart) pick(tag language.Tag, n, rel float64) []part {
	for _, c := range pp.cases {
		if c.exact && c.value == n {
			return c.msg
		}
	}

	rules := plural.Cardinal
	if pp.ordinal {
		rules = plural.Ordinal
	}

	i, v, w, f, t := operands(rel)
	category := formName(rules.MatchPlural(tag, i, v, w, f, t))

	var other []part

	for _, c := range pp.cases {
		if c.exact {
			continue
		}

		if c.keyword == category {
			return c.msg
		}

		if c.keyword == "other" {
			other = c.msg
		}
	}

	return other
}

// operands computes the CLDR plural operands i, v, w, f and t for n.
func operands(n float64) (i, v, w, f, t int) {
	s := strconv.FormatFloat(math.Abs(n), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")

	i, _ = strconv.Atoi(whole)

	if frac == "" {
		return i, 0, 0, 0, 0
	}

	// The shortest representation carries no trailing zeros, so w == v and t == f.
	f, _ = strconv.Atoi(frac)

	return i, len(frac), len(frac), f, f
}

func formName(f plural.Form) string {
	switch f {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// stringify renders a simple argument the way a plain string conversion would.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
