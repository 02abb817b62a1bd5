// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package msgformat

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Offset int // byte offset into the pattern
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("msgformat: %s at offset %d", e.Msg, e.Offset)
}

type argType uint8

const (
	argSimple argType = iota
	argNumber
	argDate
	argTime
)

type (
	part interface{ isPart() }

	textPart string

	// poundPart is '#' inside a plural case.
	poundPart struct{}

	argPart struct {
		name  string
		typ   argType
		style string
	}

	pluralCase struct {
		keyword string // "=2" or a CLDR category
		exact   bool
		value   float64
		msg     []part
	}

	pluralPart struct {
		name    string
		ordinal bool
		offset  float64
		cases   []pluralCase
	}

	selectPart struct {
		name  string
		cases map[string][]part
	}
)

func (textPart) isPart()   {}
func (poundPart) isPart()  {}
func (argPart) isPart()    {}
func (pluralPart) isPart() {}
func (selectPart) isPart() {}

var pluralCategories = map[string]struct{}{
	"zero": {}, "one": {}, "two": {}, "few": {}, "many": {}, "other": {},
}

type parser struct {
	src string
	pos int
}

func parse(src string) ([]part, error) {
	p := &parser{src: src}

	parts, err := p.message(false)
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected '}'")
	}

	return parts, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// message parses text and arguments until an unmatched '}' or the end of input.
// The closing brace is left for the caller.
func (p *parser) message(inPlural bool) ([]part, error) {
	var (
		parts []part
		text  strings.Builder
	)

	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, textPart(text.String()))
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '{':
			flush()

			arg, err := p.argument(inPlural)
			if err != nil {
				return nil, err
			}

			parts = append(parts, arg)
		case c == '}':
			flush()

			return parts, nil
		case c == '#' && inPlural:
			flush()

			parts = append(parts, poundPart{})
			p.pos++
		case c == '\'':
			p.quoted(&text, inPlural)
		default:
			text.WriteByte(c)
			p.pos++
		}
	}

	flush()

	return parts, nil
}

func (p *parser) quoted(b *strings.Builder, inPlural bool) {
	p.pos++

	if p.pos >= len(p.src) {
		b.WriteByte('\'')
		return
	}

	switch c := p.src[p.pos]; {
	case c == '\'':
		b.WriteByte('\'')
		p.pos++

		return
	case c == '{' || c == '}' || (c == '#' && inPlural):
	default:
		b.WriteByte('\'')
		return
	}

	// Quoted literal runs until the next lone apostrophe, or the end of input.
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2

				continue
			}

			p.pos++

			return
		}

		b.WriteByte(c)
		p.pos++
	}
}

func (p *parser) space() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) eat(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}

	return false
}

// word reads up to the next whitespace or syntax character.
func (p *parser) word() string {
	start := p.pos

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '{', '}', ',':
			return p.src[start:p.pos]
		}

		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *parser) argument(inPlural bool) (part, error) {
	p.pos++ // '{'
	p.space()

	name := p.word()
	if name == "" {
		return nil, p.errorf("expected argument name")
	}

	p.space()

	if p.eat('}') {
		return argPart{name: name}, nil
	}

	if !p.eat(',') {
		return nil, p.errorf("expected ',' or '}' after argument %q", name)
	}

	p.space()
	kind := p.word()
	p.space()

	switch kind {
	case "number", "date", "time":
		arg := argPart{name: name, typ: map[string]argType{"number": argNumber, "date": argDate, "time": argTime}[kind]}

		if p.eat(',') {
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] != '}' && p.src[p.pos] != '{' {
				p.pos++
			}

			arg.style = strings.TrimSpace(p.src[start:p.pos])
			if arg.style == "" {
				return nil, p.errorf("empty %s style for argument %q", kind, name)
			}
		}

		if !p.eat('}') {
			return nil, p.errorf("unterminated argument %q", name)
		}

		return arg, nil
	case "plural", "selectordinal":
		if !p.eat(',') {
			return nil, p.errorf("expected ',' after %s for argument %q", kind, name)
		}

		return p.plural(name, kind == "selectordinal")
	case "select":
		if !p.eat(',') {
			return nil, p.errorf("expected ',' after select for argument %q", name)
		}

		return p.choice(name, inPlural)
	case "":
		return nil, p.errorf("expected argument type for %q", name)
	default:
		return nil, p.errorf("unknown argument type %q", kind)
	}
}

func (p *parser) plural(name string, ordinal bool) (part, error) {
	pp := pluralPart{name: name, ordinal: ordinal}

	p.space()

	if strings.HasPrefix(p.src[p.pos:], "offset:") {
		p.pos += len("offset:")
		p.space()

		w := p.word()

		off, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, p.errorf("invalid plural offset %q", w)
		}

		pp.offset = off
	}

	hasOther := false

	for {
		p.space()

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated plural argument %q", name)
		}

		if p.eat('}') {
			break
		}

		sel := p.word()
		if sel == "" {
			return nil, p.errorf("expected plural selector in argument %q", name)
		}

		c := pluralCase{keyword: sel}

		if strings.HasPrefix(sel, "=") {
			v, err := strconv.ParseFloat(sel[1:], 64)
			if err != nil {
				return nil, p.errorf("invalid exact plural selector %q", sel)
			}

			c.exact, c.value = true, v
		} else if _, ok := pluralCategories[sel]; !ok {
			return nil, p.errorf("unknown plural category %q", sel)
		}

		if sel == "other" {
			hasOther = true
		}

		msg, err := p.caseBody(sel, true)
		if err != nil {
			return nil, err
		}

		c.msg = msg
		pp.cases = append(pp.cases, c)
	}

	if !hasOther {
		return nil, p.errorf("argument %q is missing an \"other\" case", name)
	}

	return pp, nil
}

func (p *parser) choice(name string, inPlural bool) (part, error) {
	sp := selectPart{name: name, cases: map[string][]part{}}

	for {
		p.space()

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated select argument %q", name)
		}

		if p.eat('}') {
			break
		}

		sel := p.word()
		if sel == "" {
			return nil, p.errorf("expected select option in argument %q", name)
		}

		if _, dup := sp.cases[sel]; dup {
			return nil, p.errorf("duplicate select option %q", sel)
		}

		msg, err := p.caseBody(sel, inPlural)
		if err != nil {
			return nil, err
		}

		sp.cases[sel] = msg
	}

	if _, ok := sp.cases["other"]; !ok {
		return nil, p.errorf("argument %q is missing an \"other\" case", name)
	}

	return sp, nil
}

func (p *parser) caseBody(sel string, inPlural bool) ([]part, error) {
	p.space()

	if !p.eat('{') {
		return nil, p.errorf("expected '{' after selector %q", sel)
	}

	msg, err := p.message(inPlural)
	if err != nil {
		return nil, err
	}

	if !p.eat('}') {
		return nil, p.errorf("unterminated case %q", sel)
	}

	return msg, nil
}
