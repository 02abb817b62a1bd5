// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package msgformat

import (
	"codeberg.org/pixivfe/msginline/core/lrucache"
)

// DefaultCacheSize is the number of parsed patterns a [Compiler] keeps by default.
const DefaultCacheSize = 1024

// Compiler parses patterns once per locale and reuses the result.
// It is safe for concurrent use.
type Compiler struct {
	formats *Formats
	cache   *lrucache.Cache
}

// NewCompiler returns a Compiler that applies formats to every message.
// A non-positive size selects [DefaultCacheSize].
func NewCompiler(size int, formats *Formats) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	if err := formats.Validate(); err != nil {
		return nil, err
	}

	cache, err := lrucache.New(size, false)
	if err != nil {
		return nil, err
	}

	return &Compiler{formats: formats, cache: cache}, nil
}

// Compile returns the parsed message for pattern in locale.
func (c *Compiler) Compile(pattern, locale string) (*Message, error) {
	key := locale + "\x00" + pattern

	if v, ok := c.cache.Get(key); ok {
		return v.(*Message), nil
	}

	m, err := New(pattern, locale, c.formats)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, m)

	return m, nil
}

// Format compiles pattern and formats it with values in one step.
func (c *Compiler) Format(pattern, locale string, values map[string]any) (string, error) {
	m, err := c.Compile(pattern, locale)
	if err != nil {
		return "", err
	}

	return m.Format(values)
}

// Stats exposes the underlying cache counters.
func (c *Compiler) Stats() lrucache.Stats {
	return c.cache.Stats()
}
