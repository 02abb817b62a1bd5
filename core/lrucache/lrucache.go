// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
keyed by strings.

It backs two caches in msginline: parsed message patterns in package msgformat, and
rewritten source files in package build. The latter is created with compression
enabled so that []byte and string values are kept zstd-compressed in memory and
decompressed transparently on read.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

type valueKind uint8

const (
	kindOther valueKind = iota
	kindBytes
	kindString
)

// Cache is a fixed-capacity LRU cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front is most recently used
	index    map[string]*list.Element // key -> element in order
	enc      *zstd.Encoder            // nil unless compression is enabled
	dec      *zstd.Decoder

	hits, misses uint64
}

type entry struct {
	key        string
	value      any
	kind       valueKind
	compressed bool
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// New creates a cache holding at most capacity entries.
//
// If compress is true, string and []byte values are stored zstd-compressed
// whenever that makes them smaller.
func New(capacity int, compress bool) (*Cache, error) {
	if capacity <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.enc, c.dec = enc, dec
	}

	return c, nil
}

// Add stores value under key, making it the most recently used entry.
// It reports whether an older entry was evicted to make room.
func (c *Cache) Add(key string, value any) bool {
	e := c.pack(key, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)

		return false
	}

	c.index[key] = c.order.PushFront(e)

	if c.order.Len() <= c.capacity {
		return false
	}

	if oldest := c.order.Back(); oldest != nil {
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*entry).key)
	}

	return true
}

// Get returns the value for key and marks it as most recently used.
// []byte values are returned as copies.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()

	el, ok := c.index[key]
	if !ok {
		c.misses++
		c.mu.Unlock()

		return nil, false
	}

	c.hits++
	c.order.MoveToFront(el)
	e := el.Value.(*entry)

	c.mu.Unlock()

	return c.unpack(e)
}

// Peek returns the value for key without touching the recency order or counters.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()

	el, ok := c.index[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}

	e := el.Value.(*entry)

	c.mu.Unlock()

	return c.unpack(e)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return false
	}

	c.order.Remove(el)
	delete(c.index, key)

	return true
}

// Purge drops every entry. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.index)
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Len: c.order.Len(), Hits: c.hits, Misses: c.misses}
}

// pack prepares an entry outside the lock, compressing when it pays off.
// The zstd encoder supports concurrent EncodeAll calls.
func (c *Cache) pack(key string, value any) *entry {
	var raw []byte

	e := &entry{key: key, value: value}

	switch v := value.(type) {
	case []byte:
		e.kind = kindBytes
		raw = v
		// Keep our own copy so callers cannot mutate cached data.
		e.value = append([]byte(nil), v...)
	case string:
		e.kind = kindString
		raw = []byte(v)
	default:
		return e
	}

	if c.enc == nil || len(raw) == 0 {
		return e
	}

	if packed := c.enc.EncodeAll(raw, nil); len(packed) < len(raw) {
		e.value = packed
		e.compressed = true
	}

	return e
}

// unpack reverses pack. It never touches cache state.
func (c *Cache) unpack(e *entry) (any, bool) {
	if !e.compressed {
		if b, ok := e.value.([]byte); ok {
			return append([]byte(nil), b...), true
		}

		return e.value, true
	}

	raw, err := c.dec.DecodeAll(e.value.([]byte), nil)
	if err != nil {
		return nil, false
	}

	if e.kind == kindString {
		return string(raw), true
	}

	return raw, true
}
