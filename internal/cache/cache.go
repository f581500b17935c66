// Package cache holds recently fetched history pages in memory for a bounded
// time so repeated refreshes do not re-run git.
package cache

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 256
)

type Kind string

const (
	KindLine Kind = "line"
	KindFile Kind = "file"
)

// Key identifies one cached history request.
type Key struct {
	Kind     Kind
	Path     string
	Line     int // only for KindLine
	Page     int
	PageSize int
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Kind))
	b.WriteByte(':')
	b.WriteString(k.Path)
	if k.Kind == KindLine {
		fmt.Fprintf(&b, ":%d", k.Line)
	}
	if k.PageSize > 0 {
		fmt.Fprintf(&b, "#%d/%d", k.Page, k.PageSize)
	}
	return b.String()
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a size-bounded map whose entries expire ttl after they were set.
// Expired entries are dropped lazily by Get; nothing runs in the background.
type Cache[V any] struct {
	ttl   time.Duration
	now   func() time.Time
	items *lru.Cache[string, entry[V]]
}

type Option func(*options)

type options struct {
	ttl  time.Duration
	size int
	now  func() time.Time
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithSize(size int) Option {
	return func(o *options) { o.size = size }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New[V any](opts ...Option) (*Cache[V], error) {
	o := options{ttl: DefaultTTL, size: DefaultSize, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", o.ttl)
	}
	items, err := lru.New[string, entry[V]](o.size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache[V]{ttl: o.ttl, now: o.now, items: items}, nil
}

func (c *Cache[V]) Get(key Key) (V, bool) {
	var zero V
	k := key.String()
	e, ok := c.items.Get(k)
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		c.items.Remove(k)
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key Key, value V) {
	c.items.Add(key.String(), entry[V]{value: value, createdAt: c.now()})
}

// Invalidate drops every entry whose key mentions path. It is called when a
// file changes on disk so the next request re-reads its history.
func (c *Cache[V]) Invalidate(path string) int {
	if path == "" {
		return 0
	}
	removed := 0
	for _, k := range c.items.Keys() {
		if strings.Contains(k, path) && c.items.Remove(k) {
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) Clear() {
	c.items.Purge()
}

// Len counts stored entries, including expired ones not yet looked up.
func (c *Cache[V]) Len() int {
	return c.items.Len()
}
