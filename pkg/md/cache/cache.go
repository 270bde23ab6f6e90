// Package cache memoizes parsed documents and rendered HTML by source
// content. A ParserCache is safe for concurrent use; its lock is never held
// while the engine parses or renders.
package cache

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/open-cli-collective/marco/pkg/md"
)

// DefaultSize is the number of documents kept when no size is configured.
const DefaultSize = 128

// renderKey identifies the options that change rendered output. Options
// with filters or random widget IDs are never cached.
type renderKey struct {
	noHighlight bool
	style       string
	sanitize    bool
	headingIDs  bool
}

type entry struct {
	source string
	doc    *md.Document
	html   map[renderKey]string
}

func (e *entry) size() uint64 {
	n := uint64(len(e.source))
	for _, h := range e.html {
		n += uint64(len(h))
	}
	return n
}

// ParserCache is a bounded LRU of parsed documents keyed by a hash of their
// source.
type ParserCache struct {
	engine *md.Engine

	mu        sync.Mutex
	lru       *simplelru.LRU[uint64, *entry]
	capacity  int
	hits      uint64
	misses    uint64
	evictions uint64
	bytes     uint64
	purging   bool
}

// New returns a cache holding at most size documents parsed by engine. A nil
// engine selects md.NewEngine().
func New(engine *md.Engine, size int) (*ParserCache, error) {
	if engine == nil {
		engine = md.NewEngine()
	}
	c := &ParserCache{engine: engine, capacity: size}
	lru, err := simplelru.NewLRU[uint64, *entry](size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser cache: %w", err)
	}
	c.lru = lru
	return c, nil
}

// onEvict runs under c.mu from inside the LRU.
func (c *ParserCache) onEvict(_ uint64, e *entry) {
	c.bytes -= e.size()
	if !c.purging {
		c.evictions++
	}
}

// Engine returns the engine used on a miss.
func (c *ParserCache) Engine() *md.Engine {
	return c.engine
}

// lookup returns the cached entry for source, counting a hit or a miss.
// Hash collisions are treated as misses.
func (c *ParserCache) lookup(key uint64, source string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if ok && e.source == source {
		c.hits++
		return e, true
	}
	c.misses++
	return nil, false
}

// store inserts doc for source unless a concurrent miss stored it first, and
// returns the entry that is now cached.
func (c *ParserCache) store(key uint64, source string, doc *md.Document) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Peek(key); ok && e.source == source {
		return e
	}
	// On a hash collision the newer source replaces the older one; Remove
	// reports it through onEvict.
	c.lru.Remove(key)
	e := &entry{source: source, doc: doc}
	c.lru.Add(key, e)
	c.bytes += e.size()
	return e
}

// ParseWithCache returns the Document for source, parsing it on a miss.
// The returned Document is shared and must not be modified.
func (c *ParserCache) ParseWithCache(source string) *md.Document {
	key := xxhash.Sum64String(source)
	if e, ok := c.lookup(key, source); ok {
		return e.doc
	}
	doc := c.engine.Parse(source)
	return c.store(key, source, doc).doc
}

// RenderWithCache returns the HTML for source under opts. Both the
// Document and the HTML are cached; options with filters or unique IDs
// bypass the HTML cache because their output cannot be keyed.
func (c *ParserCache) RenderWithCache(source string, opts md.RenderOptions) string {
	doc := c.ParseWithCache(source)
	if len(opts.Filters) > 0 || opts.UniqueIDs {
		return c.engine.Render(doc, opts)
	}

	key := xxhash.Sum64String(source)
	rk := renderKey{
		noHighlight: opts.NoHighlight,
		style:       opts.HighlightStyle,
		sanitize:    opts.Sanitize,
		headingIDs:  opts.HeadingIDs,
	}

	c.mu.Lock()
	if e, ok := c.lru.Peek(key); ok && e.source == source {
		if html, ok := e.html[rk]; ok {
			c.mu.Unlock()
			return html
		}
	}
	c.mu.Unlock()

	html := c.engine.Render(doc, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Peek(key); ok && e.source == source {
		if _, ok := e.html[rk]; !ok {
			if e.html == nil {
				e.html = make(map[renderKey]string)
			}
			e.html[rk] = html
			c.bytes += uint64(len(html))
		}
	}
	return html
}

// Purge drops every entry. Counters other than entries and bytes are kept.
func (c *ParserCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purging = true
	c.lru.Purge()
	c.purging = false
	c.bytes = 0
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	Bytes     uint64 `json:"bytes"`
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d entries (%s), %s hits, %s misses, %s evictions",
		s.Entries, s.Capacity, humanize.Bytes(s.Bytes),
		humanize.Comma(int64(s.Hits)), humanize.Comma(int64(s.Misses)), humanize.Comma(int64(s.Evictions)))
}

// Stats returns the current counters.
func (c *ParserCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.lru.Len(),
		Capacity:  c.capacity,
		Bytes:     c.bytes,
	}
}
