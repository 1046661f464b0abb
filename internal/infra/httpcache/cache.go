// Package httpcache provides a content-addressed cache for upstream HTTP
// fetches, keyed on method, URL, and a selected subset of request headers.
// The eviction bookkeeping (a doubly-linked LRU list alongside the entry
// map, evicted under one write lock) mirrors the teacher's
// InMemoryRateLimitStore, generalized from a fixed key limit to a
// combined entry-count and byte-size budget.
package httpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2s"
)

// Config bounds the cache's memory footprint and entry lifetime. Defaults
// match spec §4.2.
type Config struct {
	MaxEntries   int
	MaxBytes     int64
	TTL          time.Duration
	MaxEntrySize int64
}

// DefaultConfig returns the spec defaults: 1024 entries, 64 MiB aggregate,
// 12h TTL, 4 MiB max per entry.
func DefaultConfig() Config {
	return Config{
		MaxEntries:   1024,
		MaxBytes:     64 * 1024 * 1024,
		TTL:          12 * time.Hour,
		MaxEntrySize: 4 * 1024 * 1024,
	}
}

// Entry is a cached response, keyed and stored verbatim.
type Entry struct {
	StatusCode  int
	ContentType string
	Header      map[string][]string
	Body        []byte
	StoredAt    time.Time
}

func (e *Entry) size() int64 {
	total := int64(len(e.Body)) + int64(len(e.ContentType))
	for k, vs := range e.Header {
		total += int64(len(k))
		for _, v := range vs {
			total += int64(len(v))
		}
	}
	return total
}

// Cache is a bounded, in-memory, content-addressed store for cacheable
// upstream responses. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	cfg        Config
	entries    map[string]*node
	lruHead    *node
	lruTail    *node
	totalBytes int64
}

type node struct {
	key        string
	entry      *Entry
	prev, next *node
}

// New builds a Cache with the given configuration, falling back to
// DefaultConfig's zero-value fields where cfg leaves them unset.
func New(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultConfig().MaxBytes
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxEntrySize <= 0 {
		cfg.MaxEntrySize = DefaultConfig().MaxEntrySize
	}
	return &Cache{cfg: cfg, entries: make(map[string]*node)}
}

// Key derives the BLAKE2s-256 digest key for a request: method, URL, and
// the values of headerNames (sorted, name-then-value concatenated) so two
// requests differing only in an unselected header collide on purpose.
func Key(method, url string, headers map[string]string, headerNames []string) string {
	h, err := blake2s.New256(nil)
	if err != nil {
		// blake2s.New256 only errors on a bad key length, and we pass nil.
		sum := sha256.Sum256([]byte(method + "\x00" + url))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))

	names := make([]string, len(headerNames))
	copy(names, headerNames)
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte{0})
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(headers[name]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key if present and not expired.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(n.entry.StoredAt) > c.cfg.TTL {
		c.removeLocked(n)
		return nil, false
	}
	c.touchLocked(n)
	return n.entry, true
}

// Put stores entry under key. Per spec §4.2, only status 200 responses
// are cacheable and a response larger than MaxEntrySize is skipped
// silently rather than stored.
func (c *Cache) Put(key string, entry *Entry) {
	if entry.StatusCode != 200 {
		return
	}
	entry.StoredAt = time.Now()
	size := entry.size()
	if size > c.cfg.MaxEntrySize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.totalBytes -= existing.entry.size()
		existing.entry = entry
		c.totalBytes += size
		c.touchLocked(existing)
		c.evictLocked()
		return
	}

	n := &node{key: key, entry: entry}
	c.entries[key] = n
	c.totalBytes += size
	c.pushFrontLocked(n)
	c.evictLocked()
}

// Entries reports the current entry count, for health/inspector reporting.
func (c *Cache) Entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes reports the current aggregate byte size, for health/inspector
// reporting.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

func (c *Cache) evictLocked() {
	for (len(c.entries) > c.cfg.MaxEntries || c.totalBytes > c.cfg.MaxBytes) && c.lruTail != nil {
		c.removeLocked(c.lruTail)
	}
}

func (c *Cache) removeLocked(n *node) {
	c.totalBytes -= n.entry.size()
	delete(c.entries, n.key)
	c.unlinkLocked(n)
}

func (c *Cache) touchLocked(n *node) {
	c.unlinkLocked(n)
	c.pushFrontLocked(n)
}

func (c *Cache) pushFrontLocked(n *node) {
	n.prev = nil
	n.next = c.lruHead
	if c.lruHead != nil {
		c.lruHead.prev = n
	}
	c.lruHead = n
	if c.lruTail == nil {
		c.lruTail = n
	}
}

func (c *Cache) unlinkLocked(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if c.lruHead == n {
		c.lruHead = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if c.lruTail == n {
		c.lruTail = n.prev
	}
	n.prev = nil
	n.next = nil
}
