package district

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// tier is the shared shape of both cache levels; only the eviction policy
// differs (none for the hot tier, recency for the runtime tier).
type tier interface {
	get(zip string) (Record, bool)
	put(zip string, rec Record)
	size() int
}

// staticTier holds the pre-warmed hot set. Writes stop once sealed; after
// that the map is effectively read-only and entries are never evicted.
type staticTier struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	sealed  bool
}

func newStaticTier() *staticTier {
	return &staticTier{entries: make(map[string]*cacheEntry)}
}

func (t *staticTier) get(zip string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[zip]
	if !ok {
		return Record{}, false
	}
	e.lastAccessed = time.Now()
	return e.rec, true
}

func (t *staticTier) put(zip string, rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return
	}
	now := time.Now()
	t.entries[zip] = &cacheEntry{rec: rec, insertedAt: now, lastAccessed: now}
}

func (t *staticTier) seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

func (t *staticTier) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// lruTier is the bounded runtime cache. Eviction is least-recently-accessed,
// so repeat ZIPs survive bursts of cold traffic for other ZIPs. Concurrent
// inserts for the same ZIP may overwrite each other; both carry the same
// computed value, so last-write-wins is fine.
type lruTier struct {
	mu sync.Mutex
	c  *lru.Cache[string, *cacheEntry]
}

func newLRUTier(capacity int) (*lruTier, error) {
	c, err := lru.New[string, *cacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &lruTier{c: c}, nil
}

func (t *lruTier) get(zip string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.c.Get(zip)
	if !ok {
		return Record{}, false
	}
	e.lastAccessed = time.Now()
	return e.rec, true
}

func (t *lruTier) put(zip string, rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.c.Add(zip, &cacheEntry{rec: rec, insertedAt: now, lastAccessed: now})
}

func (t *lruTier) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.Len()
}

func (t *lruTier) purge() {
	t.mu.Lock()
	t.c.Purge()
	t.mu.Unlock()
}
