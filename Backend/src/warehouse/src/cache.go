package main

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// breakdownCache keeps recent per-book shelf breakdowns so repeated
// availability lookups skip the database. Any write touching a book drops
// its entry and bumps the book's version; a fill that started before the
// write carries the older version and is discarded at put, so a racing
// reader can't repopulate the cache with a stale breakdown.
type breakdownCache struct {
	mu   sync.Mutex
	vers map[string]uint64
	c    *lru.Cache[string, map[string]int64]
}

func newBreakdownCache(size int) (*breakdownCache, error) {
	c, err := lru.New[string, map[string]int64](size)
	if err != nil {
		return nil, err
	}
	return &breakdownCache{vers: map[string]uint64{}, c: c}, nil
}

func (b *breakdownCache) get(bookID string) (map[string]int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cached, ok := b.c.Get(bookID)
	if !ok {
		return nil, false
	}
	return copyCounts(cached), true
}

// version tags a cache fill; read it before going to the database.
func (b *breakdownCache) version(bookID string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vers[bookID]
}

// put stores the breakdown unless a write to the book raced the fill.
func (b *breakdownCache) put(bookID string, version uint64, counts map[string]int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.vers[bookID] != version {
		return
	}
	b.c.Add(bookID, copyCounts(counts))
}

func (b *breakdownCache) drop(bookID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vers[bookID]++
	b.c.Remove(bookID)
}

// copies both ways so callers can't mutate cached state
func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
