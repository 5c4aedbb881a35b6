package classify

import "github.com/MrWong99/fretscribe/internal/terminology/normalize"

// Cache memoises classification outcomes for the duration of one run. Keys
// are [normalize.CacheKey] forms. Entries are never invalidated.
//
// Cache is owned by a single run and is not safe for concurrent use.
type Cache struct {
	entries map[string]cached
}

// cached is an outcome and the stage that produced it.
type cached struct {
	isTerm bool
	origin Source
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cached)}
}

// Get returns the cached outcome for word.
func (c *Cache) Get(word string) (isTerm, ok bool) {
	e, ok := c.entries[normalize.CacheKey(word)]
	return e.isTerm, ok
}

// Put stores the outcome for word. An existing entry is kept.
func (c *Cache) Put(word string, isTerm bool) {
	c.put(word, isTerm, SourceCache)
}

func (c *Cache) lookup(word string) (cached, bool) {
	e, ok := c.entries[normalize.CacheKey(word)]
	return e, ok
}

func (c *Cache) put(word string, isTerm bool, origin Source) {
	key := normalize.CacheKey(word)
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = cached{isTerm: isTerm, origin: origin}
}

// Len returns the number of cached words.
func (c *Cache) Len() int { return len(c.entries) }
