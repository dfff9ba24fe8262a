package calendar

import (
	"slices"
	"sync"
)

type yearEntry struct {
	periods []Period
	gaps    []Gap
}

// Cache memoizes PeriodsForYear and GapsForYear per year. Entries are
// never invalidated since both functions depend on the year alone.
// A Cache is safe for concurrent use; the zero value is ready to use.
type Cache struct {
	mu    sync.RWMutex
	years map[int]yearEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{years: make(map[int]yearEntry)}
}

// Periods returns a copy of the periods of year.
func (c *Cache) Periods(year int) []Period {
	return slices.Clone(c.entry(year).periods)
}

// Gaps returns a copy of the gaps of year.
func (c *Cache) Gaps(year int) []Gap {
	return slices.Clone(c.entry(year).gaps)
}

func (c *Cache) entry(year int) yearEntry {
	c.mu.RLock()
	e, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return e
	}

	e = yearEntry{periods: PeriodsForYear(year), gaps: GapsForYear(year)}

	c.mu.Lock()
	if c.years == nil {
		c.years = make(map[int]yearEntry)
	}
	c.years[year] = e
	c.mu.Unlock()
	return e
}
