package holidays

import (
	"fmt"
	"slices"
	"sync"

	"github.com/warp/hrportal/calendar"
)

// Cached memoises an inner source per region and year. Holiday rules never
// change at runtime, so entries are never evicted. Errors are not cached.
type Cached struct {
	mu      sync.RWMutex
	inner   calendar.HolidaySource
	entries map[string][]calendar.Holiday
}

// NewCached wraps inner.
func NewCached(inner calendar.HolidaySource) *Cached {
	return &Cached{inner: inner, entries: make(map[string][]calendar.Holiday)}
}

// Holidays returns a copy of the cached list, loading it on first use.
func (c *Cached) Holidays(region calendar.Region, year int) ([]calendar.Holiday, error) {
	key := fmt.Sprintf("%s/%d", region, year)

	c.mu.RLock()
	list, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(list), nil
	}

	list, err := c.inner.Holidays(region, year)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = list
	c.mu.Unlock()
	return slices.Clone(list), nil
}

// Len returns the number of cached region/year entries.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
