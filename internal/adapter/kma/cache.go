package kma

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Time-to-live per source. Entries are keyed by broadcast slot, so a new
// slot always misses; the TTL only bounds how long a republished slot is
// served stale.
const (
	shortRangeTTL = 3 * time.Hour
	nowcastTTL    = 10 * time.Minute
	outlookTTL    = time.Hour
)

// CachedAPI wraps a ForecastAPI with an in-memory LRU cache. Cached item
// slices are cloned on store and on every hit, so callers own what they
// get back.
type CachedAPI struct {
	inner   domain.ForecastAPI
	cache   *lruCache
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedAPI creates a cache decorator around a forecast API.
func NewCachedAPI(inner domain.ForecastAPI, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *CachedAPI {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedAPI{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedAPI) VillageForecast(ctx context.Context, cell domain.GridCell, slot domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	key := fmt.Sprintf("%s|%d,%d|%s", slot.Source, cell.NX, cell.NY, slot.TmFc())
	if v, ok := c.lookup(domain.SourceShortRange, key); ok {
		return slices.Clone(v.([]domain.RawForecastItem)), nil
	}
	items, err := c.inner.VillageForecast(ctx, cell, slot)
	if err != nil {
		return items, err
	}
	// Only cache non-empty results so a broadcast that is late to publish
	// can be picked up on the next request.
	if len(items) > 0 {
		c.cache.put(key, slices.Clone(items), c.clock.Now().Add(shortRangeTTL))
	}
	return items, nil
}

func (c *CachedAPI) UltraShortNowcast(ctx context.Context, cell domain.GridCell, slot domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	key := fmt.Sprintf("%s|%d,%d|%s", slot.Source, cell.NX, cell.NY, slot.TmFc())
	if v, ok := c.lookup(domain.SourceNowcast, key); ok {
		return slices.Clone(v.([]domain.RawForecastItem)), nil
	}
	items, err := c.inner.UltraShortNowcast(ctx, cell, slot)
	if err != nil {
		return items, err
	}
	if len(items) > 0 {
		c.cache.put(key, slices.Clone(items), c.clock.Now().Add(nowcastTTL))
	}
	return items, nil
}

func (c *CachedAPI) MidLandForecast(ctx context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookLand, error) {
	key := fmt.Sprintf("%s|%s|%s", domain.SourceOutlookLand, regionID, slot.TmFc())
	if v, ok := c.lookup(domain.SourceOutlookLand, key); ok {
		return v.(domain.OutlookLand), nil
	}
	out, err := c.inner.MidLandForecast(ctx, regionID, slot)
	if err != nil {
		return out, err
	}
	if len(out.Days) > 0 {
		c.cache.put(key, out, c.clock.Now().Add(outlookTTL))
	}
	return out, nil
}

func (c *CachedAPI) MidTemperature(ctx context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookTemperature, error) {
	key := fmt.Sprintf("%s|%s|%s", domain.SourceOutlookTemperature, regionID, slot.TmFc())
	if v, ok := c.lookup(domain.SourceOutlookTemperature, key); ok {
		return v.(domain.OutlookTemperature), nil
	}
	out, err := c.inner.MidTemperature(ctx, regionID, slot)
	if err != nil {
		return out, err
	}
	if len(out.Ranges) > 0 {
		c.cache.put(key, out, c.clock.Now().Add(outlookTTL))
	}
	return out, nil
}

func (c *CachedAPI) lookup(source domain.Source, key string) (any, bool) {
	v, ok := c.cache.get(key, c.clock.Now())
	result := "miss"
	if ok {
		result = "hit"
	}
	c.metrics.CacheLookups.WithLabelValues(string(source), result).Inc()
	return v, ok
}

// Len reports the number of cached entries, expired ones included.
func (c *CachedAPI) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

// lruCache is a thread-safe LRU cache whose entries also expire.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   any
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		c.unlink(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value any, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *lruCache) evictOldest() {
	if c.tail == nil {
		return
	}
	oldest := c.tail
	delete(c.entries, oldest.key)
	c.unlink(oldest)
}
