package kma

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingAPI struct {
	villageCalls int
	nowcastCalls int
	landCalls    int
	tempCalls    int
	items        []domain.RawForecastItem
	land         domain.OutlookLand
	temp         domain.OutlookTemperature
}

func (m *countingAPI) VillageForecast(_ context.Context, _ domain.GridCell, _ domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	m.villageCalls++
	return m.items, nil
}

func (m *countingAPI) UltraShortNowcast(_ context.Context, _ domain.GridCell, _ domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	m.nowcastCalls++
	return m.items, nil
}

func (m *countingAPI) MidLandForecast(_ context.Context, _ string, _ domain.BroadcastSlot) (domain.OutlookLand, error) {
	m.landCalls++
	return m.land, nil
}

func (m *countingAPI) MidTemperature(_ context.Context, _ string, _ domain.BroadcastSlot) (domain.OutlookTemperature, error) {
	m.tempCalls++
	return m.temp, nil
}

func sampleItems() []domain.RawForecastItem {
	return []domain.RawForecastItem{{Date: "20250601", Time: "0600", Category: domain.CategoryTemp, Value: "18"}}
}

func newTestCache(inner domain.ForecastAPI, size int) (*CachedAPI, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(testTime)
	return NewCachedAPI(inner, size, clock, observability.NewMetricsForTesting()), clock
}

// --- CachedAPI tests ---

func TestCachedAPI_VillageCacheHit(t *testing.T) {
	inner := &countingAPI{items: sampleItems()}
	cached, _ := newTestCache(inner, 10)
	slot := domain.SlotAt(domain.SourceShortRange, testTime)

	first, err := cached.VillageForecast(context.Background(), testCell, slot)
	require.NoError(t, err)
	second, err := cached.VillageForecast(context.Background(), testCell, slot)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.villageCalls, "should only call inner once")
}

func TestCachedAPI_ReturnedItemsAreCopies(t *testing.T) {
	inner := &countingAPI{items: sampleItems()}
	cached, _ := newTestCache(inner, 10)
	ctx := context.Background()

	tests := map[string]func() ([]domain.RawForecastItem, error){
		"village": func() ([]domain.RawForecastItem, error) {
			return cached.VillageForecast(ctx, testCell, domain.SlotAt(domain.SourceShortRange, testTime))
		},
		"nowcast": func() ([]domain.RawForecastItem, error) {
			return cached.UltraShortNowcast(ctx, testCell, domain.SlotAt(domain.SourceNowcast, testTime))
		},
	}
	for name, fetch := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := fetch()
			require.NoError(t, err)

			hit, err := fetch()
			require.NoError(t, err)
			assert.Equal(t, sampleItems(), hit)
			hit[0].Value = "-99"
			hit = append(hit, domain.RawForecastItem{Date: "20250604", Category: domain.CategoryTemp, Value: "30"})

			again, err := fetch()
			require.NoError(t, err)
			assert.Equal(t, sampleItems(), again)
			assert.Len(t, hit, 2)
		})
	}
	assert.Equal(t, sampleItems(), inner.items, "inner results must not be modified")
}

func TestCachedAPI_DifferentSlotsMiss(t *testing.T) {
	inner := &countingAPI{items: sampleItems()}
	cached, _ := newTestCache(inner, 10)
	slot := domain.SlotAt(domain.SourceShortRange, testTime)

	_, _ = cached.VillageForecast(context.Background(), testCell, slot)
	_, _ = cached.VillageForecast(context.Background(), testCell, slot.Previous())
	_, _ = cached.VillageForecast(context.Background(), domain.GridCell{NX: 61, NY: 127}, slot)

	assert.Equal(t, 3, inner.villageCalls)
}

func TestCachedAPI_EmptyResultsNotCached(t *testing.T) {
	inner := &countingAPI{}
	cached, _ := newTestCache(inner, 10)
	slot := domain.SlotAt(domain.SourceNowcast, testTime)

	_, _ = cached.UltraShortNowcast(context.Background(), testCell, slot)
	_, _ = cached.UltraShortNowcast(context.Background(), testCell, slot)

	assert.Equal(t, 2, inner.nowcastCalls)
	assert.Zero(t, cached.Len())
}

func TestCachedAPI_Expiry(t *testing.T) {
	tests := []struct {
		name  string
		ttl   time.Duration
		call  func(c *CachedAPI) error
		calls func(m *countingAPI) int
	}{
		{
			name: "short range",
			ttl:  shortRangeTTL,
			call: func(c *CachedAPI) error {
				_, err := c.VillageForecast(context.Background(), testCell, domain.SlotAt(domain.SourceShortRange, testTime))
				return err
			},
			calls: func(m *countingAPI) int { return m.villageCalls },
		},
		{
			name: "nowcast",
			ttl:  nowcastTTL,
			call: func(c *CachedAPI) error {
				_, err := c.UltraShortNowcast(context.Background(), testCell, domain.SlotAt(domain.SourceNowcast, testTime))
				return err
			},
			calls: func(m *countingAPI) int { return m.nowcastCalls },
		},
		{
			name: "outlook land",
			ttl:  outlookTTL,
			call: func(c *CachedAPI) error {
				_, err := c.MidLandForecast(context.Background(), "11B00000", domain.SlotAt(domain.SourceOutlookLand, testTime))
				return err
			},
			calls: func(m *countingAPI) int { return m.landCalls },
		},
		{
			name: "outlook temperature",
			ttl:  outlookTTL,
			call: func(c *CachedAPI) error {
				_, err := c.MidTemperature(context.Background(), "11B10101", domain.SlotAt(domain.SourceOutlookTemperature, testTime))
				return err
			},
			calls: func(m *countingAPI) int { return m.tempCalls },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &countingAPI{
				items: sampleItems(),
				land:  domain.OutlookLand{Available: true, Days: map[int]domain.OutlookDay{3: {AM: &domain.OutlookPeriod{Description: "맑음"}}}},
				temp:  domain.OutlookTemperature{Available: true, Ranges: map[int]domain.TempRange{3: {}}},
			}
			cached, clock := newTestCache(inner, 10)

			require.NoError(t, tt.call(cached))
			clock.Advance(tt.ttl - time.Second)
			require.NoError(t, tt.call(cached))
			assert.Equal(t, 1, tt.calls(inner), "fresh entry should be served")

			clock.Advance(time.Second)
			require.NoError(t, tt.call(cached))
			assert.Equal(t, 2, tt.calls(inner), "expired entry should be refetched")
		})
	}
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	exp := testTime.Add(time.Hour)

	c.put("a", "A", exp)
	c.put("b", "B", exp)

	v, ok := c.get("a", testTime)
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.get("missing", testTime)
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	exp := testTime.Add(time.Hour)

	c.put("a", "A", exp)
	c.put("b", "B", exp)
	c.put("c", "C", exp) // evicts "a"

	_, ok := c.get("a", testTime)
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b", testTime)
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	v, ok = c.get("c", testTime)
	assert.True(t, ok)
	assert.Equal(t, "C", v)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	exp := testTime.Add(time.Hour)

	c.put("a", "A", exp)
	c.put("b", "B", exp)
	c.get("a", testTime)
	c.put("c", "C", exp)

	_, ok := c.get("a", testTime)
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b", testTime)
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_ExpiredEntryRemoved(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", "A", testTime.Add(time.Minute))

	_, ok := c.get("a", testTime.Add(time.Minute))
	assert.False(t, ok)
	assert.Empty(t, c.entries)
	assert.Nil(t, c.head)
	assert.Nil(t, c.tail)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", "A1", testTime.Add(time.Minute))
	c.put("a", "A2", testTime.Add(time.Hour))

	v, ok := c.get("a", testTime.Add(30*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
}
