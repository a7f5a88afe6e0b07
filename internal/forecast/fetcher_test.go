package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake upstream ---

var (
	testNow  = time.Date(2025, 6, 1, 14, 30, 0, 0, domain.KST)
	testCell = domain.GridCell{NX: 60, NY: 127}
	errBoom  = domain.NewSourceError(domain.SourceOutlookLand, domain.KindTransient, errors.New("status 503"))
)

// fakeAPI serves canned results keyed by slot issuance stamp.
type fakeAPI struct {
	mu sync.Mutex

	village    map[string][]domain.RawForecastItem
	villageErr map[string]error
	nowcast    []domain.RawForecastItem
	nowcastErr error

	land     map[string]domain.OutlookLand
	landErrs []error // per call, in order
	temp     map[string]domain.OutlookTemperature
	tempErrs []error

	villageSlots []string
	landCalls    int
	tempCalls    int
	landRegions  []string
	tempRegions  []string
}

func (f *fakeAPI) VillageForecast(_ context.Context, _ domain.GridCell, slot domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.villageSlots = append(f.villageSlots, slot.TmFc())
	if err := f.villageErr[slot.TmFc()]; err != nil {
		return nil, err
	}
	return f.village[slot.TmFc()], nil
}

func (f *fakeAPI) UltraShortNowcast(_ context.Context, _ domain.GridCell, _ domain.BroadcastSlot) ([]domain.RawForecastItem, error) {
	if f.nowcastErr != nil {
		return nil, f.nowcastErr
	}
	return f.nowcast, nil
}

func (f *fakeAPI) MidLandForecast(_ context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookLand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.landCalls
	f.landCalls++
	f.landRegions = append(f.landRegions, regionID)
	if call < len(f.landErrs) && f.landErrs[call] != nil {
		return domain.OutlookLand{}, f.landErrs[call]
	}
	return f.land[slot.TmFc()], nil
}

func (f *fakeAPI) MidTemperature(_ context.Context, regionID string, slot domain.BroadcastSlot) (domain.OutlookTemperature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.tempCalls
	f.tempCalls++
	f.tempRegions = append(f.tempRegions, regionID)
	if call < len(f.tempErrs) && f.tempErrs[call] != nil {
		return domain.OutlookTemperature{}, f.tempErrs[call]
	}
	return f.temp[slot.TmFc()], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

// dayItems returns a plausible set of short-range items for one date.
func dayItems(date string) []domain.RawForecastItem {
	var out []domain.RawForecastItem
	for _, hhmm := range []string{"0600", "1500"} {
		out = append(out,
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryTemp, Value: "20"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategorySky, Value: "1"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryPrecipType, Value: "0"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryPrecipProb, Value: "20"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryPrecipAmount, Value: "강수없음"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryWindSpeed, Value: "2.0"},
			domain.RawForecastItem{Date: date, Time: hhmm, Category: domain.CategoryHumidity, Value: "60"},
		)
	}
	return out
}

func sampleLand() domain.OutlookLand {
	days := map[int]domain.OutlookDay{}
	for n := 3; n <= 7; n++ {
		days[n] = domain.OutlookDay{
			AM: &domain.OutlookPeriod{Description: "맑음", PrecipProbability: ip(10)},
			PM: &domain.OutlookPeriod{Description: "구름많음", PrecipProbability: ip(30)},
		}
	}
	for n := 8; n <= 10; n++ {
		days[n] = domain.OutlookDay{AM: &domain.OutlookPeriod{Description: "흐리고 비", PrecipProbability: ip(60)}}
	}
	return domain.OutlookLand{Days: days}
}

func sampleTemp() domain.OutlookTemperature {
	ranges := map[int]domain.TempRange{}
	for n := 3; n <= 10; n++ {
		ranges[n] = domain.TempRange{Min: fp(15), Max: fp(25)}
	}
	return domain.OutlookTemperature{Ranges: ranges}
}

func slotAt(source domain.Source) domain.BroadcastSlot {
	return domain.SlotAt(source, testNow)
}

// --- ShortRangeFetcher ---

func TestShortRangeFetcher_CurrentSlot(t *testing.T) {
	api := &fakeAPI{village: map[string][]domain.RawForecastItem{
		"202506011400": dayItems("20250601"),
	}}
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	items, used, err := f.Fetch(context.Background(), testCell, nil)
	require.NoError(t, err)
	assert.Len(t, items, 14)
	assert.Equal(t, "1400", used.BaseTime())
	assert.Equal(t, []string{"202506011400"}, api.villageSlots)
}

func TestShortRangeFetcher_FallsBackOnce(t *testing.T) {
	api := &fakeAPI{village: map[string][]domain.RawForecastItem{
		"202506011100": dayItems("20250601"),
	}}
	metrics := observability.NewMetricsForTesting()
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), metrics, discardLogger())

	slot := slotAt(domain.SourceShortRange)
	items, used, err := f.Fetch(context.Background(), testCell, &slot)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
	assert.Equal(t, "1100", used.BaseTime())
	assert.Equal(t, []string{"202506011400", "202506011100"}, api.villageSlots)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SlotFallbacks.WithLabelValues(string(domain.SourceShortRange))))
}

func TestShortRangeFetcher_EmptyAfterFallbackIsNotAnError(t *testing.T) {
	api := &fakeAPI{}
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	slot := slotAt(domain.SourceShortRange)
	items, _, err := f.Fetch(context.Background(), testCell, &slot)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, api.villageSlots, 2, "only one fallback")
}

func TestShortRangeFetcher_Error(t *testing.T) {
	srcErr := domain.NewSourceError(domain.SourceShortRange, domain.KindMalformed, errors.New("decode body"))
	api := &fakeAPI{villageErr: map[string]error{"202506011400": srcErr}}
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	slot := slotAt(domain.SourceShortRange)
	_, _, err := f.Fetch(context.Background(), testCell, &slot)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Len(t, api.villageSlots, 1, "errors are not retried against older slots")
}

func TestShortRangeFetcher_Supplement(t *testing.T) {
	api := &fakeAPI{
		village: map[string][]domain.RawForecastItem{
			"202506011100": dayItems("20250603"),
			"202506010500": append(dayItems("20250603"), dayItems("20250604")...),
			"202506010200": dayItems("20250604"),
		},
		villageErr: map[string]error{
			"202506010800": domain.NewSourceError(domain.SourceShortRange, domain.KindTransient, errors.New("timeout")),
		},
	}
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	items := f.Supplement(context.Background(), testCell, slotAt(domain.SourceShortRange), "20250604")
	require.Len(t, items, 14)
	for _, it := range items {
		assert.Equal(t, "20250604", it.Date)
	}
	assert.Equal(t, []string{"202506011100", "202506010800", "202506010500"}, api.villageSlots)
}

func TestShortRangeFetcher_SupplementGivesUp(t *testing.T) {
	api := &fakeAPI{}
	f := NewShortRangeFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	items := f.Supplement(context.Background(), testCell, slotAt(domain.SourceShortRange), "20250604")
	assert.Empty(t, items)
	assert.Len(t, api.villageSlots, supplementSlots)
}

// --- NowcastFetcher ---

func TestNowcastFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		items     []domain.RawForecastItem
		wantPrecp string
		wantEmpty bool
	}{
		{
			name: "with rainfall",
			items: []domain.RawForecastItem{
				{Date: "20250601", Time: "1400", Category: domain.CategoryHourlyRain, Value: "3.5"},
				{Date: "20250601", Time: "1400", Category: domain.CategoryObservedTemp, Value: "21.0"},
			},
			wantPrecp: "3.5",
		},
		{
			name: "no rainfall item",
			items: []domain.RawForecastItem{
				{Date: "20250601", Time: "1400", Category: domain.CategoryObservedTemp, Value: "21.0"},
			},
			wantPrecp: domain.NoRainfall,
		},
		{
			name:      "no data",
			wantPrecp: domain.NoRainfall,
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{nowcast: tt.items}
			f := NewNowcastFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

			nc, err := f.Fetch(context.Background(), testCell, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrecp, nc.Precipitation)
			assert.Equal(t, tt.wantEmpty, nc.Empty())
			assert.Equal(t, "1400", nc.Slot.BaseTime())
		})
	}
}

func TestNowcastFetcher_Error(t *testing.T) {
	api := &fakeAPI{nowcastErr: domain.NewSourceError(domain.SourceNowcast, domain.KindTransient, errors.New("timeout"))}
	f := NewNowcastFetcher(api, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting(), discardLogger())

	_, err := f.Fetch(context.Background(), testCell, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

// --- OutlookFetcher ---

func outlookAPI() *fakeAPI {
	stamp := slotAt(domain.SourceOutlookLand).TmFc()
	return &fakeAPI{
		land: map[string]domain.OutlookLand{stamp: sampleLand()},
		temp: map[string]domain.OutlookTemperature{stamp: sampleTemp()},
	}
}

func TestOutlookFetcher_RetriesWithBackoff(t *testing.T) {
	api := outlookAPI()
	api.landErrs = []error{errBoom, errBoom}
	clock := clockwork.NewFakeClockAt(testNow)
	metrics := observability.NewMetricsForTesting()
	f := NewOutlookFetcher(api, clock, 3, time.Second, metrics, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan domain.OutlookLand, 1)
	go func() { done <- f.FetchLand(ctx, domain.LandCapital, nil) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(2 * time.Second)

	land := <-done
	assert.True(t, land.Available)
	assert.Len(t, land.Days, 8)
	assert.Equal(t, domain.LandCapital, land.RegionID)
	assert.Equal(t, "0600", land.Slot.BaseTime())
	assert.Equal(t, 3, api.landCalls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FetchRetries.WithLabelValues(string(domain.SourceOutlookLand))))
}

func TestOutlookFetcher_DegradesPerSubSource(t *testing.T) {
	api := outlookAPI()
	api.landErrs = []error{errBoom}
	f := NewOutlookFetcher(api, clockwork.NewFakeClockAt(testNow), 1, time.Second, observability.NewMetricsForTesting(), discardLogger())

	land, temp := f.Fetch(context.Background(), domain.LandCapital, "11B10101", nil)

	assert.False(t, land.Available)
	assert.Empty(t, land.Days)
	assert.Equal(t, domain.LandCapital, land.RegionID)

	assert.True(t, temp.Available)
	assert.Len(t, temp.Ranges, 8)
	assert.Equal(t, "11B10101", temp.RegionID)
}

func TestOutlookFetcher_StampsSourcePerSubSource(t *testing.T) {
	api := outlookAPI()
	f := NewOutlookFetcher(api, clockwork.NewFakeClockAt(testNow), 1, time.Second, observability.NewMetricsForTesting(), discardLogger())
	slot := slotAt(domain.SourceOutlookLand)

	land, temp := f.Fetch(context.Background(), domain.LandCapital, "11B10101", &slot)

	require.True(t, land.Available)
	require.True(t, temp.Available)
	assert.Equal(t, domain.SourceOutlookLand, land.Slot.Source)
	assert.Equal(t, domain.SourceOutlookTemperature, temp.Slot.Source)
	assert.Equal(t, slot.TmFc(), temp.Slot.TmFc())
	assert.Equal(t, domain.SourceOutlookLand, slot.Source, "caller's slot must not change")
}

func TestOutlookFetcher_SkipsEmptyRegion(t *testing.T) {
	tests := []struct {
		name      string
		landID    string
		taID      string
		wantLand  int
		wantTemp  int
		landAvail bool
		tempAvail bool
	}{
		{name: "no land region", taID: "11B10101", wantTemp: 1, tempAvail: true},
		{name: "no temperature region", landID: domain.LandCapital, wantLand: 1, landAvail: true},
		{name: "neither"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := outlookAPI()
			f := NewOutlookFetcher(api, clockwork.NewFakeClockAt(testNow), 1, time.Second, observability.NewMetricsForTesting(), discardLogger())

			land, temp := f.Fetch(context.Background(), tt.landID, tt.taID, nil)

			assert.Equal(t, tt.wantLand, api.landCalls)
			assert.Equal(t, tt.wantTemp, api.tempCalls)
			assert.Equal(t, tt.landAvail, land.Available)
			assert.Equal(t, tt.tempAvail, temp.Available)
		})
	}
}

func TestOutlookFetcher_EmptyFallsBackToPreviousSlot(t *testing.T) {
	current := slotAt(domain.SourceOutlookTemperature)
	api := &fakeAPI{temp: map[string]domain.OutlookTemperature{
		current.Previous().TmFc(): sampleTemp(),
	}}
	f := NewOutlookFetcher(api, clockwork.NewFakeClockAt(testNow), 1, time.Second, observability.NewMetricsForTesting(), discardLogger())

	temp := f.FetchTemperature(context.Background(), "11B10101", &current)
	assert.True(t, temp.Available)
	assert.Len(t, temp.Ranges, 8)
	assert.Equal(t, current.Previous(), temp.Slot)
	assert.Equal(t, 2, api.tempCalls)
}

func TestOutlookFetcher_BreakerOpens(t *testing.T) {
	api := outlookAPI()
	api.landErrs = make([]error, 20)
	for i := range api.landErrs {
		api.landErrs[i] = errBoom
	}
	f := NewOutlookFetcher(api, clockwork.NewFakeClockAt(testNow), 1, time.Second, observability.NewMetricsForTesting(), discardLogger())

	for range 10 {
		land := f.FetchLand(context.Background(), domain.LandCapital, nil)
		assert.False(t, land.Available)
	}
	assert.Equal(t, 6, api.landCalls, "breaker should stop calls after consecutive failures")
}

func TestOutlookFetcher_RetryCanceled(t *testing.T) {
	api := outlookAPI()
	api.tempErrs = []error{errBoom, errBoom, errBoom}
	clock := clockwork.NewFakeClockAt(testNow)
	f := NewOutlookFetcher(api, clock, 3, time.Second, observability.NewMetricsForTesting(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.OutlookTemperature, 1)
	go func() { done <- f.FetchTemperature(ctx, "11B10101", nil) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	temp := <-done
	assert.False(t, temp.Available)
	assert.Equal(t, 1, api.tempCalls)
}
