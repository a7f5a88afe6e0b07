package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

// supplementSlots bounds how far back the day-3 supplement walks: one full
// day of short-range broadcasts.
const supplementSlots = 8

// ShortRangeFetcher reads the hourly village forecast for a grid cell.
type ShortRangeFetcher struct {
	api     domain.ForecastAPI
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewShortRangeFetcher creates a short-range fetcher.
func NewShortRangeFetcher(api domain.ForecastAPI, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *ShortRangeFetcher {
	return &ShortRangeFetcher{api: api, clock: clock, metrics: metrics, logger: logger}
}

// Fetch queries slot, or the current slot when slot is nil. When the slot
// has no items yet it retries once against the previous slot. An empty
// result after the fallback is not an error. The returned slot is the one
// that produced the items.
func (f *ShortRangeFetcher) Fetch(ctx context.Context, cell domain.GridCell, slot *domain.BroadcastSlot) ([]domain.RawForecastItem, domain.BroadcastSlot, error) {
	s := resolveSlot(domain.SourceShortRange, slot, f.clock)

	items, err := f.api.VillageForecast(ctx, cell, s)
	if err != nil {
		return nil, s, fmt.Errorf("fetch short-range %s: %w", s, err)
	}
	if len(items) > 0 {
		return items, s, nil
	}

	prev := s.Previous()
	f.metrics.SlotFallbacks.WithLabelValues(string(domain.SourceShortRange)).Inc()
	f.logger.Info("short-range slot empty, falling back", "slot", s.String(), "fallback", prev.String())

	items, err = f.api.VillageForecast(ctx, cell, prev)
	if err != nil {
		return nil, prev, fmt.Errorf("fetch short-range %s: %w", prev, err)
	}
	return items, prev, nil
}

// Supplement walks older slots, starting before from, until one carries
// items for date, and returns only those items. Failures of individual
// slots are skipped.
func (f *ShortRangeFetcher) Supplement(ctx context.Context, cell domain.GridCell, from domain.BroadcastSlot, date string) []domain.RawForecastItem {
	s := from
	for range supplementSlots {
		s = s.Previous()
		if ctx.Err() != nil {
			return nil
		}
		items, err := f.api.VillageForecast(ctx, cell, s)
		if err != nil {
			f.logger.Debug("supplement slot failed", "slot", s.String(), "error", err)
			continue
		}
		var matched []domain.RawForecastItem
		for _, it := range items {
			if it.Date == date {
				matched = append(matched, it)
			}
		}
		if len(matched) > 0 {
			f.logger.Debug("supplemented short-range day", "date", date, "slot", s.String(), "items", len(matched))
			return matched
		}
	}
	return nil
}

// NowcastFetcher reads the latest ultra-short-range observation.
type NowcastFetcher struct {
	api     domain.ForecastAPI
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewNowcastFetcher creates a nowcast fetcher.
func NewNowcastFetcher(api domain.ForecastAPI, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *NowcastFetcher {
	return &NowcastFetcher{api: api, clock: clock, metrics: metrics, logger: logger}
}

// Fetch makes a single attempt against slot, or the current slot when slot
// is nil.
func (f *NowcastFetcher) Fetch(ctx context.Context, cell domain.GridCell, slot *domain.BroadcastSlot) (domain.Nowcast, error) {
	s := resolveSlot(domain.SourceNowcast, slot, f.clock)

	items, err := f.api.UltraShortNowcast(ctx, cell, s)
	if err != nil {
		return domain.Nowcast{}, fmt.Errorf("fetch nowcast %s: %w", s, err)
	}
	return domain.NormalizeNowcast(s, items, f.logger), nil
}

// OutlookFetcher reads the land and temperature outlooks. Each sub-source
// is retried with exponential backoff behind its own circuit breaker.
type OutlookFetcher struct {
	api         domain.ForecastAPI
	clock       clockwork.Clock
	landBreaker *gobreaker.CircuitBreaker
	tempBreaker *gobreaker.CircuitBreaker
	attempts    int
	backoff     time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Retry defaults for the outlook services.
const (
	DefaultOutlookAttempts = 3
	DefaultOutlookBackoff  = time.Second
)

// NewOutlookFetcher creates an outlook fetcher. attempts and backoff fall
// back to the defaults when not positive.
func NewOutlookFetcher(api domain.ForecastAPI, clock clockwork.Clock, attempts int, backoff time.Duration, metrics *observability.Metrics, logger *slog.Logger) *OutlookFetcher {
	if attempts <= 0 {
		attempts = DefaultOutlookAttempts
	}
	if backoff <= 0 {
		backoff = DefaultOutlookBackoff
	}
	return &OutlookFetcher{
		api:         api,
		clock:       clock,
		landBreaker: newBreaker("kma-mid-land", logger),
		tempBreaker: newBreaker("kma-mid-ta", logger),
		attempts:    attempts,
		backoff:     backoff,
		metrics:     metrics,
		logger:      logger,
	}
}

func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Fetch reads both outlooks concurrently. An empty region ID skips that
// sub-source and leaves its result zero. A sub-source that still fails
// after its retries comes back with Available=false so the other one is
// kept.
func (f *OutlookFetcher) Fetch(ctx context.Context, landID, taID string, slot *domain.BroadcastSlot) (domain.OutlookLand, domain.OutlookTemperature) {
	var land domain.OutlookLand
	done := make(chan struct{})
	go func() {
		defer close(done)
		if landID != "" {
			land = f.FetchLand(ctx, landID, withSource(domain.SourceOutlookLand, slot))
		}
	}()
	var temp domain.OutlookTemperature
	if taID != "" {
		temp = f.FetchTemperature(ctx, taID, withSource(domain.SourceOutlookTemperature, slot))
	}
	<-done
	return land, temp
}

// withSource copies slot under source. Both outlooks share a schedule.
func withSource(source domain.Source, slot *domain.BroadcastSlot) *domain.BroadcastSlot {
	if slot == nil {
		return nil
	}
	s := *slot
	s.Source = source
	return &s
}

// FetchLand reads the land outlook for regionID.
func (f *OutlookFetcher) FetchLand(ctx context.Context, regionID string, slot *domain.BroadcastSlot) domain.OutlookLand {
	s := resolveSlot(domain.SourceOutlookLand, slot, f.clock)
	call := func(s domain.BroadcastSlot) (domain.OutlookLand, error) {
		return retry(ctx, f, f.landBreaker, domain.SourceOutlookLand, func() (domain.OutlookLand, error) {
			return f.api.MidLandForecast(ctx, regionID, s)
		})
	}

	out, err := call(s)
	if err == nil && len(out.Days) == 0 {
		f.metrics.SlotFallbacks.WithLabelValues(string(domain.SourceOutlookLand)).Inc()
		s = s.Previous()
		out, err = call(s)
	}
	if err != nil {
		f.logger.Warn("land outlook unavailable", "region", regionID, "slot", s.String(), "error", err)
		return domain.OutlookLand{RegionID: regionID, Slot: s, Available: false}
	}
	out.RegionID, out.Slot, out.Available = regionID, s, true
	return out
}

// FetchTemperature reads the temperature outlook for regionID.
func (f *OutlookFetcher) FetchTemperature(ctx context.Context, regionID string, slot *domain.BroadcastSlot) domain.OutlookTemperature {
	s := resolveSlot(domain.SourceOutlookTemperature, slot, f.clock)
	call := func(s domain.BroadcastSlot) (domain.OutlookTemperature, error) {
		return retry(ctx, f, f.tempBreaker, domain.SourceOutlookTemperature, func() (domain.OutlookTemperature, error) {
			return f.api.MidTemperature(ctx, regionID, s)
		})
	}

	out, err := call(s)
	if err == nil && len(out.Ranges) == 0 {
		f.metrics.SlotFallbacks.WithLabelValues(string(domain.SourceOutlookTemperature)).Inc()
		s = s.Previous()
		out, err = call(s)
	}
	if err != nil {
		f.logger.Warn("temperature outlook unavailable", "region", regionID, "slot", s.String(), "error", err)
		return domain.OutlookTemperature{RegionID: regionID, Slot: s, Available: false}
	}
	out.RegionID, out.Slot, out.Available = regionID, s, true
	return out
}

// retry runs fn through cb up to f.attempts times, doubling the wait after
// each failure. An open breaker ends the loop early.
func retry[T any](ctx context.Context, f *OutlookFetcher, cb *gobreaker.CircuitBreaker, source domain.Source, fn func() (T, error)) (T, error) {
	var zero T
	wait := f.backoff
	var lastErr error

	for attempt := 1; attempt <= f.attempts; attempt++ {
		result, err := cb.Execute(func() (interface{}, error) {
			return fn()
		})
		if err == nil {
			return result.(T), nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt == f.attempts {
			break
		}

		f.metrics.FetchRetries.WithLabelValues(string(source)).Inc()
		f.logger.Debug("retrying outlook request", "source", source, "attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s retry canceled: %w", source, ctx.Err())
		case <-f.clock.After(wait):
		}
		wait *= 2
	}
	return zero, fmt.Errorf("%s failed after retries: %w", source, lastErr)
}

func resolveSlot(source domain.Source, slot *domain.BroadcastSlot, clock clockwork.Clock) domain.BroadcastSlot {
	if slot != nil {
		return *slot
	}
	return domain.SlotAt(source, clock.Now())
}
