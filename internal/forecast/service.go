package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
)

// supplementDay is the window offset that the newest short-range slot
// often leaves uncovered.
const supplementDay = 3

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Defaults        domain.Regions
	HorizonDays     int
	OutlookAttempts int
	OutlookBackoff  time.Duration
}

// Service assembles fused forecasts from the KMA sources.
type Service struct {
	shortRange  *ShortRangeFetcher
	nowcast     *NowcastFetcher
	outlook     *OutlookFetcher
	defaults    domain.Regions
	horizonDays int
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewService wires the source fetchers around api.
func NewService(api domain.ForecastAPI, opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = domain.DefaultHorizonDays
	}
	return &Service{
		shortRange:  NewShortRangeFetcher(api, clock, metrics, logger),
		nowcast:     NewNowcastFetcher(api, clock, metrics, logger),
		outlook:     NewOutlookFetcher(api, clock, opts.OutlookAttempts, opts.OutlookBackoff, metrics, logger),
		defaults:    opts.Defaults,
		horizonDays: opts.HorizonDays,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Forecast fetches every source for the request's location concurrently
// and fuses the results into a daily series from today through the
// horizon. It fails with domain.ErrForecastUnavailable only when the
// short-range forecast and both outlooks all came back without data.
func (s *Service) Forecast(ctx context.Context, req domain.ForecastRequest) (domain.Forecast, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return domain.Forecast{}, err
	}

	now := s.clock.Now().In(domain.KST)
	window := domain.NewWindow(now, s.horizonDays)
	cell, regions := domain.ResolveRequest(req, s.defaults)

	var (
		wg         sync.WaitGroup
		items      []domain.RawForecastItem
		shortErr   error
		nowcast    domain.Nowcast
		nowcastErr error
		land       domain.OutlookLand
		temp       domain.OutlookTemperature
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		items, shortErr = s.fetchShortRange(ctx, cell, now, window)
	}()
	go func() {
		defer wg.Done()
		slot := domain.SlotAt(domain.SourceNowcast, now)
		nowcast, nowcastErr = s.nowcast.Fetch(ctx, cell, &slot)
	}()
	go func() {
		defer wg.Done()
		slot := domain.SlotAt(domain.SourceOutlookLand, now)
		land, temp = s.outlook.Fetch(ctx, regions.Land, regions.Temperature, &slot)
	}()
	wg.Wait()

	report := domain.SourceReport{
		ShortRange:         gridStatus(len(items) > 0, shortErr),
		Nowcast:            gridStatus(!nowcast.Empty(), nowcastErr),
		OutlookLand:        outlookStatus(regions.Land, land.Available, len(land.Days) > 0),
		OutlookTemperature: outlookStatus(regions.Temperature, temp.Available, len(temp.Ranges) > 0),
	}
	if shortErr != nil {
		s.logger.Warn("short-range forecast unavailable", "cell", cell, "error", shortErr)
	}
	if nowcastErr != nil {
		s.logger.Warn("nowcast unavailable", "cell", cell, "error", nowcastErr)
	}

	if report.ShortRange != domain.StatusOK && !land.Available && !temp.Available {
		s.metrics.ForecastsUnavailable.Inc()
		return domain.Forecast{}, fmt.Errorf("forecast for cell %d,%d: %w", cell.NX, cell.NY,
			errors.Join(domain.ErrForecastUnavailable, shortErr))
	}

	daily := domain.AggregateDaily(items, s.logger)
	fused := domain.Fuse(daily, land, temp, window)

	days := make([]domain.DailyWeather, 0, len(fused))
	for _, d := range fused {
		d.Advisories = domain.Advise(d)
		days = append(days, d)
		s.metrics.ForecastDays.WithLabelValues(string(d.Resolution)).Inc()
	}

	out := domain.Forecast{
		RequestID:   req.ID,
		Location:    req.Name,
		Cell:        cell,
		Regions:     regions,
		Days:        days,
		Sources:     report,
		GeneratedAt: now,
	}
	if nowcastErr == nil && !nowcast.Empty() {
		out.Nowcast = &nowcast
	}

	s.logger.Debug("forecast assembled",
		"request_id", req.ID,
		"cell", cell,
		"days", len(days),
		"short_range", report.ShortRange,
		"outlook_land", report.OutlookLand,
		"outlook_temperature", report.OutlookTemperature,
	)
	return out, nil
}

// fetchShortRange reads the newest short-range slot and, when it does not
// reach the window's third day, tops that day up from older slots.
func (s *Service) fetchShortRange(ctx context.Context, cell domain.GridCell, now time.Time, window domain.Window) ([]domain.RawForecastItem, error) {
	slot := domain.SlotAt(domain.SourceShortRange, now)
	items, used, err := s.shortRange.Fetch(ctx, cell, &slot)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || window.Days < supplementDay {
		return items, nil
	}

	target := window.Dates()[supplementDay]
	if slices.ContainsFunc(items, func(it domain.RawForecastItem) bool { return it.Date == target }) {
		return items, nil
	}
	return slices.Concat(items, s.shortRange.Supplement(ctx, cell, used, target)), nil
}

func gridStatus(hasData bool, err error) domain.SourceStatus {
	switch {
	case err != nil:
		return domain.StatusUnavailable
	case !hasData:
		return domain.StatusEmpty
	default:
		return domain.StatusOK
	}
}

func outlookStatus(region string, available, hasData bool) domain.SourceStatus {
	switch {
	case region == "":
		return domain.StatusSkipped
	case !available:
		return domain.StatusUnavailable
	case !hasData:
		return domain.StatusEmpty
	default:
		return domain.StatusOK
	}
}
