package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/config"
	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/go-co-op/gocron"
)

const (
	defaultInterval = 30 * time.Minute
	locationTimeout = 90 * time.Second
)

// Forecaster produces a fused forecast for one request.
type Forecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (domain.Forecast, error)
}

// Scheduler periodically forecasts the configured locations so the
// read-through KMA cache stays warm for the next real request.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	forecaster Forecaster
	locations  []config.Location
	interval   time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New creates a Scheduler. Broadcast slots are KST so the scheduler runs
// in KST as well.
func New(locations []config.Location, interval time.Duration, forecaster Forecaster, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(domain.KST),
		forecaster: forecaster,
		locations:  locations,
		interval:   interval,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start schedules the refresh job, which first runs immediately, and starts
// the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no refresh locations configured, scheduler idle")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.logger.Info("refresh scheduler started", "interval", s.interval, "locations", len(s.locations))
	s.scheduler.StartAsync()
	return nil
}

// RunOnce forecasts every location concurrently and waits for all of them.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Debug("running cache refresh", "locations", len(s.locations))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refresh(ctx, loc)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) refresh(ctx context.Context, loc config.Location) {
	ctx, cancel := context.WithTimeout(ctx, locationTimeout)
	defer cancel()

	lon, lat := loc.Lon, loc.Lat
	fc, err := s.forecaster.Forecast(ctx, domain.ForecastRequest{ID: "refresh-" + loc.Name, Name: loc.Name, Lon: &lon, Lat: &lat})
	if err != nil {
		s.metrics.RefreshRuns.WithLabelValues("error").Inc()
		s.logger.Warn("cache refresh failed", "location", loc.Name, "error", err)
		return
	}
	s.metrics.RefreshRuns.WithLabelValues("success").Inc()
	s.logger.Debug("cache refreshed", "location", loc.Name, "cell", fc.Cell, "days", len(fc.Days))
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
