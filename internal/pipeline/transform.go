package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
)

// Forecaster produces a fused forecast for one request.
type Forecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (domain.Forecast, error)
}

// ForecastTransformer implements Transformer by turning a request message
// into a serialized forecast.
type ForecastTransformer struct {
	forecaster Forecaster
	logger     *slog.Logger
}

// NewTransformer creates a ForecastTransformer around forecaster.
func NewTransformer(forecaster Forecaster, logger *slog.Logger) *ForecastTransformer {
	return &ForecastTransformer{
		forecaster: forecaster,
		logger:     logger,
	}
}

func (t *ForecastTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseForecastRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	fc, err := t.forecaster.Forecast(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("forecast request %s: %w", req.ID, err)
	}

	t.logger.Debug("forecast ready", "request_id", req.ID, "cell", fc.Cell, "days", len(fc.Days))
	return domain.SerializeForecast(fc)
}
