package domain

import "context"

// ForecastAPI is the upstream KMA forecast surface. Implementations return
// *SourceError for every failure and an empty result, not an error, when a
// broadcast has no data yet.
type ForecastAPI interface {
	VillageForecast(ctx context.Context, cell GridCell, slot BroadcastSlot) ([]RawForecastItem, error)
	UltraShortNowcast(ctx context.Context, cell GridCell, slot BroadcastSlot) ([]RawForecastItem, error)
	MidLandForecast(ctx context.Context, regionID string, slot BroadcastSlot) (OutlookLand, error)
	MidTemperature(ctx context.Context, regionID string, slot BroadcastSlot) (OutlookTemperature, error)
}
