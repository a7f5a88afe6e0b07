package domain

import "log/slog"

// NoRainfall is the Precipitation text reported when an observation has no
// RN1 item.
const NoRainfall = "0"

// NormalizeNowcast folds ultra-short-range observation items into a
// Nowcast. Categories other than RN1, T1H, REH and WSD are ignored.
func NormalizeNowcast(slot BroadcastSlot, items []RawForecastItem, logger *slog.Logger) Nowcast {
	nc := Nowcast{Slot: slot, Precipitation: NoRainfall}
	for _, it := range items {
		switch it.Category {
		case CategoryHourlyRain:
			amount, ok := ParsePrecipAmount(it.Value)
			if !ok {
				logger.Warn("unmapped nowcast rainfall", "date", it.Date, "time", it.Time, "value", it.Value)
			}
			nc.Precipitation = it.Value
			nc.PrecipAmount = &amount
		case CategoryObservedTemp:
			if v, ok := parseFloat(it.Value); ok {
				nc.Temp = ptr(v)
			}
		case CategoryHumidity:
			if v, ok := parseInt(it.Value); ok {
				nc.Humidity = ptr(v)
			}
		case CategoryWindSpeed:
			if v, ok := parseFloat(it.Value); ok && v >= 0 {
				nc.WindSpeed = ptr(v)
			}
		}
	}
	return nc
}

// Empty reports whether the observation carried no values at all.
func (n Nowcast) Empty() bool {
	return n.PrecipAmount == nil && n.Temp == nil && n.Humidity == nil && n.WindSpeed == nil
}
