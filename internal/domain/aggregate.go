package domain

import (
	"log/slog"
	"sort"
)

// skyTieOrder breaks ties between equally frequent sky states.
var skyTieOrder = []Sky{SkyClear, SkyPartlyCloudy, SkyOvercast, SkyUnknown}

// AggregateDaily groups short-range items into one DailyWeather per distinct
// date, sorted by date. Unmappable codes and amount texts are logged and
// counted as unknown. Items with an empty date are dropped.
func AggregateDaily(items []RawForecastItem, logger *slog.Logger) []DailyWeather {
	builders := make(map[string]*dayBuilder)
	for _, item := range items {
		if item.Date == "" {
			continue
		}
		b, ok := builders[item.Date]
		if !ok {
			b = newDayBuilder(item.Date)
			builders[item.Date] = b
		}
		b.add(item, logger)
	}

	dates := make([]string, 0, len(builders))
	for d := range builders {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DailyWeather, 0, len(dates))
	for _, d := range dates {
		out = append(out, builders[d].build())
	}
	return out
}

// dayBuilder accumulates one date's items. Nothing it holds leaks into the
// emitted DailyWeather except through build.
type dayBuilder struct {
	date string

	dailyMin, dailyMax   *float64
	hourlyMin, hourlyMax *float64

	skyCounts map[Sky]int
	precip    PrecipType
	pop       *int
	rain      *Amount
	snow      *Amount

	windSum, windMax float64
	windN            int
	humSum, humN     int

	hours map[string]*HourlyWeather
}

func newDayBuilder(date string) *dayBuilder {
	return &dayBuilder{
		date:      date,
		skyCounts: make(map[Sky]int),
		hours:     make(map[string]*HourlyWeather),
	}
}

func (b *dayBuilder) hour(t string) *HourlyWeather {
	h, ok := b.hours[t]
	if !ok {
		h = &HourlyWeather{Time: t}
		b.hours[t] = h
	}
	return h
}

func (b *dayBuilder) add(item RawForecastItem, logger *slog.Logger) {
	switch item.Category {
	case CategoryMinTemp:
		if v, ok := parseFloat(item.Value); ok {
			b.dailyMin = minPtr(b.dailyMin, v)
		}
	case CategoryMaxTemp:
		if v, ok := parseFloat(item.Value); ok {
			b.dailyMax = maxPtr(b.dailyMax, v)
		}
	case CategoryTemp:
		if v, ok := parseFloat(item.Value); ok {
			b.hourlyMin = minPtr(b.hourlyMin, v)
			b.hourlyMax = maxPtr(b.hourlyMax, v)
			b.hour(item.Time).Temp = ptr(v)
		}
	case CategorySky:
		sky := NormalizeSky(item.Value)
		if sky == SkyUnknown {
			logger.Warn("unmapped sky code", "date", item.Date, "time", item.Time, "value", item.Value)
		}
		b.skyCounts[sky]++
		b.hour(item.Time).Sky = sky
	case CategoryPrecipType:
		pt := NormalizePrecipType(item.Value)
		if pt == PrecipUnknown {
			logger.Warn("unmapped precipitation type", "date", item.Date, "time", item.Time, "value", item.Value)
		}
		b.hour(item.Time).PrecipType = pt
		b.notePrecip(pt)
	case CategoryPrecipProb:
		if v, ok := parseInt(item.Value); ok {
			if b.pop == nil || v > *b.pop {
				b.pop = ptr(v)
			}
			b.hour(item.Time).PrecipProbability = ptr(v)
		}
	case CategoryPrecipAmount:
		amt, ok := ParsePrecipAmount(item.Value)
		if !ok {
			logger.Warn("unmapped precipitation amount", "date", item.Date, "time", item.Time, "value", item.Value)
		}
		b.hour(item.Time).PrecipAmount = &amt
		b.rain = maxAmount(b.rain, amt)
	case CategorySnowAmount:
		amt, ok := ParseSnowAmount(item.Value)
		if !ok {
			logger.Warn("unmapped snow amount", "date", item.Date, "time", item.Time, "value", item.Value)
		}
		b.hour(item.Time).SnowAmount = &amt
		b.snow = maxAmount(b.snow, amt)
	case CategoryWindSpeed:
		if v, ok := parseFloat(item.Value); ok && v >= 0 {
			if b.windN == 0 || v > b.windMax {
				b.windMax = v
			}
			b.windSum += v
			b.windN++
			b.hour(item.Time).WindSpeed = ptr(v)
		}
	case CategoryHumidity:
		if v, ok := parseInt(item.Value); ok {
			b.humSum += v
			b.humN++
			b.hour(item.Time).Humidity = ptr(v)
		}
	}
}

// notePrecip keeps the highest-priority non-none type seen so far.
// Unknown never displaces a known type.
func (b *dayBuilder) notePrecip(pt PrecipType) {
	switch {
	case b.precip == "":
		b.precip = pt
	case pt == PrecipNone || pt == PrecipUnknown:
		if b.precip == PrecipUnknown && pt == PrecipNone {
			b.precip = PrecipNone
		}
	case b.precip == PrecipNone || b.precip == PrecipUnknown:
		b.precip = pt
	case precipPriority(pt) < precipPriority(b.precip):
		b.precip = pt
	}
}

func (b *dayBuilder) build() DailyWeather {
	d := DailyWeather{
		Date:              b.date,
		MinTemp:           widenMin(b.dailyMin, b.hourlyMin),
		MaxTemp:           widenMax(b.dailyMax, b.hourlyMax),
		Sky:               b.modeSky(),
		PrecipType:        b.precip,
		PrecipAmount:      b.rain,
		SnowAmount:        b.snow,
		PrecipProbability: b.pop,
		Resolution:        ResolutionHourly,
		Hourly:            b.hourly(),
	}
	if b.windN > 0 {
		mean := round1(b.windSum / float64(b.windN))
		if mean > b.windMax {
			mean = b.windMax
		}
		d.WindSpeed = ptr(mean)
	}
	if b.humN > 0 {
		d.Humidity = ptr(int(float64(b.humSum)/float64(b.humN) + 0.5))
	}
	return d
}

func (b *dayBuilder) modeSky() Sky {
	var best Sky
	bestN := 0
	for _, sky := range skyTieOrder {
		if n := b.skyCounts[sky]; n > bestN {
			best, bestN = sky, n
		}
	}
	return best
}

func (b *dayBuilder) hourly() []HourlyWeather {
	if len(b.hours) == 0 {
		return nil
	}
	times := make([]string, 0, len(b.hours))
	for t := range b.hours {
		times = append(times, t)
	}
	sort.Strings(times)
	out := make([]HourlyWeather, 0, len(times))
	for _, t := range times {
		out = append(out, *b.hours[t])
	}
	return out
}

func widenMin(daily, hourly *float64) *float64 {
	switch {
	case daily == nil:
		return hourly
	case hourly == nil:
		return daily
	case *hourly < *daily:
		return hourly
	default:
		return daily
	}
}

func widenMax(daily, hourly *float64) *float64 {
	switch {
	case daily == nil:
		return hourly
	case hourly == nil:
		return daily
	case *hourly > *daily:
		return hourly
	default:
		return daily
	}
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return ptr(v)
	}
	return cur
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return ptr(v)
	}
	return cur
}

// maxAmount keeps the higher bucket; within one bucket the larger value.
// Unknown amounts are kept only when nothing else was seen.
func maxAmount(cur *Amount, a Amount) *Amount {
	if cur == nil {
		return &a
	}
	if a.Category == AmountUnknown {
		return cur
	}
	if cur.Category == AmountUnknown || a.Category > cur.Category ||
		(a.Category == cur.Category && a.Value > cur.Value) {
		return &a
	}
	return cur
}

func ptr[T any](v T) *T { return &v }
