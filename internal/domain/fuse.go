package domain

import (
	"strings"
	"time"
)

// DefaultHorizonDays is how far past today the fused series reaches.
const DefaultHorizonDays = 10

// Window is the contiguous date range a fused series covers, from Start
// through Start+Days inclusive.
type Window struct {
	Start time.Time
	Days  int
}

// NewWindow returns the window starting at now's KST calendar date.
func NewWindow(now time.Time, horizonDays int) Window {
	t := now.In(KST)
	return Window{
		Start: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, KST),
		Days:  horizonDays,
	}
}

// Dates lists every date in the window as YYYYMMDD.
func (w Window) Dates() []string {
	out := make([]string, 0, w.Days+1)
	for i := 0; i <= w.Days; i++ {
		out = append(out, w.Start.AddDate(0, 0, i).Format("20060102"))
	}
	return out
}

// outlookEntry is the outlook data that lands on one calendar date.
type outlookEntry struct {
	day  *OutlookDay
	temp *TempRange
}

// Fuse merges the aggregated short-range days with the outlook into one
// date-sorted series covering every date of window exactly once.
//
// Short-range records win wherever they exist; only their missing min/max
// temperatures are filled from the outlook. Outlook-only dates are
// synthesized from the outlook text, and dates no source covers get a
// ResolutionNone placeholder.
func Fuse(daily []DailyWeather, land OutlookLand, temp OutlookTemperature, window Window) []DailyWeather {
	hourly := make(map[string]DailyWeather, len(daily))
	for _, d := range daily {
		if _, dup := hourly[d.Date]; !dup {
			hourly[d.Date] = d
		}
	}
	outlook := indexOutlook(land, temp)

	dates := window.Dates()
	out := make([]DailyWeather, 0, len(dates))
	for _, date := range dates {
		entry, hasOutlook := outlook[date]
		if d, ok := hourly[date]; ok {
			if hasOutlook && entry.temp != nil {
				d = backfillTemps(d, *entry.temp)
			}
			out = append(out, d)
			continue
		}
		if hasOutlook {
			out = append(out, synthesizeOutlookDay(date, entry))
			continue
		}
		out = append(out, DailyWeather{Date: date, Resolution: ResolutionNone})
	}
	return out
}

func indexOutlook(land OutlookLand, temp OutlookTemperature) map[string]outlookEntry {
	idx := make(map[string]outlookEntry)
	if land.Available {
		for offset, day := range land.Days {
			date := offsetDate(land.Slot, offset)
			e := idx[date]
			e.day = &day
			idx[date] = e
		}
	}
	if temp.Available {
		for offset, r := range temp.Ranges {
			if r.Min == nil && r.Max == nil {
				continue
			}
			date := offsetDate(temp.Slot, offset)
			e := idx[date]
			e.temp = &r
			idx[date] = e
		}
	}
	return idx
}

func offsetDate(slot BroadcastSlot, offset int) string {
	return slot.Issued.In(KST).AddDate(0, 0, offset).Format("20060102")
}

// backfillTemps fills only the temperature fields the short-range record
// lacks. d is a copy; the caller's slice is untouched.
func backfillTemps(d DailyWeather, r TempRange) DailyWeather {
	if d.MinTemp == nil && r.Min != nil {
		d.MinTemp = ptr(*r.Min)
	}
	if d.MaxTemp == nil && r.Max != nil {
		d.MaxTemp = ptr(*r.Max)
	}
	return d
}

func synthesizeOutlookDay(date string, e outlookEntry) DailyWeather {
	d := DailyWeather{Date: date, Resolution: ResolutionOutlook}
	if e.temp != nil {
		if e.temp.Min != nil {
			d.MinTemp = ptr(*e.temp.Min)
		}
		if e.temp.Max != nil {
			d.MaxTemp = ptr(*e.temp.Max)
		}
	}
	if e.day == nil {
		return d
	}

	var descs []string
	for _, p := range []*OutlookPeriod{e.day.AM, e.day.PM} {
		if p == nil {
			continue
		}
		if p.PrecipProbability != nil && (d.PrecipProbability == nil || *p.PrecipProbability > *d.PrecipProbability) {
			d.PrecipProbability = ptr(*p.PrecipProbability)
		}
		if p.Description == "" {
			continue
		}
		sky, pt := ClassifyOutlookText(p.Description)
		if cloudiness(sky) > cloudiness(d.Sky) {
			d.Sky = sky
		}
		if d.PrecipType == "" || d.PrecipType == PrecipNone ||
			(pt != PrecipNone && precipPriority(pt) < precipPriority(d.PrecipType)) {
			d.PrecipType = pt
		}
		if len(descs) == 0 || descs[len(descs)-1] != p.Description {
			descs = append(descs, p.Description)
		}
	}
	d.Description = strings.Join(descs, " / ")
	return d
}

// ClassifyOutlookText maps a free-text outlook description such as
// "구름많고 비" to canonical sky and precipitation values. Precipitation
// words are checked before sky words.
func ClassifyOutlookText(text string) (Sky, PrecipType) {
	rain := strings.Contains(text, "비") || strings.Contains(text, "소나기")
	snow := strings.Contains(text, "눈")

	pt := PrecipNone
	switch {
	case rain && snow:
		pt = PrecipRainSnow
	case rain:
		pt = PrecipRain
	case snow:
		pt = PrecipSnow
	}

	sky := SkyUnknown
	switch {
	case strings.Contains(text, "맑음"):
		sky = SkyClear
	case strings.Contains(text, "구름많"):
		sky = SkyPartlyCloudy
	case strings.Contains(text, "흐"):
		sky = SkyOvercast
	}
	return sky, pt
}

func cloudiness(s Sky) int {
	switch s {
	case SkyClear:
		return 1
	case SkyPartlyCloudy:
		return 2
	case SkyOvercast:
		return 3
	case SkyUnknown:
		return 0
	default:
		return -1
	}
}
