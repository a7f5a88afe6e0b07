package domain

import (
	"fmt"
	"time"
)

// KST is Korea Standard Time. KMA addresses every broadcast in KST and the
// zone has no daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

// Source identifies one upstream forecast product.
type Source string

const (
	SourceShortRange         Source = "short_range"
	SourceNowcast            Source = "nowcast"
	SourceOutlookLand        Source = "outlook_land"
	SourceOutlookTemperature Source = "outlook_temperature"
)

// publishDelay is how long after its nominal time a short-range or nowcast
// broadcast becomes queryable.
const publishDelay = 10 * time.Minute

var (
	shortRangeHours = []int{2, 5, 8, 11, 14, 17, 20, 23}
	outlookHours    = []int{6, 18}
)

// BroadcastSlot is the scheduled publication time a query targets.
type BroadcastSlot struct {
	Source Source    `json:"source"`
	Issued time.Time `json:"issued"`
}

// BaseDate returns the slot date as YYYYMMDD.
func (s BroadcastSlot) BaseDate() string { return s.Issued.In(KST).Format("20060102") }

// BaseTime returns the slot time as HHMM.
func (s BroadcastSlot) BaseTime() string { return s.Issued.In(KST).Format("1504") }

// TmFc returns the YYYYMMDDHHMM issuance stamp used by the outlook services.
func (s BroadcastSlot) TmFc() string { return s.Issued.In(KST).Format("200601021504") }

func (s BroadcastSlot) String() string {
	return fmt.Sprintf("%s@%s", s.Source, s.TmFc())
}

// IsZero reports whether the slot is unset.
func (s BroadcastSlot) IsZero() bool { return s.Issued.IsZero() }

// Previous returns the next older slot in the source's cadence.
func (s BroadcastSlot) Previous() BroadcastSlot {
	var step time.Duration
	switch s.Source {
	case SourceShortRange:
		step = 3 * time.Hour
	case SourceNowcast:
		step = time.Hour
	default:
		step = 12 * time.Hour
	}
	return BroadcastSlot{Source: s.Source, Issued: s.Issued.Add(-step)}
}

// SlotAt returns the most recent slot of source that is queryable at now.
// The result is never later than now.
func SlotAt(source Source, now time.Time) BroadcastSlot {
	t := now.In(KST)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, KST)

	switch source {
	case SourceShortRange:
		return BroadcastSlot{Source: source, Issued: latestHour(day, t, shortRangeHours, publishDelay)}
	case SourceNowcast:
		issued := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, KST)
		if t.Sub(issued) < publishDelay {
			issued = issued.Add(-time.Hour)
		}
		return BroadcastSlot{Source: source, Issued: issued}
	default:
		return BroadcastSlot{Source: source, Issued: latestHour(day, t, outlookHours, 0)}
	}
}

// CurrentSlot returns SlotAt for the package clock's current time.
func CurrentSlot(source Source) BroadcastSlot {
	return SlotAt(source, clock.Now())
}

// latestHour picks the last cadence hour whose readiness time is not after
// t, falling back to the previous day's final hour.
func latestHour(day, t time.Time, hours []int, delay time.Duration) time.Time {
	for i := len(hours) - 1; i >= 0; i-- {
		issued := day.Add(time.Duration(hours[i]) * time.Hour)
		if !issued.Add(delay).After(t) {
			return issued
		}
	}
	return day.AddDate(0, 0, -1).Add(time.Duration(hours[len(hours)-1]) * time.Hour)
}
