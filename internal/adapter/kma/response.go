package kma

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
)

// envelope is the data portal wrapper shared by every KMA service.
type envelope struct {
	Response *struct {
		Header *struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body json.RawMessage `json:"body"`
	} `json:"response"`
}

// gridBody covers both grid services. The short-range service fills the
// fcst* fields, the nowcast service fills obsrValue.
type gridBody struct {
	TotalCount int `json:"totalCount"`
	Items      struct {
		Item []struct {
			BaseDate  string `json:"baseDate"`
			BaseTime  string `json:"baseTime"`
			Category  string `json:"category"`
			FcstDate  string `json:"fcstDate"`
			FcstTime  string `json:"fcstTime"`
			FcstValue string `json:"fcstValue"`
			ObsrValue string `json:"obsrValue"`
		} `json:"item"`
	} `json:"items"`
}

// outlookBody keeps item fields raw since the outlook services mix numbers
// and strings for the same field across regions.
type outlookBody struct {
	Items struct {
		Item []map[string]json.RawMessage `json:"item"`
	} `json:"items"`
}

const (
	firstOutlookDay = 3
	lastSplitDay    = 7
	lastOutlookDay  = 10
)

func decodeLand(fields map[string]json.RawMessage) domain.OutlookLand {
	out := domain.OutlookLand{Available: true, Days: map[int]domain.OutlookDay{}}
	if fields == nil {
		return out
	}
	for n := firstOutlookDay; n <= lastOutlookDay; n++ {
		var day domain.OutlookDay
		if n <= lastSplitDay {
			day.AM = period(fields, fmt.Sprintf("wf%dAm", n), fmt.Sprintf("rnSt%dAm", n))
			day.PM = period(fields, fmt.Sprintf("wf%dPm", n), fmt.Sprintf("rnSt%dPm", n))
		} else {
			day.AM = period(fields, fmt.Sprintf("wf%d", n), fmt.Sprintf("rnSt%d", n))
		}
		if day.AM != nil || day.PM != nil {
			out.Days[n] = day
		}
	}
	return out
}

func period(fields map[string]json.RawMessage, wfKey, rnKey string) *domain.OutlookPeriod {
	desc, hasDesc := stringField(fields, wfKey)
	pop, hasPop := numberField(fields, rnKey)
	if !hasDesc && !hasPop {
		return nil
	}
	p := &domain.OutlookPeriod{Description: desc}
	if hasPop {
		v := int(math.Round(pop))
		p.PrecipProbability = &v
	}
	return p
}

func decodeTemperature(fields map[string]json.RawMessage) domain.OutlookTemperature {
	out := domain.OutlookTemperature{Available: true, Ranges: map[int]domain.TempRange{}}
	if fields == nil {
		return out
	}
	for n := firstOutlookDay; n <= lastOutlookDay; n++ {
		var r domain.TempRange
		if v, ok := numberField(fields, fmt.Sprintf("taMin%d", n)); ok {
			r.Min = &v
		}
		if v, ok := numberField(fields, fmt.Sprintf("taMax%d", n)); ok {
			r.Max = &v
		}
		if r.Min != nil || r.Max != nil {
			out.Ranges[n] = r
		}
	}
	return out
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// numberField reads a field encoded as either a JSON number or a numeric
// string. Missing-value sentinels are treated as absent.
func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || v >= 900 || v <= -900 {
		return 0, false
	}
	return v, true
}
