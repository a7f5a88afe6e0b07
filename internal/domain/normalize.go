package domain

import (
	"math"
	"strconv"
	"strings"
)

// AmountUnknown is the Amount category for text that matches no bucket form.
const AmountUnknown = -1

// overflowMargin is added on top of the lower bound of an open-ended
// "or more" bucket.
const overflowMargin = 0.1

var skyCodes = map[int]Sky{
	1: SkyClear,
	3: SkyPartlyCloudy,
	4: SkyOvercast,
}

// precipCodes lists PTY codes in priority order (lowest code wins).
var precipCodes = map[int]PrecipType{
	0: PrecipNone,
	1: PrecipRain,
	2: PrecipRainSnow,
	3: PrecipSnow,
	4: PrecipShower,
	5: PrecipDrizzle,
	6: PrecipDrizzleSnow,
	7: PrecipSnowFlurry,
}

// NormalizeSky maps a SKY code to the canonical sky state.
func NormalizeSky(code string) Sky {
	n, ok := parseCode(code)
	if !ok {
		return SkyUnknown
	}
	if sky, ok := skyCodes[n]; ok {
		return sky
	}
	return SkyUnknown
}

// NormalizePrecipType maps a PTY code to the canonical precipitation type.
func NormalizePrecipType(code string) PrecipType {
	n, ok := parseCode(code)
	if !ok {
		return PrecipUnknown
	}
	if pt, ok := precipCodes[n]; ok {
		return pt
	}
	return PrecipUnknown
}

func parseCode(code string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(code), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// precipPriority orders precipitation types for daily selection. Lower wins.
func precipPriority(pt PrecipType) int {
	for code, v := range precipCodes {
		if v == pt {
			return code
		}
	}
	return math.MaxInt
}

// amountScale describes one text-bucket vocabulary: the "nothing" marker,
// the unit suffix, and the upper bounds of buckets 1..n-1.
type amountScale struct {
	noneText   string
	unit       string
	thresholds []float64
}

var (
	rainScale = amountScale{noneText: "강수없음", unit: "mm", thresholds: []float64{1.0, 30.0, 50.0}}
	snowScale = amountScale{noneText: "적설없음", unit: "cm", thresholds: []float64{0.5, 5.0}}
)

const (
	lessThanSuffix = "미만"
	orMoreSuffix   = "이상"
)

// ParsePrecipAmount parses a PCP/RN1 value such as "1mm 미만", "1.0~29.9mm",
// "50.0mm 이상", "강수없음" or a plain number. ok is false when the text has
// no recognizable form; the returned Amount then has category AmountUnknown.
func ParsePrecipAmount(text string) (Amount, bool) {
	return rainScale.parse(text)
}

// ParseSnowAmount parses an SNO value such as "0.5cm 미만", "0.5~4.9cm",
// "5.0cm 이상" or "적설없음".
func ParseSnowAmount(text string) (Amount, bool) {
	return snowScale.parse(text)
}

func (s amountScale) parse(text string) (Amount, bool) {
	raw := text
	t := strings.TrimSpace(text)
	if t == "" || t == s.noneText || t == "-" {
		return Amount{Text: raw}, true
	}

	switch {
	case strings.HasSuffix(t, lessThanSuffix):
		if _, ok := s.number(strings.TrimSuffix(t, lessThanSuffix)); !ok {
			break
		}
		return Amount{Category: 1, Value: 0, Text: raw}, true

	case strings.HasSuffix(t, orMoreSuffix):
		lower, ok := s.number(strings.TrimSuffix(t, orMoreSuffix))
		if !ok {
			break
		}
		return Amount{Category: s.bucket(lower), Value: lower * (1 + overflowMargin), Text: raw}, true

	case strings.Contains(t, "~"):
		lo, hi, found := strings.Cut(t, "~")
		if !found {
			break
		}
		a, okA := s.number(lo)
		b, okB := s.number(hi)
		if !okA || !okB || b < a {
			break
		}
		return Amount{Category: s.bucket(a), Value: (a + b) / 2, Text: raw}, true

	default:
		if v, ok := s.number(t); ok && v >= 0 {
			return Amount{Category: s.bucket(v), Value: v, Text: raw}, true
		}
	}

	return Amount{Category: AmountUnknown, Text: raw}, false
}

// number parses "1.0", "1.0mm" or " 30 mm " as a float.
func (s amountScale) number(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimSpace(strings.TrimSuffix(t, s.unit))
	v, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s amountScale) bucket(v float64) int {
	if v <= 0 {
		return 0
	}
	for i, upper := range s.thresholds {
		if v < upper {
			return i + 1
		}
	}
	return len(s.thresholds) + 1
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// parseFloat parses a numeric category value, rejecting KMA's missing-value
// sentinels (anything at or beyond ±900).
func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || v >= 900 || v <= -900 {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}
