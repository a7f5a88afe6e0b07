package domain

// Advisory is a camping-oriented hint derived from a daily record.
type Advisory struct {
	Kind  string `json:"kind"`
	Level string `json:"level"`
}

const (
	AdvisoryTemperature   = "temperature"
	AdvisoryWind          = "wind"
	AdvisoryPrecipitation = "precipitation"
	AdvisorySnow          = "snow"
)

// Temperature levels are keyed off the daily minimum.
const (
	minTempSevereCold = -10.0
	minTempCold       = 10.0
	minTempHot        = 25.0
)

// Wind levels, m/s.
const (
	windDangerous = 10.0
	windStrong    = 5.0
	windCalm      = 2.0
)

var (
	rainLevels = []string{"none", "light", "moderate", "heavy", "extreme"}
	snowLevels = []string{"none", "light", "moderate", "heavy"}
)

// Advise derives camping advisories for one day. Fields with no data yield
// no advisory.
func Advise(d DailyWeather) []Advisory {
	var out []Advisory

	if d.MinTemp != nil {
		level := "mild"
		switch t := *d.MinTemp; {
		case t <= minTempSevereCold:
			level = "severe_cold"
		case t <= minTempCold:
			level = "cold"
		case t >= minTempHot:
			level = "hot"
		}
		out = append(out, Advisory{Kind: AdvisoryTemperature, Level: level})
	}

	if d.WindSpeed != nil {
		level := "moderate"
		switch w := *d.WindSpeed; {
		case w >= windDangerous:
			level = "dangerous"
		case w >= windStrong:
			level = "strong"
		case w < windCalm:
			level = "calm"
		}
		out = append(out, Advisory{Kind: AdvisoryWind, Level: level})
	}

	if falls(d.PrecipType, PrecipRain, PrecipShower, PrecipDrizzle, PrecipRainSnow, PrecipDrizzleSnow) {
		out = append(out, Advisory{Kind: AdvisoryPrecipitation, Level: amountLevel(d.PrecipAmount, rainLevels)})
	}
	if falls(d.PrecipType, PrecipSnow, PrecipSnowFlurry, PrecipRainSnow, PrecipDrizzleSnow) {
		out = append(out, Advisory{Kind: AdvisorySnow, Level: amountLevel(d.SnowAmount, snowLevels)})
	}
	return out
}

func falls(pt PrecipType, kinds ...PrecipType) bool {
	for _, k := range kinds {
		if pt == k {
			return true
		}
	}
	return false
}

// amountLevel reports "expected" when the type is forecast but no usable
// amount bucket is.
func amountLevel(a *Amount, levels []string) string {
	if a == nil || a.Category <= 0 || a.Category >= len(levels) {
		return "expected"
	}
	return levels[a.Category]
}
