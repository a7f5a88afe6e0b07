package domain

import (
	"context"
	"time"
)

// GridCell is the integer (nx, ny) address the short-range and nowcast
// services use instead of coordinates.
type GridCell struct {
	NX int `json:"nx"`
	NY int `json:"ny"`
}

// Category is a KMA forecast category code as it appears on the wire.
type Category string

const (
	CategorySky          Category = "SKY" // sky state code
	CategoryPrecipType   Category = "PTY" // precipitation type code
	CategoryPrecipAmount Category = "PCP" // 1h precipitation text bucket
	CategorySnowAmount   Category = "SNO" // 1h snowfall text bucket
	CategoryPrecipProb   Category = "POP" // probability of precipitation (%)
	CategoryTemp         Category = "TMP" // hourly temperature (°C)
	CategoryMinTemp      Category = "TMN" // daily minimum temperature (°C)
	CategoryMaxTemp      Category = "TMX" // daily maximum temperature (°C)
	CategoryWindSpeed    Category = "WSD" // wind speed (m/s)
	CategoryHumidity     Category = "REH" // relative humidity (%)
	CategoryHourlyRain   Category = "RN1" // nowcast 1h precipitation
	CategoryObservedTemp Category = "T1H" // nowcast temperature
)

// RawForecastItem is one flat record from the short-range or nowcast
// services. Date is YYYYMMDD and Time is HHMM, both KST.
type RawForecastItem struct {
	Date     string   `json:"date"`
	Time     string   `json:"time"`
	Category Category `json:"category"`
	Value    string   `json:"value"`
}

// Sky is the canonical sky state. The zero value means no sky data.
type Sky string

const (
	SkyClear        Sky = "clear"
	SkyPartlyCloudy Sky = "partly_cloudy"
	SkyOvercast     Sky = "overcast"
	SkyUnknown      Sky = "unknown"
)

// PrecipType is the canonical precipitation type. The zero value means no
// precipitation-type data.
type PrecipType string

const (
	PrecipNone        PrecipType = "none"
	PrecipRain        PrecipType = "rain"
	PrecipRainSnow    PrecipType = "rain_snow"
	PrecipSnow        PrecipType = "snow"
	PrecipShower      PrecipType = "shower"
	PrecipDrizzle     PrecipType = "drizzle"
	PrecipDrizzleSnow PrecipType = "drizzle_snow"
	PrecipSnowFlurry  PrecipType = "snow_flurry"
	PrecipUnknown     PrecipType = "unknown"
)

// Amount is a precipitation or snowfall amount parsed from a text bucket.
// Category is the ordinal intensity tier (0 means none); Value is the
// representative amount in mm (rain) or cm (snow).
type Amount struct {
	Category int     `json:"category"`
	Value    float64 `json:"value"`
	Text     string  `json:"text,omitempty"`
}

// Resolution records which source produced a daily record.
type Resolution string

const (
	ResolutionHourly  Resolution = "hourly"
	ResolutionOutlook Resolution = "outlook"
	ResolutionNone    Resolution = "none"
)

// HourlyWeather is the normalized view of one short-range time step.
type HourlyWeather struct {
	Time              string     `json:"time"`
	Temp              *float64   `json:"temp,omitempty"`
	Sky               Sky        `json:"sky,omitempty"`
	PrecipType        PrecipType `json:"precip_type,omitempty"`
	PrecipProbability *int       `json:"precip_probability,omitempty"`
	PrecipAmount      *Amount    `json:"precip_amount,omitempty"`
	SnowAmount        *Amount    `json:"snow_amount,omitempty"`
	WindSpeed         *float64   `json:"wind_speed,omitempty"`
	Humidity          *int       `json:"humidity,omitempty"`
}

// DailyWeather is the canonical per-day record. Nil pointer fields mean the
// sources had no data for that field, which is distinct from a real zero.
type DailyWeather struct {
	Date              string          `json:"date"`
	MinTemp           *float64        `json:"min_temp"`
	MaxTemp           *float64        `json:"max_temp"`
	Sky               Sky             `json:"sky,omitempty"`
	PrecipType        PrecipType      `json:"precip_type,omitempty"`
	PrecipAmount      *Amount         `json:"precip_amount,omitempty"`
	SnowAmount        *Amount         `json:"snow_amount,omitempty"`
	PrecipProbability *int            `json:"precip_probability"`
	WindSpeed         *float64        `json:"wind_speed"`
	Humidity          *int            `json:"humidity,omitempty"`
	Description       string          `json:"description,omitempty"`
	Resolution        Resolution      `json:"resolution"`
	Hourly            []HourlyWeather `json:"hourly,omitempty"`
	Advisories        []Advisory      `json:"advisories,omitempty"`
}

// OutlookPeriod is one half-day (or whole-day) entry of the land outlook.
type OutlookPeriod struct {
	Description       string `json:"description"`
	PrecipProbability *int   `json:"precip_probability,omitempty"`
}

// OutlookDay holds the land outlook for one day offset. Days 3 to 7 carry an
// AM and a PM period; later days carry a single whole-day period in AM.
type OutlookDay struct {
	AM *OutlookPeriod `json:"am,omitempty"`
	PM *OutlookPeriod `json:"pm,omitempty"`
}

// OutlookLand is the land-conditions outlook keyed by day offset from the
// issuance date. Available is false when the fetch failed.
type OutlookLand struct {
	RegionID  string             `json:"region_id"`
	Slot      BroadcastSlot      `json:"slot"`
	Available bool               `json:"available"`
	Days      map[int]OutlookDay `json:"days,omitempty"`
}

// TempRange is the outlook temperature pair for one day offset.
type TempRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// OutlookTemperature is the temperature outlook keyed by day offset from
// the issuance date. Available is false when the fetch failed.
type OutlookTemperature struct {
	RegionID  string            `json:"region_id"`
	Slot      BroadcastSlot     `json:"slot"`
	Available bool              `json:"available"`
	Ranges    map[int]TempRange `json:"ranges,omitempty"`
}

// Nowcast is the latest ultra-short-range observation for a grid cell.
// Precipitation is the raw RN1 text, "0" when the service reported none.
type Nowcast struct {
	Slot          BroadcastSlot `json:"slot"`
	Precipitation string        `json:"precipitation"`
	PrecipAmount  *Amount       `json:"precip_amount,omitempty"`
	Temp          *float64      `json:"temp,omitempty"`
	Humidity      *int          `json:"humidity,omitempty"`
	WindSpeed     *float64      `json:"wind_speed,omitempty"`
}

// SourceStatus is the per-source outcome of one forecast request.
type SourceStatus string

const (
	StatusOK          SourceStatus = "ok"
	StatusEmpty       SourceStatus = "empty"
	StatusUnavailable SourceStatus = "unavailable"
	StatusSkipped     SourceStatus = "skipped"
)

// SourceReport records how each upstream source fared.
type SourceReport struct {
	ShortRange         SourceStatus `json:"short_range"`
	Nowcast            SourceStatus `json:"nowcast"`
	OutlookLand        SourceStatus `json:"outlook_land"`
	OutlookTemperature SourceStatus `json:"outlook_temperature"`
}

// Regions names the outlook region codes used for a request.
type Regions struct {
	Land        string `json:"land"`
	Temperature string `json:"temperature"`
}

// Forecast is the fused product for one location.
type Forecast struct {
	RequestID   string         `json:"request_id,omitempty"`
	Location    string         `json:"location,omitempty"`
	Cell        GridCell       `json:"cell"`
	Regions     Regions        `json:"regions"`
	Days        []DailyWeather `json:"days"`
	Nowcast     *Nowcast       `json:"nowcast,omitempty"`
	Sources     SourceReport   `json:"sources"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ForecastRequest asks for a fused forecast. Either coordinates or an
// explicit grid cell must be given; regions fall back to the address or
// the configured defaults.
type ForecastRequest struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Address    string    `json:"address,omitempty"`
	Lon        *float64  `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Lat        *float64  `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Cell       *GridCell `json:"cell,omitempty"`
	LandRegion string    `json:"land_region,omitempty" validate:"omitempty,len=8"`
	TempRegion string    `json:"temp_region,omitempty" validate:"omitempty,len=8"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
