// Command gridcell projects a coordinate onto the KMA forecast grid and
// prints the outlook regions and broadcast slots a forecast for it would
// use. It runs the same domain code as the service, so its output is a
// quick way to check what a request will query.
//
// Usage:
//
//	go run ./cmd/gridcell -lon 126.978 -lat 37.5665 \
//	  -address "서울특별시 마포구" -at 2025-06-01T14:30:00+09:00
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/jonboulle/clockwork"
)

type slotInfo struct {
	BaseDate string `json:"base_date"`
	BaseTime string `json:"base_time"`
	TmFc     string `json:"tm_fc"`
}

type output struct {
	Lon     float64                    `json:"lon"`
	Lat     float64                    `json:"lat"`
	Cell    domain.GridCell            `json:"cell"`
	Regions *domain.Regions            `json:"regions,omitempty"`
	Slots   map[domain.Source]slotInfo `json:"slots"`
	Window  []string                   `json:"window"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lon := flag.Float64("lon", 0, "longitude in degrees")
	lat := flag.Float64("lat", 0, "latitude in degrees")
	address := flag.String("address", "", "optional Korean address for outlook region lookup")
	at := flag.String("at", "", "evaluate broadcast slots at this RFC3339 time instead of now")
	horizon := flag.Int("horizon", domain.DefaultHorizonDays, "forecast horizon in days")
	flag.Parse()

	if *lon == 0 || *lat == 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -lon, -lat")
	}

	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	out := output{
		Lon:   *lon,
		Lat:   *lat,
		Cell:  domain.ProjectGrid(*lon, *lat),
		Slots: map[domain.Source]slotInfo{},
	}
	if regions, ok := domain.ResolveRegions(*address); ok {
		out.Regions = &regions
	}
	for _, src := range []domain.Source{
		domain.SourceShortRange,
		domain.SourceNowcast,
		domain.SourceOutlookLand,
		domain.SourceOutlookTemperature,
	} {
		s := domain.CurrentSlot(src)
		out.Slots[src] = slotInfo{BaseDate: s.BaseDate(), BaseTime: s.BaseTime(), TmFc: s.TmFc()}
	}
	out.Window = domain.NewWindow(domain.Now(), *horizon).Dates()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
