package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCampsite is one entry of the campsite request fixture, with the grid
// cell and regions the request is expected to resolve to.
type mockCampsite struct {
	domain.ForecastRequest
	Expect struct {
		NX   int    `json:"nx"`
		NY   int    `json:"ny"`
		Land string `json:"land"`
		Temp string `json:"temp"`
	} `json:"expect"`
}

func TestForecastTransformer_WithMockCampsites(t *testing.T) {
	defaults := domain.Regions{Land: domain.LandCapital, Temperature: "11B10101"}
	transformer := pipeline.NewTransformer(&stubForecaster{defaults: defaults}, discardLogger())

	for _, site := range readCampsites(t) {
		t.Run(site.ID, func(t *testing.T) {
			payload, err := json.Marshal(site.ForecastRequest)
			require.NoError(t, err)

			out, err := transformer.Transform(context.Background(), domain.RawEvent{
				Key:   []byte(site.ID),
				Value: payload,
				Topic: "forecast-requests",
			})
			require.NoError(t, err)
			assert.Equal(t, []byte(site.ID), out.Key)

			var fc domain.Forecast
			require.NoError(t, json.Unmarshal(out.Value, &fc))
			assert.Equal(t, site.Name, fc.Location)
			if site.Expect.NX != 0 {
				assert.Equal(t, domain.GridCell{NX: site.Expect.NX, NY: site.Expect.NY}, fc.Cell)
			}
			if site.Expect.Land != "" {
				assert.Equal(t, site.Expect.Land, fc.Regions.Land)
			}
			if site.Expect.Temp != "" {
				assert.Equal(t, site.Expect.Temp, fc.Regions.Temperature)
			}
		})
	}
}

func readCampsites(t *testing.T) []mockCampsite {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "campsite_requests.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var sites []mockCampsite
	require.NoError(t, json.Unmarshal(data, &sites))
	require.NotEmpty(t, sites)
	return sites
}
