//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/adapter/kma"
	"github.com/couchcryptid/campcast-forecast/internal/config"
	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/forecast"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// fixtureNow matches the broadcast dates in the KMA fixtures.
var fixtureNow = time.Date(2025, 6, 1, 14, 30, 0, 0, domain.KST)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startKafka runs a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("campcast-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster
// controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// startKMA serves the KMA adapter fixtures for every endpoint regardless of
// grid cell, region, or slot.
func startKMA(t *testing.T) *httptest.Server {
	t.Helper()

	dir := filepath.Join("..", "adapter", "kma", "testdata")
	routes := map[string]string{
		"/VilageFcstInfoService_2.0/getVilageFcst":   "village_fcst.json",
		"/VilageFcstInfoService_2.0/getUltraSrtNcst": "ultra_srt_ncst.json",
		"/MidFcstInfoService/getMidLandFcst":         "mid_land_fcst.json",
		"/MidFcstInfoService/getMidTa":               "mid_ta.json",
	}

	mux := http.NewServeMux()
	for path, name := range routes {
		body, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newForecastService wires the real KMA client, cache, and fetchers against
// kmaURL with the clock pinned to the fixture date.
func newForecastService(kmaURL string) *forecast.Service {
	cfg := &config.Config{
		KMAServiceKey:     "test-key",
		KMABaseURL:        kmaURL,
		KMATimeout:        5 * time.Second,
		KMAOutlookTimeout: 5 * time.Second,
		KMARateLimit:      1000,
		KMACacheSize:      100,
	}
	clock := clockwork.NewFakeClockAt(fixtureNow)
	metrics := observability.NewMetricsForTesting()

	api := kma.NewCachedAPI(kma.NewClient(cfg, metrics, discardLogger()), cfg.KMACacheSize, clock, metrics)
	return forecast.NewService(api, forecast.Options{
		Defaults:        domain.Regions{Land: domain.LandCapital, Temperature: "11B10101"},
		HorizonDays:     domain.DefaultHorizonDays,
		OutlookAttempts: 1,
	}, clock, metrics, discardLogger())
}

// campsite is one entry of the campsite request fixture.
type campsite struct {
	domain.ForecastRequest
	Expect struct {
		NX   int    `json:"nx"`
		NY   int    `json:"ny"`
		Land string `json:"land"`
		Temp string `json:"temp"`
	} `json:"expect"`
}

func loadCampsites(t *testing.T) []campsite {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "campsite_requests.json"))
	require.NoError(t, err)

	var sites []campsite
	require.NoError(t, json.Unmarshal(data, &sites))
	require.NotEmpty(t, sites)
	return sites
}
