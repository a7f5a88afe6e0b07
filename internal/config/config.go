package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// KMA open API configuration.
	KMAServiceKey     string
	KMABaseURL        string
	KMATimeout        time.Duration // short-range and nowcast calls
	KMAOutlookTimeout time.Duration // outlook calls
	KMARateLimit      float64       // requests per second
	KMACacheSize      int

	// Forecast assembly.
	DefaultLandRegion string
	DefaultTempRegion string
	HorizonDays       int

	// Scheduled cache refresh. Disabled when RefreshLocations is empty.
	RefreshInterval  time.Duration
	RefreshLocations []Location
}

// Location is a named point refreshed on a schedule.
type Location struct {
	Name string
	Lon  float64
	Lat  float64
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present; real environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	kmaTimeout, err := parseDuration("KMA_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	outlookTimeout, err := parseDuration("KMA_OUTLOOK_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("KMA_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid KMA_RATE_LIMIT")
	}

	locations, err := parseLocations(os.Getenv("REFRESH_LOCATIONS"))
	if err != nil {
		return nil, err
	}

	kafkaEnabled := true
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "forecast-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fused-forecasts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "campcast-forecast"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		KMAServiceKey:     os.Getenv("KMA_SERVICE_KEY"),
		KMABaseURL:        strings.TrimRight(sharedcfg.EnvOrDefault("KMA_BASE_URL", "https://apis.data.go.kr/1360000"), "/"),
		KMATimeout:        kmaTimeout,
		KMAOutlookTimeout: outlookTimeout,
		KMARateLimit:      rateLimit,
		KMACacheSize:      parsePositiveInt("KMA_CACHE_SIZE", 1000),

		DefaultLandRegion: sharedcfg.EnvOrDefault("DEFAULT_LAND_REGION", "11B00000"),
		DefaultTempRegion: sharedcfg.EnvOrDefault("DEFAULT_TEMP_REGION", "11B10101"),
		HorizonDays:       parsePositiveInt("FORECAST_HORIZON_DAYS", 10),

		RefreshInterval:  refreshInterval,
		RefreshLocations: locations,
	}

	if cfg.KMAServiceKey == "" {
		return nil, errors.New("KMA_SERVICE_KEY is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if len(cfg.DefaultLandRegion) != 8 || len(cfg.DefaultTempRegion) != 8 {
		return nil, errors.New("DEFAULT_LAND_REGION and DEFAULT_TEMP_REGION must be 8-character KMA region codes")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseLocations reads "name:lon:lat" entries separated by commas, e.g.
// "seoul:126.978:37.5665,jeju:126.5312:33.4996".
func parseLocations(s string) ([]Location, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Location
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid REFRESH_LOCATIONS entry %q", entry)
		}
		lon, errLon := strconv.ParseFloat(parts[1], 64)
		lat, errLat := strconv.ParseFloat(parts[2], 64)
		if errLon != nil || errLat != nil {
			return nil, fmt.Errorf("invalid REFRESH_LOCATIONS coordinates %q", entry)
		}
		out = append(out, Location{Name: parts[0], Lon: lon, Lat: lat})
	}
	return out, nil
}
