package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// RuleWeights are the additive contribution of each rule to the ghost score.
// The defaults are tuned so that no single rule crosses the ghost threshold
// on its own
type RuleWeights struct {
	Stale        int `yaml:"stale"`
	Stationary   int `yaml:"stationary"`
	OffRoute     int `yaml:"off_route"`
	SpeedAnomaly int `yaml:"speed_anomaly"`
	Recurring    int `yaml:"recurring"`
}

// Detection holds every tunable of the detection core
type Detection struct {
	FeedURL      string
	PollInterval time.Duration
	FetchTimeout time.Duration

	StaleThreshold      time.Duration
	StationaryThreshold time.Duration
	StationaryRadiusKm  float64
	OffRouteThresholdKm float64
	MaxSpeedMS          float64

	GhostScoreThreshold int
	Weights             RuleWeights

	HistoryCapacity int

	RecurringWindowSize int
	RecurringMinSamples int
	RecurringRatio      float64
	RecurringRetention  time.Duration

	SnapshotInterval     time.Duration
	SnapshotRetention    time.Duration
	SnapshotWriteRetries uint64

	StateMirrorTTL time.Duration
}

var defaultDetectionConfig = Detection{
	FeedURL:      "https://cdn.mbta.com/realtime/VehiclePositions.pb",
	PollInterval: 10 * time.Second,
	FetchTimeout: 15 * time.Second,

	StaleThreshold:      300 * time.Second,
	StationaryThreshold: 600 * time.Second,
	StationaryRadiusKm:  0.05,
	OffRouteThresholdKm: 0.5,
	MaxSpeedMS:          40,

	GhostScoreThreshold: 50,
	Weights: RuleWeights{
		Stale:        40,
		Stationary:   30,
		OffRoute:     30,
		SpeedAnomaly: 20,
		Recurring:    15,
	},

	HistoryCapacity: 50,

	RecurringWindowSize: 10,
	RecurringMinSamples: 3,
	RecurringRatio:      0.5,
	RecurringRetention:  24 * time.Hour,

	SnapshotInterval:     60 * time.Second,
	SnapshotRetention:    7 * 24 * time.Hour,
	SnapshotWriteRetries: 3,

	StateMirrorTTL: 180 * time.Second,
}

// GetDetectionConfig returns the detection configuration from the optional
// YAML file pointed at by GHOSTWATCH_CONFIG, with environment variables
// overriding individual values, with defaults underneath
func GetDetectionConfig() Detection {
	config := defaultDetectionConfig

	if path := os.Getenv("GHOSTWATCH_CONFIG"); path != "" {
		fileBytes, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to read config file")
		} else if err := applyFileConfig(fileBytes, &config); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to parse config file")
		}
	}

	if val := os.Getenv("GHOSTWATCH_FEED_URL"); val != "" {
		config.FeedURL = val
	}

	overrideDuration := func(name string, field *time.Duration) {
		if val := os.Getenv(name); val != "" {
			if parsed, err := time.ParseDuration(val); err == nil {
				*field = parsed
			}
		}
	}
	overrideFloat := func(name string, field *float64) {
		if val := os.Getenv(name); val != "" {
			if parsed, err := strconv.ParseFloat(val, 64); err == nil {
				*field = parsed
			}
		}
	}
	overrideInt := func(name string, field *int) {
		if val := os.Getenv(name); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*field = parsed
			}
		}
	}

	overrideDuration("GHOSTWATCH_POLL_INTERVAL", &config.PollInterval)
	overrideDuration("GHOSTWATCH_FETCH_TIMEOUT", &config.FetchTimeout)
	overrideDuration("GHOSTWATCH_STALE_THRESHOLD", &config.StaleThreshold)
	overrideDuration("GHOSTWATCH_STATIONARY_THRESHOLD", &config.StationaryThreshold)
	overrideFloat("GHOSTWATCH_STATIONARY_RADIUS_KM", &config.StationaryRadiusKm)
	overrideFloat("GHOSTWATCH_OFF_ROUTE_THRESHOLD_KM", &config.OffRouteThresholdKm)
	overrideFloat("GHOSTWATCH_MAX_SPEED_MS", &config.MaxSpeedMS)
	overrideInt("GHOSTWATCH_GHOST_SCORE_THRESHOLD", &config.GhostScoreThreshold)
	overrideInt("GHOSTWATCH_HISTORY_CAPACITY", &config.HistoryCapacity)
	overrideInt("GHOSTWATCH_RECURRING_WINDOW_SIZE", &config.RecurringWindowSize)
	overrideInt("GHOSTWATCH_RECURRING_MIN_SAMPLES", &config.RecurringMinSamples)
	overrideFloat("GHOSTWATCH_RECURRING_RATIO", &config.RecurringRatio)
	overrideDuration("GHOSTWATCH_RECURRING_RETENTION", &config.RecurringRetention)
	overrideDuration("GHOSTWATCH_SNAPSHOT_INTERVAL", &config.SnapshotInterval)
	overrideDuration("GHOSTWATCH_SNAPSHOT_RETENTION", &config.SnapshotRetention)
	overrideDuration("GHOSTWATCH_STATE_MIRROR_TTL", &config.StateMirrorTTL)

	return config
}
