package config

import "gopkg.in/yaml.v3"

// fileDetection mirrors Detection for the YAML config file. Fields are
// pointers so that absent keys leave the existing value untouched, and
// durations are the string form ("300s", "10m")
type fileDetection struct {
	FeedURL      *string   `yaml:"feed_url"`
	PollInterval *Duration `yaml:"poll_interval"`
	FetchTimeout *Duration `yaml:"fetch_timeout"`

	StaleThreshold      *Duration `yaml:"stale_threshold"`
	StationaryThreshold *Duration `yaml:"stationary_threshold"`
	StationaryRadiusKm  *float64  `yaml:"stationary_radius_km"`
	OffRouteThresholdKm *float64  `yaml:"off_route_threshold_km"`
	MaxSpeedMS          *float64  `yaml:"max_speed_ms"`

	GhostScoreThreshold *int         `yaml:"ghost_score_threshold"`
	Weights             *RuleWeights `yaml:"weights"`

	HistoryCapacity *int `yaml:"history_capacity"`

	RecurringWindowSize *int      `yaml:"recurring_window_size"`
	RecurringMinSamples *int      `yaml:"recurring_min_samples"`
	RecurringRatio      *float64  `yaml:"recurring_ratio"`
	RecurringRetention  *Duration `yaml:"recurring_retention"`

	SnapshotInterval     *Duration `yaml:"snapshot_interval"`
	SnapshotRetention    *Duration `yaml:"snapshot_retention"`
	SnapshotWriteRetries *uint64   `yaml:"snapshot_write_retries"`

	StateMirrorTTL *Duration `yaml:"state_mirror_ttl"`
}

func applyFileConfig(fileBytes []byte, config *Detection) error {
	var file fileDetection
	if err := yaml.Unmarshal(fileBytes, &file); err != nil {
		return err
	}

	if file.FeedURL != nil {
		config.FeedURL = *file.FeedURL
	}
	if file.PollInterval != nil {
		config.PollInterval = file.PollInterval.AsDuration()
	}
	if file.FetchTimeout != nil {
		config.FetchTimeout = file.FetchTimeout.AsDuration()
	}
	if file.StaleThreshold != nil {
		config.StaleThreshold = file.StaleThreshold.AsDuration()
	}
	if file.StationaryThreshold != nil {
		config.StationaryThreshold = file.StationaryThreshold.AsDuration()
	}
	if file.StationaryRadiusKm != nil {
		config.StationaryRadiusKm = *file.StationaryRadiusKm
	}
	if file.OffRouteThresholdKm != nil {
		config.OffRouteThresholdKm = *file.OffRouteThresholdKm
	}
	if file.MaxSpeedMS != nil {
		config.MaxSpeedMS = *file.MaxSpeedMS
	}
	if file.GhostScoreThreshold != nil {
		config.GhostScoreThreshold = *file.GhostScoreThreshold
	}
	if file.Weights != nil {
		config.Weights = *file.Weights
	}
	if file.HistoryCapacity != nil {
		config.HistoryCapacity = *file.HistoryCapacity
	}
	if file.RecurringWindowSize != nil {
		config.RecurringWindowSize = *file.RecurringWindowSize
	}
	if file.RecurringMinSamples != nil {
		config.RecurringMinSamples = *file.RecurringMinSamples
	}
	if file.RecurringRatio != nil {
		config.RecurringRatio = *file.RecurringRatio
	}
	if file.RecurringRetention != nil {
		config.RecurringRetention = file.RecurringRetention.AsDuration()
	}
	if file.SnapshotInterval != nil {
		config.SnapshotInterval = file.SnapshotInterval.AsDuration()
	}
	if file.SnapshotRetention != nil {
		config.SnapshotRetention = file.SnapshotRetention.AsDuration()
	}
	if file.SnapshotWriteRetries != nil {
		config.SnapshotWriteRetries = *file.SnapshotWriteRetries
	}
	if file.StateMirrorTTL != nil {
		config.StateMirrorTTL = file.StateMirrorTTL.AsDuration()
	}

	return nil
}
