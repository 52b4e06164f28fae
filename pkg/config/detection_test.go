package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDetectionConfigDefaults(t *testing.T) {
	detectionConfig := GetDetectionConfig()

	assert.Equal(t, 10*time.Second, detectionConfig.PollInterval)
	assert.Equal(t, 300*time.Second, detectionConfig.StaleThreshold)
	assert.Equal(t, 50, detectionConfig.GhostScoreThreshold)
	assert.Equal(t, 50, detectionConfig.HistoryCapacity)
	assert.Equal(t, 40, detectionConfig.Weights.Stale)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GHOSTWATCH_FEED_URL", "http://localhost:9999/feed.pb")
	t.Setenv("GHOSTWATCH_STALE_THRESHOLD", "120s")
	t.Setenv("GHOSTWATCH_GHOST_SCORE_THRESHOLD", "60")
	t.Setenv("GHOSTWATCH_STATIONARY_RADIUS_KM", "0.1")

	detectionConfig := GetDetectionConfig()

	assert.Equal(t, "http://localhost:9999/feed.pb", detectionConfig.FeedURL)
	assert.Equal(t, 120*time.Second, detectionConfig.StaleThreshold)
	assert.Equal(t, 60, detectionConfig.GhostScoreThreshold)
	assert.Equal(t, 0.1, detectionConfig.StationaryRadiusKm)

	// Untouched values keep their defaults
	assert.Equal(t, 600*time.Second, detectionConfig.StationaryThreshold)
}

func TestFileConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "detection.yaml")

	fileContents := `
poll_interval: 30s
ghost_score_threshold: 70
weights:
  stale: 50
  stationary: 25
  off_route: 25
  speed_anomaly: 10
  recurring: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(fileContents), 0644))

	t.Setenv("GHOSTWATCH_CONFIG", configPath)

	detectionConfig := GetDetectionConfig()

	assert.Equal(t, 30*time.Second, detectionConfig.PollInterval)
	assert.Equal(t, 70, detectionConfig.GhostScoreThreshold)
	assert.Equal(t, 50, detectionConfig.Weights.Stale)
	assert.Equal(t, 25, detectionConfig.Weights.Stationary)

	// Absent keys keep their defaults
	assert.Equal(t, 300*time.Second, detectionConfig.StaleThreshold)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "detection.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("poll_interval: 30s"), 0644))

	t.Setenv("GHOSTWATCH_CONFIG", configPath)
	t.Setenv("GHOSTWATCH_POLL_INTERVAL", "5s")

	detectionConfig := GetDetectionConfig()

	assert.Equal(t, 5*time.Second, detectionConfig.PollInterval)
}
