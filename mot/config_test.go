package mot

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultTrackerSetConfig(t *testing.T) {
	cfg := DefaultTrackerSetConfig()
	assert.Equal(t, 5, cfg.LostTrackPatience)
	assert.Equal(t, 10, cfg.MinPredictionArea)
	assert.Equal(t, 0.5, cfg.NoiseFactor)
	assert.Equal(t, EstimatorConstantVelocity, cfg.Estimator)
	assert.NoError(t, cfg.Validate())
}

func TestTrackerSetConfigValidate(t *testing.T) {
	cases := map[string]func(cfg *TrackerSetConfig){
		"negative patience": func(cfg *TrackerSetConfig) { cfg.LostTrackPatience = -1 },
		"negative area":     func(cfg *TrackerSetConfig) { cfg.MinPredictionArea = -1 },
		"zero noise":        func(cfg *TrackerSetConfig) { cfg.NoiseFactor = 0 },
		"NaN noise":         func(cfg *TrackerSetConfig) { cfg.NoiseFactor = math.NaN() },
		"infinite noise":    func(cfg *TrackerSetConfig) { cfg.NoiseFactor = math.Inf(1) },
		"unknown estimator": func(cfg *TrackerSetConfig) { cfg.Estimator = EstimatorKind(9) },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultTrackerSetConfig()
			modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadTrackerSetConfig(t *testing.T) {
	path := writeConfig(t, "tracker.json", `{
		"lost_track_patience": 7,
		"noise_factor": 0.25,
		"estimator": "center",
		"color_seed": 11,
		"log_level": "debug"
	}`)
	cfg, err := LoadTrackerSetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.LostTrackPatience)
	assert.Equal(t, DefaultMinPredictionArea, cfg.MinPredictionArea)
	assert.Equal(t, 0.25, cfg.NoiseFactor)
	assert.Equal(t, EstimatorCenter, cfg.Estimator)
	assert.Equal(t, uint64(11), cfg.ColorSeed)

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	require.NotNil(t, fc.LogLevel)
	assert.Equal(t, "debug", *fc.LogLevel)
}

func TestLoadTrackerSetConfigErrors(t *testing.T) {
	_, err := LoadTrackerSetConfig(writeConfig(t, "tracker.yaml", `{}`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), ".json"))

	_, err = LoadTrackerSetConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadTrackerSetConfig(writeConfig(t, "broken.json", `{"lost_track_patience":`))
	assert.Error(t, err)

	_, err = LoadTrackerSetConfig(writeConfig(t, "negative.json", `{"lost_track_patience": -2}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadTrackerSetConfig(writeConfig(t, "estimator.json", `{"estimator": "particle"}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadTrackerSetConfig(writeConfig(t, "level.json", `{"log_level": "loud"}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadTrackerSetConfig(writeConfig(t, "big.json", `{"estimator": "`+strings.Repeat("x", 2*1024*1024)+`"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
