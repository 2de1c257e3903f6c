package mot

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig is returned when tracker settings are out of range
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// DefaultLostTrackPatience is max number of consecutive frames without update before tracker is removed
	DefaultLostTrackPatience = 5
	// DefaultMinPredictionArea is min area (px^2) of predicted region; smaller predictions are treated as degenerate
	DefaultMinPredictionArea = 10
	// DefaultNoiseFactor is process noise multiplier
	DefaultNoiseFactor = 0.5
)

// TrackerSetConfig holds settings of TrackerSet
type TrackerSetConfig struct {
	// Tracker is removed once number of consecutive frames without update exceeds this value
	LostTrackPatience int
	// Tracker is removed when area of its prediction is less than this value
	MinPredictionArea int
	// Process noise multiplier of every estimator
	NoiseFactor float64
	// Estimator implementation
	Estimator EstimatorKind
	// Seed for trackers' display colors
	ColorSeed uint64
	// Logger for diagnostics. Standard logrus logger is used when nil
	Logger logrus.FieldLogger
}

// DefaultTrackerSetConfig returns config with default values:
// LostTrackPatience=5, MinPredictionArea=10, NoiseFactor=0.5, constant velocity estimator
func DefaultTrackerSetConfig() TrackerSetConfig {
	return TrackerSetConfig{
		LostTrackPatience: DefaultLostTrackPatience,
		MinPredictionArea: DefaultMinPredictionArea,
		NoiseFactor:       DefaultNoiseFactor,
		Estimator:         EstimatorConstantVelocity,
	}
}

// Validate checks that settings are valid
func (cfg TrackerSetConfig) Validate() error {
	if cfg.LostTrackPatience < 0 {
		return errors.Wrapf(ErrInvalidConfig, "lost track patience must be non-negative, got %d", cfg.LostTrackPatience)
	}
	if cfg.MinPredictionArea < 0 {
		return errors.Wrapf(ErrInvalidConfig, "min prediction area must be non-negative, got %d", cfg.MinPredictionArea)
	}
	if !(cfg.NoiseFactor > 0) || math.IsInf(cfg.NoiseFactor, 0) {
		return errors.Wrapf(ErrInvalidConfig, "noise factor must be positive, got %v", cfg.NoiseFactor)
	}
	if cfg.Estimator != EstimatorConstantVelocity && cfg.Estimator != EstimatorCenter {
		return errors.Wrapf(ErrInvalidConfig, "unknown estimator kind %d", cfg.Estimator)
	}
	return nil
}

// FileConfig is JSON representation of TrackerSetConfig.
// Omitted fields keep their default values.
type FileConfig struct {
	LostTrackPatience *int     `json:"lost_track_patience,omitempty"`
	MinPredictionArea *int     `json:"min_prediction_area,omitempty"`
	NoiseFactor       *float64 `json:"noise_factor,omitempty"`
	Estimator         *string  `json:"estimator,omitempty"`
	ColorSeed         *uint64  `json:"color_seed,omitempty"`
	LogLevel          *string  `json:"log_level,omitempty"`
}

// Apply overrides fields of cfg with the ones set in file config
func (fc *FileConfig) Apply(cfg *TrackerSetConfig) error {
	if fc.LostTrackPatience != nil {
		cfg.LostTrackPatience = *fc.LostTrackPatience
	}
	if fc.MinPredictionArea != nil {
		cfg.MinPredictionArea = *fc.MinPredictionArea
	}
	if fc.NoiseFactor != nil {
		cfg.NoiseFactor = *fc.NoiseFactor
	}
	if fc.Estimator != nil {
		kind, err := ParseEstimatorKind(*fc.Estimator)
		if err != nil {
			return err
		}
		cfg.Estimator = kind
	}
	if fc.ColorSeed != nil {
		cfg.ColorSeed = *fc.ColorSeed
	}
	return cfg.Validate()
}

// LoadFileConfig reads JSON config file.
// The file must have .json extension and be under 1MB.
func LoadFileConfig(path string) (*FileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	fc := &FileConfig{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}
	if fc.LogLevel != nil {
		if _, err := logrus.ParseLevel(*fc.LogLevel); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "log level: %v", err)
		}
	}
	return fc, nil
}

// LoadTrackerSetConfig reads JSON config file and applies it on top of defaults
func LoadTrackerSetConfig(path string) (TrackerSetConfig, error) {
	cfg := DefaultTrackerSetConfig()
	fc, err := LoadFileConfig(path)
	if err != nil {
		return cfg, err
	}
	if err := fc.Apply(&cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
