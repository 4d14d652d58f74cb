package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// LoadCalibration loads fairness weights from a JSON calibration file.
// An empty path returns the defaults. If the file is missing or malformed,
// defaults are returned together with the error so callers can degrade
// gracefully. Partial configurations are merged with the defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero overrides are applied, which allows the calibration file
// to set a subset of the weights.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Proximity != 0 {
		result.Proximity = override.Proximity
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}
	if override.Random != 0 {
		result.Random = override.Random
	}

	return &result
}

// logCalibrationOverrides logs which weights differ from the defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Proximity != defaults.Proximity {
		overrides = append(overrides, fmt.Sprintf("proximity: %.2f -> %.2f",
			defaults.Proximity, loaded.Proximity))
	}
	if loaded.Recency != defaults.Recency {
		overrides = append(overrides, fmt.Sprintf("recency: %.2f -> %.2f",
			defaults.Recency, loaded.Recency))
	}
	if loaded.Random != defaults.Random {
		overrides = append(overrides, fmt.Sprintf("random: %.2f -> %.2f",
			defaults.Random, loaded.Random))
	}

	if len(overrides) > 0 {
		slog.Info("loaded fairness calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded fairness calibration (using all defaults)")
	}
}
