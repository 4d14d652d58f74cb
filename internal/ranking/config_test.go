package ranking

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCalibrationEmptyPath(t *testing.T) {
	weights, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("LoadCalibration(\"\") returned error: %v", err)
	}
	if *weights != *DefaultWeights() {
		t.Errorf("expected default weights, got %+v", weights)
	}
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	weights, err := LoadCalibration("/nonexistent/calibration.json")
	if err == nil {
		t.Error("expected error for missing file")
	}
	// Defaults on error so callers can degrade gracefully.
	if *weights != *DefaultWeights() {
		t.Errorf("expected default weights on error, got %+v", weights)
	}
}

func TestLoadCalibrationMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	weights, err := LoadCalibration(path)
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
	if *weights != *DefaultWeights() {
		t.Errorf("expected default weights on parse error, got %+v", weights)
	}
}

func TestLoadCalibrationPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	content := `{"version": "1", "weights": {"proximity": 0.6}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	weights, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration() returned error: %v", err)
	}

	if weights.Proximity != 0.6 {
		t.Errorf("Proximity = %v, want 0.6", weights.Proximity)
	}
	// Unspecified weights keep their defaults.
	if weights.Recency != 0.3 {
		t.Errorf("Recency = %v, want default 0.3", weights.Recency)
	}
	if weights.Random != 0.2 {
		t.Errorf("Random = %v, want default 0.2", weights.Random)
	}
}

func TestMergeCalibration(t *testing.T) {
	tests := []struct {
		name     string
		base     *Weights
		override *Weights
		want     Weights
	}{
		{
			name:     "nil base falls back to defaults",
			base:     nil,
			override: &Weights{Proximity: 0.9},
			want:     *DefaultWeights(),
		},
		{
			name:     "nil override copies base",
			base:     &Weights{Proximity: 0.4, Recency: 0.4, Random: 0.2},
			override: nil,
			want:     Weights{Proximity: 0.4, Recency: 0.4, Random: 0.2},
		},
		{
			name:     "zero values do not override",
			base:     DefaultWeights(),
			override: &Weights{Recency: 0.5},
			want:     Weights{Proximity: 0.5, Recency: 0.5, Random: 0.2},
		},
		{
			name:     "full override",
			base:     DefaultWeights(),
			override: &Weights{Proximity: 0.3, Recency: 0.3, Random: 0.4},
			want:     Weights{Proximity: 0.3, Recency: 0.3, Random: 0.4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCalibration(tt.base, tt.override)
			if *got != tt.want {
				t.Errorf("MergeCalibration() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
