package monitor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds configures the risk classifier. Distances are nautical
// miles, altitudes feet, times seconds.
type Thresholds struct {
	ProximityDistanceNM     float64 `yaml:"proximity_distance_nm"`
	ProximityAltitudeFt     float64 `yaml:"proximity_altitude_ft"`
	CollisionWarningSeconds float64 `yaml:"collision_warning_seconds"`
	CollisionDistanceNM     float64 `yaml:"collision_distance_nm"`
}

// DefaultThresholds returns the default classifier thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ProximityDistanceNM:     5.0,
		ProximityAltitudeFt:     1000,
		CollisionWarningSeconds: 60,
		CollisionDistanceNM:     2.0,
	}
}

// setDefaults fills zero-valued fields with defaults.
func (t *Thresholds) setDefaults() {
	def := DefaultThresholds()
	if t.ProximityDistanceNM == 0 {
		t.ProximityDistanceNM = def.ProximityDistanceNM
	}
	if t.ProximityAltitudeFt == 0 {
		t.ProximityAltitudeFt = def.ProximityAltitudeFt
	}
	if t.CollisionWarningSeconds == 0 {
		t.CollisionWarningSeconds = def.CollisionWarningSeconds
	}
	if t.CollisionDistanceNM == 0 {
		t.CollisionDistanceNM = def.CollisionDistanceNM
	}
}

// Validate checks the thresholds for errors.
func (t *Thresholds) Validate() error {
	if t.ProximityDistanceNM < 0 {
		return fmt.Errorf("proximity_distance_nm must be non-negative")
	}
	if t.ProximityAltitudeFt < 0 {
		return fmt.Errorf("proximity_altitude_ft must be non-negative")
	}
	if t.CollisionWarningSeconds < 0 {
		return fmt.Errorf("collision_warning_seconds must be non-negative")
	}
	if t.CollisionDistanceNM < 0 {
		return fmt.Errorf("collision_distance_nm must be non-negative")
	}
	if t.CollisionDistanceNM > t.ProximityDistanceNM {
		return fmt.Errorf("collision_distance_nm must not exceed proximity_distance_nm")
	}
	return nil
}

// LoadThresholds loads classifier thresholds from a YAML file. Missing
// fields fall back to defaults.
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds file: %w", err)
	}

	var t Thresholds
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Thresholds{}, fmt.Errorf("parse thresholds: %w", err)
	}
	t.setDefaults()

	if err := t.Validate(); err != nil {
		return Thresholds{}, fmt.Errorf("validate thresholds: %w", err)
	}
	return t, nil
}
