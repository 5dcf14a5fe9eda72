// Package match computes a weighted composite confidence that two product
// names refer to the same physical product.
package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Config holds the component weights and reasoning thresholds for similarity
// scoring. Weights sum to 1.
type Config struct {
	// Weights (sum = 1).
	BrandWeight  float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	VolumeWeight float64 `yaml:"volume_weight" mapstructure:"volume_weight"`
	TokenWeight  float64 `yaml:"token_weight" mapstructure:"token_weight"`

	// Reasoning thresholds.
	BrandReasonThreshold   float64 `yaml:"brand_reason_threshold" mapstructure:"brand_reason_threshold"`
	OverlapReasonThreshold float64 `yaml:"overlap_reason_threshold" mapstructure:"overlap_reason_threshold"`
}

// DefaultConfig returns the stock scoring configuration.
func DefaultConfig() Config {
	return Config{
		BrandWeight:  0.4,
		VolumeWeight: 0.3,
		TokenWeight:  0.3,

		BrandReasonThreshold:   0.8,
		OverlapReasonThreshold: 0.5,
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c Config) float64 {
	return c.BrandWeight + c.VolumeWeight + c.TokenWeight
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	weights := map[string]float64{
		"brand_weight":  c.BrandWeight,
		"volume_weight": c.VolumeWeight,
		"token_weight":  c.TokenWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	// Weights should be close to 1 (allow tolerance for floating-point).
	if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.2f", sum))
	}

	for name, th := range map[string]float64{
		"brand_reason_threshold":   c.BrandReasonThreshold,
		"overlap_reason_threshold": c.OverlapReasonThreshold,
	} {
		if th < 0 || th > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("match: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
