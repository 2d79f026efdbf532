package main

import (
	"fmt"

	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/params"
)

// ParamSpec defines a single calibrated coefficient.
type ParamSpec struct {
	Group params.Group
	Key   string
	Min   float64 // Lower bound
	Max   float64 // Upper bound
}

// Name returns the coefficient's config path.
func (s ParamSpec) Name() string {
	return fmt.Sprintf("%s.%s", s.Group, s.Key)
}

// ParamVector holds the set of calibrated coefficients.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibrated coefficients.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Stress process
			{Group: params.GroupStress, Key: "mean", Min: 0.05, Max: 0.6},
			{Group: params.GroupStress, Key: "sigma", Min: 0.02, Max: 0.3},
			{Group: params.GroupStress, Key: "reversion", Min: 0.2, Max: 3},
			// Aversion
			{Group: params.GroupAversion, Key: "S_weight", Min: 0.5, Max: 6},
			// Sigmoid midpoints
			{Group: params.GroupThought, Key: "sig_middle", Min: 0.2, Max: 0.8},
			{Group: params.GroupBehavior, Key: "sig_middle", Min: 0.2, Max: 0.8},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// FromConfig returns the configured values of the calibrated coefficients.
func (pv *ParamVector) FromConfig(cfg *config.Config) ([]float64, error) {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val, err := cfg.Parameters.Get(spec.Group, spec.Key)
		if err != nil {
			return nil, err
		}
		v[i] = val
	}
	return v, nil
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into the global coefficients of cfg.
// Profiles layer their overrides on top, so a coefficient a profile
// overrides is unaffected for that profile.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		next, err := cfg.Parameters.Apply(spec.Group, map[string]float64{spec.Key: clamped[i]})
		if err != nil {
			return err
		}
		cfg.Parameters = next
	}
	return nil
}
