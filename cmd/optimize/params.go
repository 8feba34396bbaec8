package main

import (
	"github.com/pthm-cable/automata/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Animal metabolism (fat_energy_density and reference_temperature locked)
			{Name: "kleiber_coefficient", Path: "metabolism.animal.kleiber_coefficient", Min: 1.0, Max: 6.0, Default: 3.4},
			{Name: "q10", Path: "metabolism.animal.q10", Min: 1.5, Max: 3.5, Default: 2.5},
			{Name: "cost_of_transport", Path: "metabolism.animal.cost_of_transport", Min: 1.0, Max: 15.0, Default: 5.0},
			// Plant metabolism
			{Name: "irradiance", Path: "metabolism.plant.irradiance", Min: 50, Max: 500, Default: 200},
			{Name: "reserve_density", Path: "metabolism.plant.reserve_density", Min: 2e5, Max: 5e6, Default: 1.5e6},
			{Name: "reserve_capacity", Path: "metabolism.plant.reserve_capacity", Min: 1e6, Max: 1e7, Default: 4e6},
			{Name: "respiration_rate", Path: "metabolism.plant.respiration_rate", Min: 0.5, Max: 6.0, Default: 2.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
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

// fields returns pointers to the config fields in Specs order.
func fields(cfg *config.Config) []*float64 {
	a, p := &cfg.Metabolism.Animal, &cfg.Metabolism.Plant
	return []*float64{
		&a.KleiberCoefficient,
		&a.Q10,
		&a.CostOfTransport,
		&p.Irradiance,
		&p.ReserveDensity,
		&p.ReserveCapacity,
		&p.RespirationRate,
	}
}

// ApplyToConfig applies clamped parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, f := range fields(cfg) {
		*f = clamped[i]
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	fs := fields(cfg)
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = *f
	}
	return out
}
