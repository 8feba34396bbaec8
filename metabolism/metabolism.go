// Package metabolism simulates organism energy budgets. Two variants are
// provided: Animal (fat reserve drained by basal metabolism and movement)
// and Plant (reserve fed by photosynthesis, spent on respiration and growth).
package metabolism

import "errors"

// ErrInvalidParameter is returned by constructors for non-physical inputs.
var ErrInvalidParameter = errors.New("metabolism: invalid parameter")

// State is the per-organism metabolism simulator bound during handler setup.
type State interface {
	// Update advances the simulation by dt seconds.
	Update(dt float64)
	// Mass returns total body mass in kilograms.
	Mass() float64
	// Energy returns the remaining energy reserve in joules.
	Energy() float64
}

// Mover is implemented by variants that pay for locomotion.
type Mover interface {
	State
	// Move charges the energy cost of covering distance metres in dt seconds.
	Move(distance, dt float64)
}

// Reserve is implemented by variants that remember their starting reserve.
type Reserve interface {
	InitialEnergy() float64
}

// Params holds the engine constants for both variants.
type Params struct {
	Animal AnimalParams `yaml:"animal"`
	Plant  PlantParams  `yaml:"plant"`
}

// AnimalParams holds constants for the Animal variant.
type AnimalParams struct {
	FatEnergyDensity     float64 `yaml:"fat_energy_density"`    // J per kg of fat
	KleiberCoefficient   float64 `yaml:"kleiber_coefficient"`   // W per kg^0.75 at reference temperature
	ReferenceTemperature float64 `yaml:"reference_temperature"` // degrees C
	Q10                  float64 `yaml:"q10"`                   // rate multiplier per 10 degrees C
	CostOfTransport      float64 `yaml:"cost_of_transport"`     // J per kg per metre
	MediumDensity        float64 `yaml:"medium_density"`        // kg per m^3 (air or water)
}

// PlantParams holds constants for the Plant variant.
type PlantParams struct {
	Irradiance        float64 `yaml:"irradiance"`         // W per m^2 of leaf
	ReserveDensity    float64 `yaml:"reserve_density"`    // J stored per kg of seedling mass
	ReserveCapacity   float64 `yaml:"reserve_capacity"`   // max J stored per kg of mass
	RespirationRate   float64 `yaml:"respiration_rate"`   // W per kg of mass
	CelluloseCost     float64 `yaml:"cellulose_cost"`     // J per kg
	HemicelluloseCost float64 `yaml:"hemicellulose_cost"` // J per kg
	LigninCost        float64 `yaml:"lignin_cost"`        // J per kg
}

// DefaultParams returns a plausible parameter set.
func DefaultParams() Params {
	return Params{
		Animal: AnimalParams{
			FatEnergyDensity:     3.7e7,
			KleiberCoefficient:   3.4,
			ReferenceTemperature: 37,
			Q10:                  2.5,
			CostOfTransport:      5,
			MediumDensity:        1.2,
		},
		Plant: PlantParams{
			Irradiance:        200,
			ReserveDensity:    1.5e6,
			ReserveCapacity:   4e6,
			RespirationRate:   2,
			CelluloseCost:     1.7e7,
			HemicelluloseCost: 1.6e7,
			LigninCost:        2.6e7,
		},
	}
}
