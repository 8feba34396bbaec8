package metabolism

import (
	"fmt"
	"math"
)

// Animal tracks lean mass plus a fat reserve that pays for basal metabolism
// and movement.
type Animal struct {
	params AnimalParams

	leanMass        float64
	energy          float64
	initialEnergy   float64
	bodyTemperature float64
	scale           float64
	drag            float64
}

// NewAnimal constructs the Animal variant. mass includes fatMass.
func NewAnimal(p AnimalParams, mass, fatMass, bodyTemperature, scale, dragCoefficient float64) (*Animal, error) {
	switch {
	case mass <= 0:
		return nil, fmt.Errorf("animal mass %v: %w", mass, ErrInvalidParameter)
	case fatMass < 0 || fatMass > mass:
		return nil, fmt.Errorf("animal fat mass %v of %v: %w", fatMass, mass, ErrInvalidParameter)
	case scale <= 0:
		return nil, fmt.Errorf("animal scale %v: %w", scale, ErrInvalidParameter)
	case dragCoefficient < 0:
		return nil, fmt.Errorf("animal drag coefficient %v: %w", dragCoefficient, ErrInvalidParameter)
	}
	energy := fatMass * p.FatEnergyDensity
	return &Animal{
		params:          p,
		leanMass:        mass - fatMass,
		energy:          energy,
		initialEnergy:   energy,
		bodyTemperature: bodyTemperature,
		scale:           scale,
		drag:            dragCoefficient,
	}, nil
}

// Update drains basal metabolism for dt seconds.
func (a *Animal) Update(dt float64) {
	if dt <= 0 {
		return
	}
	a.spend(a.BasalRate() * dt)
}

// BasalRate returns the current basal metabolic rate in watts: Kleiber's law
// scaled by a Q10 temperature factor.
func (a *Animal) BasalRate() float64 {
	p := a.params
	rate := p.KleiberCoefficient * math.Pow(a.Mass(), 0.75)
	if p.Q10 > 0 {
		rate *= math.Pow(p.Q10, (a.bodyTemperature-p.ReferenceTemperature)/10)
	}
	return rate
}

// Move charges cost of transport plus drag work for covering distance in dt.
func (a *Animal) Move(distance, dt float64) {
	if distance <= 0 {
		return
	}
	a.spend(a.MoveCost(distance, dt))
}

// MoveCost returns the energy Move would charge, without charging it.
func (a *Animal) MoveCost(distance, dt float64) float64 {
	if distance <= 0 {
		return 0
	}
	p := a.params
	cost := p.CostOfTransport * a.Mass() * distance
	if dt > 0 {
		v := distance / dt
		area := a.scale * a.scale
		cost += 0.5 * p.MediumDensity * a.drag * area * v * v * distance
	}
	return cost
}

func (a *Animal) spend(j float64) {
	a.energy = math.Max(0, a.energy-j)
}

// FatMass returns the fat reserve in kilograms.
func (a *Animal) FatMass() float64 {
	if a.params.FatEnergyDensity <= 0 {
		return 0
	}
	return a.energy / a.params.FatEnergyDensity
}

// Mass returns lean plus fat mass.
func (a *Animal) Mass() float64 {
	return a.leanMass + a.FatMass()
}

// Energy returns the remaining fat reserve in joules.
func (a *Animal) Energy() float64 {
	return a.energy
}

// InitialEnergy returns the reserve at construction.
func (a *Animal) InitialEnergy() float64 {
	return a.initialEnergy
}
