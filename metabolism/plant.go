package metabolism

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Plant stores photosynthate in a reserve, pays maintenance respiration per
// kilogram, and converts reserve above capacity into new tissue.
type Plant struct {
	params PlantParams

	mass             float64
	efficiency       float64
	leafArea         float64
	energy           float64
	initialEnergy    float64
	constructionCost float64 // J per kg of new tissue
}

// NewPlant constructs the Plant variant. Leaf area is drawn once from
// Normal(leafAreaMean, leafAreaStddev) using src, clamped at zero.
// cellulose, hemicellulose and lignin are dry-mass fractions.
func NewPlant(p PlantParams, mass, efficiency, leafAreaMean, leafAreaStddev, cellulose, hemicellulose, lignin float64, src rand.Source) (*Plant, error) {
	switch {
	case mass <= 0:
		return nil, fmt.Errorf("plant mass %v: %w", mass, ErrInvalidParameter)
	case efficiency < 0 || efficiency > 1:
		return nil, fmt.Errorf("photosynthesis efficiency %v: %w", efficiency, ErrInvalidParameter)
	case leafAreaMean < 0 || leafAreaStddev < 0:
		return nil, fmt.Errorf("leaf area %v±%v: %w", leafAreaMean, leafAreaStddev, ErrInvalidParameter)
	}
	for _, f := range []float64{cellulose, hemicellulose, lignin} {
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("tissue fraction %v: %w", f, ErrInvalidParameter)
		}
	}
	if cellulose+hemicellulose+lignin > 1 {
		return nil, fmt.Errorf("tissue fractions sum to %v: %w", cellulose+hemicellulose+lignin, ErrInvalidParameter)
	}

	leaf := distuv.Normal{Mu: leafAreaMean, Sigma: leafAreaStddev, Src: src}
	energy := mass * p.ReserveDensity

	return &Plant{
		params:           p,
		mass:             mass,
		efficiency:       efficiency,
		leafArea:         math.Max(0, leaf.Rand()),
		energy:           energy,
		initialEnergy:    energy,
		constructionCost: constructionCost(p, cellulose, hemicellulose, lignin),
	}, nil
}

// constructionCost averages the per-kilogram cost of the structural
// components, weighted by their fractions.
func constructionCost(p PlantParams, cellulose, hemicellulose, lignin float64) float64 {
	total := cellulose + hemicellulose + lignin
	if total == 0 {
		return p.CelluloseCost
	}
	return (cellulose*p.CelluloseCost + hemicellulose*p.HemicelluloseCost + lignin*p.LigninCost) / total
}

// Update photosynthesizes and respires for dt seconds, then grows with any
// reserve above capacity.
func (pl *Plant) Update(dt float64) {
	if dt <= 0 {
		return
	}
	p := pl.params

	gain := pl.efficiency * p.Irradiance * pl.leafArea * dt
	respiration := p.RespirationRate * pl.mass * dt
	pl.energy = math.Max(0, pl.energy+gain-respiration)

	capacity := p.ReserveCapacity * pl.mass
	surplus := pl.energy - capacity
	if surplus <= 0 || pl.constructionCost <= 0 {
		return
	}
	grown := surplus / pl.constructionCost
	newMass := pl.mass + grown
	// Leaf area follows surface-to-volume scaling.
	pl.leafArea *= math.Pow(newMass/pl.mass, 2.0/3.0)
	pl.mass = newMass
	pl.energy = capacity
}

// Mass returns total plant mass in kilograms.
func (pl *Plant) Mass() float64 { return pl.mass }

// Energy returns the photosynthate reserve in joules.
func (pl *Plant) Energy() float64 { return pl.energy }

// InitialEnergy returns the reserve at construction.
func (pl *Plant) InitialEnergy() float64 { return pl.initialEnergy }

// LeafArea returns the current leaf area in square metres.
func (pl *Plant) LeafArea() float64 { return pl.leafArea }

// Efficiency returns the photosynthesis efficiency the plant was built with.
func (pl *Plant) Efficiency() float64 { return pl.efficiency }
