// Package telemetry provides windowed population statistics, lifetime
// tracking, bookmarks and performance timing for the simulation.
package telemetry

import "github.com/pthm-cable/automata/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	animalBirths  int
	plantBirths   int
	animalDeaths  int
	plantDeaths   int
	handlerRuns   int
	handlerSkips  int
	handlerErrors int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBirth records an organism entering the world.
func (c *Collector) RecordBirth(kind components.Kind) {
	switch kind {
	case components.KindAnimal:
		c.animalBirths++
	case components.KindPlant:
		c.plantBirths++
	}
}

// RecordDeath records an organism removed from the world.
func (c *Collector) RecordDeath(kind components.Kind) {
	switch kind {
	case components.KindAnimal:
		c.animalDeaths++
	case components.KindPlant:
		c.plantDeaths++
	}
}

// RecordDispatch records one organism's tick: ran handlers executed out of
// attached.
func (c *Collector) RecordDispatch(ran, attached int) {
	c.handlerRuns += ran
	if attached > ran {
		c.handlerSkips += attached - ran
	}
}

// RecordHandlerError records a handler run that returned an error.
func (c *Collector) RecordHandlerError() {
	c.handlerErrors++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Census is the population sample taken at the end of a window.
type Census struct {
	Animals int
	Plants  int
	Others  int

	AnimalEnergies []float64
	PlantEnergies  []float64
	AnimalMasses   []float64
	PlantMasses    []float64
}

// ConflictCounts holds movement conflict totals for the window.
type ConflictCounts struct {
	Conflicts   int
	Relocations int
	Reclaims    int
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentTick: the current simulation tick
// - census: population counts and energy/mass samples at window end
// - conflicts: conflict handling counts for this window
func (c *Collector) Flush(currentTick int32, census Census, conflicts ConflictCounts) WindowStats {
	animalMean, animalP10, animalP50, animalP90 := ComputeEnergyStats(census.AnimalEnergies)
	plantMean, plantP10, plantP50, plantP90 := ComputeEnergyStats(census.PlantEnergies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Animals: census.Animals,
		Plants:  census.Plants,
		Others:  census.Others,

		AnimalBirths: c.animalBirths,
		PlantBirths:  c.plantBirths,
		AnimalDeaths: c.animalDeaths,
		PlantDeaths:  c.plantDeaths,

		HandlerRuns:   c.handlerRuns,
		HandlerSkips:  c.handlerSkips,
		HandlerErrors: c.handlerErrors,

		Conflicts:   conflicts.Conflicts,
		Relocations: conflicts.Relocations,
		Reclaims:    conflicts.Reclaims,

		AnimalEnergyMean: animalMean,
		AnimalEnergyP10:  animalP10,
		AnimalEnergyP50:  animalP50,
		AnimalEnergyP90:  animalP90,

		PlantEnergyMean: plantMean,
		PlantEnergyP10:  plantP10,
		PlantEnergyP50:  plantP50,
		PlantEnergyP90:  plantP90,

		AnimalMassMean: Mean(census.AnimalMasses),
		PlantMassMean:  Mean(census.PlantMasses),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.animalBirths = 0
	c.plantBirths = 0
	c.animalDeaths = 0
	c.plantDeaths = 0
	c.handlerRuns = 0
	c.handlerSkips = 0
	c.handlerErrors = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
