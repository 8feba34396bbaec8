package telemetry

import (
	"sort"

	"github.com/pthm-cable/automata/components"
)

// LifetimeStats tracks per-organism statistics over its lifetime.
type LifetimeStats struct {
	ID        uint32  `csv:"id"`
	Species   string  `csv:"species"`
	Kind      string  `csv:"kind"`
	BirthTick int32   `csv:"birth_tick"`
	DeathTick int32   `csv:"death_tick"`
	AgeSec    float64 `csv:"age_sec"`

	// Energy, joules
	InitialEnergy float64 `csv:"initial_energy"`
	PeakEnergy    float64 `csv:"peak_energy"`
	FinalEnergy   float64 `csv:"final_energy"`
}

// LifetimeTracker manages per-organism lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a newly spawned organism.
func (lt *LifetimeTracker) Register(id uint32, species string, kind components.Kind, birthTick int32, energy float64) {
	lt.stats[id] = &LifetimeStats{
		ID:            id,
		Species:       species,
		Kind:          kind.String(),
		BirthTick:     birthTick,
		InitialEnergy: energy,
		PeakEnergy:    energy,
		FinalEnergy:   energy,
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove closes an organism's record and returns it.
func (lt *LifetimeTracker) Remove(id uint32, deathTick int32, ageSec float64) *LifetimeStats {
	s := lt.stats[id]
	if s == nil {
		return nil
	}
	delete(lt.stats, id)
	s.DeathTick = deathTick
	s.AgeSec = ageSec
	return s
}

// UpdateEnergy records the latest energy and tracks the peak.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil {
		s.FinalEnergy = energy
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// SpeciesCounts returns the number of tracked organisms per species.
func (lt *LifetimeTracker) SpeciesCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range lt.stats {
		counts[s.Species]++
	}
	return counts
}

// Species returns the names of species with living members, sorted.
func (lt *LifetimeTracker) Species() []string {
	counts := lt.SpeciesCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
