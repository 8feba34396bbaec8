package sim

import (
	"github.com/pthm-cable/automata/components"
	"github.com/pthm-cable/automata/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Sim) flushTelemetry() {
	tick := s.world.Tick()
	if !s.collector.ShouldFlush(tick) {
		return
	}

	stats := s.collector.Flush(tick, s.Census(), s.conflictDelta())
	perfStats := s.perfCollector.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats(s.logger)
		perfStats.LogStats(s.logger)
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark(s.logger)
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.logger.Error("failed to write bookmark", "error", err)
		}
	}
}

// Census counts the living organisms by kind and samples their energy and
// mass.
func (s *Sim) Census() telemetry.Census {
	var c telemetry.Census
	for _, o := range s.world.Live() {
		m := o.Metabolism()
		switch o.Kind() {
		case components.KindAnimal:
			c.Animals++
			if m != nil {
				c.AnimalEnergies = append(c.AnimalEnergies, m.Energy())
				c.AnimalMasses = append(c.AnimalMasses, m.Mass())
			}
		case components.KindPlant:
			c.Plants++
			if m != nil {
				c.PlantEnergies = append(c.PlantEnergies, m.Energy())
				c.PlantMasses = append(c.PlantMasses, m.Mass())
			}
		default:
			c.Others++
		}
	}
	return c
}

// conflictDelta returns the conflict counts since the previous flush.
func (s *Sim) conflictDelta() telemetry.ConflictCounts {
	now := s.world.Stats()
	prev := s.lastConflicts
	s.lastConflicts = now
	return telemetry.ConflictCounts{
		Conflicts:   now.Conflicts - prev.Conflicts,
		Relocations: now.Relocations - prev.Relocations,
		Reclaims:    now.Reclaims - prev.Reclaims,
	}
}
