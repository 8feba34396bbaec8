package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/automata/components"
)

func TestCollector_ShouldFlush(t *testing.T) {
	c := NewCollector(600, 60)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks = %d, want 10", c.WindowDurationTicks())
	}
	if c.ShouldFlush(9) {
		t.Error("flush before window end")
	}
	if !c.ShouldFlush(10) {
		t.Error("no flush at window end")
	}

	c.Flush(10, Census{}, ConflictCounts{})
	if c.ShouldFlush(15) {
		t.Error("flush mid second window")
	}
	if !c.ShouldFlush(20) {
		t.Error("no flush at second window end")
	}
}

func TestCollector_MinimumWindow(t *testing.T) {
	if got := NewCollector(1, 60).WindowDurationTicks(); got != 1 {
		t.Errorf("WindowDurationTicks = %d, want 1", got)
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(600, 60)

	c.RecordBirth(components.KindAnimal)
	c.RecordBirth(components.KindPlant)
	c.RecordBirth(components.KindPlant)
	c.RecordBirth(components.KindOther)
	c.RecordDeath(components.KindAnimal)
	c.RecordDispatch(2, 3)
	c.RecordDispatch(1, 1)
	c.RecordHandlerError()

	stats := c.Flush(10, Census{
		Animals:        1,
		Plants:         2,
		Others:         1,
		AnimalEnergies: []float64{100},
		PlantEnergies:  []float64{10, 30},
		AnimalMasses:   []float64{4},
		PlantMasses:    []float64{0.1, 0.3},
	}, ConflictCounts{Conflicts: 5, Relocations: 4, Reclaims: 1})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 10 || stats.SimTimeSec != 600 {
		t.Errorf("window = %d-%d @ %v", stats.WindowStartTick, stats.WindowEndTick, stats.SimTimeSec)
	}
	if stats.AnimalBirths != 1 || stats.PlantBirths != 2 || stats.AnimalDeaths != 1 || stats.PlantDeaths != 0 {
		t.Errorf("births/deaths = %+v", stats)
	}
	if stats.HandlerRuns != 3 || stats.HandlerSkips != 1 || stats.HandlerErrors != 1 {
		t.Errorf("dispatch = %d/%d/%d", stats.HandlerRuns, stats.HandlerSkips, stats.HandlerErrors)
	}
	if stats.Conflicts != 5 || stats.Relocations != 4 || stats.Reclaims != 1 {
		t.Errorf("conflicts = %d/%d/%d", stats.Conflicts, stats.Relocations, stats.Reclaims)
	}
	if stats.AnimalEnergyMean != 100 || stats.PlantEnergyMean != 20 || stats.PlantEnergyP50 != 20 {
		t.Errorf("energy = %v/%v/%v", stats.AnimalEnergyMean, stats.PlantEnergyMean, stats.PlantEnergyP50)
	}
	if stats.AnimalMassMean != 4 || math.Abs(stats.PlantMassMean-0.2) > 1e-9 {
		t.Errorf("mass = %v/%v", stats.AnimalMassMean, stats.PlantMassMean)
	}

	// Counters reset for the next window.
	next := c.Flush(20, Census{}, ConflictCounts{})
	if next.WindowStartTick != 10 || next.AnimalBirths != 0 || next.HandlerRuns != 0 || next.HandlerErrors != 0 {
		t.Errorf("next window = %+v", next)
	}
}
