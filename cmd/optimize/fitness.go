package main

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/automata/config"
	"github.com/pthm-cable/automata/sim"
	"github.com/pthm-cable/automata/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu       sync.Mutex
	failures int // runs that could not start or stopped on a commit error
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10 * baseCfg.Physics.DT, // ten ticks per window
	}
}

// Failures returns the number of runs that failed across all evaluations.
func (fe *FitnessEvaluator) Failures() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.failures
}

// Outcome summarizes one parameter vector over every seed.
type Outcome struct {
	Fitness       float64 // lower is better
	SurvivalTicks float64 // mean over seeds
	Quality       float64 // mean over seeds

	Coexisting        int // seeds where animals and plants both lasted to the tick cap
	AnimalExtinctions int
	PlantExtinctions  int
	Failed            int
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks  int32 // ticks before either kingdom died out (or maxTicks)
	initialAnimals int
	finalAnimals   int
	finalPlants    int
	windowStats    []telemetry.WindowStats // collected via the stats callback each window
}

// Evaluate runs every seed in parallel for the raw parameter vector x.
func (fe *FitnessEvaluator) Evaluate(x []float64) Outcome {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				fe.mu.Lock()
				fe.failures++
				fe.mu.Unlock()
				return
			}
			results[i] = r
		}()
	}
	wg.Wait()
	return summarize(results)
}

// summarize folds per-seed results into an Outcome. A nil result is a
// failed run and scores zero.
func summarize(results []*runResult) Outcome {
	var out Outcome
	fitness := make([]float64, len(results))
	survival := make([]float64, len(results))
	quality := make([]float64, len(results))
	for i, r := range results {
		if r == nil {
			out.Failed++
			continue
		}
		quality[i] = computeQuality(r)
		survival[i] = float64(r.survivalTicks)
		fitness[i] = computeFitness(r.survivalTicks, quality[i])

		if r.finalAnimals == 0 {
			out.AnimalExtinctions++
		}
		if r.finalPlants == 0 {
			out.PlantExtinctions++
		}
		if r.finalAnimals > 0 && r.finalPlants > 0 {
			out.Coexisting++
		}
	}
	if len(results) == 0 {
		return out
	}
	out.Fitness = stat.Mean(fitness, nil)
	out.SurvivalTicks = stat.Mean(survival, nil)
	out.Quality = stat.Mean(quality, nil)
	return out
}

// runSimulation executes a single headless simulation run.
// Runs until animals or plants die out or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	s, err := sim.New(sim.Options{
		Config:         cfg,
		Logger:         slog.New(slog.DiscardHandler),
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
	})
	if err != nil {
		return nil, err
	}
	defer s.Close()
	s.SetStatsCallback(func(stats telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, stats)
	})

	c := s.Census()
	result.initialAnimals = c.Animals
	for s.Tick() < fe.maxTicks && c.Animals > 0 && c.Plants > 0 {
		if err := s.Step(); err != nil {
			return nil, fmt.Errorf("seed %d tick %d: %w", seed, s.Tick(), err)
		}
		c = s.Census()
	}

	result.survivalTicks = s.Tick()
	result.finalAnimals, result.finalPlants = c.Animals, c.Plants
	return result, nil
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	species := make([]config.SpeciesConfig, len(cfg.Population.Species))
	for i, sp := range cfg.Population.Species {
		sp.Attributes = sp.Attributes.Clone()
		species[i] = sp
	}
	cfg.Population.Species = species
	cfg.World.Attractors = append([]config.AttractorConfig(nil), cfg.World.Attractors...)
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(survivalTicks int32, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRetention = 0.5
	qualityWeightStability = 0.3
	qualityWeightEnergy    = 0.2

	qualityWarmupWindows = 1 // skip first N windows (warmup)
)

// computeQuality computes ecosystem quality ∈ [0, 1] from window stats.
func computeQuality(r *runResult) float64 {
	windows := r.windowStats
	if len(windows) <= qualityWarmupWindows || r.initialAnimals == 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	plants := make([]float64, 0, len(valid))
	var retention, energy float64
	for _, w := range valid {
		plants = append(plants, float64(w.Plants))

		// 1. Share of the seeded animals still alive
		retention += float64(w.Animals) / float64(r.initialAnimals)

		// 2. Animal energy spread: a narrow P10..P90 band means no group
		// starves far ahead of the rest.
		if w.AnimalEnergyP90 > 0 {
			energy += w.AnimalEnergyP10 / w.AnimalEnergyP90
		}
	}
	n := float64(len(valid))

	// 3. Plant population stability (CV across windows)
	stability := 0.0
	if len(plants) >= 2 {
		c := cv(plants)
		stability = math.Exp(-c * c)
	}

	quality := qualityWeightRetention*retention/n +
		qualityWeightStability*stability +
		qualityWeightEnergy*energy/n

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
