// Package sim drives the headless simulation: it seeds the configured
// species, dispatches their handlers every tick, settles movement conflicts
// and reports windowed telemetry.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	randv2 "math/rand/v2"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/config"
	"github.com/pthm-cable/automata/grid"
	"github.com/pthm-cable/automata/handler"
	"github.com/pthm-cable/automata/handlers"
	"github.com/pthm-cable/automata/organism"
	"github.com/pthm-cable/automata/telemetry"
	"github.com/pthm-cable/automata/userhandlers"
)

// ErrWorldFull is returned when no free cell is left for a seeded organism.
var ErrWorldFull = errors.New("sim: no free cell left")

// Options configures a simulation.
type Options struct {
	Config *config.Config // nil = embedded defaults
	Logger *slog.Logger   // nil = slog.Default()
	Seed   int64

	// Handlers lists extra factory sets registered after the built-in and
	// user handlers.
	Handlers [][]handler.Factory

	LogStats       bool    // log every stats window
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // empty = no CSV output

	// SkipPopulation leaves the world empty instead of seeding the
	// configured species.
	SkipPopulation bool
}

// Sim holds the complete simulation state.
type Sim struct {
	cfg      *config.Config
	logger   *slog.Logger
	rng      *rand.Rand
	registry *handler.Registry
	world    *organism.World

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	lifetime      *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	lastConflicts organism.Stats

	handlerErrors int
}

// New builds a simulation from opts: it bootstraps the handler registry,
// creates the grid and world and seeds the configured species.
func New(opts Options) (*Sim, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	env := handler.Env{
		Logger: logger,
		Config: cfg,
		Source: randv2.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x9e3779b97f4a7c15),
	}
	sets := append([][]handler.Factory{handlers.Builtin(), userhandlers.Factories()}, opts.Handlers...)
	registry, err := handler.Bootstrap(env, sets...)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping handlers: %w", err)
	}

	g := grid.New(cfg.World.Width, cfg.World.Height, rng)
	world := organism.NewWorld(g, registry, rng, logger)
	world.SetFactors(attractors(cfg.World.Attractors))

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir, opts.Seed)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	s := &Sim{
		cfg:           cfg,
		logger:        logger,
		rng:           rng,
		registry:      registry,
		world:         world,
		collector:     telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetime:      telemetry.NewLifetimeTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		output:        output,
		logStats:      opts.LogStats,
	}
	if output != nil {
		logger.Info("writing output", "dir", output.Dir(), "run_id", output.RunID())
	}

	if !opts.SkipPopulation {
		if err := s.spawnInitialPopulation(); err != nil {
			output.Close()
			return nil, err
		}
	}
	return s, nil
}

func attractors(in []config.AttractorConfig) []grid.Factor {
	out := make([]grid.Factor, 0, len(in))
	for _, a := range in {
		out = append(out, grid.Factor{
			At:         grid.Point{X: a.X, Y: a.Y},
			Strength:   a.Strength,
			Visibility: a.Visibility,
		})
	}
	return out
}

// spawnInitialPopulation places every configured species on random free
// cells.
func (s *Sim) spawnInitialPopulation() error {
	for _, sp := range s.cfg.Population.Species {
		for i := 0; i < sp.Count; i++ {
			p, err := s.freeCell()
			if err != nil {
				return fmt.Errorf("seeding %s: %w", sp.Name, err)
			}
			if _, err := s.Spawn(sp.Name, sp.Attributes, p); err != nil {
				return err
			}
		}
	}
	s.logger.Info("population seeded", "organisms", s.world.Len(), "species", len(s.cfg.Population.Species))
	return nil
}

// freeCell picks a random free cell, falling back to a scan when random
// probing keeps hitting occupied cells.
func (s *Sim) freeCell() (grid.Point, error) {
	g := s.world.Grid()
	w, h := g.Width(), g.Height()
	for range 32 {
		p := grid.Point{X: s.rng.Intn(w), Y: s.rng.Intn(h)}
		if g.Free(p) {
			return p, nil
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if p := (grid.Point{X: x, Y: y}); g.Free(p) {
				return p, nil
			}
		}
	}
	return grid.Point{}, ErrWorldFull
}

// Spawn adds an organism to the world and starts tracking it.
func (s *Sim) Spawn(species string, attrs attr.Tree, p grid.Point) (*organism.Organism, error) {
	o, err := s.world.Spawn(species, attrs, p)
	if err != nil {
		return nil, err
	}
	var energy float64
	if m := o.Metabolism(); m != nil {
		energy = m.Energy()
	}
	s.collector.RecordBirth(o.Kind())
	s.lifetime.Register(o.ID(), species, o.Kind(), s.world.Tick(), energy)
	return o, nil
}

// Step runs a single tick of the simulation. Handler errors are logged and
// counted; only a failed commit aborts the step.
func (s *Sim) Step() error {
	dt := s.cfg.Physics.DT
	s.perfCollector.StartTick()
	defer s.perfCollector.EndTick()

	// 1. Dispatch handlers
	s.perfCollector.StartPhase(telemetry.PhaseHandlers)
	s.runHandlers(dt)

	// 2. Settle conflicts and commit the grid
	s.perfCollector.StartPhase(telemetry.PhaseConflicts)
	if err := s.world.Commit(dt); err != nil {
		return err
	}

	// 3. Cleanup dead organisms
	s.perfCollector.StartPhase(telemetry.PhaseCleanup)
	s.cleanupDead()

	// 4. Telemetry
	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()
	return nil
}

func (s *Sim) runHandlers(dt float64) {
	for _, o := range s.world.Live() {
		ran, err := s.registry.Tick(o, dt)
		s.collector.RecordDispatch(ran, len(o.Handlers()))
		if err != nil {
			s.handlerErrors++
			s.collector.RecordHandlerError()
			s.logger.Error("handler failed", "organism", o.ID(), "species", o.Species(), "tick", s.world.Tick(), "error", err)
		}
		if m := o.Metabolism(); m != nil {
			s.lifetime.UpdateEnergy(o.ID(), m.Energy())
		}
	}
}

func (s *Sim) cleanupDead() {
	deaths := s.world.Cleanup()
	if len(deaths) == 0 {
		return
	}

	records := make([]*telemetry.LifetimeStats, 0, len(deaths))
	for _, d := range deaths {
		s.collector.RecordDeath(d.Kind)
		if rec := s.lifetime.Remove(d.ID, s.world.Tick(), d.Age); rec != nil {
			records = append(records, rec)
		}
		for _, u := range s.registry.Units() {
			if f, ok := u.(handler.Forgetter); ok {
				f.Forget(d.ID)
			}
		}
	}
	if err := s.output.WriteDeaths(records); err != nil {
		s.logger.Error("failed to write deaths", "error", err)
	}
}

// Run steps the simulation until ticks commits have happened or a step
// fails. ticks <= 0 runs no steps.
func (s *Sim) Run(ticks int32) error {
	for s.world.Tick() < ticks {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int32 { return s.world.Tick() }

// World returns the organism world.
func (s *Sim) World() *organism.World { return s.world }

// Registry returns the sealed handler registry.
func (s *Sim) Registry() *handler.Registry { return s.registry }

// HandlerErrors returns the number of handler runs that failed.
func (s *Sim) HandlerErrors() int { return s.handlerErrors }

// Perf returns performance statistics over the recent ticks.
func (s *Sim) Perf() telemetry.PerfStats { return s.perfCollector.Stats() }

// SetStatsCallback registers fn to receive every flushed stats window.
func (s *Sim) SetStatsCallback(fn func(telemetry.WindowStats)) {
	s.statsCallback = fn
}

// Close records the final tick in the run manifest and closes output files.
func (s *Sim) Close() error {
	if err := s.output.Finish(s.world.Tick()); err != nil {
		s.logger.Error("failed to finish run manifest", "error", err)
	}
	return s.output.Close()
}
