// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/metabolism"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig       `yaml:"world"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Population PopulationConfig  `yaml:"population"`
	Metabolism metabolism.Params `yaml:"metabolism"`
	Handlers   HandlersConfig    `yaml:"handlers"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and movement attractors.
type WorldConfig struct {
	Width      int               `yaml:"width"`
	Height     int               `yaml:"height"`
	CellSize   float64           `yaml:"cell_size"` // metres per cell
	Attractors []AttractorConfig `yaml:"attractors"`
}

// AttractorConfig is a fixed point that biases animal movement.
type AttractorConfig struct {
	X          int     `yaml:"x"`
	Y          int     `yaml:"y"`
	Strength   float64 `yaml:"strength"`   // negative repels
	Visibility float64 `yaml:"visibility"` // 0 = visible from anywhere
}

// PhysicsConfig holds simulation timing.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // simulated seconds per tick
}

// PopulationConfig lists the species seeded at startup.
type PopulationConfig struct {
	Species []SpeciesConfig `yaml:"species"`
}

// SpeciesConfig describes one seeded species. Attributes is the organism
// attribute tree that handler filters and setup read from.
type SpeciesConfig struct {
	Name       string    `yaml:"name"`
	Count      int       `yaml:"count"`
	Attributes attr.Tree `yaml:"attributes"`
}

// HandlersConfig holds tuning for handlers outside the built-in set.
type HandlersConfig struct {
	Starvation StarvationConfig `yaml:"starvation"`
}

// StarvationConfig configures the starvation watch handler.
type StarvationConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // fraction of initial energy
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // simulated seconds per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TotalPopulation int            // sum of species counts
	SpeciesIndex    map[string]int // name -> index into Population.Species
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Merge unmarshals data over cfg. Only fields present in data are
// overwritten; a species list in data replaces the default list.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	cfg.computeDerived()
	return nil
}

// Validate checks values the simulation cannot run without.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world size %dx%d must be positive", c.World.Width, c.World.Height)
	}
	if c.World.CellSize <= 0 {
		return fmt.Errorf("config: world.cell_size %v must be positive", c.World.CellSize)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("config: physics.dt %v must be positive", c.Physics.DT)
	}
	total := 0
	seen := make(map[string]bool, len(c.Population.Species))
	for _, sp := range c.Population.Species {
		if sp.Name == "" {
			return fmt.Errorf("config: species without a name")
		}
		if seen[sp.Name] {
			return fmt.Errorf("config: duplicate species %q", sp.Name)
		}
		seen[sp.Name] = true
		if sp.Count < 0 {
			return fmt.Errorf("config: species %q has negative count", sp.Name)
		}
		total += sp.Count
	}
	if total > c.World.Width*c.World.Height {
		return fmt.Errorf("config: population %d exceeds %d grid cells", total, c.World.Width*c.World.Height)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TotalPopulation = 0
	c.Derived.SpeciesIndex = make(map[string]int, len(c.Population.Species))
	for i, sp := range c.Population.Species {
		c.Derived.TotalPopulation += sp.Count
		c.Derived.SpeciesIndex[sp.Name] = i
	}
}

// Species returns the named species config.
func (c *Config) Species(name string) (SpeciesConfig, bool) {
	i, ok := c.Derived.SpeciesIndex[name]
	if !ok {
		return SpeciesConfig{}, false
	}
	return c.Population.Species[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
