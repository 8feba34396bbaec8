package handler

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/automata/config"
)

// Env carries what factories need to construct their unit.
type Env struct {
	Logger *slog.Logger
	Config *config.Config
	// Source feeds per-organism random draws made during Setup.
	Source rand.Source
}

// UnitLogger returns the env logger tagged with a unit name.
func (env Env) UnitLogger(name string) *slog.Logger {
	if env.Logger == nil {
		return slog.Default().With("handler", name)
	}
	return env.Logger.With("handler", name)
}

// Factory constructs one unit. Factories are listed explicitly by the
// packages that provide units.
type Factory func(env Env) Unit

// Bootstrap builds a sealed registry containing one unit from every factory
// in sets, in order. A factory may return nil to opt out, e.g. when its
// config section disables it.
func Bootstrap(env Env, sets ...[]Factory) (*Registry, error) {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.Config == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
		env.Config = cfg
	}
	if env.Source == nil {
		env.Source = rand.NewPCG(1, 2)
	}

	r := NewRegistry(env.Logger)
	for _, set := range sets {
		for _, factory := range set {
			u := factory(env)
			if u == nil {
				continue
			}
			if err := r.Register(u); err != nil {
				return nil, err
			}
		}
	}
	r.Seal()
	env.Logger.Info("handlers bootstrapped", "count", r.Len(), "handlers", r.Names())
	return r, nil
}
