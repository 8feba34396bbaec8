// Package userhandlers holds update handlers contributed outside the
// built-in set. Add a factory to Factories to register a new handler.
package userhandlers

import (
	"log/slog"
	"sync"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/handler"
	"github.com/pthm-cable/automata/metabolism"
)

// Factories returns the extension handler factories.
func Factories() []handler.Factory {
	return []handler.Factory{
		func(env handler.Env) handler.Unit {
			if env.Config != nil && !env.Config.Handlers.Starvation.Enabled {
				return nil
			}
			return NewStarvation(env)
		},
	}
}

// Starvation watches animals whose energy has fallen below a fraction of
// their starting reserve and counts the ticks each spends starving.
type Starvation struct {
	handler.Base
	threshold float64
	logger    *slog.Logger

	mu     sync.Mutex
	ticks  map[uint32]int
	warned map[uint32]bool
}

// NewStarvation creates the starvation handler.
func NewStarvation(env handler.Env) *Starvation {
	threshold := 0.1
	if env.Config != nil {
		threshold = env.Config.Handlers.Starvation.Threshold
	}
	s := &Starvation{
		Base:      handler.NewBase("Starvation"),
		threshold: threshold,
		logger:    env.UnitLogger("Starvation"),
		ticks:     make(map[uint32]int),
		warned:    make(map[uint32]bool),
	}
	s.FilterAttribute(attr.Kingdom, "Opisthokonta", "Animalia")
	return s
}

// DynamicFilter passes organisms whose energy is below the threshold
// fraction of their initial reserve.
func (s *Starvation) DynamicFilter(o handler.Organism) bool {
	m := o.Metabolism()
	r, ok := m.(metabolism.Reserve)
	if !ok || r.InitialEnergy() <= 0 {
		return false
	}
	return m.Energy()/r.InitialEnergy() < s.threshold
}

// Run records one starving tick and warns the first time an organism
// starts starving.
func (s *Starvation) Run(o handler.Organism, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[o.ID()]++
	if !s.warned[o.ID()] {
		s.warned[o.ID()] = true
		s.logger.Warn("organism starving", "organism", o.ID(), "energy", o.Metabolism().Energy())
	}
	return nil
}

// Ticks returns how many ticks the organism has spent starving.
func (s *Starvation) Ticks(id uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks[id]
}

// Starving returns the number of tracked organisms that have starved.
func (s *Starvation) Starving() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

// Forget drops the records of a removed organism.
func (s *Starvation) Forget(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ticks, id)
	delete(s.warned, id)
}
