// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/metabolism"
)

// Kind is the broad class of an organism, derived from its kingdom.
type Kind uint8

const (
	KindOther Kind = iota
	KindAnimal
	KindPlant
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindAnimal:
		return "animal"
	case KindPlant:
		return "plant"
	default:
		return "other"
	}
}

// KindFromKingdom maps a taxonomic kingdom to a Kind.
func KindFromKingdom(kingdom string) Kind {
	switch kingdom {
	case "Animalia", "Opisthokonta":
		return KindAnimal
	case "Plantae":
		return KindPlant
	default:
		return KindOther
	}
}

// Identity names an organism.
type Identity struct {
	ID      uint32
	Species string
	Kind    Kind
}

// Position is the cell an organism occupied at the last grid commit.
type Position struct {
	X, Y int
}

// Target is the cell an organism has claimed for the next commit.
// Between commits it is the organism's current position.
type Target struct {
	X, Y int
}

// Motion holds movement limits.
type Motion struct {
	Vision float64 // sensing radius in cells, 0 = unlimited
	Speed  int     // max cells per tick (Chebyshev)
}

// Attributes holds the organism's attribute tree.
type Attributes struct {
	Tree attr.Tree
}

// Life tracks whether the organism is alive.
type Life struct {
	Alive    bool
	BornTick int32
	Age      float64 // simulated seconds alive
}

// Metabolism holds the single metabolism simulator bound during setup.
// State is nil until a handler binds one.
type Metabolism struct {
	State metabolism.State
}
