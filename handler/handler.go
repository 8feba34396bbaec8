// Package handler defines update handlers: units of per-organism behavior
// that are attached to matching organisms when they are created and run
// once per simulation tick.
//
// Attachment is decided by static filters, a set of attribute paths and the
// values each may take, evaluated once per organism. A dynamic filter is
// evaluated on every tick and gates whether Run executes. Setup runs once
// when a handler is attached and may bind per-organism state such as a
// metabolism simulator.
package handler

import (
	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/grid"
	"github.com/pthm-cable/automata/metabolism"
)

// Unit is a polymorphic update handler. Embed Base for the default filter,
// setup and dynamic filter behavior; Run has no default.
type Unit interface {
	Name() string
	Filters() *Filters
	// DynamicFilter is evaluated every tick; Run executes only if it passes.
	DynamicFilter(o Organism) bool
	// Setup runs once when the unit is attached to o.
	Setup(o Organism) error
	// Run performs one tick of behavior. dt is simulated seconds since the
	// previous run.
	Run(o Organism, dt float64) error
}

// Forgetter is implemented by units that keep per-organism state and want
// to drop it when the organism is removed from the world.
type Forgetter interface {
	Forget(id uint32)
}

// MoveKind tags the outcome of a position request.
type MoveKind uint8

const (
	// Moved means the requested cell was claimed without contention.
	Moved MoveKind = iota
	// Conflict means another organism already claimed the cell this tick.
	Conflict
)

func (k MoveKind) String() string {
	if k == Conflict {
		return "conflict"
	}
	return "moved"
}

// MoveResult is returned by position requests instead of an error.
type MoveResult struct {
	Kind  MoveKind
	At    grid.Point // the requested cell
	Rival uint32     // the other claimant on Conflict
}

// Organism is the capability contract handlers need from a simulated entity.
type Organism interface {
	ID() uint32

	// Lookup resolves a dotted attribute path; absence reports false.
	Lookup(p attr.Path) (any, bool)

	Position() grid.Point
	// SetPosition requests p as the organism's cell for the next tick.
	SetPosition(p grid.Point) (MoveResult, error)
	// UpdatePosition picks and requests a new cell using the organism's
	// own movement rules.
	UpdatePosition() (MoveResult, error)
	// HandleConflict resolves a Conflict returned by a position request.
	HandleConflict() error

	AttachHandler(u Unit)
	HasHandler(u Unit) bool
	Handlers() []Unit

	// Die marks the organism dead. It reports false if it already was.
	Die() bool
	Alive() bool

	SetVision(radius float64)

	// BindMetabolism fills the organism's single metabolism slot. A second
	// bind fails.
	BindMetabolism(m metabolism.State) error
	// Metabolism returns the bound state, or nil.
	Metabolism() metabolism.State
}

// Base supplies the static filter bookkeeping and the default hooks.
type Base struct {
	name    string
	filters Filters
}

// NewBase returns a Base for a unit with the given name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the unit name used in logs and errors.
func (b *Base) Name() string { return b.name }

// Filters returns the unit's static filters.
func (b *Base) Filters() *Filters { return &b.filters }

// FilterAttribute accepts organisms whose attribute at path equals one of
// values. Repeated calls for one path add to the accepted set.
func (b *Base) FilterAttribute(path attr.Path, values ...any) {
	b.filters.Add(path, values...)
}

// StaticFilterMatches reports whether o passes every static filter.
func (b *Base) StaticFilterMatches(o Organism) bool {
	return b.filters.Matches(o)
}

// DynamicFilter accepts every organism.
func (b *Base) DynamicFilter(Organism) bool { return true }

// Setup does nothing.
func (b *Base) Setup(Organism) error { return nil }
