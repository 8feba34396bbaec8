package handler

import (
	"errors"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/grid"
	"github.com/pthm-cable/automata/metabolism"
)

// fakeOrganism is a minimal in-memory Organism.
type fakeOrganism struct {
	id       uint32
	attrs    attr.Tree
	pos      grid.Point
	handlers []Unit
	dead     bool
	deaths   int
	vision   float64
	metab    metabolism.State
}

func newFake(id uint32, attrs attr.Tree) *fakeOrganism {
	return &fakeOrganism{id: id, attrs: attrs}
}

func (f *fakeOrganism) ID() uint32                     { return f.id }
func (f *fakeOrganism) Lookup(p attr.Path) (any, bool) { return f.attrs.Lookup(p) }
func (f *fakeOrganism) Position() grid.Point           { return f.pos }

func (f *fakeOrganism) SetPosition(p grid.Point) (MoveResult, error) {
	f.pos = p
	return MoveResult{Kind: Moved, At: p}, nil
}

func (f *fakeOrganism) UpdatePosition() (MoveResult, error) { return f.SetPosition(f.pos) }
func (f *fakeOrganism) HandleConflict() error               { return nil }
func (f *fakeOrganism) AttachHandler(u Unit)                { f.handlers = append(f.handlers, u) }
func (f *fakeOrganism) Handlers() []Unit                    { return f.handlers }

func (f *fakeOrganism) HasHandler(u Unit) bool {
	for _, h := range f.handlers {
		if h == u {
			return true
		}
	}
	return false
}

func (f *fakeOrganism) Die() bool {
	if f.dead {
		return false
	}
	f.dead = true
	f.deaths++
	return true
}

func (f *fakeOrganism) Alive() bool              { return !f.dead }
func (f *fakeOrganism) SetVision(radius float64) { f.vision = radius }

func (f *fakeOrganism) BindMetabolism(m metabolism.State) error {
	if f.metab != nil {
		return errors.New("bound")
	}
	f.metab = m
	return nil
}

func (f *fakeOrganism) Metabolism() metabolism.State { return f.metab }

// countingUnit records how often each hook ran.
type countingUnit struct {
	Base
	setups   int
	runs     int
	pass     bool
	setupErr error
	runErr   error
	kill     bool
}

func newCounting(name string, pass bool) *countingUnit {
	return &countingUnit{Base: NewBase(name), pass: pass}
}

func (u *countingUnit) DynamicFilter(Organism) bool { return u.pass }

func (u *countingUnit) Setup(Organism) error {
	u.setups++
	return u.setupErr
}

func (u *countingUnit) Run(o Organism, _ float64) error {
	u.runs++
	if u.kill {
		o.Die()
	}
	return u.runErr
}

// otherUnit is a second concrete type for registration tests.
type otherUnit struct {
	Base
	runs int
}

func (u *otherUnit) Run(Organism, float64) error {
	u.runs++
	return nil
}
