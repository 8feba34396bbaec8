package organism

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/components"
	"github.com/pthm-cable/automata/grid"
	"github.com/pthm-cable/automata/handler"
	"github.com/pthm-cable/automata/metabolism"
)

// ErrMetabolismBound is returned when a second metabolism is bound to an
// organism.
var ErrMetabolismBound = errors.New("organism: metabolism already bound")

// Organism is a handle to one entity in a World. Handles are cheap and
// compare by ID; they stay valid until Cleanup removes the entity.
type Organism struct {
	w      *World
	id     uint32
	entity ecs.Entity
}

var _ handler.Organism = (*Organism)(nil)

// ID returns the organism's grid identifier.
func (o *Organism) ID() uint32 { return o.id }

// Species returns the species name the organism was spawned as.
func (o *Organism) Species() string { return o.w.identMap.Get(o.entity).Species }

// Kind returns the organism's broad class.
func (o *Organism) Kind() components.Kind { return o.w.identMap.Get(o.entity).Kind }

// Lookup resolves a dotted attribute path.
func (o *Organism) Lookup(p attr.Path) (any, bool) {
	return o.w.attrMap.Get(o.entity).Tree.Lookup(p)
}

// SetAttribute stores v at p in the organism's attribute tree. Attached
// handlers are not re-evaluated.
func (o *Organism) SetAttribute(p attr.Path, v any) {
	o.w.attrMap.Get(o.entity).Tree.Set(p, v)
}

// Position returns the organism's current cell, which is its claim for the
// next commit.
func (o *Organism) Position() grid.Point {
	t := o.w.targetMap.Get(o.entity)
	return grid.Point{X: t.X, Y: t.Y}
}

// Committed returns the cell the organism held at the last commit.
func (o *Organism) Committed() grid.Point {
	p := o.w.posMap.Get(o.entity)
	return grid.Point{X: p.X, Y: p.Y}
}

// SetPosition claims p for the next commit, withdrawing any earlier claim.
// Claiming a cell another organism already claimed this tick reports a
// Conflict; the caller resolves it with HandleConflict.
func (o *Organism) SetPosition(p grid.Point) (handler.MoveResult, error) {
	g := o.w.grid
	if !g.InBounds(p) {
		return handler.MoveResult{}, fmt.Errorf("organism %d: moving to %v: %w", o.id, p, grid.ErrOutOfBounds)
	}

	self := grid.Object(o.id)
	target := o.w.targetMap.Get(o.entity)
	if cur := (grid.Point{X: target.X, Y: target.Y}); cur != p {
		g.Release(cur, self)
	}
	target.X, target.Y = p.X, p.Y
	delete(o.w.stray, o.id)

	ok, err := g.SetOccupant(p, self)
	if err != nil {
		return handler.MoveResult{}, fmt.Errorf("organism %d: %w", o.id, err)
	}
	if ok {
		return handler.MoveResult{Kind: handler.Moved, At: p}, nil
	}

	pending, conflicted := g.Claims(p)
	if pending != self && conflicted != self {
		o.w.stray[o.id] = struct{}{}
	}
	rival := pending
	if rival == self {
		rival = conflicted
	}
	return handler.MoveResult{Kind: handler.Conflict, At: p, Rival: uint32(rival)}, nil
}

// UpdatePosition picks a random cell within the organism's speed, biased by
// the world's factors within its vision, and claims it. With no usable
// cell the organism stays where it is.
func (o *Organism) UpdatePosition() (handler.MoveResult, error) {
	from := o.Position()
	m := o.w.motionMap.Get(o.entity)
	p, err := o.w.grid.MoveObject(from, m.Speed, m.Vision, o.w.factors)
	if errors.Is(err, grid.ErrNoMove) {
		p = from
	} else if err != nil {
		return handler.MoveResult{}, fmt.Errorf("organism %d: %w", o.id, err)
	}
	return o.SetPosition(p)
}

// HandleConflict resolves a conflict on the organism's current cell. The
// party that does not hold the cell moves again; if neither holds it, one
// is picked at random. A re-move that collides again leaves the mover
// stray or conflicted for Commit to settle and is not an error.
func (o *Organism) HandleConflict() error {
	at := o.Position()
	self := grid.Object(o.id)
	pending, conflicted := o.w.grid.Claims(at)

	var err error
	switch {
	case pending != self && conflicted != self:
		if _, ok := o.w.stray[o.id]; ok {
			o.w.stats.Conflicts++
			err = o.w.relocate(o.id, at)
		}
	case conflicted != grid.None:
		err = o.w.resolve(at)
	}
	if errors.Is(err, ErrUnresolvedConflict) {
		o.w.stats.Deferred++
		o.w.logger.Debug("conflict deferred to commit", "organism", o.id, "at", at, "err", err)
		return nil
	}
	return err
}

// AttachHandler appends u to the organism's handler list.
func (o *Organism) AttachHandler(u handler.Unit) {
	o.w.handlers[o.id] = append(o.w.handlers[o.id], u)
}

// HasHandler reports whether u is attached.
func (o *Organism) HasHandler(u handler.Unit) bool {
	for _, h := range o.w.handlers[o.id] {
		if h == u {
			return true
		}
	}
	return false
}

// Handlers returns the attached handlers in attachment order.
func (o *Organism) Handlers() []handler.Unit {
	return o.w.handlers[o.id]
}

// Die marks the organism dead. It reports false if it was already dead.
// The entity stays in the world until Cleanup.
func (o *Organism) Die() bool {
	life := o.w.lifeMap.Get(o.entity)
	if !life.Alive {
		return false
	}
	life.Alive = false
	return true
}

// Alive reports whether the organism is alive.
func (o *Organism) Alive() bool {
	return o.w.world.Alive(o.entity) && o.w.lifeMap.Get(o.entity).Alive
}

// SetVision sets the radius within which movement factors are sensed.
func (o *Organism) SetVision(radius float64) {
	o.w.motionMap.Get(o.entity).Vision = radius
}

// Vision returns the sensing radius.
func (o *Organism) Vision() float64 {
	return o.w.motionMap.Get(o.entity).Vision
}

// BindMetabolism fills the metabolism slot. It may be called once.
func (o *Organism) BindMetabolism(m metabolism.State) error {
	slot := o.w.metabMap.Get(o.entity)
	if slot.State != nil {
		return fmt.Errorf("organism %d: %w", o.id, ErrMetabolismBound)
	}
	slot.State = m
	return nil
}

// Metabolism returns the bound metabolism, or nil.
func (o *Organism) Metabolism() metabolism.State {
	return o.w.metabMap.Get(o.entity).State
}
