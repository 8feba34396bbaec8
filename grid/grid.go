// Package grid tracks which organism occupies each cell of the world and
// detects when two organisms claim the same cell in one tick.
package grid

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the grid.
	ErrOutOfBounds = errors.New("grid: position out of bounds")
	// ErrOccupied is returned by Place when the cell already has an occupant.
	ErrOccupied = errors.New("grid: cell occupied")
	// ErrUnresolvedConflicts is returned by Commit while conflicts remain.
	ErrUnresolvedConflicts = errors.New("grid: unresolved conflicts")
	// ErrNoMove is returned when every candidate cell is unusable.
	ErrNoMove = errors.New("grid: no usable cell")
)

// Object identifies a grid occupant. None marks an empty slot.
type Object uint32

// None is the empty occupant.
const None Object = 0

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// Vec returns p as a plane vector in cell units.
func (p Point) Vec() r2.Vec { return r2.Vec{X: float64(p.X), Y: float64(p.Y)} }

// Dist returns the euclidean distance between two cells.
func (p Point) Dist(q Point) float64 {
	return r2.Norm(r2.Sub(p.Vec(), q.Vec()))
}

// cell holds the committed occupant plus this tick's pending claims.
type cell struct {
	object      Object // committed occupant
	pending     Object // occupant after the next Commit
	conflicted  Object // second claimant waiting for resolution
	blacklisted bool   // temporarily excluded from movement
	stasis      bool   // committed occupant asked to stay
}

// Conflict describes two claims on one cell.
type Conflict struct {
	At         Point
	Object     Object // committed occupant, possibly None
	Pending    Object
	Conflicted Object
}

// Grid is a rectangular occupancy grid. It is not safe for concurrent use.
type Grid struct {
	width  int
	height int
	cells  []cell
	rng    *rand.Rand
}

// New creates an empty grid. rng drives random movement choices.
func New(width, height int, rng *rand.Rand) *Grid {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]cell, width*height),
		rng:    rng,
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

func (g *Grid) at(p Point) *cell {
	return &g.cells[p.Y*g.width+p.X]
}

// Occupant returns the committed occupant of p.
func (g *Grid) Occupant(p Point) Object {
	if !g.InBounds(p) {
		return None
	}
	return g.at(p).object
}

// Pending returns the object that will occupy p after the next Commit, or
// None when nothing new is pending there.
func (g *Grid) Pending(p Point) Object {
	if !g.InBounds(p) {
		return None
	}
	c := g.at(p)
	if c.pending == c.object && !c.stasis {
		return None
	}
	return c.pending
}

// Claims returns the pending and conflicted claimants of p.
func (g *Grid) Claims(p Point) (pending, conflicted Object) {
	if !g.InBounds(p) {
		return None, None
	}
	c := g.at(p)
	return c.pending, c.conflicted
}

// Free reports whether p has no committed occupant and no claims.
func (g *Grid) Free(p Point) bool {
	if !g.InBounds(p) {
		return false
	}
	c := g.at(p)
	return c.object == None && c.pending == None && c.conflicted == None
}

// Place puts o directly on p as both committed and pending occupant.
// Used when an organism first enters the world.
func (g *Grid) Place(p Point, o Object) error {
	if !g.InBounds(p) {
		return fmt.Errorf("placing %d at %v: %w", o, p, ErrOutOfBounds)
	}
	if !g.Free(p) {
		return fmt.Errorf("placing %d at %v: %w", o, p, ErrOccupied)
	}
	c := g.at(p)
	c.object = o
	c.pending = o
	return nil
}

// SetOccupant claims p for o in the next tick. It reports false when the
// claim collides with another pending occupant; o is then recorded as the
// conflicted claimant and the caller must resolve the conflict before Commit.
func (g *Grid) SetOccupant(p Point, o Object) (bool, error) {
	if !g.InBounds(p) {
		return false, fmt.Errorf("claiming %v for %d: %w", p, o, ErrOutOfBounds)
	}
	c := g.at(p)
	if c.blacklisted {
		return o == None || o == c.pending, nil
	}

	if c.pending == None || (c.pending == c.object && !c.stasis) {
		c.pending = o
		if o == c.object {
			// Explicit request to keep the cell unchanged next tick.
			c.stasis = true
		}
		return true, nil
	}

	if o == None || o == c.pending {
		return true, nil
	}
	if c.conflicted != None && c.conflicted != o {
		return false, nil
	}
	c.conflicted = o
	return false, nil
}

// PurgeNew withdraws o's claim on p. If o was the pending occupant the
// conflicted claimant, if any, takes its place. It reports false when o had
// no claim on p.
func (g *Grid) PurgeNew(p Point, o Object) bool {
	if !g.InBounds(p) {
		return false
	}
	c := g.at(p)
	switch o {
	case c.pending:
		stasis := false
		if c.conflicted != None {
			if c.conflicted == c.object {
				c.stasis = true
				stasis = true
			}
			c.pending = c.conflicted
			c.conflicted = None
		} else {
			c.pending = c.object
		}
		if !stasis {
			c.stasis = false
		}
	case c.conflicted:
		c.conflicted = None
	default:
		return false
	}
	return true
}

// Release gives up whatever claim o holds on p. Vacating a committed cell
// hands it to the conflicted claimant, if any.
func (g *Grid) Release(p Point, o Object) {
	if !g.InBounds(p) || o == None {
		return
	}
	c := g.at(p)
	switch {
	case c.conflicted == o:
		c.conflicted = None
	case c.pending == o && c.object == o:
		c.pending = c.conflicted
		c.conflicted = None
		c.stasis = false
	case c.pending == o:
		g.PurgeNew(p, o)
	}
}

// SetBlacklisted excludes or re-admits p as a movement destination.
func (g *Grid) SetBlacklisted(p Point, blacklisted bool) {
	if !g.InBounds(p) {
		return
	}
	g.at(p).blacklisted = blacklisted
}

// Remove drops o from p entirely: committed, pending and conflicted.
func (g *Grid) Remove(p Point, o Object) {
	if !g.InBounds(p) {
		return
	}
	c := g.at(p)
	if c.conflicted == o {
		c.conflicted = None
	}
	if c.pending == o {
		c.pending = c.conflicted
		c.conflicted = None
		c.stasis = false
	}
	if c.object == o {
		c.object = None
		if c.pending == o {
			c.pending = None
		}
	}
}

// Conflicts lists every cell with an unresolved second claim, in row-major
// order.
func (g *Grid) Conflicts() []Conflict {
	var out []Conflict
	for i := range g.cells {
		c := &g.cells[i]
		if c.conflicted == None {
			continue
		}
		out = append(out, Conflict{
			At:         Point{X: i % g.width, Y: i / g.width},
			Object:     c.object,
			Pending:    c.pending,
			Conflicted: c.conflicted,
		})
	}
	return out
}

// Commit promotes every pending occupant to committed and clears
// per-tick flags. It refuses to run while conflicts remain.
func (g *Grid) Commit() error {
	for i := range g.cells {
		if g.cells[i].conflicted != None {
			return ErrUnresolvedConflicts
		}
	}
	for i := range g.cells {
		c := &g.cells[i]
		c.object = c.pending
		c.blacklisted = false
		c.stasis = false
	}
	return nil
}
