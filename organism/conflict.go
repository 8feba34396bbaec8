package organism

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pthm-cable/automata/grid"
)

// ErrUnresolvedConflict reports that moving the losing party of a conflict
// produced another conflict. ResolveConflicts settles these at commit.
var ErrUnresolvedConflict = errors.New("organism: unresolved movement conflict")

// maxResolvePasses bounds the random re-move passes in ResolveConflicts
// before organisms are sent back to their committed cells.
const maxResolvePasses = 4

// mover picks which claimant of a conflicted cell has to move.
func (w *World) mover(c grid.Conflict) grid.Object {
	switch {
	case c.Pending == c.Object:
		return c.Conflicted
	case c.Conflicted == c.Object:
		return c.Pending
	case w.rng.Intn(2) == 0:
		return c.Pending
	default:
		return c.Conflicted
	}
}

// resolve moves the losing party of the conflict at p.
func (w *World) resolve(p grid.Point) error {
	pending, conflicted := w.grid.Claims(p)
	if conflicted == grid.None {
		return nil
	}
	c := grid.Conflict{At: p, Object: w.grid.Occupant(p), Pending: pending, Conflicted: conflicted}
	w.stats.Conflicts++
	return w.relocate(uint32(w.mover(c)), p)
}

// relocate withdraws id's claim on the contested cell at and moves it again
// from its committed cell with at excluded.
func (w *World) relocate(id uint32, at grid.Point) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("organism %d: not in world", id)
	}
	self := grid.Object(id)

	w.grid.SetBlacklisted(at, true)
	defer w.grid.SetBlacklisted(at, false)
	w.grid.Release(at, self)
	delete(w.stray, id)

	pos := w.posMap.Get(e)
	target := w.targetMap.Get(e)
	motion := w.motionMap.Get(e)
	from := grid.Point{X: pos.X, Y: pos.Y}

	next, err := w.grid.MoveObject(from, motion.Speed, motion.Vision, w.factors)
	if err != nil {
		w.stray[id] = struct{}{}
		return fmt.Errorf("organism %d at %v: %w", id, at, ErrUnresolvedConflict)
	}
	target.X, target.Y = next.X, next.Y

	ok, err = w.grid.SetOccupant(next, self)
	if err != nil {
		return fmt.Errorf("organism %d: %w", id, err)
	}
	if !ok {
		if pending, conflicted := w.grid.Claims(next); pending != self && conflicted != self {
			w.stray[id] = struct{}{}
		}
		return fmt.Errorf("organism %d at %v: %w", id, next, ErrUnresolvedConflict)
	}
	w.stats.Relocations++
	return nil
}

// reclaim sends id back to its committed cell, evicting any claimant that
// does not hold the cell. Evicted organisms become stray.
func (w *World) reclaim(id uint32) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	self := grid.Object(id)
	pos := w.posMap.Get(e)
	target := w.targetMap.Get(e)
	home := grid.Point{X: pos.X, Y: pos.Y}

	w.grid.Release(grid.Point{X: target.X, Y: target.Y}, self)
	pending, conflicted := w.grid.Claims(home)
	for _, other := range []grid.Object{conflicted, pending} {
		if other != grid.None && other != self {
			w.grid.Release(home, other)
			w.stray[uint32(other)] = struct{}{}
		}
	}
	target.X, target.Y = home.X, home.Y
	w.grid.SetOccupant(home, self)
	delete(w.stray, id)
	w.stats.Reclaims++
}

// ResolveConflicts settles every conflict left on the grid. Losing parties
// are re-moved at random for a few passes; whatever is still contested
// after that returns to its committed cell, which always succeeds because
// committed cells are unique.
func (w *World) ResolveConflicts() {
	for pass := 0; pass < maxResolvePasses; pass++ {
		for _, id := range slices.Sorted(maps.Keys(w.stray)) {
			e, ok := w.entities[id]
			if !ok {
				delete(w.stray, id)
				continue
			}
			t := w.targetMap.Get(e)
			w.stats.Conflicts++
			if err := w.relocate(id, grid.Point{X: t.X, Y: t.Y}); err != nil {
				w.logger.Debug("stray relocation failed", "organism", id, "err", err)
			}
		}
		conflicts := w.grid.Conflicts()
		if len(conflicts) == 0 && len(w.stray) == 0 {
			return
		}
		for _, c := range conflicts {
			if err := w.resolve(c.At); err != nil {
				w.logger.Debug("conflict resolution failed", "at", c.At, "err", err)
			}
		}
	}

	for {
		for _, c := range w.grid.Conflicts() {
			m := w.mover(c)
			w.grid.Release(c.At, m)
			w.stray[uint32(m)] = struct{}{}
		}
		if len(w.stray) == 0 {
			return
		}
		for _, id := range slices.Sorted(maps.Keys(w.stray)) {
			if _, ok := w.stray[id]; !ok {
				continue
			}
			w.reclaim(id)
		}
	}
}
