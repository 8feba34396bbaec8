// Package organism stores simulated organisms as ECS entities on a cell grid
// and exposes each one to update handlers through the handler.Organism
// contract.
package organism

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/components"
	"github.com/pthm-cable/automata/grid"
	"github.com/pthm-cable/automata/handler"
)

// Death describes an organism removed by Cleanup.
type Death struct {
	ID      uint32
	Species string
	Kind    components.Kind
	Age     float64
}

// Stats counts conflict handling since the world was created.
type Stats struct {
	Conflicts   int // conflicts handled by moving one party
	Relocations int // successful re-moves
	Reclaims    int // organisms sent back to their committed cell
	Deferred    int // handler-side conflicts left for Commit to settle
}

// World owns the ECS world, the grid and the handler lists of every
// organism. It is not safe for concurrent use.
type World struct {
	world    *ecs.World
	grid     *grid.Grid
	rng      *rand.Rand
	logger   *slog.Logger
	registry *handler.Registry

	mapper *ecs.Map7[
		components.Identity,
		components.Position,
		components.Target,
		components.Motion,
		components.Attributes,
		components.Life,
		components.Metabolism,
	]
	filter *ecs.Filter7[
		components.Identity,
		components.Position,
		components.Target,
		components.Motion,
		components.Attributes,
		components.Life,
		components.Metabolism,
	]

	identMap  *ecs.Map[components.Identity]
	posMap    *ecs.Map[components.Position]
	targetMap *ecs.Map[components.Target]
	motionMap *ecs.Map[components.Motion]
	attrMap   *ecs.Map[components.Attributes]
	lifeMap   *ecs.Map[components.Life]
	metabMap  *ecs.Map[components.Metabolism]

	// Handler lists live outside ECS, keyed by organism ID.
	handlers map[uint32][]handler.Unit
	entities map[uint32]ecs.Entity

	// Organisms whose last claim was not recorded on the grid.
	stray map[uint32]struct{}

	factors []grid.Factor
	nextID  uint32
	tick    int32
	stats   Stats
}

// NewWorld creates an empty world on g. registry may be nil, in which case
// no handlers are attached. rng drives conflict tie-breaks.
func NewWorld(g *grid.Grid, registry *handler.Registry, rng *rand.Rand, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	world := ecs.NewWorld()
	return &World{
		world:    world,
		grid:     g,
		rng:      rng,
		logger:   logger,
		registry: registry,
		mapper: ecs.NewMap7[
			components.Identity,
			components.Position,
			components.Target,
			components.Motion,
			components.Attributes,
			components.Life,
			components.Metabolism,
		](world),
		filter: ecs.NewFilter7[
			components.Identity,
			components.Position,
			components.Target,
			components.Motion,
			components.Attributes,
			components.Life,
			components.Metabolism,
		](world),
		identMap:  ecs.NewMap[components.Identity](world),
		posMap:    ecs.NewMap[components.Position](world),
		targetMap: ecs.NewMap[components.Target](world),
		motionMap: ecs.NewMap[components.Motion](world),
		attrMap:   ecs.NewMap[components.Attributes](world),
		lifeMap:   ecs.NewMap[components.Life](world),
		metabMap:  ecs.NewMap[components.Metabolism](world),
		handlers:  make(map[uint32][]handler.Unit),
		entities:  make(map[uint32]ecs.Entity),
		stray:     make(map[uint32]struct{}),
		nextID:    1,
	}
}

// Grid returns the world's grid.
func (w *World) Grid() *grid.Grid { return w.grid }

// Tick returns the number of commits so far.
func (w *World) Tick() int32 { return w.tick }

// Stats returns conflict handling counters.
func (w *World) Stats() Stats { return w.stats }

// SetFactors replaces the attractors and repellers that bias movement.
func (w *World) SetFactors(factors []grid.Factor) {
	w.factors = append(w.factors[:0], factors...)
}

// Spawn creates an organism of species at p and attaches every matching
// handler. If any handler's setup fails the organism is removed again and
// the error returned.
func (w *World) Spawn(species string, attrs attr.Tree, p grid.Point) (*Organism, error) {
	tree := attrs.Clone()
	kingdom, _ := tree.String(attr.Kingdom)
	speed := 1
	if v, found := tree.Lookup(attr.Speed); found {
		n, ok := tree.Int(attr.Speed)
		if !ok || n < 0 {
			return nil, fmt.Errorf("spawning %s: %w", species,
				&handler.ConfigError{Path: attr.Speed, Value: v, Reason: "want a whole number of cells"})
		}
		speed = n
	}

	id := w.nextID
	if err := w.grid.Place(p, grid.Object(id)); err != nil {
		return nil, fmt.Errorf("spawning %s: %w", species, err)
	}
	w.nextID++

	ident := components.Identity{ID: id, Species: species, Kind: components.KindFromKingdom(kingdom)}
	pos := components.Position{X: p.X, Y: p.Y}
	target := components.Target{X: p.X, Y: p.Y}
	motion := components.Motion{Speed: speed}
	attributes := components.Attributes{Tree: tree}
	life := components.Life{Alive: true, BornTick: w.tick}
	metab := components.Metabolism{}

	entity := w.mapper.NewEntity(&ident, &pos, &target, &motion, &attributes, &life, &metab)
	w.entities[id] = entity

	o := &Organism{w: w, id: id, entity: entity}
	if w.registry != nil {
		if err := w.registry.Assign(o); err != nil {
			w.remove(id)
			return nil, fmt.Errorf("spawning %s: %w", species, err)
		}
	}
	w.logger.Debug("organism spawned", "id", id, "species", species, "x", p.X, "y", p.Y, "handlers", len(w.handlers[id]))
	return o, nil
}

// Get returns the organism with the given ID.
func (w *World) Get(id uint32) (*Organism, bool) {
	e, ok := w.entities[id]
	if !ok || !w.world.Alive(e) {
		return nil, false
	}
	return &Organism{w: w, id: id, entity: e}, true
}

// Len returns the number of organisms, dead or alive, still in the world.
func (w *World) Len() int { return len(w.entities) }

// Live returns the living organisms in ID order.
func (w *World) Live() []*Organism {
	var out []*Organism
	query := w.filter.Query()
	for query.Next() {
		ident, _, _, _, _, life, _ := query.Get()
		if life.Alive {
			out = append(out, &Organism{w: w, id: ident.ID, entity: query.Entity()})
		}
	}
	slices.SortFunc(out, func(a, b *Organism) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Commit resolves any remaining conflicts, promotes every claim on the grid
// and makes each organism's target its committed position.
func (w *World) Commit(dt float64) error {
	w.holdIdle()
	w.ResolveConflicts()
	if err := w.grid.Commit(); err != nil {
		return fmt.Errorf("committing tick %d: %w", w.tick, err)
	}

	query := w.filter.Query()
	for query.Next() {
		_, pos, target, _, _, life, _ := query.Get()
		pos.X, pos.Y = target.X, target.Y
		if life.Alive {
			life.Age += dt
		}
	}
	w.tick++
	return nil
}

// holdIdle re-claims the committed cell of every organism that made no
// claim this tick, so organisms that did not move keep their cell.
func (w *World) holdIdle() {
	query := w.filter.Query()
	for query.Next() {
		ident, pos, target, _, _, _, _ := query.Get()
		if pos.X != target.X || pos.Y != target.Y {
			continue
		}
		home := grid.Point{X: pos.X, Y: pos.Y}
		self := grid.Object(ident.ID)
		pending, conflicted := w.grid.Claims(home)
		if pending == self || conflicted == self {
			continue
		}
		if _, stray := w.stray[ident.ID]; stray {
			continue
		}
		ok, _ := w.grid.SetOccupant(home, self)
		if !ok {
			if pending, conflicted = w.grid.Claims(home); pending != self && conflicted != self {
				w.stray[ident.ID] = struct{}{}
			}
		}
	}
}

// Cleanup removes dead organisms from the grid and the ECS world. Call it
// after Commit.
func (w *World) Cleanup() []Death {
	// Collect first; the query must finish before entities are removed.
	type deadInfo struct {
		entity ecs.Entity
		death  Death
		pos    grid.Point
		target grid.Point
	}
	var toRemove []deadInfo

	query := w.filter.Query()
	for query.Next() {
		ident, pos, target, _, _, life, _ := query.Get()
		if life.Alive {
			continue
		}
		toRemove = append(toRemove, deadInfo{
			entity: query.Entity(),
			death:  Death{ID: ident.ID, Species: ident.Species, Kind: ident.Kind, Age: life.Age},
			pos:    grid.Point{X: pos.X, Y: pos.Y},
			target: grid.Point{X: target.X, Y: target.Y},
		})
	}

	deaths := make([]Death, 0, len(toRemove))
	for _, dead := range toRemove {
		id := grid.Object(dead.death.ID)
		w.grid.Remove(dead.pos, id)
		w.grid.Remove(dead.target, id)
		w.world.RemoveEntity(dead.entity)
		delete(w.entities, dead.death.ID)
		delete(w.handlers, dead.death.ID)
		delete(w.stray, dead.death.ID)
		deaths = append(deaths, dead.death)
	}
	slices.SortFunc(deaths, func(a, b Death) int { return cmp.Compare(a.ID, b.ID) })
	return deaths
}

// remove deletes an organism that never finished spawning.
func (w *World) remove(id uint32) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	p := w.targetMap.Get(e)
	w.grid.Remove(grid.Point{X: p.X, Y: p.Y}, grid.Object(id))
	w.world.RemoveEntity(e)
	delete(w.entities, id)
	delete(w.handlers, id)
	delete(w.stray, id)
}
