// Package handlers provides the built-in update handlers.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/handler"
	"github.com/pthm-cable/automata/metabolism"
)

// ErrNoMetabolism is returned by Run when setup never bound a usable
// metabolism to the organism.
var ErrNoMetabolism = errors.New("handlers: no usable metabolism bound")

// Animal moves animals around the grid and charges their metabolism for
// living and moving. Animals die when their energy runs out.
type Animal struct {
	handler.Base
	params   metabolism.AnimalParams
	cellSize float64
	logger   *slog.Logger
}

// NewAnimal creates the animal handler.
func NewAnimal(env handler.Env) *Animal {
	a := &Animal{
		Base:     handler.NewBase("Animal"),
		params:   env.Config.Metabolism.Animal,
		cellSize: env.Config.World.CellSize,
		logger:   env.UnitLogger("Animal"),
	}
	a.FilterAttribute(attr.Kingdom, "Opisthokonta", "Animalia")
	return a
}

// Setup builds the organism's animal metabolism and sets its vision.
func (a *Animal) Setup(o handler.Organism) error {
	var args [5]float64
	for i, p := range []attr.Path{
		attr.AnimalInitialMass,
		attr.AnimalInitialFatMass,
		attr.AnimalBodyTemperature,
		attr.Scale,
		attr.AnimalDragCoefficient,
	} {
		v, err := handler.Float(o, p)
		if err != nil {
			return err
		}
		args[i] = v
	}
	vision, err := handler.Float(o, attr.Vision)
	if err != nil {
		return err
	}

	a.logger.Debug("constructing animal metabolism", "organism", o.ID(),
		"mass", args[0], "fat_mass", args[1], "body_temperature", args[2],
		"scale", args[3], "drag", args[4])
	m, err := metabolism.NewAnimal(a.params, args[0], args[1], args[2], args[3], args[4])
	if err != nil {
		return err
	}
	if err := o.BindMetabolism(m); err != nil {
		return err
	}
	o.SetVision(vision)
	return nil
}

// Run moves the organism, then charges basal metabolism for dt and the
// movement cost for the distance covered.
func (a *Animal) Run(o handler.Organism, dt float64) error {
	m, ok := o.Metabolism().(metabolism.Mover)
	if !ok {
		return fmt.Errorf("animal %d: %w", o.ID(), ErrNoMetabolism)
	}

	old := o.Position()
	res, err := o.UpdatePosition()
	if err != nil {
		return err
	}
	if res.Kind == handler.Conflict {
		if err := o.HandleConflict(); err != nil {
			return err
		}
	}
	moved := old.Dist(o.Position()) * a.cellSize

	m.Update(dt)
	m.Move(moved, dt)

	if m.Energy() <= 0 && o.Die() {
		a.logger.Info("organism died", "organism", o.ID(), "reason", "energy exhausted", "mass", m.Mass())
	}
	return nil
}
