package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

var (
	// ErrDuplicateUnit is returned when a second instance of a concrete unit
	// type is registered.
	ErrDuplicateUnit = errors.New("handler: unit type already registered")
	// ErrRegistrySealed is returned by Register after Seal.
	ErrRegistrySealed = errors.New("handler: registry sealed")
)

// Registry holds one instance of every behavior unit in registration order.
// It is built once at startup, sealed, and read-only afterwards, so a sealed
// registry may be shared across goroutines.
type Registry struct {
	units  []Unit
	types  map[reflect.Type]string
	sealed bool
	logger *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		types:  make(map[reflect.Type]string),
		logger: logger,
	}
}

// Register appends u. Each concrete type may be registered once.
func (r *Registry) Register(u Unit) error {
	if r.sealed {
		return fmt.Errorf("registering %s: %w", u.Name(), ErrRegistrySealed)
	}
	t := reflect.TypeOf(u)
	if prev, ok := r.types[t]; ok {
		return fmt.Errorf("registering %s (%v already registered as %s): %w", u.Name(), t, prev, ErrDuplicateUnit)
	}
	r.types[t] = u.Name()
	r.units = append(r.units, u)
	r.logger.Info("registering handler", "handler", u.Name(), "filters", u.Filters().Len())
	return nil
}

// Seal freezes the registry and every registered unit's static filters.
func (r *Registry) Seal() {
	for _, u := range r.units {
		u.Filters().freeze()
	}
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed }

// Units returns the registered units in registration order.
func (r *Registry) Units() []Unit {
	return append([]Unit(nil), r.units...)
}

// Len returns the number of registered units.
func (r *Registry) Len() int { return len(r.units) }

// Names returns the registered unit names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.units))
	for i, u := range r.units {
		names[i] = u.Name()
	}
	return names
}

// Assign attaches every unit whose static filters match o and runs its
// Setup. Units already attached to o are skipped. The first Setup failure
// stops assignment and is returned wrapped with the unit name.
func (r *Registry) Assign(o Organism) error {
	for _, u := range r.units {
		if o.HasHandler(u) || !u.Filters().Matches(o) {
			continue
		}
		o.AttachHandler(u)
		if err := u.Setup(o); err != nil {
			return fmt.Errorf("handler %s setup for organism %d: %w", u.Name(), o.ID(), err)
		}
		r.logger.Debug("handler attached", "handler", u.Name(), "organism", o.ID())
	}
	return nil
}

// Dispatch runs u on o if u's dynamic filter passes. It reports whether Run
// was called.
func (r *Registry) Dispatch(o Organism, u Unit, dt float64) (bool, error) {
	if !u.DynamicFilter(o) {
		return false, nil
	}
	if err := u.Run(o, dt); err != nil {
		return true, fmt.Errorf("handler %s run for organism %d: %w", u.Name(), o.ID(), err)
	}
	return true, nil
}

// Tick dispatches every unit attached to o in attachment order. Units after
// the one that kills o are not dispatched. It returns the number of units
// whose Run was called and stops at the first error.
func (r *Registry) Tick(o Organism, dt float64) (int, error) {
	ran := 0
	for _, u := range o.Handlers() {
		if !o.Alive() {
			break
		}
		ok, err := r.Dispatch(o, u, dt)
		if ok {
			ran++
		}
		if err != nil {
			return ran, err
		}
	}
	return ran, nil
}
