package handlers

import "github.com/pthm-cable/automata/handler"

// Builtin returns the factories for the built-in handlers in registration
// order.
func Builtin() []handler.Factory {
	return []handler.Factory{
		func(env handler.Env) handler.Unit { return NewAnimal(env) },
		func(env handler.Env) handler.Unit { return NewPlant(env) },
	}
}
