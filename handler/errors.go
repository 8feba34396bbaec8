package handler

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/automata/attr"
)

// ErrInvalidConfiguration marks an organism whose attributes cannot
// configure a unit. Match it with errors.Is; the concrete error is a
// *ConfigError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports the attribute that made Setup fail.
type ConfigError struct {
	Path   attr.Path
	Value  any    // nil when the attribute is missing
	Reason string // optional detail, e.g. a suggested value
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrInvalidConfiguration, e.Path)
	if e.Value == nil {
		msg += " is missing"
	} else {
		msg += fmt.Sprintf(" = %v", e.Value)
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// Float reads a required numeric attribute from o.
func Float(o Organism, p attr.Path) (float64, error) {
	v, ok := o.Lookup(p)
	if !ok {
		return 0, &ConfigError{Path: p}
	}
	f, ok := attr.Normalize(v).(float64)
	if !ok {
		return 0, &ConfigError{Path: p, Value: v, Reason: "not a number"}
	}
	return f, nil
}

// String reads a required string attribute from o.
func String(o Organism, p attr.Path) (string, error) {
	v, ok := o.Lookup(p)
	if !ok {
		return "", &ConfigError{Path: p}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigError{Path: p, Value: v, Reason: "not a string"}
	}
	return s, nil
}

// FloatOr reads an optional numeric attribute. It reports false when the
// attribute is missing and def is returned. A present non-numeric value is
// still an error.
func FloatOr(o Organism, p attr.Path, def float64) (float64, bool, error) {
	if _, ok := o.Lookup(p); !ok {
		return def, false, nil
	}
	f, err := Float(o, p)
	return f, err == nil, err
}
