package handler

import (
	"reflect"

	"github.com/pthm-cable/automata/attr"
)

// Filters maps attribute paths to their accepted values. It is written
// while a unit is constructed and frozen once the unit is registered.
type Filters struct {
	paths  []attr.Path
	values map[attr.Path][]any
	frozen bool
}

// Add appends values to the accepted set for path. Slices of values are
// flattened, so a batch and separate calls are equivalent.
func (f *Filters) Add(path attr.Path, values ...any) {
	if f.frozen {
		panic("handler: static filters modified after registration")
	}
	if f.values == nil {
		f.values = make(map[attr.Path][]any)
	}
	if _, ok := f.values[path]; !ok {
		f.paths = append(f.paths, path)
		f.values[path] = nil
	}
	for _, v := range values {
		for _, flat := range flatten(v) {
			if !contains(f.values[path], flat) {
				f.values[path] = append(f.values[path], flat)
			}
		}
	}
}

// Matches reports whether every filtered path resolves on l to an accepted
// value. An unresolvable path is a non-match, not an error.
func (f *Filters) Matches(l attr.Lookuper) bool {
	for _, p := range f.paths {
		v, ok := l.Lookup(p)
		if !ok {
			return false
		}
		if !contains(f.values[p], attr.Normalize(v)) {
			return false
		}
	}
	return true
}

// Paths returns the filtered paths in the order they were first added.
func (f *Filters) Paths() []attr.Path {
	return append([]attr.Path(nil), f.paths...)
}

// Values returns the accepted values for path.
func (f *Filters) Values(path attr.Path) []any {
	return append([]any(nil), f.values[path]...)
}

// Len returns the number of filtered paths.
func (f *Filters) Len() int { return len(f.paths) }

// Frozen reports whether the filters can still be modified.
func (f *Filters) Frozen() bool { return f.frozen }

func (f *Filters) freeze() { f.frozen = true }

func flatten(v any) []any {
	switch xs := v.(type) {
	case []any:
		out := make([]any, 0, len(xs))
		for _, x := range xs {
			out = append(out, attr.Normalize(x))
		}
		return out
	case []string:
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = x
		}
		return out
	case []float64:
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = x
		}
		return out
	case []int:
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = float64(x)
		}
		return out
	default:
		return []any{attr.Normalize(v)}
	}
}

func contains(set []any, v any) bool {
	for _, s := range set {
		if equal(s, v) {
			return true
		}
	}
	return false
}

// equal compares filter values. Anything other than a scalar leaf, such as
// a nested Tree or list, is compared structurally.
func equal(a, b any) bool {
	switch a.(type) {
	case string, float64, bool:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
