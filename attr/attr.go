// Package attr resolves dotted attribute paths against an organism's
// nested attribute tree.
package attr

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Path is a dotted attribute path such as "Taxonomy.Kingdom".
type Path string

// Well-known attribute paths read by the built-in handlers.
const (
	Kingdom = Path("Taxonomy.Kingdom")
	Scale   = Path("Scale")
	Vision  = Path("Vision")
	Speed   = Path("Speed")

	AnimalInitialMass     = Path("Metabolism.Animal.InitialMass")
	AnimalInitialFatMass  = Path("Metabolism.Animal.InitialFatMass")
	AnimalBodyTemperature = Path("Metabolism.Animal.BodyTemperature")
	AnimalDragCoefficient = Path("Metabolism.Animal.DragCoefficient")

	PhotosynthesisPathway = Path("Metabolism.Photosynthesis.Pathway")
	C3Efficiency          = Path("Metabolism.Photosynthesis.C3Efficiency")
	C4Efficiency          = Path("Metabolism.Photosynthesis.C4Efficiency")

	PlantSeedlingMass   = Path("Metabolism.Plant.SeedlingMass")
	PlantMeanLeafArea   = Path("Metabolism.Plant.MeanLeafArea")
	PlantLeafAreaStddev = Path("Metabolism.Plant.LeafAreaStddev")
	PlantCellulose      = Path("Metabolism.Plant.Cellulose")
	PlantHemicellulose  = Path("Metabolism.Plant.Hemicellulose")
	PlantLignin         = Path("Metabolism.Plant.Lignin")
)

// Segments splits the path on dots.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// Lookuper is anything that can resolve an attribute path.
type Lookuper interface {
	Lookup(p Path) (any, bool)
}

// Tree is a nested attribute map. Leaves are strings, bools or float64.
type Tree map[string]any

// Lookup walks the tree along p. A missing segment, or a segment that runs
// into a leaf before the path ends, reports false.
func (t Tree) Lookup(p Path) (any, bool) {
	segs := p.Segments()
	if len(segs) == 0 {
		return nil, false
	}
	var node any = t
	for _, seg := range segs {
		m, ok := asMap(node)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// Float resolves p as a number.
func (t Tree) Float(p Path) (float64, bool) {
	v, ok := t.Lookup(p)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Int resolves p as a whole number. Fractional values report false.
func (t Tree) Int(p Path) (int, bool) {
	f, ok := t.Float(p)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// String resolves p as a string.
func (t Tree) String(p Path) (string, bool) {
	v, ok := t.Lookup(p)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores v at p, creating intermediate maps as needed.
func (t Tree) Set(p Path, v any) {
	segs := p.Segments()
	if len(segs) == 0 {
		return
	}
	m := t
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(m[seg])
		if !ok {
			next = Tree{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = Normalize(v)
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		if m, ok := asMap(v); ok {
			out[k] = m.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping and normalizes its leaves.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decoding attribute tree: %w", err)
	}
	*t = FromMap(raw)
	return nil
}

// FromMap converts a decoded map into a Tree, normalizing numbers to
// float64 so that filter values compare equal regardless of source.
func FromMap(m map[string]any) Tree {
	out := make(Tree, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// Normalize converts numeric values to float64 and nested maps to Tree.
// Other values are returned unchanged.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case Tree:
		return x
	case map[string]any:
		return FromMap(x)
	default:
		return v
	}
}

func asMap(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]any:
		return Tree(m), true
	default:
		return nil, false
	}
}
