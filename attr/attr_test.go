package attr

import (
	"testing"

	"gopkg.in/yaml.v3"
)

const sampleYAML = `
Taxonomy:
  Kingdom: Animalia
Scale: 2
Vision: 3.5
Metabolism:
  Animal:
    InitialMass: 4
`

func decode(t *testing.T, src string) Tree {
	t.Helper()
	var tree Tree
	if err := yaml.Unmarshal([]byte(src), &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return tree
}

func TestLookup(t *testing.T) {
	tree := decode(t, sampleYAML)

	tests := []struct {
		name   string
		path   Path
		want   any
		wantOK bool
	}{
		{"nested string", Kingdom, "Animalia", true},
		{"int normalized", Scale, 2.0, true},
		{"float", Vision, 3.5, true},
		{"deep", AnimalInitialMass, 4.0, true},
		{"missing leaf", AnimalInitialFatMass, nil, false},
		{"missing branch", PlantLignin, nil, false},
		{"through a leaf", Path("Scale.Value"), nil, false},
		{"empty path", Path(""), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tree.Lookup(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Lookup(%q) = %v (%T), want %v", tt.path, got, got, tt.want)
			}
		})
	}
}

func TestTypedAccessors(t *testing.T) {
	tree := decode(t, sampleYAML)

	if s, ok := tree.String(Kingdom); !ok || s != "Animalia" {
		t.Errorf("String(Kingdom) = %q, %v", s, ok)
	}
	if _, ok := tree.String(Scale); ok {
		t.Error("String on a number should report false")
	}
	if f, ok := tree.Float(Scale); !ok || f != 2 {
		t.Errorf("Float(Scale) = %v, %v", f, ok)
	}
	if n, ok := tree.Int(Scale); !ok || n != 2 {
		t.Errorf("Int(Scale) = %v, %v", n, ok)
	}
	if n, ok := tree.Int(Vision); ok {
		t.Errorf("Int(Vision) = %v on 3.5, want no whole number", n)
	}
	if _, ok := tree.Int(Kingdom); ok {
		t.Error("Int on a string should report false")
	}
}

func TestSetCreatesBranches(t *testing.T) {
	tree := Tree{}
	tree.Set(PlantMeanLeafArea, 3)
	tree.Set(Kingdom, "Plantae")

	if f, ok := tree.Float(PlantMeanLeafArea); !ok || f != 3 {
		t.Errorf("Float(PlantMeanLeafArea) = %v, %v", f, ok)
	}
	if s, _ := tree.String(Kingdom); s != "Plantae" {
		t.Errorf("Kingdom = %q", s)
	}
}

func TestCloneIsDeep(t *testing.T) {
	tree := decode(t, sampleYAML)
	clone := tree.Clone()
	clone.Set(Kingdom, "Plantae")

	if s, _ := tree.String(Kingdom); s != "Animalia" {
		t.Errorf("original mutated through clone: %q", s)
	}
}

func TestNormalize(t *testing.T) {
	for _, v := range []any{int(2), int64(2), uint8(2), float32(2), 2.0} {
		if got := Normalize(v); got != 2.0 {
			t.Errorf("Normalize(%T) = %v", v, got)
		}
	}
	if got := Normalize("C3"); got != "C3" {
		t.Errorf("Normalize(string) = %v", got)
	}
}
