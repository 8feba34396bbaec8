package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/automata/config"
)

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9*math.Max(1, math.Abs(def[i])) {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestParamVector_DefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Default {
			t.Errorf("%s: config has %v, spec default %v", spec.Name, got[i], spec.Default)
		}
	}
}

func TestParamVector_ApplyClamps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max * 10
	}
	values[0] = -1

	pv.ApplyToConfig(cfg, values)
	got := pv.ExtractFromConfig(cfg)
	if got[0] != pv.Specs[0].Min {
		t.Errorf("%s = %v, want min %v", pv.Specs[0].Name, got[0], pv.Specs[0].Min)
	}
	for i := 1; i < pv.Dim(); i++ {
		if got[i] != pv.Specs[i].Max {
			t.Errorf("%s = %v, want max %v", pv.Specs[i].Name, got[i], pv.Specs[i].Max)
		}
	}
}
