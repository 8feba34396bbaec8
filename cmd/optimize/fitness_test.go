package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/config"
	"github.com/pthm-cable/automata/telemetry"
)

func TestComputeQuality(t *testing.T) {
	steady := make([]telemetry.WindowStats, 5)
	for i := range steady {
		steady[i] = telemetry.WindowStats{
			Animals:         10,
			Plants:          40,
			AnimalEnergyP10: 50,
			AnimalEnergyP90: 50,
		}
	}

	tests := []struct {
		name string
		r    *runResult
		want float64
	}{
		{"no windows", &runResult{initialAnimals: 10}, 0},
		{"no animals seeded", &runResult{windowStats: steady}, 0},
		{"everything kept", &runResult{initialAnimals: 10, windowStats: steady}, 1},
		{"half the animals", &runResult{initialAnimals: 20, windowStats: steady}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeQuality(tt.r); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("computeQuality = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeFitness(t *testing.T) {
	if got := computeFitness(100, 0); got != -100 {
		t.Errorf("computeFitness(100, 0) = %v", got)
	}
	if computeFitness(100, 1) >= computeFitness(100, 0) {
		t.Error("quality does not improve fitness")
	}
}

func TestCV(t *testing.T) {
	if cv(nil) != 0 || cv([]float64{0, 0}) != 0 {
		t.Error("degenerate input should give 0")
	}
	if got := cv([]float64{1, 3}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("cv = %v, want 0.5", got)
	}
}

func TestCopyConfigIsIndependent(t *testing.T) {
	base, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), 10, []int64{1}, base)

	cp := fe.copyConfig()
	cp.Metabolism.Animal.Q10 = 99
	cp.Population.Species[0].Count = 999
	cp.Population.Species[0].Attributes.Set(attr.Vision, 123)

	if base.Metabolism.Animal.Q10 == 99 {
		t.Error("metabolism shared with base")
	}
	if base.Population.Species[0].Count == 999 {
		t.Error("species list shared with base")
	}
	if v, _ := base.Population.Species[0].Attributes.Float(attr.Vision); v == 123 {
		t.Error("attribute tree shared with base")
	}
}
