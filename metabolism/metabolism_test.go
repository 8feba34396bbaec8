package metabolism

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestNewAnimalValidates(t *testing.T) {
	p := DefaultParams().Animal
	tests := []struct {
		name                         string
		mass, fat, temp, scale, drag float64
	}{
		{"zero mass", 0, 0, 37, 1, 0.5},
		{"fat above mass", 1, 2, 37, 1, 0.5},
		{"negative fat", 1, -1, 37, 1, 0.5},
		{"zero scale", 1, 0.1, 37, 0, 0.5},
		{"negative drag", 1, 0.1, 37, 1, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnimal(p, tt.mass, tt.fat, tt.temp, tt.scale, tt.drag)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestAnimalUpdateDrainsBasalRate(t *testing.T) {
	p := DefaultParams().Animal
	a, err := NewAnimal(p, 10, 1, p.ReferenceTemperature, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	before := a.Energy()
	want := p.KleiberCoefficient * math.Pow(10, 0.75)
	if math.Abs(a.BasalRate()-want) > 1e-9 {
		t.Errorf("BasalRate = %v, want %v", a.BasalRate(), want)
	}

	a.Update(60)
	if got := before - a.Energy(); math.Abs(got-want*60) > 1e-6 {
		t.Errorf("spent %v, want %v", got, want*60)
	}
	if a.Mass() >= 10 {
		t.Errorf("mass should fall with the fat reserve, got %v", a.Mass())
	}
}

func TestAnimalWarmerBodyBurnsFaster(t *testing.T) {
	p := DefaultParams().Animal
	cold, _ := NewAnimal(p, 5, 1, p.ReferenceTemperature-10, 1, 0.5)
	warm, _ := NewAnimal(p, 5, 1, p.ReferenceTemperature, 1, 0.5)
	ratio := warm.BasalRate() / cold.BasalRate()
	if math.Abs(ratio-p.Q10) > 1e-9 {
		t.Errorf("warm/cold = %v, want Q10 %v", ratio, p.Q10)
	}
}

func TestAnimalMove(t *testing.T) {
	p := DefaultParams().Animal
	a, _ := NewAnimal(p, 2, 0.5, 37, 1, 1)

	if a.MoveCost(0, 1) != 0 {
		t.Error("zero distance should cost nothing")
	}
	slow := a.MoveCost(1, 10)
	fast := a.MoveCost(1, 1)
	if fast <= slow {
		t.Errorf("faster movement should cost more: fast=%v slow=%v", fast, slow)
	}

	before := a.Energy()
	a.Move(1, 1)
	if math.Abs(before-a.Energy()-fast) > 1e-9 {
		t.Errorf("Move charged %v, want %v", before-a.Energy(), fast)
	}
}

func TestAnimalEnergyFloorsAtZero(t *testing.T) {
	p := DefaultParams().Animal
	a, _ := NewAnimal(p, 1, 1e-9, 37, 1, 1)
	a.Update(1e6)
	a.Move(100, 1)
	if a.Energy() != 0 {
		t.Errorf("Energy = %v, want 0", a.Energy())
	}
}

func TestNewPlantValidates(t *testing.T) {
	p := DefaultParams().Plant
	src := rand.NewPCG(1, 2)
	tests := []struct {
		name                     string
		mass, eff, mean, sd      float64
		cellulose, hemi, lignin  float64
	}{
		{"zero mass", 0, 0.05, 1, 0.1, 0.3, 0.2, 0.1},
		{"efficiency above one", 1, 1.5, 1, 0.1, 0.3, 0.2, 0.1},
		{"negative stddev", 1, 0.05, 1, -1, 0.3, 0.2, 0.1},
		{"fractions exceed one", 1, 0.05, 1, 0.1, 0.6, 0.3, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlant(p, tt.mass, tt.eff, tt.mean, tt.sd, tt.cellulose, tt.hemi, tt.lignin, src)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestPlantLeafAreaSampling(t *testing.T) {
	p := DefaultParams().Plant

	fixed, err := NewPlant(p, 1, 0.05, 2, 0, 0.4, 0.3, 0.2, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if fixed.LeafArea() != 2 {
		t.Errorf("zero stddev leaf area = %v, want 2", fixed.LeafArea())
	}

	for i := uint64(0); i < 50; i++ {
		pl, _ := NewPlant(p, 1, 0.05, 0.1, 5, 0.4, 0.3, 0.2, rand.NewPCG(i, i+1))
		if pl.LeafArea() < 0 {
			t.Fatalf("negative leaf area %v", pl.LeafArea())
		}
	}
}

func TestPlantWithoutLeavesStarves(t *testing.T) {
	p := DefaultParams().Plant
	pl, _ := NewPlant(p, 1, 0.05, 0, 0, 0.4, 0.3, 0.2, rand.NewPCG(1, 2))

	start := pl.Energy()
	pl.Update(10)
	if want := start - p.RespirationRate*10; math.Abs(pl.Energy()-want) > 1e-9 {
		t.Errorf("Energy = %v, want %v", pl.Energy(), want)
	}
	pl.Update(1e9)
	if pl.Energy() != 0 {
		t.Errorf("Energy = %v, want 0", pl.Energy())
	}
}

func TestPlantGrowsWithSurplus(t *testing.T) {
	p := DefaultParams().Plant
	pl, _ := NewPlant(p, 1, 0.1, 10, 0, 0.4, 0.3, 0.2, rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		pl.Update(60)
	}
	if pl.Mass() <= 1 {
		t.Errorf("Mass = %v, want growth above seedling mass", pl.Mass())
	}
	if pl.Energy() > p.ReserveCapacity*pl.Mass()+1e-6 {
		t.Errorf("reserve %v exceeds capacity", pl.Energy())
	}
	if pl.LeafArea() <= 10 {
		t.Errorf("LeafArea = %v, want growth", pl.LeafArea())
	}
}

func TestConstructionCost(t *testing.T) {
	p := DefaultParams().Plant
	if got := constructionCost(p, 0, 0, 0); got != p.CelluloseCost {
		t.Errorf("empty fractions cost = %v", got)
	}
	if got := constructionCost(p, 0, 0, 0.5); got != p.LigninCost {
		t.Errorf("pure lignin cost = %v", got)
	}
}
