package grid

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestMoveObjectStaysInNeighborhood(t *testing.T) {
	g := New(10, 10, rand.New(rand.NewSource(3)))
	from := Point{5, 5}

	for i := 0; i < 200; i++ {
		p, err := g.MoveObject(from, 1, 0, nil)
		if err != nil {
			t.Fatalf("MoveObject: %v", err)
		}
		if math.Abs(float64(p.X-from.X)) > 1 || math.Abs(float64(p.Y-from.Y)) > 1 {
			t.Fatalf("moved from %v to %v, beyond one level", from, p)
		}
	}
}

func TestMoveObjectAvoidsUnusableCells(t *testing.T) {
	g := New(3, 1, rand.New(rand.NewSource(3)))
	from := Point{1, 0}
	g.SetBlacklisted(Point{0, 0}, true)
	g.SetOccupant(Point{2, 0}, 1)
	g.SetOccupant(Point{2, 0}, 2) // conflicted

	for i := 0; i < 50; i++ {
		p, err := g.MoveObject(from, 1, 0, nil)
		if err != nil {
			t.Fatal(err)
		}
		if p != from {
			t.Fatalf("moved to unusable cell %v", p)
		}
	}
}

func TestMoveObjectNoCandidates(t *testing.T) {
	g := New(1, 1, rand.New(rand.NewSource(3)))
	g.SetBlacklisted(Point{0, 0}, true)
	if _, err := g.MoveObject(Point{0, 0}, 1, 0, nil); !errors.Is(err, ErrNoMove) {
		t.Errorf("err = %v, want ErrNoMove", err)
	}
}

func TestCalculateProbabilities(t *testing.T) {
	candidates := []Point{{0, 0}, {1, 0}, {2, 0}}

	t.Run("no factors is uniform", func(t *testing.T) {
		probs := calculateProbabilities(nil, candidates)
		for _, p := range probs {
			if math.Abs(p-1.0/3) > 1e-9 {
				t.Errorf("prob = %v, want 1/3", p)
			}
		}
	})

	t.Run("attractor favors nearest cell", func(t *testing.T) {
		probs := calculateProbabilities([]Factor{{At: Point{2, 0}, Strength: 1}}, candidates)
		var sum float64
		for _, p := range probs {
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("sum = %v, want 1", sum)
		}
		if !(probs[2] > probs[1] && probs[1] > probs[0]) {
			t.Errorf("probs = %v, want increasing toward attractor", probs)
		}
	})
}

func TestRemoveInvisible(t *testing.T) {
	from := Point{0, 0}
	factors := []Factor{
		{At: Point{1, 0}, Strength: 1},
		{At: Point{8, 0}, Strength: 1},
		{At: Point{2, 0}, Strength: 1, Visibility: 1},
	}
	got := removeInvisible(from, factors, 5)
	if len(got) != 1 || got[0].At != (Point{1, 0}) {
		t.Errorf("visible = %+v", got)
	}
}
