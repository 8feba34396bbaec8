package grid

import "math"

// Factor is a point of attraction (positive strength) or repulsion
// (negative strength) that biases random movement.
type Factor struct {
	At       Point
	Strength float64
	// Visibility limits the distance from which the factor can be sensed.
	// Zero means visible from anywhere.
	Visibility float64
}

// MoveObject picks the next cell for an object at from. Candidates are every
// cell within levels steps (Chebyshev distance) plus staying put, minus
// blacklisted and conflicted cells. Factors beyond vision (when vision > 0)
// or beyond their own visibility are ignored; with no usable factors every
// candidate is equally likely.
func (g *Grid) MoveObject(from Point, levels int, vision float64, factors []Factor) (Point, error) {
	if !g.InBounds(from) {
		return from, ErrOutOfBounds
	}
	if levels < 0 {
		levels = 0
	}

	candidates := g.neighborhood(from, levels)
	candidates = g.removeUnusable(candidates)
	if len(candidates) == 0 {
		return from, ErrNoMove
	}

	visible := removeInvisible(from, factors, vision)
	probs := calculateProbabilities(visible, candidates)
	return g.choose(probs, candidates), nil
}

// neighborhood returns the in-bounds cells around p, p itself last.
func (g *Grid) neighborhood(p Point, levels int) []Point {
	out := make([]Point, 0, (2*levels+1)*(2*levels+1))
	for dy := -levels; dy <= levels; dy++ {
		for dx := -levels; dx <= levels; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			q := Point{X: p.X + dx, Y: p.Y + dy}
			if g.InBounds(q) {
				out = append(out, q)
			}
		}
	}
	return append(out, p)
}

func (g *Grid) removeUnusable(points []Point) []Point {
	out := points[:0]
	for _, p := range points {
		c := g.at(p)
		if c.blacklisted || c.conflicted != None {
			continue
		}
		out = append(out, p)
	}
	return out
}

func removeInvisible(from Point, factors []Factor, vision float64) []Factor {
	var out []Factor
	for _, f := range factors {
		r := from.Dist(f.At)
		if f.Visibility > 0 && r > f.Visibility {
			continue
		}
		if vision > 0 && r > vision {
			continue
		}
		out = append(out, f)
	}
	return out
}

// calculateProbabilities weights each candidate by inverse fifth-power
// distance to every factor, then shifts and scales the weights into a
// distribution.
func calculateProbabilities(factors []Factor, candidates []Point) []float64 {
	probs := make([]float64, len(candidates))

	var totalStrength float64
	for _, f := range factors {
		totalStrength += f.Strength
	}
	if len(factors) == 0 || totalStrength == 0 {
		for i := range probs {
			probs[i] = 1 / float64(len(candidates))
		}
		return probs
	}

	for _, f := range factors {
		for i, p := range candidates {
			r := p.Dist(f.At)
			if r != 0 {
				probs[i] += f.Strength / math.Pow(r, 5)
			} else {
				probs[i] += 10 * f.Strength
			}
		}
	}

	minimum := 0.0
	for i := range probs {
		probs[i] /= float64(len(factors))
		minimum = math.Min(minimum, probs[i])
	}
	var total float64
	for i := range probs {
		probs[i] -= minimum
		total += probs[i]
	}
	if total == 0 {
		for i := range probs {
			probs[i] = 1 / float64(len(candidates))
		}
		return probs
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

func (g *Grid) choose(probs []float64, candidates []Point) Point {
	r := g.rng.Float64()
	var running float64
	for i, p := range probs {
		running += p
		if running >= r {
			return candidates[i]
		}
	}
	// Rounding can leave the running total just short of r.
	return candidates[len(candidates)-1]
}
