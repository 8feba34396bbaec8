package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/agnivade/levenshtein"

	"github.com/pthm-cable/automata/attr"
	"github.com/pthm-cable/automata/handler"
	"github.com/pthm-cable/automata/metabolism"
)

// Photosynthesis pathways a plant may declare.
var pathways = []string{"C3", "C4"}

// Plant keeps plants in place and runs their photosynthesis. Plants die
// when their reserve runs out.
type Plant struct {
	handler.Base
	params   metabolism.PlantParams
	src      rand.Source
	logger   *slog.Logger
	defaults atomic.Int64
}

// NewPlant creates the plant handler.
func NewPlant(env handler.Env) *Plant {
	p := &Plant{
		Base:   handler.NewBase("Plant"),
		params: env.Config.Metabolism.Plant,
		src:    env.Source,
		logger: env.UnitLogger("Plant"),
	}
	p.FilterAttribute(attr.Kingdom, "Plantae")
	return p
}

// Defaults returns how many leaf area values were filled in with defaults.
func (p *Plant) Defaults() int64 { return p.defaults.Load() }

// Setup builds the organism's plant metabolism.
func (p *Plant) Setup(o handler.Organism) error {
	pathway, err := handler.String(o, attr.PhotosynthesisPathway)
	if err != nil {
		return err
	}
	var effPath attr.Path
	switch pathway {
	case "C3":
		effPath = attr.C3Efficiency
	case "C4":
		effPath = attr.C4Efficiency
	default:
		return &handler.ConfigError{
			Path:   attr.PhotosynthesisPathway,
			Value:  pathway,
			Reason: suggestPathway(pathway),
		}
	}
	efficiency, err := handler.Float(o, effPath)
	if err != nil {
		return err
	}
	mass, err := handler.Float(o, attr.PlantSeedlingMass)
	if err != nil {
		return err
	}

	mean, stddev, err := p.leafArea(o)
	if err != nil {
		return err
	}

	var tissue [3]float64
	for i, path := range []attr.Path{attr.PlantCellulose, attr.PlantHemicellulose, attr.PlantLignin} {
		if tissue[i], err = handler.Float(o, path); err != nil {
			return err
		}
	}

	p.logger.Debug("constructing plant metabolism", "organism", o.ID(),
		"pathway", pathway, "mass", mass, "efficiency", efficiency,
		"leaf_area_mean", mean, "leaf_area_stddev", stddev)
	m, err := metabolism.NewPlant(p.params, mass, efficiency, mean, stddev, tissue[0], tissue[1], tissue[2], p.src)
	if err != nil {
		return err
	}
	return o.BindMetabolism(m)
}

// leafArea reads the leaf area distribution. A missing mean defaults to
// half the squared scale and a missing stddev to 30% of the mean.
func (p *Plant) leafArea(o handler.Organism) (mean, stddev float64, err error) {
	mean, found, err := handler.FloatOr(o, attr.PlantMeanLeafArea, 0)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		scale, err := handler.Float(o, attr.Scale)
		if err != nil {
			return 0, 0, err
		}
		mean = 0.5 * scale * scale
		p.defaults.Add(1)
		p.logger.Warn("using default leaf area mean", "organism", o.ID(), "mean", mean)
	}

	stddev, found, err = handler.FloatOr(o, attr.PlantLeafAreaStddev, 0)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		stddev = 0.3 * mean
		p.defaults.Add(1)
		p.logger.Warn("using default leaf area stddev", "organism", o.ID(), "stddev", stddev)
	}
	return mean, stddev, nil
}

// Run holds the plant's cell and photosynthesizes for dt.
func (p *Plant) Run(o handler.Organism, dt float64) error {
	m := o.Metabolism()
	if m == nil {
		return fmt.Errorf("plant %d: %w", o.ID(), ErrNoMetabolism)
	}

	// A conflict here means something moved onto the plant; it is settled
	// when the tick commits and the plant keeps its cell.
	if _, err := o.SetPosition(o.Position()); err != nil {
		return err
	}

	m.Update(dt)
	if m.Energy() <= 0 && o.Die() {
		p.logger.Info("organism died", "organism", o.ID(), "reason", "energy exhausted", "mass", m.Mass())
	}
	return nil
}

// suggestPathway names the closest valid pathway to s.
func suggestPathway(s string) string {
	best, bestDist := "", math.MaxInt
	for _, p := range pathways {
		if d := levenshtein.ComputeDistance(s, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	if bestDist > 2 {
		return fmt.Sprintf("want one of %v", pathways)
	}
	return fmt.Sprintf("did you mean %q?", best)
}
