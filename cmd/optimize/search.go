package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
)

// evalRecord is one row of optimize_log.csv. The metabolism columns hold the
// clamped values the simulation actually ran with.
type evalRecord struct {
	Eval              int     `csv:"eval"`
	Fitness           float64 `csv:"fitness"`
	SurvivalTicks     float64 `csv:"survival_ticks"`
	Quality           float64 `csv:"quality"`
	Coexisting        int     `csv:"coexisting"`
	AnimalExtinctions int     `csv:"animal_extinctions"`
	PlantExtinctions  int     `csv:"plant_extinctions"`
	Failed            int     `csv:"failed"`

	KleiberCoefficient float64 `csv:"kleiber_coefficient"`
	Q10                float64 `csv:"q10"`
	CostOfTransport    float64 `csv:"cost_of_transport"`
	Irradiance         float64 `csv:"irradiance"`
	ReserveDensity     float64 `csv:"reserve_density"`
	ReserveCapacity    float64 `csv:"reserve_capacity"`
	RespirationRate    float64 `csv:"respiration_rate"`
}

// paramFields returns pointers to the metabolism columns in ParamVector
// order.
func (r *evalRecord) paramFields() []*float64 {
	return []*float64{
		&r.KleiberCoefficient,
		&r.Q10,
		&r.CostOfTransport,
		&r.Irradiance,
		&r.ReserveDensity,
		&r.ReserveCapacity,
		&r.RespirationRate,
	}
}

func newEvalRecord(n int, o Outcome, values []float64) evalRecord {
	r := evalRecord{
		Eval:              n,
		Fitness:           o.Fitness,
		SurvivalTicks:     o.SurvivalTicks,
		Quality:           o.Quality,
		Coexisting:        o.Coexisting,
		AnimalExtinctions: o.AnimalExtinctions,
		PlantExtinctions:  o.PlantExtinctions,
		Failed:            o.Failed,
	}
	for i, f := range r.paramFields() {
		*f = values[i]
	}
	return r
}

// search drives CMA-ES over the normalized parameter space, logging every
// evaluation and keeping the best one seen.
type search struct {
	params   *ParamVector
	eval     *FitnessEvaluator
	seeds    int
	maxEvals int
	logger   *slog.Logger

	log           io.Writer
	headerWritten bool

	evals   int
	best    *evalRecord
	started time.Time
}

func newSearch(params *ParamVector, eval *FitnessEvaluator, seeds, maxEvals int, log io.Writer, logger *slog.Logger) *search {
	return &search{
		params:   params,
		eval:     eval,
		seeds:    seeds,
		maxEvals: maxEvals,
		log:      log,
		logger:   logger,
	}
}

// objective evaluates one normalized point. CMA-ES calls it sequentially.
func (s *search) objective(x []float64) float64 {
	values := s.params.Clamp(s.params.Denormalize(x))
	outcome := s.eval.Evaluate(values)
	s.evals++

	rec := newEvalRecord(s.evals, outcome, values)
	if s.best == nil || rec.Fitness < s.best.Fitness {
		s.best = &rec
	}
	if err := s.write(rec); err != nil {
		s.logger.Error("failed to write evaluation", "eval", s.evals, "error", err)
	}

	elapsed := time.Since(s.started)
	eta := elapsed / time.Duration(s.evals) * time.Duration(max(s.maxEvals-s.evals, 0))
	s.logger.Info("evaluation",
		"eval", s.evals,
		"of", s.maxEvals,
		"survival_ticks", outcome.SurvivalTicks,
		"quality", outcome.Quality,
		"coexisting", fmt.Sprintf("%d/%d", outcome.Coexisting, s.seeds),
		"animal_extinctions", outcome.AnimalExtinctions,
		"plant_extinctions", outcome.PlantExtinctions,
		"failed", outcome.Failed,
		"best_survival_ticks", s.best.SurvivalTicks,
		"elapsed", elapsed.Round(time.Second),
		"eta", eta.Round(time.Second),
	)
	return outcome.Fitness
}

func (s *search) write(rec evalRecord) error {
	records := []evalRecord{rec}
	if !s.headerWritten {
		s.headerWritten = true
		return gocsv.Marshal(records, s.log)
	}
	return gocsv.MarshalWithoutHeaders(records, s.log)
}

// run minimizes from the default parameters. population 0 lets CMA-ES
// size its own population. It returns the best evaluation, or nil when
// none completed.
func (s *search) run(population int) (*evalRecord, error) {
	s.started = time.Now()
	problem := optimize.Problem{Func: s.objective}
	settings := &optimize.Settings{FuncEvaluations: s.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: population}

	_, err := optimize.Minimize(problem, s.params.Normalize(s.params.DefaultVector()), settings, method)
	return s.best, err
}

// values returns the best record's metabolism parameters in ParamVector
// order.
func (r *evalRecord) values() []float64 {
	fs := r.paramFields()
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = *f
	}
	return out
}
