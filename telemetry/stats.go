package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Animals int `csv:"animals"`
	Plants  int `csv:"plants"`
	Others  int `csv:"others"`

	// Events during window
	AnimalBirths int `csv:"animal_births"`
	PlantBirths  int `csv:"plant_births"`
	AnimalDeaths int `csv:"animal_deaths"`
	PlantDeaths  int `csv:"plant_deaths"`

	// Handler dispatch
	HandlerRuns   int `csv:"handler_runs"`
	HandlerSkips  int `csv:"handler_skips"`
	HandlerErrors int `csv:"handler_errors"`

	// Movement conflicts
	Conflicts   int `csv:"conflicts"`
	Relocations int `csv:"relocations"`
	Reclaims    int `csv:"reclaims"`

	// Energy distribution (sampled at window end), joules
	AnimalEnergyMean float64 `csv:"animal_energy_mean"`
	AnimalEnergyP10  float64 `csv:"animal_energy_p10"`
	AnimalEnergyP50  float64 `csv:"animal_energy_p50"`
	AnimalEnergyP90  float64 `csv:"animal_energy_p90"`

	PlantEnergyMean float64 `csv:"plant_energy_mean"`
	PlantEnergyP10  float64 `csv:"plant_energy_p10"`
	PlantEnergyP50  float64 `csv:"plant_energy_p50"`
	PlantEnergyP90  float64 `csv:"plant_energy_p90"`

	// Mean body mass, kg
	AnimalMassMean float64 `csv:"animal_mass_mean"`
	PlantMassMean  float64 `csv:"plant_mass_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// Mean returns the mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("animals", s.Animals),
		slog.Int("plants", s.Plants),
		slog.Int("others", s.Others),
		slog.Int("animal_births", s.AnimalBirths),
		slog.Int("plant_births", s.PlantBirths),
		slog.Int("animal_deaths", s.AnimalDeaths),
		slog.Int("plant_deaths", s.PlantDeaths),
		slog.Int("handler_runs", s.HandlerRuns),
		slog.Int("handler_skips", s.HandlerSkips),
		slog.Int("handler_errors", s.HandlerErrors),
		slog.Int("conflicts", s.Conflicts),
		slog.Int("relocations", s.Relocations),
		slog.Int("reclaims", s.Reclaims),
		slog.Float64("animal_energy_mean", s.AnimalEnergyMean),
		slog.Float64("animal_energy_p50", s.AnimalEnergyP50),
		slog.Float64("plant_energy_mean", s.PlantEnergyMean),
		slog.Float64("plant_energy_p50", s.PlantEnergyP50),
		slog.Float64("animal_mass_mean", s.AnimalMassMean),
		slog.Float64("plant_mass_mean", s.PlantMassMean),
	)
}

// LogStats logs the window statistics.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("stats", "window", s)
}
