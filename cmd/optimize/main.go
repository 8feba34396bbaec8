// Command optimize searches metabolism parameters with CMA-ES for settings
// under which animals and plants coexist longest.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/automata/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 20000, "Tick cap per run; reaching it counts as coexistence")
	seeds := flag.Int("seeds", 3, "Simulations per evaluation, run in parallel")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = CMA-ES default)")
	outputDir := flag.String("output", "", "Directory for optimize_log.csv and best_config.yaml")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if *outputDir == "" {
		logger.Error("--output is required")
		os.Exit(2)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), evalSeeds, baseCfg)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		logger.Error("failed to create evaluation log", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", *population,
		"max_evals", *maxEvals,
		"seeds", *seeds,
		"max_ticks", *maxTicks,
	)
	start := time.Now()
	s := newSearch(params, evaluator, *seeds, *maxEvals, logFile, logger)
	best, err := s.run(*population)
	if err != nil {
		logger.Warn("optimization ended", "error", err)
	}
	if best == nil {
		logger.Error("no evaluation completed")
		os.Exit(1)
	}

	attrs := []any{
		"evals", s.evals,
		"elapsed", time.Since(start).Round(time.Second),
		"survival_ticks", best.SurvivalTicks,
		"coexisting", best.Coexisting,
		"quality", best.Quality,
	}
	values := best.values()
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, values[i])
	}
	logger.Info("best parameters", attrs...)

	if n := evaluator.Failures(); n > 0 {
		logger.Warn("some runs failed", "failures", n, "runs", s.evals*(*seeds))
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to reload config", "error", err)
		os.Exit(1)
	}
	params.ApplyToConfig(bestCfg, values)
	out := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		logger.Error("failed to write best config", "error", err)
		os.Exit(1)
	}
	logger.Info("best config saved", "path", out)
}
