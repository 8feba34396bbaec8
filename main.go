package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/automata/config"
	"github.com/pthm-cable/automata/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logText := flag.Bool("log-text", false, "Log as text instead of JSON")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulated seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 1000, "Stop after N ticks")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(2)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if *logText {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(sim.Options{
		Config:         config.Cfg(),
		Logger:         logger,
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	})
	if err != nil {
		logger.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	logger.Info("starting headless simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"organisms", s.World().Len(),
	)

	start := time.Now()
	runErr := s.Run(int32(*maxTicks))
	if err := s.Close(); err != nil {
		logger.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		logger.Error("simulation stopped", "tick", s.Tick(), "error", runErr)
		os.Exit(1)
	}

	logger.Info("max ticks reached",
		"tick", s.Tick(),
		"organisms", s.World().Len(),
		"handler_errors", s.HandlerErrors(),
		"elapsed", time.Since(start),
		"perf", s.Perf(),
	)
}
