package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/sim"
	"github.com/pthm-cable/tank/species"
	"github.com/pthm-cable/tank/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	catalogPath := flag.String("species", "", "Path to a species catalog yaml (empty = embedded catalog)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	fast := flag.Bool("fast", false, "Run unpaced instead of at the configured tick rate")
	autofeed := flag.Bool("autofeed", true, "Drop food automatically")
	timeScale := flag.String("time-scale", "normal", "Day length scale: normal, fast, or hyper")
	logStats := flag.Bool("log-stats", false, "Log window stats via slog")
	logEvents := flag.Bool("log-events", false, "Log births and deaths via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, or error")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Use config stats window if not overridden by CLI
	if *statsWindow > 0 {
		cfg.Telemetry.WindowTicks = int(*statsWindow * float64(cfg.World.TickRate))
	}

	catalog := species.Default()
	if *catalogPath != "" {
		var err error
		catalog, err = species.Load(*catalogPath)
		if err != nil {
			slog.Error("failed to load species catalog", "error", err)
			os.Exit(1)
		}
	}

	scale, err := parseTimeScale(*timeScale)
	if err != nil {
		slog.Error("bad time scale", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var output *telemetry.OutputManager
	if *outputDir != "" {
		output, err = telemetry.NewOutputManager(*outputDir)
		if err != nil {
			slog.Error("failed to create output directory", "error", err)
			os.Exit(1)
		}
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			slog.Warn("failed to write config snapshot", "error", err)
		}
	}

	opts := sim.Options{
		Seed:     rngSeed,
		Catalog:  catalog,
		Output:   output,
		LogStats: *logStats,
	}
	if *logEvents {
		opts.Callbacks = sim.Callbacks{
			Birth: func(ev sim.BirthEvent) {
				slog.Info("brood delivered",
					"species", ev.Species,
					"parent_a", ev.ParentA,
					"parent_b", ev.ParentB,
					"babies", len(ev.Babies),
				)
			},
			Death: func(ev sim.DeathEvent) {
				slog.Info("fish died",
					"name", ev.Name,
					"species", ev.Species,
					"age", ev.Age,
					"reason", ev.Reason.String(),
				)
			},
		}
	}

	w := sim.New(opts)
	w.SetTimeScale(scale)
	w.SetAutoFeed(*autofeed)
	w.SeedPopulation()

	slog.Info("starting tank",
		"seed", rngSeed,
		"population", w.Alive(),
		"autofeed", *autofeed,
		"time_scale", scale.String(),
		"max_ticks", *maxTicks,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	run(w, stop, *maxTicks, *fast, cfg.World.TickRate)

	perf := w.Perf()
	slog.Info("tank stopped",
		"tick", w.Tick(),
		"score", w.Score(),
		"alive", w.Alive(),
		"population", w.Population(),
		"avg_tick_ms", float64(perf.AvgTickDuration.Microseconds())/1000,
	)
}

// run drives the loop until a signal arrives or the tick budget is
// spent. Paced mode holds the configured tick rate; fast mode steps
// flat out and polls for the signal between batches.
func run(w *sim.World, stop <-chan os.Signal, maxTicks int64, fast bool, tickRate int) {
	if fast {
		for maxTicks == 0 || w.Tick() < maxTicks {
			w.Step()
			if w.Tick()%1024 == 0 {
				select {
				case <-stop:
					slog.Info("interrupted", "tick", w.Tick())
					return
				default:
				}
			}
		}
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()
	for maxTicks == 0 || w.Tick() < maxTicks {
		select {
		case <-stop:
			slog.Info("interrupted", "tick", w.Tick())
			return
		case <-ticker.C:
			w.Step()
		}
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseTimeScale(s string) (sim.TimeScale, error) {
	switch s {
	case "normal":
		return sim.TimeNormal, nil
	case "fast":
		return sim.TimeFast, nil
	case "hyper":
		return sim.TimeHyper, nil
	}
	return sim.TimeNormal, fmt.Errorf("unknown time scale %q", s)
}
