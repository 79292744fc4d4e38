// Package sim owns the tank world: the ECS storage, the fixed-rate
// tick pipeline, and the outward event surface. Everything below it
// (systems, components) is deterministic given the seed; everything
// above it (harness, UI layers) talks to the World type only.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/namegen"
	"github.com/pthm-cable/tank/species"
	"github.com/pthm-cable/tank/systems"
	"github.com/pthm-cable/tank/telemetry"
)

// TimeScale compresses the simulated day for presentation layers. The
// core tick never changes; only the derived day length does.
type TimeScale uint8

const (
	TimeNormal TimeScale = iota
	TimeFast
	TimeHyper
)

// String returns a human-readable time scale name.
func (ts TimeScale) String() string {
	switch ts {
	case TimeFast:
		return "fast"
	case TimeHyper:
		return "hyper"
	default:
		return "normal"
	}
}

// dayDivisor is how many times faster than normal a day passes.
func (ts TimeScale) dayDivisor() int64 {
	switch ts {
	case TimeFast:
		return 4
	case TimeHyper:
		return 12
	default:
		return 1
	}
}

// Options configures a new world. The zero value gives an empty tank
// with the default species catalog, fallback-only naming, and no
// telemetry output files.
type Options struct {
	Seed       int64
	Catalog    []species.Species // nil means species.Default()
	NameSource namegen.Source    // nil means local fallback names only
	Callbacks  Callbacks
	Output     *telemetry.OutputManager // nil disables CSV output
	LogStats   bool                     // log window stats via slog
}

// World is the complete simulation state. Not safe for concurrent use;
// callers drive it from a single goroutine.
type World struct {
	world *ecs.World
	rng   *rand.Rand

	entityMapper *ecs.Map7[components.Position, components.Velocity, components.Accel, components.Rotation, components.Body, components.Energy, components.Fish]
	entityFilter *ecs.Filter7[components.Position, components.Velocity, components.Accel, components.Rotation, components.Body, components.Energy, components.Fish]
	targetsMap   *ecs.Map[components.Targets]
	energyMap    *ecs.Map1[components.Energy]
	fishMap      *ecs.Map1[components.Fish]

	grid      *systems.SpatialGrid
	food      *systems.FoodSystem
	behavior  *systems.BehaviorSystem
	feeding   *systems.FeedingSystem
	courtship *systems.CourtshipSystem

	catalog      []species.Species
	speciesIndex map[string]int
	bounds       systems.Bounds

	names         *namegen.Service
	hasNameSource bool
	nameResults   []namegen.Result
	pendingNames  map[uint64]ecs.Entity
	spawnSeq      uint64

	tick       int64
	score      int64
	aliveCount int
	counts     []int // live fish per catalog index
	timeScale  TimeScale

	callbacks  Callbacks
	birthQueue []BirthEvent
	deathQueue []DeathEvent
	scoreDirty bool
	popDirty   bool

	autoFeed      bool
	autoFeedTimer float32

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	logStats  bool
}

// New creates an empty world. Call SeedPopulation for the configured
// starting cast, or AddFish to stock it by hand.
func New(opts Options) *World {
	cfg := config.Cfg()
	systems.InitTuningCache()

	catalog := opts.Catalog
	if catalog == nil {
		catalog = species.Default()
	}

	world := ecs.NewWorld()
	bounds := systems.Bounds{Width: cfg.Derived.WorldW32, Height: cfg.Derived.WorldH32}

	w := &World{
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),

		entityMapper: ecs.NewMap7[components.Position, components.Velocity, components.Accel, components.Rotation, components.Body, components.Energy, components.Fish](world),
		entityFilter: ecs.NewFilter7[components.Position, components.Velocity, components.Accel, components.Rotation, components.Body, components.Energy, components.Fish](world),
		targetsMap:   ecs.NewMap[components.Targets](world),
		energyMap:    ecs.NewMap1[components.Energy](world),
		fishMap:      ecs.NewMap1[components.Fish](world),

		catalog:      catalog,
		speciesIndex: species.Index(catalog),
		bounds:       bounds,

		names:         namegen.New(opts.NameSource),
		hasNameSource: opts.NameSource != nil,
		pendingNames:  make(map[uint64]ecs.Entity),
		counts:        make([]int, len(catalog)),

		callbacks:  opts.Callbacks,
		birthQueue: make([]BirthEvent, 0, cfg.World.EventQueueCap),
		deathQueue: make([]DeathEvent, 0, cfg.World.EventQueueCap),

		autoFeedTimer: float32(cfg.Food.AutofeedInterval),

		collector: telemetry.NewCollector(int64(cfg.Telemetry.WindowTicks), cfg.Derived.DT32),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.WindowTicks),
		output:    opts.Output,
		logStats:  opts.LogStats,
	}

	w.grid = systems.NewSpatialGrid(bounds.Width, bounds.Height, float32(cfg.Spatial.CellSize))
	w.food = systems.NewFoodSystem(bounds)
	w.behavior = systems.NewBehaviorSystem(world, bounds, catalog, opts.Seed)
	w.feeding = systems.NewFeedingSystem(world, catalog)
	w.courtship = systems.NewCourtshipSystem(world, catalog, w.rng)

	return w
}

// SeedPopulation stocks the tank with the configured number of adults,
// spread round-robin across the catalog's prey and predator species.
func (w *World) SeedPopulation() {
	cfg := config.Cfg()

	var prey, predators []int
	for i := range w.catalog {
		if w.catalog[i].Predator {
			predators = append(predators, i)
		} else {
			prey = append(prey, i)
		}
	}

	for i := 0; i < cfg.Population.InitialPrey && len(prey) > 0; i++ {
		x, y := w.randomSpawnPos()
		w.spawnAt(prey[i%len(prey)], x, y)
	}
	for i := 0; i < cfg.Population.InitialPredators && len(predators) > 0; i++ {
		x, y := w.randomSpawnPos()
		w.spawnAt(predators[i%len(predators)], x, y)
	}
}

// AddFish spawns one adult of the given species at a random position.
// Returns the fish's name, which an async naming source may later
// replace.
func (w *World) AddFish(speciesID string) (string, error) {
	idx, ok := w.speciesIndex[speciesID]
	if !ok {
		return "", fmt.Errorf("unknown species %q", speciesID)
	}
	x, y := w.randomSpawnPos()
	entity := w.spawnAt(idx, x, y)
	return w.fishMap.Get(entity).Name, nil
}

// AddFood drops a pellet at the given position, clamped to the tank.
// Returns false when the active pellet cap is reached.
func (w *World) AddFood(x, y float32) bool {
	return w.food.Add(x, y)
}

// SetAutoFeed turns the periodic feeder on or off.
func (w *World) SetAutoFeed(on bool) {
	w.autoFeed = on
	if on {
		w.autoFeedTimer = 0
	}
}

// AutoFeed reports whether the periodic feeder is on.
func (w *World) AutoFeed() bool {
	return w.autoFeed
}

// SetTimeScale selects how fast the simulated day passes. Core agent
// behavior is unaffected; only DayTicks changes.
func (w *World) SetTimeScale(ts TimeScale) {
	w.timeScale = ts
}

// TimeScale returns the current time scale.
func (w *World) TimeScale() TimeScale {
	return w.timeScale
}

// DayTicks returns ticks per simulated day at the current time scale.
func (w *World) DayTicks() int64 {
	return int64(config.Cfg().World.DayTicks) / w.timeScale.dayDivisor()
}

// Tick returns the number of completed simulation steps.
func (w *World) Tick() int64 {
	return w.tick
}

// Score returns the pellet-feeding score.
func (w *World) Score() int64 {
	return w.score
}

// Alive returns the number of living fish.
func (w *World) Alive() int {
	return w.aliveCount
}

// PreyCount returns the number of living non-predator fish.
func (w *World) PreyCount() int {
	n := 0
	for i, c := range w.counts {
		if !w.catalog[i].Predator {
			n += c
		}
	}
	return n
}

// PredatorCount returns the number of living predator fish.
func (w *World) PredatorCount() int {
	n := 0
	for i, c := range w.counts {
		if w.catalog[i].Predator {
			n += c
		}
	}
	return n
}

// FoodCount returns the number of uneaten pellets.
func (w *World) FoodCount() int {
	return w.food.Count()
}

// Population returns live fish counts keyed by species ID. Species
// with no living members are included with a zero count.
func (w *World) Population() map[string]int {
	counts := make(map[string]int, len(w.catalog))
	for i, n := range w.counts {
		counts[w.catalog[i].ID] = n
	}
	return counts
}

// Perf returns rolling tick timing statistics.
func (w *World) Perf() telemetry.PerfStats {
	return w.perf.Stats()
}

// randomSpawnPos picks a position inside the tank, away from the walls
// so new fish do not start inside the bounds-repulsion band.
func (w *World) randomSpawnPos() (float32, float32) {
	margin := float32(config.Cfg().Behavior.BoundsMargin)
	if margin*2 >= w.bounds.Width || margin*2 >= w.bounds.Height {
		margin = 0
	}
	x := margin + w.rng.Float32()*(w.bounds.Width-2*margin)
	y := margin + w.rng.Float32()*(w.bounds.Height-2*margin)
	return x, y
}

// randomHeading picks a uniform heading in [0, 2pi).
func (w *World) randomHeading() float32 {
	return w.rng.Float32() * 2 * math.Pi
}
