package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/sim"
	"github.com/pthm-cable/tank/telemetry"
)

// FitnessEvaluator runs headless tanks and computes fitness.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int64
	seeds    []int64
	base     *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. The base config is
// snapshotted so later candidate applies cannot leak into it.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	base := *baseCfg
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		base:        &base,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable prey population: below this for extinctionGraceSec
// consecutive seconds counts as a functional collapse. Predators seed
// at two, so only total predator loss ends a run on their side.
const (
	minViablePrey      = 3
	extinctionGraceSec = 45.0
	warmupSec          = 10.0
)

// runResult holds the results from a single tank run.
type runResult struct {
	survivalTicks int64                   // ticks before collapse (or maxTicks if survived)
	windows       []telemetry.WindowStats // collected via the stats callback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// The sim reads the process-wide config, so one candidate is
	// installed for all seeds and the runs happen sequentially.
	fe.applyCandidate(x)

	var totalFitness, totalQuality float64
	for _, seed := range fe.seeds {
		result := fe.runTank(seed)
		quality := fe.computeQuality(result.windows)
		totalFitness += fe.computeFitness(result, quality)
		totalQuality += quality
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// applyCandidate installs a parameter vector into the process config.
func (fe *FitnessEvaluator) applyCandidate(x []float64) {
	cfg := config.Cfg()
	*cfg = *fe.base
	fe.params.ApplyToConfig(cfg, x)
	cfg.ComputeDerived()
}

// runTank executes a single headless tank run. Runs until the
// population collapses or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runTank(seed int64) *runResult {
	result := &runResult{}

	w := sim.New(sim.Options{
		Seed: seed,
		Callbacks: sim.Callbacks{
			Stats: func(stats telemetry.WindowStats) {
				result.windows = append(result.windows, stats)
			},
		},
	})
	w.SetAutoFeed(true)
	w.SeedPopulation()

	tickRate := float64(config.Cfg().World.TickRate)
	graceTicks := int64(extinctionGraceSec * tickRate)

	// Let the population establish before checking
	warmupTicks := int64(warmupSec * tickRate)

	var preyBelowTicks int64
	for w.Tick() < fe.maxTicks {
		w.Step()

		tick := w.Tick()
		if tick < warmupTicks {
			continue
		}

		prey := w.PreyCount()
		pred := w.PredatorCount()

		// Hard collapse: either side completely gone
		if prey == 0 || pred == 0 {
			result.survivalTicks = tick
			return result
		}

		// Functional collapse: prey below minimum viable count too long
		if prey < minViablePrey {
			preyBelowTicks++
		} else {
			preyBelowTicks = 0
		}
		if preyBelowTicks >= graceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	// Survived the full run
	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	return -(float64(r.survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.30
	qualityWeightStability = 0.30
	qualityWeightEnergy    = 0.25
	qualityWeightActivity  = 0.15

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityMinPrey       = 3 // exclude windows with fewer prey than this

	targetPreyPredRatio = 7.0  // seeded ratio, 14 prey to 2 predators
	targetEnergyP50     = 55.0 // healthy median energy on the 0..100 scale
)

// computeQuality computes tank quality in [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	// Collect valid windows (past warmup, both sides present)
	valid := windows[qualityWarmupWindows:]

	var ratioSum, energySum, activitySum float64
	validCount := 0

	// Full time series for stability
	preyCounts := make([]float64, 0, len(valid))
	predCounts := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.PreyCount < qualityMinPrey || w.PredCount < 1 {
			continue
		}
		validCount++

		preyCounts = append(preyCounts, float64(w.PreyCount))
		predCounts = append(predCounts, float64(w.PredCount))

		// 1. Population ratio score
		ratio := float64(w.PreyCount) / float64(w.PredCount)
		logErr := math.Log(ratio / targetPreyPredRatio)
		ratioSum += math.Exp(-logErr * logErr)

		// 3. Energy health score
		dev := (w.EnergyP50 - targetEnergyP50) / 25.0
		energySum += math.Exp(-dev * dev)

		// 4. Activity score: pellets eaten and hunts landed
		feedScore := 1.0 - math.Exp(-float64(w.Feeds)/3.0)
		killScore := 1.0 - math.Exp(-float64(w.Kills)/0.5)
		activitySum += 0.7*feedScore + 0.3*killScore
	}

	// No valid windows means zero quality
	if validCount == 0 {
		return 0
	}

	n := float64(validCount)
	ratioScore := ratioSum / n
	energyScore := energySum / n
	activityScore := activitySum / n

	// 2. Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if len(preyCounts) >= 2 {
		cvPrey := cv(preyCounts)
		cvPred := cv(predCounts)
		stabilityScore = math.Exp(-(cvPrey*cvPrey + cvPred*cvPred))
	}

	quality := qualityWeightRatio*ratioScore +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energyScore +
		qualityWeightActivity*activityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
