// Package telemetry provides windowed simulation stats, perf tracking,
// and CSV output.
package telemetry

import "github.com/pthm-cable/tank/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowTicks int64
	dt          float32

	windowStartTick int64

	// Event counters for current window
	births        int
	deathsOldAge  int
	deathsStarved int
	deathsIllness int
	deathsEaten   int
	feeds         int
	kills         int
	scoreDelta    int64
	nameFallbacks int
}

// NewCollector creates a stats collector.
// windowTicks: ticks per stats window. dt: seconds per tick.
func NewCollector(windowTicks int64, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: windowTicks,
		dt:          dt,
	}
}

// RecordBirths records delivered offspring.
func (c *Collector) RecordBirths(n int) {
	c.births += n
}

// RecordDeath records a death under its reason.
func (c *Collector) RecordDeath(reason components.DeathReason) {
	switch reason {
	case components.ReasonOldAge:
		c.deathsOldAge++
	case components.ReasonStarved:
		c.deathsStarved++
	case components.ReasonIllness:
		c.deathsIllness++
	case components.ReasonEaten:
		c.deathsEaten++
	}
}

// RecordFeeds records consumed food pellets.
func (c *Collector) RecordFeeds(n int) {
	c.feeds += n
}

// RecordKill records a successful hunt.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordScore records score gained this tick.
func (c *Collector) RecordScore(delta int64) {
	c.scoreDelta += delta
}

// RecordNameFallback records a name served from the local table.
func (c *Collector) RecordNameFallback() {
	c.nameFallbacks++
}

// ShouldFlush returns true once enough ticks have passed to close the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// preyCount/predCount are live populations at window end; energies and
// ages are the per-agent samples for distribution stats.
func (c *Collector) Flush(currentTick int64, preyCount, predCount int, energies, ages []float64) WindowStats {
	energyMean, energyP10, energyP50, energyP90 := Distribution(energies)
	ageMean, _, ageP50, _ := Distribution(ages)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		PreyCount: preyCount,
		PredCount: predCount,

		Births:        c.births,
		DeathsOldAge:  c.deathsOldAge,
		DeathsStarved: c.deathsStarved,
		DeathsIllness: c.deathsIllness,
		DeathsEaten:   c.deathsEaten,
		Feeds:         c.feeds,
		Kills:         c.kills,
		ScoreDelta:    c.scoreDelta,
		NameFallbacks: c.nameFallbacks,

		EnergyMean: energyMean,
		EnergyP10:  energyP10,
		EnergyP50:  energyP50,
		EnergyP90:  energyP90,
		AgeMean:    ageMean,
		AgeP50:     ageP50,
	}

	c.windowStartTick = currentTick
	c.births = 0
	c.deathsOldAge = 0
	c.deathsStarved = 0
	c.deathsIllness = 0
	c.deathsEaten = 0
	c.feeds = 0
	c.kills = 0
	c.scoreDelta = 0
	c.nameFallbacks = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
