package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/systems"
	"github.com/pthm-cable/tank/telemetry"
)

// Step advances the simulation by one fixed tick: naming results,
// spatial index, food, upkeep and mortality, steering, integration,
// feeding contacts, courtship, corpse cleanup, then events and
// telemetry.
func (w *World) Step() {
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	w.perf.StartTick()
	w.tick++

	w.perf.StartPhase(telemetry.PhaseTelemetry)
	w.drainNames()

	w.perf.StartPhase(telemetry.PhaseSpatial)
	w.rebuildGrid()

	w.perf.StartPhase(telemetry.PhaseFood)
	w.updateFood(dt)

	w.perf.StartPhase(telemetry.PhaseMortality)
	w.updateMortality(dt)

	w.perf.StartPhase(telemetry.PhaseBehavior)
	w.behavior.Update(w.world, w.tick, w.grid, w.food)

	w.perf.StartPhase(telemetry.PhasePhysics)
	w.updatePhysics(dt)

	w.perf.StartPhase(telemetry.PhaseFeeding)
	w.updateFeeding()

	w.perf.StartPhase(telemetry.PhaseCourtship)
	w.updateCourtship()

	w.perf.StartPhase(telemetry.PhaseCleanup)
	w.cleanupRemoved()

	w.perf.StartPhase(telemetry.PhaseTelemetry)
	w.flushEvents()
	if w.collector.ShouldFlush(w.tick) {
		w.flushTelemetry()
	}

	w.perf.EndTick()
}

// rebuildGrid refreshes the neighbor index with living fish only.
// Corpses are invisible to steering and courtship.
func (w *World) rebuildGrid() {
	w.grid.Clear()
	query := w.entityFilter.Query()
	for query.Next() {
		pos, _, _, _, _, energy, _ := query.Get()
		if !energy.Alive {
			continue
		}
		w.grid.Insert(query.Entity(), pos.X, pos.Y)
	}
}

// updateFood runs the periodic feeder and advances pellet physics.
func (w *World) updateFood(dt float32) {
	if w.autoFeed {
		w.autoFeedTimer -= dt
		if w.autoFeedTimer <= 0 {
			w.food.Add(w.rng.Float32()*w.bounds.Width, 0)
			w.autoFeedTimer = float32(config.Cfg().Food.AutofeedInterval)
		}
	}
	w.food.Update(dt)
}

// updateMortality applies metabolic upkeep, resolves deaths from old
// age, starvation, and illness, and advances corpse drift.
func (w *World) updateMortality(dt float32) {
	query := w.entityFilter.Query()
	for query.Next() {
		pos, vel, _, _, body, energy, fish := query.Get()

		systems.UpdateUpkeep(fish, energy, *vel, dt)

		if energy.Alive {
			if reason, died := systems.CheckMortality(fish, energy, w.rng); died {
				w.recordDeath(fish, energy, reason)
			}
		} else {
			systems.UpdateCorpse(fish, pos, body)
		}
	}
}

// updatePhysics integrates motion for every fish, corpses included.
func (w *World) updatePhysics(dt float32) {
	query := w.entityFilter.Query()
	for query.Next() {
		pos, vel, accel, rot, body, energy, fish := query.Get()
		sp := &w.catalog[fish.Species]
		systems.Integrate(pos, vel, accel, rot, body, energy, fish,
			float32(sp.Speed), float32(sp.Size), w.bounds, dt)
	}
}

// updateFeeding resolves pellet and hunt contacts, then applies score
// and death bookkeeping for the results.
func (w *World) updateFeeding() {
	cfg := config.Cfg()
	result := w.feeding.Update(w.world, w.food, w.rng)

	if result.Pellets > 0 {
		w.collector.RecordFeeds(result.Pellets)
		delta := int64(result.Pellets) * int64(cfg.Feeding.ScorePerFeed)
		if delta != 0 {
			w.score += delta
			w.scoreDirty = true
			w.collector.RecordScore(delta)
		}
	}

	for _, prey := range result.Kills {
		fish := w.fishMap.Get(prey)
		energy := w.energyMap.Get(prey)
		w.collector.RecordKill()
		w.recordDeath(fish, energy, components.ReasonEaten)
	}
}

// updateCourtship runs the mating pass and raises birth events for
// each delivered brood.
func (w *World) updateCourtship() {
	records := w.courtship.Update(w.world, w.grid, w.aliveCount, w.spawnNewborn)
	for i := range records {
		rec := &records[i]
		w.collector.RecordBirths(len(rec.Babies))

		ev := BirthEvent{
			Species: w.catalog[rec.Species].ID,
			ParentA: w.fishMap.Get(rec.ParentA).Name,
			ParentB: w.fishMap.Get(rec.ParentB).Name,
			Babies:  make([]string, len(rec.Babies)),
		}
		for j, baby := range rec.Babies {
			ev.Babies[j] = w.fishMap.Get(baby).Name
		}
		w.queueBirth(ev)
	}
}

// cleanupRemoved deletes eaten fish and corpses that drifted out of
// the tank. Collect first; entity removal invalidates the query.
func (w *World) cleanupRemoved() {
	type removed struct {
		entity  ecs.Entity
		spawnID uint64
	}
	var toRemove []removed

	query := w.entityFilter.Query()
	for query.Next() {
		_, _, _, _, _, _, fish := query.Get()
		if fish.Eaten || fish.Gone {
			toRemove = append(toRemove, removed{entity: query.Entity(), spawnID: fish.SpawnID})
		}
	}

	for _, dead := range toRemove {
		delete(w.pendingNames, dead.spawnID)
		w.targetsMap.Remove(dead.entity)
		w.entityMapper.Remove(dead.entity)
	}
}

// recordDeath updates live counts and buffers the death event. The
// fish components must still be resident; removal happens at cleanup.
func (w *World) recordDeath(fish *components.Fish, energy *components.Energy, reason components.DeathReason) {
	w.counts[fish.Species]--
	w.aliveCount--
	w.popDirty = true
	w.collector.RecordDeath(reason)
	w.queueDeath(DeathEvent{
		Name:    fish.Name,
		Species: w.catalog[fish.Species].ID,
		Age:     energy.Age,
		Reason:  reason,
	})
}
