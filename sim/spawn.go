package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/namegen"
	"github.com/pthm-cable/tank/systems"
)

// spawnAt creates a mature adult of the given species.
func (w *World) spawnAt(speciesIdx int, x, y float32) ecs.Entity {
	cfg := config.Cfg()
	sp := &w.catalog[speciesIdx]
	return w.spawnFish(speciesIdx, x, y,
		float32(sp.Size),
		float32(cfg.Energy.Start),
		float32(cfg.Courtship.MatureAge))
}

// spawnNewborn creates a just-delivered baby: small, low on energy,
// age zero. The courtship pass hands this to its spawn callback.
func (w *World) spawnNewborn(speciesIdx int, x, y float32) ecs.Entity {
	cfg := config.Cfg()
	sp := &w.catalog[speciesIdx]
	return w.spawnFish(speciesIdx, x, y,
		float32(sp.Size)*float32(cfg.Courtship.NewbornSizeFrac),
		float32(cfg.Courtship.NewbornEnergy),
		0)
}

// spawnFish creates one fish entity and kicks off its async naming
// request. Every fish gets a deterministic fallback name immediately;
// a generated name replaces it when the source delivers in time.
func (w *World) spawnFish(speciesIdx int, x, y, radius, energyVal, age float32) ecs.Entity {
	cfg := config.Cfg()
	sp := &w.catalog[speciesIdx]

	w.spawnSeq++
	key := w.spawnSeq

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	accel := components.Accel{Boost: 1}
	rot := components.Rotation{Heading: w.randomHeading()}
	body := components.Body{Radius: radius}
	energy := components.Energy{Value: energyVal, Age: age, Alive: true}
	fish := components.Fish{
		SpawnID:    key,
		Species:    speciesIdx,
		Name:       namegen.Fallback(key),
		Lifespan:   systems.SampleRange(w.rng, sp.Lifespan.Min, sp.Lifespan.Max),
		SinceFeed:  float32(cfg.Feeding.SatedWindow) + 1,
		Digest:     1,
		WanderSeed: w.rng.Float32() * 1000,
	}

	entity := w.entityMapper.NewEntity(&pos, &vel, &accel, &rot, &body, &energy, &fish)
	w.targetsMap.Add(entity, &components.Targets{})

	w.aliveCount++
	w.counts[speciesIdx]++
	w.popDirty = true

	if w.hasNameSource {
		if w.names.Request(key, sp.Name, sp.Personality) {
			w.pendingNames[key] = entity
		} else {
			w.collector.RecordNameFallback()
		}
	}

	return entity
}

// drainNames applies finished naming results. Results for fish that
// died while the request was in flight are discarded.
func (w *World) drainNames() {
	w.nameResults = w.names.Drain(w.nameResults[:0])
	for _, res := range w.nameResults {
		entity, ok := w.pendingNames[res.Key]
		if !ok {
			continue
		}
		delete(w.pendingNames, res.Key)
		if res.Fallback {
			w.collector.RecordNameFallback()
		}
		if !w.world.Alive(entity) {
			continue
		}
		if energy := w.energyMap.Get(entity); energy == nil || !energy.Alive {
			continue
		}
		w.fishMap.Get(entity).Name = res.Name
	}
}
