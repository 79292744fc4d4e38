package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/species"
)

// FeedResult reports what the feeding pass consumed this tick.
type FeedResult struct {
	Pellets int          // pellets swallowed, one score point each
	Kills   []ecs.Entity // prey flagged eaten, removed at cleanup
}

// FeedingSystem resolves mouth contact: fish swallowing pellets and
// predators finishing a hunt. Eating a pellet interrupts whatever the
// fish was doing, except a tantrum, which blocks feeding entirely.
type FeedingSystem struct {
	filter     ecs.Filter4[components.Position, components.Body, components.Energy, components.Fish]
	targetsMap *ecs.Map[components.Targets]
	posMap     *ecs.Map1[components.Position]
	bodyMap    *ecs.Map1[components.Body]
	energyMap  *ecs.Map1[components.Energy]
	fishMap    *ecs.Map1[components.Fish]

	catalog []species.Species
}

// NewFeedingSystem creates a feeding system over the given world.
func NewFeedingSystem(w *ecs.World, catalog []species.Species) *FeedingSystem {
	return &FeedingSystem{
		filter:     *ecs.NewFilter4[components.Position, components.Body, components.Energy, components.Fish](w),
		targetsMap: ecs.NewMap[components.Targets](w),
		posMap:     ecs.NewMap1[components.Position](w),
		bodyMap:    ecs.NewMap1[components.Body](w),
		energyMap:  ecs.NewMap1[components.Energy](w),
		fishMap:    ecs.NewMap1[components.Fish](w),
		catalog:    catalog,
	}
}

// Update resolves all feeding contacts for one tick.
func (s *FeedingSystem) Update(w *ecs.World, food *FoodSystem, rng *rand.Rand) FeedResult {
	var result FeedResult

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, body, energy, fish := query.Get()
		if !energy.Alive {
			continue
		}

		if fish.State != components.BehaviorTantrum && fish.FeedCooldown <= 0 {
			if s.tryEatPellet(pos, body, energy, fish, food, rng) {
				result.Pellets++
			}
		}

		if s.catalog[fish.Species].Predator && fish.State != components.BehaviorTantrum {
			if prey, ok := s.tryResolveHunt(w, entity, pos, body, energy, fish, rng); ok {
				result.Kills = append(result.Kills, prey)
			}
		}
	}
	return result
}

// tryEatPellet swallows the nearest pellet in mouth range, if any.
// The pellet is claimed atomically so two fish sharing a contact never
// split one pellet.
func (s *FeedingSystem) tryEatPellet(pos *components.Position, body *components.Body, energy *components.Energy, fish *components.Fish, food *FoodSystem, rng *rand.Rand) bool {
	reach := body.Radius + pelletRadius
	i := food.Nearest(pos.X, pos.Y, reach)
	if i < 0 || !food.Consume(i) {
		return false
	}
	baseSize := float32(s.catalog[fish.Species].Size)
	ApplyFeed(fish, energy, body, baseSize, rng)
	return true
}

// tryResolveHunt checks whether the predator's hunt target is within
// bite range and, if so, consumes it. The prey dies immediately; the
// predator gains energy and starts its hunt cooldown.
func (s *FeedingSystem) tryResolveHunt(w *ecs.World, entity ecs.Entity, pos *components.Position, body *components.Body, energy *components.Energy, fish *components.Fish, rng *rand.Rand) (ecs.Entity, bool) {
	var zero ecs.Entity
	targets := s.targetsMap.Get(entity)
	if targets == nil || targets.Hunt == zero {
		return zero, false
	}

	prey := targets.Hunt
	if !w.Alive(prey) {
		targets.Hunt = zero
		return zero, false
	}
	preyPos := s.posMap.Get(prey)
	preyBody := s.bodyMap.Get(prey)
	preyEnergy := s.energyMap.Get(prey)
	preyFish := s.fishMap.Get(prey)
	if preyPos == nil || preyBody == nil || preyEnergy == nil || preyFish == nil || !preyEnergy.Alive {
		targets.Hunt = zero
		return zero, false
	}

	reach := body.Radius + preyBody.Radius
	if distanceSq(pos.X, pos.Y, preyPos.X, preyPos.Y) > reach*reach {
		return zero, false
	}

	cfg := config.Cfg()

	preyEnergy.Alive = false
	preyFish.Reason = components.ReasonEaten
	preyFish.Eaten = true

	energy.Value += float32(cfg.Energy.HuntGain)
	if energy.Value > float32(cfg.Energy.Max) {
		energy.Value = float32(cfg.Energy.Max)
	}
	fish.SinceFeed = 0
	fish.HuntCooldown = SampleRange(rng, cfg.Hunting.CooldownMin, cfg.Hunting.CooldownMax)
	targets.Hunt = zero

	return prey, true
}
