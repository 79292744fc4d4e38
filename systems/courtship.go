package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/species"
)

// FishCreator spawns a newborn of the given catalog species at a
// position and returns its entity.
type FishCreator func(speciesIdx int, x, y float32) ecs.Entity

// BirthRecord reports one successful pairing.
type BirthRecord struct {
	ParentA, ParentB ecs.Entity
	Species          int
	Babies           []ecs.Entity
}

// CourtshipSystem runs the mating state machine: periodic interest
// rolls, partner selection, and the contact moment that produces
// offspring. Interest rolls stop above the population soft ceiling;
// pairs already formed still finish.
type CourtshipSystem struct {
	filter     ecs.Filter4[components.Position, components.Body, components.Energy, components.Fish]
	targetsMap *ecs.Map[components.Targets]
	posMap     *ecs.Map1[components.Position]
	bodyMap    *ecs.Map1[components.Body]
	energyMap  *ecs.Map1[components.Energy]
	fishMap    *ecs.Map1[components.Fish]

	catalog []species.Species
	rng     *rand.Rand
}

// NewCourtshipSystem creates a courtship system over the given world.
func NewCourtshipSystem(w *ecs.World, catalog []species.Species, rng *rand.Rand) *CourtshipSystem {
	return &CourtshipSystem{
		filter:     *ecs.NewFilter4[components.Position, components.Body, components.Energy, components.Fish](w),
		targetsMap: ecs.NewMap[components.Targets](w),
		posMap:     ecs.NewMap1[components.Position](w),
		bodyMap:    ecs.NewMap1[components.Body](w),
		energyMap:  ecs.NewMap1[components.Energy](w),
		fishMap:    ecs.NewMap1[components.Fish](w),
		catalog:    catalog,
		rng:        rng,
	}
}

type courter struct {
	entity ecs.Entity
	pos    *components.Position
	body   *components.Body
	energy *components.Energy
	fish   *components.Fish
}

// Update advances courtship for one tick. New offspring are spawned
// through create; the returned records carry parents and babies so the
// caller can raise birth events and hand out names.
func (s *CourtshipSystem) Update(w *ecs.World, grid *SpatialGrid, population int, create FishCreator) []BirthRecord {
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	// Collect living fish once; contact checks and rolls both need the
	// full set.
	var courters []courter
	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, body, energy, fish := query.Get()
		if !energy.Alive {
			continue
		}
		courters = append(courters, courter{entity: entity, pos: pos, body: body, energy: energy, fish: fish})
	}

	var births []BirthRecord
	spawned := make(map[ecs.Entity]bool)

	// Resolve contacts for pairs formed on earlier ticks
	for i := range courters {
		c := &courters[i]
		if spawned[c.entity] {
			continue
		}
		targets := s.targetsMap.Get(c.entity)
		if targets == nil {
			continue
		}
		var zero ecs.Entity
		partner := targets.Court
		if partner == zero || spawned[partner] || !w.Alive(partner) {
			continue
		}
		pPos := s.posMap.Get(partner)
		pBody := s.bodyMap.Get(partner)
		pEnergy := s.energyMap.Get(partner)
		pFish := s.fishMap.Get(partner)
		if pPos == nil || pBody == nil || pEnergy == nil || pFish == nil || !pEnergy.Alive {
			continue
		}

		reach := c.body.Radius + pBody.Radius + float32(cfg.Courtship.ContactSlack)
		if distanceSq(c.pos.X, c.pos.Y, pPos.X, pPos.Y) > reach*reach {
			continue
		}

		rec := s.spawnBrood(c, pPos, pFish, partner, create)
		births = append(births, rec)
		spawned[c.entity] = true
		spawned[partner] = true

		targets.Court = zero
		if pTargets := s.targetsMap.Get(partner); pTargets != nil {
			pTargets.Court = zero
		}
	}

	// Interest rolls for unpaired fish
	for i := range courters {
		c := &courters[i]
		if spawned[c.entity] {
			continue
		}

		c.fish.CourtTimer -= dt
		if c.fish.CourtTimer > 0 {
			continue
		}
		c.fish.CourtTimer = float32(cfg.Courtship.CheckInterval)

		if population >= cfg.Population.SoftCap {
			continue
		}
		if !s.eligible(c) {
			continue
		}
		targets := s.targetsMap.Get(c.entity)
		if targets == nil {
			continue
		}
		var zero ecs.Entity
		if targets.Court != zero {
			continue
		}

		chance := cfg.Courtship.Chance
		if s.catalog[c.fish.Species].Predator {
			chance = cfg.Courtship.PredatorChance
		}
		if s.rng.Float64() >= chance {
			continue
		}

		partner, ok := s.findPartner(grid, c)
		if !ok {
			continue
		}
		targets.Court = partner
		if pTargets := s.targetsMap.Get(partner); pTargets != nil {
			pTargets.Court = c.entity
		}
	}

	return births
}

// eligible reports whether a fish may start courting: fed up, grown up,
// and off cooldown.
func (s *CourtshipSystem) eligible(c *courter) bool {
	cfg := config.Cfg()
	if c.energy.Value < float32(cfg.Energy.CourtThreshold) {
		return false
	}
	if c.energy.Age < float32(cfg.Courtship.MatureAge) {
		return false
	}
	if c.fish.ReproCooldown > 0 {
		return false
	}
	switch c.fish.State {
	case components.BehaviorFleeing, components.BehaviorHunting, components.BehaviorTantrum:
		return false
	}
	return true
}

// findPartner returns the nearest unpaired same-species fish in
// courtship range that is itself eligible. The grid only holds living
// fish, so candidates need no separate liveness check.
func (s *CourtshipSystem) findPartner(grid *SpatialGrid, c *courter) (ecs.Entity, bool) {
	cfg := config.Cfg()
	radius := float32(cfg.Courtship.Radius)

	neighbors := grid.QueryBlockInto(nil, c.pos.X, c.pos.Y, c.entity, s.posMap)

	var zero ecs.Entity
	var best ecs.Entity
	bestSq := radius * radius
	found := false
	for i := range neighbors {
		nb := &neighbors[i]
		if nb.DistSq > bestSq {
			continue
		}
		f := s.fishMap.Get(nb.E)
		if f == nil || f.Species != c.fish.Species || f.ReproCooldown > 0 {
			continue
		}
		e := s.energyMap.Get(nb.E)
		if e == nil || !e.Alive {
			continue
		}
		if e.Value < float32(cfg.Energy.CourtThreshold) || e.Age < float32(cfg.Courtship.MatureAge) {
			continue
		}
		if t := s.targetsMap.Get(nb.E); t == nil || t.Court != zero {
			continue
		}
		best = nb.E
		bestSq = nb.DistSq
		found = true
	}
	return best, found
}

// spawnBrood creates the offspring, charges both parents their
// cooldown, and bumps their brood counters.
func (s *CourtshipSystem) spawnBrood(c *courter, pPos *components.Position, pFish *components.Fish, partner ecs.Entity, create FishCreator) BirthRecord {
	cfg := config.Cfg()

	count := cfg.Courtship.OffspringMin
	if span := cfg.Courtship.OffspringMax - cfg.Courtship.OffspringMin; span > 0 {
		count += s.rng.Intn(span + 1)
	}

	midX := (c.pos.X + pPos.X) / 2
	midY := (c.pos.Y + pPos.Y) / 2
	jitter := float32(cfg.Courtship.SpawnJitter)

	rec := BirthRecord{
		ParentA: c.entity,
		ParentB: partner,
		Species: c.fish.Species,
	}
	for i := 0; i < count; i++ {
		x := midX + SampleRange(s.rng, -float64(jitter), float64(jitter))
		y := midY + SampleRange(s.rng, -float64(jitter), float64(jitter))
		rec.Babies = append(rec.Babies, create(c.fish.Species, x, y))
	}

	c.fish.ReproCooldown = SampleRange(s.rng, cfg.Courtship.CooldownMin, cfg.Courtship.CooldownMax)
	pFish.ReproCooldown = SampleRange(s.rng, cfg.Courtship.CooldownMin, cfg.Courtship.CooldownMax)
	c.fish.Offspring += uint16(count)
	pFish.Offspring += uint16(count)

	return rec
}
