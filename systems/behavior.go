package systems

import (
	"github.com/mlange-42/ark/ecs"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
	"github.com/pthm-cable/tank/species"
)

// BehaviorSystem picks a steering mode for every living fish each tick
// and writes the resulting force into Accel. Selection is strict
// precedence: tantrum beats hunting beats fleeing beats courting beats
// food seeking beats schooling. The first matching mode wins the tick.
type BehaviorSystem struct {
	filter     ecs.Filter6[components.Position, components.Velocity, components.Accel, components.Body, components.Energy, components.Fish]
	targetsMap *ecs.Map[components.Targets]
	posMap     *ecs.Map1[components.Position]
	velMap     *ecs.Map1[components.Velocity]
	bodyMap    *ecs.Map1[components.Body]
	energyMap  *ecs.Map1[components.Energy]
	fishMap    *ecs.Map1[components.Fish]

	catalog []species.Species
	bounds  Bounds
	noise   opensimplex.Noise
	scratch []Neighbor
}

// NewBehaviorSystem creates a behavior system over the given world.
// The noise seed drives wander; same seed, same currents.
func NewBehaviorSystem(w *ecs.World, bounds Bounds, catalog []species.Species, seed int64) *BehaviorSystem {
	return &BehaviorSystem{
		filter:     *ecs.NewFilter6[components.Position, components.Velocity, components.Accel, components.Body, components.Energy, components.Fish](w),
		targetsMap: ecs.NewMap[components.Targets](w),
		posMap:     ecs.NewMap1[components.Position](w),
		velMap:     ecs.NewMap1[components.Velocity](w),
		bodyMap:    ecs.NewMap1[components.Body](w),
		energyMap:  ecs.NewMap1[components.Energy](w),
		fishMap:    ecs.NewMap1[components.Fish](w),
		catalog:    catalog,
		bounds:     bounds,
		noise:      opensimplex.New(seed),
		scratch:    make([]Neighbor, 0, MaxQueryResults),
	}
}

// Update runs behavior selection and steering for all living fish.
// Schooling forces are recomputed on a rotating subset of agents each
// tick; the rest reuse their cached force so cost stays flat as the
// tank fills up.
func (s *BehaviorSystem) Update(w *ecs.World, tick int64, grid *SpatialGrid, food *FoodSystem) {
	cfg := config.Cfg()
	dt := cfg.Derived.DT32
	stride := int64(cfg.Behavior.FlockStride)
	if stride < 1 {
		stride = 1
	}

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, accel, body, energy, fish := query.Get()
		if !energy.Alive {
			continue
		}

		targets := s.targetsMap.Get(entity)
		s.pruneTargets(w, pos, targets)

		sp := &s.catalog[fish.Species]
		maxSpeed := MaxSpeed(float32(sp.Speed), float32(sp.Size), body.Radius)
		maxForce := MaxForce(float32(sp.Speed))

		s.scratch = grid.QueryBlockInto(s.scratch[:0], pos.X, pos.Y, entity, s.posMap)

		if s.tryTantrum(pos, vel, accel, energy, fish, targets, sp, maxSpeed, maxForce) {
			continue
		}
		if s.tryHunt(pos, vel, accel, body, energy, fish, targets, sp, maxSpeed, maxForce) {
			continue
		}
		if s.tryFlee(pos, vel, accel, fish, sp, maxSpeed, maxForce) {
			continue
		}
		if s.tryCourt(pos, vel, accel, fish, targets, maxSpeed, maxForce) {
			continue
		}
		if s.trySeekFood(pos, vel, accel, energy, fish, food, maxSpeed, maxForce) {
			continue
		}

		// Default: school with conspecifics, wander, stay off the glass
		fish.State = components.BehaviorIdle
		if (tick+int64(entity.ID()))%stride == 0 {
			flock := s.flockForce(vel, fish, maxSpeed, maxForce)
			fish.FlockX = flock.X
			fish.FlockY = flock.Y
		}
		force := Vec2{X: fish.FlockX, Y: fish.FlockY}
		force = force.Add(s.wanderForce(tick, dt, fish, maxForce))
		force = force.Add(s.boundsForce(pos, maxForce))
		accel.X += force.X
		accel.Y += force.Y
		accel.Boost = 1
	}
}

// pruneTargets clears references that died, despawned, or drifted out
// of awareness range. Holders never observe a stale target.
func (s *BehaviorSystem) pruneTargets(w *ecs.World, pos *components.Position, t *components.Targets) {
	if t == nil {
		return
	}
	cfg := config.Cfg()
	t.Hunt = s.pruneRef(w, pos, t.Hunt, float32(cfg.Hunting.Range)*1.5)
	t.Court = s.pruneRef(w, pos, t.Court, float32(cfg.Courtship.Radius)*1.5)
	t.Rival = s.pruneRef(w, pos, t.Rival, float32(cfg.Hunting.RivalRadius))
}

func (s *BehaviorSystem) pruneRef(w *ecs.World, pos *components.Position, target ecs.Entity, keepRange float32) ecs.Entity {
	var zero ecs.Entity
	if target == zero {
		return zero
	}
	if !w.Alive(target) {
		return zero
	}
	tp := s.posMap.Get(target)
	te := s.energyMap.Get(target)
	if tp == nil || te == nil || !te.Alive {
		return zero
	}
	if distanceSq(pos.X, pos.Y, tp.X, tp.Y) > keepRange*keepRange {
		return zero
	}
	return target
}

// tryTantrum handles a hungry predator crowding a same-species rival:
// it chases the rival instead of hunting, and ignores food until the
// rival leaves or hunger passes.
func (s *BehaviorSystem) tryTantrum(pos *components.Position, vel *components.Velocity, accel *components.Accel, energy *components.Energy, fish *components.Fish, targets *components.Targets, sp *species.Species, maxSpeed, maxForce float32) bool {
	cfg := config.Cfg()
	if !sp.Predator || energy.Value >= float32(cfg.Hunting.Hunger) {
		return false
	}

	var zero ecs.Entity
	rival := targets.Rival
	if rival == zero {
		rival, _ = s.findRival(fish.Species, float32(cfg.Hunting.RivalRadius))
	}
	if rival == zero {
		return false
	}

	rp := s.posMap.Get(rival)
	if rp == nil {
		return false
	}
	targets.Rival = rival
	fish.State = components.BehaviorTantrum
	s.pursue(pos, vel, accel, rp.X, rp.Y, maxSpeed, maxForce, float32(cfg.Hunting.Boost))
	return true
}

// tryHunt steers a hungry predator at the nearest small enough fish.
func (s *BehaviorSystem) tryHunt(pos *components.Position, vel *components.Velocity, accel *components.Accel, body *components.Body, energy *components.Energy, fish *components.Fish, targets *components.Targets, sp *species.Species, maxSpeed, maxForce float32) bool {
	cfg := config.Cfg()
	if !sp.Predator || energy.Value >= float32(cfg.Hunting.Hunger) || fish.HuntCooldown > 0 {
		return false
	}

	var zero ecs.Entity
	target := targets.Hunt
	if target == zero {
		target, _ = s.findPrey(fish.Species, body.Radius, float32(cfg.Hunting.Range))
	}
	if target == zero {
		return false
	}

	tp := s.posMap.Get(target)
	if tp == nil {
		return false
	}
	targets.Hunt = target
	fish.State = components.BehaviorHunting
	s.pursue(pos, vel, accel, tp.X, tp.Y, maxSpeed, maxForce, float32(cfg.Hunting.Boost))
	return true
}

// tryFlee sends prey away from nearby predators. A recently fed fish
// stays put; a full belly outweighs caution.
func (s *BehaviorSystem) tryFlee(pos *components.Position, vel *components.Velocity, accel *components.Accel, fish *components.Fish, sp *species.Species, maxSpeed, maxForce float32) bool {
	cfg := config.Cfg()
	if sp.Predator || fish.SinceFeed <= float32(cfg.Feeding.SatedWindow) {
		return false
	}

	threat, ok := s.threatVector(float32(cfg.Behavior.FleeRange))
	if !ok {
		return false
	}

	fish.State = components.BehaviorFleeing
	boost := float32(cfg.Behavior.FleeBoost)
	desired := threat.Scale(-1).Norm().Scale(maxSpeed * boost)
	force := desired.Sub(Vec2{X: vel.X, Y: vel.Y}).Limit(maxForce)
	accel.X += force.X
	accel.Y += force.Y
	accel.Boost = boost
	return true
}

// tryCourt steers toward an agreed partner. Pair formation and the
// actual spawn live in the courtship system; this only closes distance.
func (s *BehaviorSystem) tryCourt(pos *components.Position, vel *components.Velocity, accel *components.Accel, fish *components.Fish, targets *components.Targets, maxSpeed, maxForce float32) bool {
	var zero ecs.Entity
	if targets.Court == zero {
		return false
	}
	tp := s.posMap.Get(targets.Court)
	if tp == nil {
		return false
	}
	fish.State = components.BehaviorCourting
	s.pursue(pos, vel, accel, tp.X, tp.Y, maxSpeed, maxForce, 1)
	return true
}

// trySeekFood steers a hungry fish at the nearest pellet in search
// range.
func (s *BehaviorSystem) trySeekFood(pos *components.Position, vel *components.Velocity, accel *components.Accel, energy *components.Energy, fish *components.Fish, food *FoodSystem, maxSpeed, maxForce float32) bool {
	cfg := config.Cfg()
	if energy.Value >= float32(cfg.Feeding.Hunger) || fish.FeedCooldown > 0 {
		return false
	}
	i := food.Nearest(pos.X, pos.Y, float32(cfg.Feeding.SearchRadius))
	if i < 0 {
		return false
	}
	p := &food.Pellets[i]
	fish.State = components.BehaviorSeekingFood
	s.pursue(pos, vel, accel, p.X, p.Y, maxSpeed, maxForce, 1)
	return true
}

// pursue applies a seek force toward (tx, ty) and raises the speed
// ceiling for this tick by boost.
func (s *BehaviorSystem) pursue(pos *components.Position, vel *components.Velocity, accel *components.Accel, tx, ty, maxSpeed, maxForce, boost float32) {
	desired := Vec2{X: tx - pos.X, Y: ty - pos.Y}.Norm().Scale(maxSpeed * boost)
	force := desired.Sub(Vec2{X: vel.X, Y: vel.Y}).Limit(maxForce)
	accel.X += force.X
	accel.Y += force.Y
	if boost > accel.Boost {
		accel.Boost = boost
	}
}

// findPrey returns the nearest neighbor another species small enough to
// swallow, within the given range.
func (s *BehaviorSystem) findPrey(mySpecies int, myRadius, huntRange float32) (ecs.Entity, bool) {
	cfg := config.Cfg()
	maxPreyRadius := myRadius * float32(cfg.Hunting.PreySizeRatio)
	rangeSq := huntRange * huntRange

	var best ecs.Entity
	bestSq := rangeSq
	found := false
	for i := range s.scratch {
		nb := &s.scratch[i]
		if nb.DistSq > bestSq {
			continue
		}
		f := s.fishMap.Get(nb.E)
		if f == nil || f.Species == mySpecies {
			continue
		}
		e := s.energyMap.Get(nb.E)
		if e == nil || !e.Alive {
			continue
		}
		b := s.bodyMap.Get(nb.E)
		if b == nil || b.Radius > maxPreyRadius {
			continue
		}
		best = nb.E
		bestSq = nb.DistSq
		found = true
	}
	return best, found
}

// findRival returns the nearest same-species fish within radius.
func (s *BehaviorSystem) findRival(mySpecies int, radius float32) (ecs.Entity, bool) {
	var best ecs.Entity
	bestSq := radius * radius
	found := false
	for i := range s.scratch {
		nb := &s.scratch[i]
		if nb.DistSq > bestSq {
			continue
		}
		f := s.fishMap.Get(nb.E)
		if f == nil || f.Species != mySpecies {
			continue
		}
		e := s.energyMap.Get(nb.E)
		if e == nil || !e.Alive {
			continue
		}
		best = nb.E
		bestSq = nb.DistSq
		found = true
	}
	return best, found
}

// threatVector averages the offsets toward every predator within range.
// Fleeing fish steer against it.
func (s *BehaviorSystem) threatVector(fleeRange float32) (Vec2, bool) {
	rangeSq := fleeRange * fleeRange
	var sum Vec2
	count := 0
	for i := range s.scratch {
		nb := &s.scratch[i]
		if nb.DistSq > rangeSq {
			continue
		}
		f := s.fishMap.Get(nb.E)
		if f == nil || !s.catalog[f.Species].Predator {
			continue
		}
		e := s.energyMap.Get(nb.E)
		if e == nil || !e.Alive {
			continue
		}
		sum.X += nb.DX
		sum.Y += nb.DY
		count++
	}
	if count == 0 {
		return Vec2{}, false
	}
	return sum.Scale(1 / float32(count)), true
}

// flockForce runs the classic three-rule school: keep apart from anyone
// too close, match conspecific velocity, drift toward the local center.
func (s *BehaviorSystem) flockForce(vel *components.Velocity, fish *components.Fish, maxSpeed, maxForce float32) Vec2 {
	cfg := config.Cfg()
	neighborSq := float32(cfg.Behavior.NeighborRadius * cfg.Behavior.NeighborRadius)
	sepSq := float32(cfg.Behavior.SeparationRadius * cfg.Behavior.SeparationRadius)

	var sep, align, coh Vec2
	var sepCount, mateCount int

	for i := range s.scratch {
		nb := &s.scratch[i]

		// Separation considers every neighbor regardless of species
		if nb.DistSq < sepSq && nb.DistSq > 0 {
			d := fastSqrt(nb.DistSq)
			sep.X -= nb.DX / d
			sep.Y -= nb.DY / d
			sepCount++
		}

		if nb.DistSq > neighborSq {
			continue
		}
		f := s.fishMap.Get(nb.E)
		if f == nil || f.Species != fish.Species {
			continue
		}
		nv := s.velMap.Get(nb.E)
		if nv == nil {
			continue
		}
		align.X += nv.X
		align.Y += nv.Y
		coh.X += nb.DX
		coh.Y += nb.DY
		mateCount++
	}

	var force Vec2
	cur := Vec2{X: vel.X, Y: vel.Y}
	if sepCount > 0 {
		desired := sep.Norm().Scale(maxSpeed)
		force = force.Add(desired.Sub(cur).Limit(maxForce).Scale(float32(cfg.Behavior.SeparationWeight)))
	}
	if mateCount > 0 {
		inv := 1 / float32(mateCount)
		desired := align.Scale(inv).Norm().Scale(maxSpeed)
		force = force.Add(desired.Sub(cur).Limit(maxForce).Scale(float32(cfg.Behavior.AlignmentWeight)))

		center := coh.Scale(inv)
		desired = center.Norm().Scale(maxSpeed)
		force = force.Add(desired.Sub(cur).Limit(maxForce).Scale(float32(cfg.Behavior.CohesionWeight)))
	}
	return force
}

// wanderForce samples a smooth noise field so idle motion meanders
// instead of jittering. Each fish walks its own row of the field.
func (s *BehaviorSystem) wanderForce(tick int64, dt float32, fish *components.Fish, maxForce float32) Vec2 {
	cfg := config.Cfg()
	t := float64(tick) * float64(dt) * cfg.Behavior.WanderFreq
	seed := float64(fish.WanderSeed)
	nx := float32(s.noise.Eval2(t, seed))
	ny := float32(s.noise.Eval2(t, seed+17.31))
	return Vec2{X: nx, Y: ny}.Scale(float32(cfg.Behavior.WanderWeight) * maxForce)
}

// boundsForce pushes fish away from the tank walls inside the margin
// band. The hard clamp in physics is the backstop; this keeps routine
// swimming off the glass.
func (s *BehaviorSystem) boundsForce(pos *components.Position, maxForce float32) Vec2 {
	cfg := config.Cfg()
	margin := float32(cfg.Behavior.BoundsMargin)
	if margin <= 0 {
		return Vec2{}
	}

	var f Vec2
	if pos.X < margin {
		f.X += (margin - pos.X) / margin
	}
	if pos.X > s.bounds.Width-margin {
		f.X -= (pos.X - (s.bounds.Width - margin)) / margin
	}
	if pos.Y < margin {
		f.Y += (margin - pos.Y) / margin
	}
	if pos.Y > s.bounds.Height-margin {
		f.Y -= (pos.Y - (s.bounds.Height - margin)) / margin
	}
	return f.Scale(float32(cfg.Behavior.BoundsWeight) * maxForce)
}
