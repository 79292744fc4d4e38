// Package components defines ECS components for the simulation.
package components

import "github.com/mlange-42/ark/ecs"

// Position is an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity is an entity's velocity in units per second.
type Velocity struct {
	X, Y float32
}

// Accel accumulates steering forces for one tick.
// The integrator applies it to velocity and zeroes it; no force survives
// across ticks.
type Accel struct {
	X, Y  float32
	Boost float32 // speed ceiling multiplier this tick (pursuit/flee bursts)
}

// Rotation holds display orientation state. Animation only; physics reads
// velocity directly.
type Rotation struct {
	Heading   float32 // radians, eased toward velocity direction
	TailPhase float32 // advances proportionally to speed
}

// Body holds physical size.
type Body struct {
	Radius float32 // grows with feeding, capped relative to species base size
}

// Energy tracks hunger and age.
type Energy struct {
	Value float32 // current energy, 0..max
	Age   float32 // seconds alive
	Alive bool
}

// DeathReason records why an agent died.
type DeathReason uint8

const (
	ReasonNone DeathReason = iota
	ReasonOldAge
	ReasonStarved
	ReasonIllness
	ReasonEaten
)

func (r DeathReason) String() string {
	switch r {
	case ReasonOldAge:
		return "old age"
	case ReasonStarved:
		return "starved"
	case ReasonIllness:
		return "sudden illness"
	case ReasonEaten:
		return "eaten"
	default:
		return "none"
	}
}

// Behavior identifies the steering mode chosen for the current tick.
type Behavior uint8

const (
	BehaviorIdle Behavior = iota // flocking and wander
	BehaviorSeekingFood
	BehaviorCourting
	BehaviorHunting
	BehaviorFleeing
	BehaviorTantrum
)

func (b Behavior) String() string {
	switch b {
	case BehaviorSeekingFood:
		return "seeking-food"
	case BehaviorCourting:
		return "courting"
	case BehaviorHunting:
		return "hunting"
	case BehaviorFleeing:
		return "fleeing"
	case BehaviorTantrum:
		return "tantrum"
	default:
		return "idle"
	}
}

// Fish carries per-agent state beyond the motion components.
type Fish struct {
	SpawnID  uint64  // world-assigned sequence, keys async naming
	Species  int     // catalog index, immutable
	Name     string  // flavor name; may be refined asynchronously
	Lifespan float32 // seconds, sampled once at birth from the species range

	State  Behavior
	Reason DeathReason
	Eaten  bool // terminal: consumed by a predator, removed next cleanup
	Gone   bool // terminal: corpse drifted past the top bound

	FeedCooldown  float32 // seconds until the next feed attempt is allowed
	SinceFeed     float32 // seconds since the last meal
	Digest        float32 // speed factor recovering toward 1 after a meal
	HuntCooldown  float32 // predators: minimum inter-hunt interval remaining
	ReproCooldown float32 // seconds until courtship is allowed again
	CourtTimer    float32 // seconds until the next courtship roll
	Offspring     uint16

	// Flocking force cached between staggered recomputes.
	FlockX, FlockY float32
	WanderSeed     float32 // per-agent row in the noise field
}

// Targets holds weak references to other agents. Entities are generational
// ids; every holder re-validates liveness and range each tick before use
// and clears stale references silently.
type Targets struct {
	Hunt  ecs.Entity
	Court ecs.Entity
	Rival ecs.Entity
}
