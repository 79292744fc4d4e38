package systems

import (
	"math/rand"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
)

// CheckMortality applies the death checks for one living fish, in
// precedence order: old age, starvation, then the sudden illness roll.
// Returns the reason and true when the fish dies this tick. Being eaten
// is resolved by the feeding pass, not here.
func CheckMortality(fish *components.Fish, energy *components.Energy, rng *rand.Rand) (components.DeathReason, bool) {
	if !energy.Alive {
		return components.ReasonNone, false
	}

	cfg := config.Cfg()

	var reason components.DeathReason
	switch {
	case energy.Age >= fish.Lifespan:
		reason = components.ReasonOldAge
	case energy.Value <= 0:
		reason = components.ReasonStarved
	case rng.Float64() < float64(cfg.Derived.IllnessPerTick):
		reason = components.ReasonIllness
	default:
		return components.ReasonNone, false
	}

	energy.Alive = false
	fish.Reason = reason
	return reason, true
}

// UpdateCorpse marks a drifting corpse gone once it clears the surface.
// The cleanup pass removes it afterward.
func UpdateCorpse(fish *components.Fish, pos *components.Position, body *components.Body) {
	if fish.Gone || fish.Eaten {
		return
	}
	if pos.Y+body.Radius < 0 {
		fish.Gone = true
	}
}
