package systems

import (
	"math/rand"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
)

// Hot-path tuning values cached from config so per-entity helpers
// avoid repeated Cfg() lookups inside the tick loop.
var (
	cachedStarveSlow       float32
	cachedEnergyKnee       float32
	cachedDigestRecovery   float32
	cachedSizeCapRatio     float32
	cachedSizeSpeedPenalty float32
	cachedForceRatio       float32

	cacheInitialized bool
)

// InitTuningCache loads cached tuning values from config.
// Must be called after config.Init and before the first tick.
func InitTuningCache() {
	cfg := config.Cfg()
	cachedStarveSlow = float32(cfg.Energy.StarveSlow)
	cachedEnergyKnee = float32(cfg.Energy.Max) * 0.3
	cachedDigestRecovery = float32(cfg.Feeding.DigestRecovery)
	cachedSizeCapRatio = float32(cfg.Feeding.SizeCapRatio)
	cachedSizeSpeedPenalty = float32(cfg.Feeding.SizeSpeedPenalty)
	cachedForceRatio = float32(cfg.Behavior.ForceRatio)
	cacheInitialized = true
}

// UpdateUpkeep applies per-tick metabolic costs and timer decay to a
// living fish. Energy drains passively plus proportional to swim speed,
// and digestion sluggishness recovers toward 1.0. Death transitions
// happen in the mortality pass, not here.
func UpdateUpkeep(fish *components.Fish, energy *components.Energy, vel components.Velocity, dt float32) {
	if !energy.Alive {
		return
	}

	cfg := config.Cfg()

	energy.Age += dt

	speed := fastSqrt(vel.X*vel.X + vel.Y*vel.Y)
	energy.Value -= (float32(cfg.Energy.DecayRate) + float32(cfg.Energy.MoveCost)*speed) * dt
	if energy.Value < 0 {
		energy.Value = 0
	}

	fish.SinceFeed += dt

	if fish.Digest < 1 {
		fish.Digest += cachedDigestRecovery * dt
		if fish.Digest > 1 {
			fish.Digest = 1
		}
	}

	fish.FeedCooldown = tickDown(fish.FeedCooldown, dt)
	fish.HuntCooldown = tickDown(fish.HuntCooldown, dt)
	fish.ReproCooldown = tickDown(fish.ReproCooldown, dt)
}

// ApplyFeed handles a fish swallowing one pellet: energy gain capped at
// max, digestion slowdown, feed cooldown resample, and growth toward
// the species size cap. baseSize is the species' unfed body radius.
func ApplyFeed(fish *components.Fish, energy *components.Energy, body *components.Body, baseSize float32, rng *rand.Rand) {
	cfg := config.Cfg()

	energy.Value += float32(cfg.Energy.FeedGain)
	if energy.Value > float32(cfg.Energy.Max) {
		energy.Value = float32(cfg.Energy.Max)
	}

	fish.Digest = float32(cfg.Feeding.DigestSlow)
	fish.SinceFeed = 0
	fish.FeedCooldown = SampleRange(rng, cfg.Feeding.CooldownMin, cfg.Feeding.CooldownMax)

	body.Radius += float32(cfg.Feeding.GrowthPerFeed)
	maxRadius := baseSize * cachedSizeCapRatio
	if body.Radius > maxRadius {
		body.Radius = maxRadius
	}
}

// GrowthFrac reports how far a fish has grown toward its size cap,
// in [0, 1]. 0 is the unfed base size, 1 is fully grown.
func GrowthFrac(baseSize, radius float32) float32 {
	span := baseSize * (cachedSizeCapRatio - 1)
	if span <= 0 {
		return 0
	}
	return clamp01((radius - baseSize) / span)
}

// MaxSpeed returns the species speed reduced by growth. Bigger fish
// swim slightly slower.
func MaxSpeed(speciesSpeed, baseSize, radius float32) float32 {
	return speciesSpeed * (1 - cachedSizeSpeedPenalty*GrowthFrac(baseSize, radius))
}

// MaxForce returns the steering force budget for a species.
func MaxForce(speciesSpeed float32) float32 {
	return speciesSpeed * cachedForceRatio
}

// EnergyFactor scales swim speed by remaining energy. Well-fed fish
// move at full speed; an exhausted fish slows toward the starve floor.
func EnergyFactor(energy components.Energy) float32 {
	if energy.Value <= 0 {
		return cachedStarveSlow
	}
	t := clamp01(energy.Value / cachedEnergyKnee)
	return cachedStarveSlow + (1-cachedStarveSlow)*t
}

func tickDown(v, dt float32) float32 {
	v -= dt
	if v < 0 {
		return 0
	}
	return v
}
