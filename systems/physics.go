package systems

import (
	"math"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float32
}

// Integrate advances one fish by a tick: accumulated force into
// velocity, speed clamp, position step, wall handling, and animation
// state. The force accumulator is consumed and zeroed; the boost
// ceiling resets to 1 for the next tick.
//
// Corpses ignore steering and walls. They ease into a slow upward
// drift until the cleanup pass collects them above the surface.
func Integrate(pos *components.Position, vel *components.Velocity, accel *components.Accel, rot *components.Rotation, body *components.Body, energy *components.Energy, fish *components.Fish, speciesSpeed, baseSize float32, bounds Bounds, dt float32) {
	cfg := config.Cfg()

	if !energy.Alive {
		driftSpeed := float32(cfg.Death.DriftSpeed)
		ease := float32(cfg.Death.DriftEase)
		vel.Y += (-driftSpeed - vel.Y) * ease * dt
		vel.X *= 0.98
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		rot.TailPhase = 0
		accel.X, accel.Y = 0, 0
		accel.Boost = 1
		return
	}

	vel.X += accel.X * dt
	vel.Y += accel.Y * dt

	boost := accel.Boost
	if boost < 1 {
		boost = 1
	}
	ceiling := MaxSpeed(speciesSpeed, baseSize, body.Radius) * boost * EnergyFactor(*energy) * fish.Digest

	speed := fastSqrt(vel.X*vel.X + vel.Y*vel.Y)
	if speed > ceiling && speed > 0 {
		scale := ceiling / speed
		vel.X *= scale
		vel.Y *= scale
		speed = ceiling
	}

	pos.X += vel.X * dt
	pos.Y += vel.Y * dt

	reflectWalls(pos, vel, energy, body.Radius, bounds)

	// Ease heading toward travel direction; below a crawl the fish
	// holds its last heading instead of spinning on float noise.
	if speed > 1 {
		target := float32(math.Atan2(float64(vel.Y), float64(vel.X)))
		rot.Heading = easeAngle(rot.Heading, target, float32(cfg.Physics.TurnRate)*dt)
	}

	rot.TailPhase += speed * float32(cfg.Physics.TailRate) * dt
	if rot.TailPhase > 2*math.Pi {
		rot.TailPhase -= 2 * math.Pi
	}

	accel.X, accel.Y = 0, 0
	accel.Boost = 1
}

// reflectWalls clamps a fish inside the tank and bounces it off the
// glass with damping. Hitting a wall costs a little energy.
func reflectWalls(pos *components.Position, vel *components.Velocity, energy *components.Energy, radius float32, bounds Bounds) {
	cfg := config.Cfg()
	damping := float32(cfg.Physics.BounceDamping)
	cost := float32(cfg.Physics.BounceCost)
	hit := false

	if pos.X < radius {
		pos.X = radius
		vel.X = -vel.X * damping
		hit = true
	}
	if pos.X > bounds.Width-radius {
		pos.X = bounds.Width - radius
		vel.X = -vel.X * damping
		hit = true
	}
	if pos.Y < radius {
		pos.Y = radius
		vel.Y = -vel.Y * damping
		hit = true
	}
	if pos.Y > bounds.Height-radius {
		pos.Y = bounds.Height - radius
		vel.Y = -vel.Y * damping
		hit = true
	}

	if hit {
		energy.Value -= cost
		if energy.Value < 0 {
			energy.Value = 0
		}
	}
}
