package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/config"
)

func testBounds() Bounds {
	return Bounds{Width: 960, Height: 640}
}

// liveFish returns a healthy fish midway through the tank.
func liveFish() (components.Position, components.Velocity, components.Accel, components.Rotation, components.Body, components.Energy, components.Fish) {
	return components.Position{X: 480, Y: 320},
		components.Velocity{},
		components.Accel{Boost: 1},
		components.Rotation{},
		components.Body{Radius: 8},
		components.Energy{Value: 100, Alive: true},
		components.Fish{Digest: 1, Lifespan: 1000}
}

// ---------- Integration ----------

func TestIntegrate_AccelConsumedAndCleared(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	accel.X, accel.Y = 60, -30

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if vel.X <= 0 || vel.Y >= 0 {
		t.Errorf("velocity should follow the applied force, got (%f, %f)", vel.X, vel.Y)
	}
	if accel.X != 0 || accel.Y != 0 {
		t.Errorf("force accumulator should be zeroed, got (%f, %f)", accel.X, accel.Y)
	}
	if accel.Boost != 1 {
		t.Errorf("boost should reset to 1, got %f", accel.Boost)
	}
	if pos.X <= 480 {
		t.Errorf("position should advance with velocity, got %f", pos.X)
	}
}

func TestIntegrate_SpeedClampedToCeiling(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.X = 10000

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	// The clamp divides by a fast approximate sqrt, so allow a small
	// overshoot proportional to its error.
	speed := float32(math.Hypot(float64(vel.X), float64(vel.Y)))
	if speed > 70.5 {
		t.Errorf("speed %f should not exceed the species ceiling", speed)
	}
}

func TestIntegrate_BoostRaisesCeiling(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.X = 10000
	accel.Boost = 2

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if vel.X < 139 || vel.X > 141 {
		t.Errorf("boosted ceiling should be about 140, got %f", vel.X)
	}
}

func TestIntegrate_DigestSlowsFish(t *testing.T) {
	ensureCache()
	cfg := config.Cfg()

	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.X = 10000
	fish.Digest = float32(cfg.Feeding.DigestSlow)

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	want := 70 * float32(cfg.Feeding.DigestSlow)
	if absf(vel.X-want) > 0.5 {
		t.Errorf("digesting fish ceiling should be about %f, got %f", want, vel.X)
	}
}

func TestIntegrate_ExhaustionSlowsFish(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.X = 10000
	energy.Value = 0

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if vel.X >= 70 {
		t.Errorf("starving fish should move below full speed, got %f", vel.X)
	}
}

// ---------- Walls ----------

func TestIntegrate_WallBounceDampsAndCosts(t *testing.T) {
	ensureCache()
	cfg := config.Cfg()

	pos, vel, accel, rot, body, energy, fish := liveFish()
	pos.X = testBounds().Width - body.Radius - 0.01
	vel.X = 60

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if pos.X != testBounds().Width-body.Radius {
		t.Errorf("position should clamp at the wall, got %f", pos.X)
	}
	if vel.X >= 0 {
		t.Errorf("velocity should reverse off the wall, got %f", vel.X)
	}
	wantSpeed := 60 * float32(cfg.Physics.BounceDamping)
	if absf(-vel.X-wantSpeed) > 0.5 {
		t.Errorf("bounce should damp speed to about %f, got %f", wantSpeed, -vel.X)
	}
	if energy.Value >= 100 {
		t.Error("hitting the glass should cost energy")
	}
}

func TestIntegrate_MotionStaysInBounds(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(4))
	bounds := testBounds()

	pos, vel, accel, rot, body, energy, fish := liveFish()
	for i := 0; i < 2000; i++ {
		accel.X = SampleRange(rng, -200, 200)
		accel.Y = SampleRange(rng, -200, 200)
		energy.Value = 100
		Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, bounds, 1.0/60)

		if pos.X < body.Radius-0.01 || pos.X > bounds.Width-body.Radius+0.01 ||
			pos.Y < body.Radius-0.01 || pos.Y > bounds.Height-body.Radius+0.01 {
			t.Fatalf("tick %d: fish escaped the tank at (%f, %f)", i, pos.X, pos.Y)
		}
	}
}

// ---------- Corpses ----------

func TestIntegrate_CorpseDriftsUpAndIgnoresWalls(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	energy.Alive = false
	pos.Y = 50

	for i := 0; i < 600; i++ {
		Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)
	}

	if vel.Y >= 0 {
		t.Errorf("corpse should drift upward, got vel.Y=%f", vel.Y)
	}
	if pos.Y >= 0 {
		t.Errorf("corpse should pass the surface unimpeded, got y=%f", pos.Y)
	}
}

// ---------- Animation state ----------

func TestIntegrate_TailBeatsFasterAtSpeed(t *testing.T) {
	ensureCache()

	pos1, vel1, accel1, rot1, body1, energy1, fish1 := liveFish()
	vel1.X = 20
	Integrate(&pos1, &vel1, &accel1, &rot1, &body1, &energy1, &fish1, 70, 8, testBounds(), 1.0/60)

	pos2, vel2, accel2, rot2, body2, energy2, fish2 := liveFish()
	vel2.X = 60
	Integrate(&pos2, &vel2, &accel2, &rot2, &body2, &energy2, &fish2, 70, 8, testBounds(), 1.0/60)

	if rot2.TailPhase <= rot1.TailPhase {
		t.Errorf("faster fish should beat its tail faster: %f vs %f", rot2.TailPhase, rot1.TailPhase)
	}
}

func TestIntegrate_HeadingEasesTowardVelocity(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.Y = 50
	rot.Heading = 0

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if rot.Heading <= 0 {
		t.Errorf("heading should ease toward the travel direction, got %f", rot.Heading)
	}
	if rot.Heading >= float32(math.Pi/2) {
		t.Errorf("heading should not snap in one tick, got %f", rot.Heading)
	}
}

func TestIntegrate_SlowFishHoldsHeading(t *testing.T) {
	ensureCache()
	pos, vel, accel, rot, body, energy, fish := liveFish()
	vel.X = 0.1
	rot.Heading = 2

	Integrate(&pos, &vel, &accel, &rot, &body, &energy, &fish, 70, 8, testBounds(), 1.0/60)

	if rot.Heading != 2 {
		t.Errorf("near-stationary fish should hold heading, got %f", rot.Heading)
	}
}
