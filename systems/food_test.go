package systems

import (
	"testing"

	"github.com/pthm-cable/tank/config"
)

// ---------- Dropping ----------

func TestFood_AddRespectsCap(t *testing.T) {
	ensureCache()
	cfg := config.Cfg()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})

	for i := 0; i < cfg.Food.MaxActive; i++ {
		if !fs.Add(100, 100) {
			t.Fatalf("drop %d rejected below the cap", i)
		}
	}
	if fs.Add(100, 100) {
		t.Error("drop above the cap should be ignored")
	}
	if fs.Count() != cfg.Food.MaxActive {
		t.Errorf("expected %d pellets, got %d", cfg.Food.MaxActive, fs.Count())
	}
}

func TestFood_AddClampsIntoBounds(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(-50, -50)

	p := fs.Pellets[0]
	if p.X != 0 || p.Y != 0 {
		t.Errorf("expected drop clamped to (0, 0), got (%f, %f)", p.X, p.Y)
	}
}

// ---------- Sinking ----------

func TestFood_PelletsSinkToTerminalSpeed(t *testing.T) {
	ensureCache()
	cfg := config.Cfg()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 0)

	startY := fs.Pellets[0].Y
	fs.Update(1.0 / 60)
	if fs.Pellets[0].Y <= startY {
		t.Error("pellet should sink downward")
	}

	for i := 0; i < 300; i++ {
		fs.Update(1.0 / 60)
	}
	vy := fs.Pellets[0].VY
	if absf(vy-float32(cfg.Food.SinkSpeed)) > 1 {
		t.Errorf("expected sink speed near %f after easing, got %f", cfg.Food.SinkSpeed, vy)
	}
}

func TestFood_PelletDiscardedPastFloor(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 639)

	for i := 0; i < 600 && fs.Count() > 0; i++ {
		fs.Update(1.0 / 60)
	}
	if fs.Count() != 0 {
		t.Error("pellet should despawn after falling past the floor")
	}
}

// ---------- Lookup and consumption ----------

func TestFood_NearestPicksClosestInRadius(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 100)
	fs.Add(140, 100)
	fs.Add(500, 500)

	i := fs.Nearest(130, 100, 90)
	if i != 1 {
		t.Errorf("expected pellet 1 nearest, got %d", i)
	}
	if j := fs.Nearest(130, 100, 5); j != -1 {
		t.Errorf("expected no pellet within 5 units, got %d", j)
	}
}

func TestFood_ConsumeClaimsOnce(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 100)

	if !fs.Consume(0) {
		t.Fatal("first consume should succeed")
	}
	if fs.Consume(0) {
		t.Error("second consume of the same pellet should fail")
	}
	if fs.Count() != 0 {
		t.Errorf("eaten pellet should not count, got %d", fs.Count())
	}
}

func TestFood_NearestSkipsEaten(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 100)
	fs.Add(200, 100)
	fs.Consume(0)

	if i := fs.Nearest(100, 100, 300); i != 1 {
		t.Errorf("expected the uneaten pellet, got %d", i)
	}
}

func TestFood_UpdateCompactsEaten(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	fs.Add(100, 100)
	fs.Add(200, 100)
	fs.Consume(0)
	fs.Update(1.0 / 60)

	if len(fs.Pellets) != 1 {
		t.Errorf("expected 1 pellet after compaction, got %d", len(fs.Pellets))
	}
	if fs.Pellets[0].X != 200 {
		t.Errorf("wrong pellet survived compaction, x=%f", fs.Pellets[0].X)
	}
}

func TestFood_ConsumeOutOfRangeIndex(t *testing.T) {
	ensureCache()
	fs := NewFoodSystem(Bounds{Width: 960, Height: 640})
	if fs.Consume(-1) || fs.Consume(0) {
		t.Error("consume of a missing pellet should fail")
	}
}
