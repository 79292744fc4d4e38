package systems

import (
	"github.com/pthm-cable/tank/config"
)

// pelletRadius is the contact radius of a food pellet.
const pelletRadius = float32(3)

// Pellet is a single food item drifting down the water column.
type Pellet struct {
	X, Y  float32
	VY    float32
	Eaten bool
}

// FoodSystem manages food pellets outside the ECS. Pellets sink from
// the drop point, ease toward terminal velocity, and are discarded when
// they fall past the tank floor.
type FoodSystem struct {
	Pellets []Pellet

	bounds Bounds
	max    int
}

// NewFoodSystem creates a food manager for the given tank bounds.
func NewFoodSystem(bounds Bounds) *FoodSystem {
	maxActive := config.Cfg().Food.MaxActive
	return &FoodSystem{
		Pellets: make([]Pellet, 0, maxActive),
		bounds:  bounds,
		max:     maxActive,
	}
}

// Add drops a pellet at the given position. Returns false when the
// active pellet cap is reached; the drop is silently ignored.
func (fs *FoodSystem) Add(x, y float32) bool {
	if len(fs.Pellets) >= fs.max {
		return false
	}
	x = clampFloat(x, 0, fs.bounds.Width)
	y = clampFloat(y, 0, fs.bounds.Height)
	fs.Pellets = append(fs.Pellets, Pellet{
		X:  x,
		Y:  y,
		VY: float32(config.Cfg().Food.DropSpeed),
	})
	return true
}

// Update advances pellet physics for one tick and compacts out eaten
// and out-of-bounds pellets.
func (fs *FoodSystem) Update(dt float32) {
	cfg := config.Cfg()
	sinkSpeed := float32(cfg.Food.SinkSpeed)
	sinkEase := float32(cfg.Food.SinkEase)

	alive := 0
	for i := range fs.Pellets {
		p := &fs.Pellets[i]

		if p.Eaten {
			continue
		}

		// Ease toward terminal sink speed, then fall
		p.VY += (sinkSpeed - p.VY) * sinkEase * dt
		p.Y += p.VY * dt

		if p.Y-pelletRadius > fs.bounds.Height {
			continue
		}

		fs.Pellets[alive] = fs.Pellets[i]
		alive++
	}
	fs.Pellets = fs.Pellets[:alive]
}

// Nearest returns the index of the closest uneaten pellet within radius
// of (x, y), or -1 when none is in range.
func (fs *FoodSystem) Nearest(x, y, radius float32) int {
	best := -1
	bestDistSq := radius * radius
	for i := range fs.Pellets {
		p := &fs.Pellets[i]
		if p.Eaten {
			continue
		}
		dSq := distanceSq(x, y, p.X, p.Y)
		if dSq <= bestDistSq {
			best = i
			bestDistSq = dSq
		}
	}
	return best
}

// Consume marks a pellet as eaten. Returns false when the pellet was
// already claimed this tick, so only one fish swallows each pellet.
func (fs *FoodSystem) Consume(i int) bool {
	if i < 0 || i >= len(fs.Pellets) || fs.Pellets[i].Eaten {
		return false
	}
	fs.Pellets[i].Eaten = true
	return true
}

// Count returns the number of uneaten pellets.
func (fs *FoodSystem) Count() int {
	n := 0
	for i := range fs.Pellets {
		if !fs.Pellets[i].Eaten {
			n++
		}
	}
	return n
}
