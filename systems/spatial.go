// Package systems provides ECS systems for the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float32 // Delta from query origin
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// SpatialGrid buckets agents by cell for sub-linear neighbor lookups.
// It is rebuilt from scratch every tick and never carries stale positions.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	width    float32
	height   float32
	cells    [][]ecs.Entity // flat grid of entity lists
}

// NewSpatialGrid creates a grid covering the given world size. The cell size
// must be at least the largest behavior radius so that the 3x3 block around
// an agent's cell covers every query.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float32) {
	idx := g.cellIndex(x, y)
	if idx >= 0 && idx < len(g.cells) {
		g.cells[idx] = append(g.cells[idx], e)
	}
}

// CellSize returns the configured cell edge length.
func (g *SpatialGrid) CellSize() float32 {
	return g.cellSize
}

// MaxQueryResults caps the number of neighbors returned by block queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryBlockInto appends the contents of the 3x3 cell block centered on the
// cell containing (x, y) to dst, up to MaxQueryResults. The block is a
// conservative superset of every behavior radius; callers filter by
// Neighbor.DistSq. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryBlockInto(dst []Neighbor, x, y float32, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	centerCol := clampIndex(int(x/g.cellSize), g.cols)
	centerRow := clampIndex(int(y/g.cellSize), g.rows)

	for dc := -1; dc <= 1; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}

			for _, e := range g.cells[row*g.cols+col] {
				if e == exclude {
					continue
				}

				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx := pos.X - x
				dy := pos.Y - y
				dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: dx*dx + dy*dy})
				// Early exit if we hit the cap
				if len(dst) >= MaxQueryResults {
					return dst
				}
			}
		}
	}

	return dst
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col := clampIndex(int(x/g.cellSize), g.cols)
	row := clampIndex(int(y/g.cellSize), g.rows)
	return row*g.cols + col
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
