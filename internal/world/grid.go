package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/component"
	"github.com/raftrail/railsim/internal/core/ecs"
)

// Cell addresses one square of a Grid on the XZ plane.
type Cell struct {
	X, Z int32
}

// Grid buckets entities into square cells of the XZ plane. Height is
// ignored. Accessed only from the tick loop goroutine, no locks.
type Grid struct {
	size  float64
	cells map[Cell]map[ecs.EntityID]struct{}
}

func NewGrid(cellSize float64) *Grid {
	if !(cellSize > 0) {
		cellSize = 1
	}
	return &Grid{
		size:  cellSize,
		cells: make(map[Cell]map[ecs.EntityID]struct{}),
	}
}

// CellOf returns the cell containing p.
func (g *Grid) CellOf(p mgl64.Vec3) Cell {
	return Cell{
		X: int32(math.Floor(p[0] / g.size)),
		Z: int32(math.Floor(p[2] / g.size)),
	}
}

func (g *Grid) Add(id ecs.EntityID, p mgl64.Vec3) {
	k := g.CellOf(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *Grid) Remove(id ecs.EntityID, p mgl64.Vec3) {
	k := g.CellOf(p)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move rebuckets id when it crossed a cell border.
func (g *Grid) Move(id ecs.EntityID, from, to mgl64.Vec3) {
	if g.CellOf(from) == g.CellOf(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// Count returns the number of entities in cell c.
func (g *Grid) Count(c Cell) int { return len(g.cells[c]) }

// Occupied calls fn once per non-empty cell.
func (g *Grid) Occupied(fn func(c Cell, n int)) {
	for c, ids := range g.cells {
		fn(c, len(ids))
	}
}

// Nearby returns the entities in the 3x3 block of cells around p. Callers
// filter by exact distance.
func (g *Grid) Nearby(p mgl64.Vec3) []ecs.EntityID {
	c := g.CellOf(p)
	var out []ecs.EntityID
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			for id := range g.cells[Cell{X: c.X + dx, Z: c.Z + dz}] {
				out = append(out, id)
			}
		}
	}
	return out
}

// Reset empties the grid and buckets every rail denizen of s at its
// current position.
func (g *Grid) Reset(s *State) {
	clear(g.cells)
	ecs.Each2(s.Denizens, s.Transforms, func(id ecs.EntityID, _ *component.RailDenizen, t *component.Transform) {
		g.Add(id, t.Position)
	})
}
