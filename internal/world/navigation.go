package world

import "math"

// BuildingPadding is the margin marked around building footprints.
const BuildingPadding = 8.0

// Cell addresses a navigation grid cell.
type Cell struct {
	Col int
	Row int
}

// Neighbor is a traversable step out of a cell.
type Neighbor struct {
	Cell Cell
	Cost float64
}

type navOffset struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navOffset{
	{col: 0, row: -1, cost: 1},
	{col: 1, row: 0, cost: 1},
	{col: 0, row: 1, cost: 1},
	{col: -1, row: 0, cost: 1},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

// NavigationGrid classifies a uniform grid over the world rectangle into
// walkable and blocked cells. Occupancy is counted so overlapping obstacles
// can be marked and unmarked independently.
type NavigationGrid struct {
	cols, rows int
	cellSize   float64
	width      float64
	height     float64
	occupancy  []int
}

// NewNavigationGrid constructs an empty grid covering width x height.
func NewNavigationGrid(width, height, cellSize float64) *NavigationGrid {
	if !(cellSize > 0) {
		cellSize = DefaultCellSize
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	return &NavigationGrid{
		cols:      cols,
		rows:      rows,
		cellSize:  cellSize,
		width:     width,
		height:    height,
		occupancy: make([]int, cols*rows),
	}
}

// Cols reports the number of columns in the grid.
func (g *NavigationGrid) Cols() int {
	if g == nil {
		return 0
	}
	return g.cols
}

// Rows reports the number of rows in the grid.
func (g *NavigationGrid) Rows() int {
	if g == nil {
		return 0
	}
	return g.rows
}

// CellSize reports the size of each navigation cell in world units.
func (g *NavigationGrid) CellSize() float64 {
	if g == nil {
		return 0
	}
	return g.cellSize
}

func (g *NavigationGrid) InBounds(c Cell) bool {
	return g != nil && c.Col >= 0 && c.Row >= 0 && c.Col < g.cols && c.Row < g.rows
}

func (g *NavigationGrid) index(c Cell) int {
	return c.Row*g.cols + c.Col
}

// IsWalkable reports whether the cell is in bounds and unoccupied.
func (g *NavigationGrid) IsWalkable(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.occupancy[g.index(c)] == 0
}

// Occupancy returns the obstacle count of a cell.
func (g *NavigationGrid) Occupancy(c Cell) int {
	if !g.InBounds(c) {
		return 0
	}
	return g.occupancy[g.index(c)]
}

// WorldPos reports the world coordinates of the cell center.
func (g *NavigationGrid) WorldPos(c Cell) Vec2 {
	return Vec2{
		X: (float64(c.Col) + 0.5) * g.cellSize,
		Y: (float64(c.Row) + 0.5) * g.cellSize,
	}
}

// Locate maps a world point to its cell, clamping to the grid edges.
func (g *NavigationGrid) Locate(p Vec2) (Cell, bool) {
	if g == nil || !Finite(p.X) || !Finite(p.Y) {
		return Cell{}, false
	}
	col := int(math.Floor(p.X / g.cellSize))
	row := int(math.Floor(p.Y / g.cellSize))
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return Cell{Col: col, Row: row}, true
}

// WalkableAt reports whether the cell containing p is walkable. Points outside
// the world are never walkable.
func (g *NavigationGrid) WalkableAt(p Vec2) bool {
	if g == nil || p.X < 0 || p.Y < 0 || p.X >= g.width || p.Y >= g.height {
		return false
	}
	c, ok := g.Locate(p)
	return ok && g.IsWalkable(c)
}

// MarkBlocked increments occupancy for every cell whose center lies in the
// padded rectangle.
func (g *NavigationGrid) MarkBlocked(center Vec2, width, height, padding float64) {
	g.forCellsIn(center, width, height, padding, func(idx int) {
		g.occupancy[idx]++
	})
}

// UnmarkBlocked is the symmetric decrement, floored at zero.
func (g *NavigationGrid) UnmarkBlocked(center Vec2, width, height, padding float64) {
	g.forCellsIn(center, width, height, padding, func(idx int) {
		if g.occupancy[idx] > 0 {
			g.occupancy[idx]--
		}
	})
}

func (g *NavigationGrid) forCellsIn(center Vec2, width, height, padding float64, fn func(int)) {
	if g == nil {
		return
	}
	rect := Rect{Center: center, Width: width, Height: height}.Inflate(padding)
	min, max := rect.Min(), rect.Max()
	minCol := int(math.Floor(min.X/g.cellSize - 0.5))
	maxCol := int(math.Ceil(max.X/g.cellSize - 0.5))
	minRow := int(math.Floor(min.Y/g.cellSize - 0.5))
	maxRow := int(math.Ceil(max.Y/g.cellSize - 0.5))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := Cell{Col: col, Row: row}
			if !g.InBounds(c) {
				continue
			}
			if !rect.Contains(g.WorldPos(c)) {
				continue
			}
			fn(g.index(c))
		}
	}
}

func (g *NavigationGrid) canTraverseDiagonal(current Cell, delta navOffset) bool {
	if !delta.diagonal {
		return true
	}
	horiz := Cell{Col: current.Col + delta.col, Row: current.Row}
	vert := Cell{Col: current.Col, Row: current.Row + delta.row}
	return g.IsWalkable(horiz) && g.IsWalkable(vert)
}

// Neighbors returns the walkable neighbors of c. Diagonal steps are offered
// only when both adjacent cardinal cells are walkable.
func (g *NavigationGrid) Neighbors(c Cell, allowDiagonal bool) []Neighbor {
	if !g.InBounds(c) {
		return nil
	}
	out := make([]Neighbor, 0, len(navNeighborOffsets))
	for _, delta := range navNeighborOffsets {
		if delta.diagonal && (!allowDiagonal || !g.canTraverseDiagonal(c, delta)) {
			continue
		}
		next := Cell{Col: c.Col + delta.col, Row: c.Row + delta.row}
		if !g.IsWalkable(next) {
			continue
		}
		out = append(out, Neighbor{Cell: next, Cost: delta.cost})
	}
	return out
}

// NearestWalkable searches square rings of growing radius around c and returns
// the closest walkable cell by center distance.
func (g *NavigationGrid) NearestWalkable(c Cell, maxRadius int) (Cell, bool) {
	if g == nil {
		return Cell{}, false
	}
	if g.IsWalkable(c) {
		return c, true
	}
	for radius := 1; radius <= maxRadius; radius++ {
		best := Cell{}
		bestDist := math.Inf(1)
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if absInt(dr) != radius && absInt(dc) != radius {
					continue
				}
				cand := Cell{Col: c.Col + dc, Row: c.Row + dr}
				if !g.IsWalkable(cand) {
					continue
				}
				d := math.Hypot(float64(dc), float64(dr))
				if d < bestDist {
					bestDist = d
					best = cand
				}
			}
		}
		if !math.IsInf(bestDist, 1) {
			return best, true
		}
	}
	return Cell{}, false
}

// LineOfSight samples the segment a-b at half-cell resolution and reports
// whether every sample is walkable.
func (g *NavigationGrid) LineOfSight(a, b Vec2) bool {
	if g == nil {
		return false
	}
	dist := a.Dist(b)
	step := g.cellSize / 2
	samples := int(math.Ceil(dist / step))
	if samples < 1 {
		samples = 1
	}
	for i := 0; i <= samples; i++ {
		p := a.Lerp(b, float64(i)/float64(samples))
		c, ok := g.Locate(p)
		if !ok || !g.IsWalkable(c) {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
