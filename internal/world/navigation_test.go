package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkBlockedCountsOverlaps(t *testing.T) {
	grid := NewNavigationGrid(100, 100, 10)
	cell := Cell{Col: 2, Row: 2}

	grid.MarkBlocked(V(25, 25), 10, 10, 0)
	grid.MarkBlocked(V(25, 25), 10, 10, 0)
	assert.Equal(t, 2, grid.Occupancy(cell))
	assert.False(t, grid.IsWalkable(cell))

	grid.UnmarkBlocked(V(25, 25), 10, 10, 0)
	assert.False(t, grid.IsWalkable(cell), "one remaining obstacle keeps the cell blocked")

	grid.UnmarkBlocked(V(25, 25), 10, 10, 0)
	grid.UnmarkBlocked(V(25, 25), 10, 10, 0)
	assert.Equal(t, 0, grid.Occupancy(cell), "occupancy floors at zero")
	assert.True(t, grid.IsWalkable(cell))
}

func TestMarkBlockedUsesCellCenters(t *testing.T) {
	grid := NewNavigationGrid(100, 100, 10)
	grid.MarkBlocked(V(25, 15), 1, 1, 0)

	assert.False(t, grid.IsWalkable(Cell{Col: 2, Row: 1}))
	for _, c := range []Cell{{1, 1}, {3, 1}, {2, 0}, {2, 2}} {
		assert.True(t, grid.IsWalkable(c), "cell %+v should stay walkable", c)
	}

	grid.MarkBlocked(V(25, 15), 1, 1, 10)
	assert.False(t, grid.IsWalkable(Cell{Col: 1, Row: 1}), "padding widens the footprint")
}

func TestIsWalkableOutOfBounds(t *testing.T) {
	grid := NewNavigationGrid(100, 100, 10)
	assert.False(t, grid.IsWalkable(Cell{Col: -1, Row: 0}))
	assert.False(t, grid.IsWalkable(Cell{Col: 0, Row: 10}))
}

func TestNeighborsRejectCornerCutting(t *testing.T) {
	grid := NewNavigationGrid(50, 50, 10)
	grid.MarkBlocked(V(25, 15), 1, 1, 0) // cell (2,1), north of (2,2)

	neighbors := grid.Neighbors(Cell{Col: 2, Row: 2}, true)
	got := make(map[Cell]float64)
	for _, n := range neighbors {
		got[n.Cell] = n.Cost
	}

	assert.NotContains(t, got, Cell{Col: 2, Row: 1})
	assert.NotContains(t, got, Cell{Col: 1, Row: 1})
	assert.NotContains(t, got, Cell{Col: 3, Row: 1})
	assert.Contains(t, got, Cell{Col: 1, Row: 3})
	assert.Contains(t, got, Cell{Col: 3, Row: 3})
	assert.Equal(t, 1.0, got[Cell{Col: 1, Row: 2}])
	assert.InDelta(t, 1.41421356, got[Cell{Col: 3, Row: 3}], 1e-6)

	cardinal := grid.Neighbors(Cell{Col: 2, Row: 2}, false)
	assert.Len(t, cardinal, 3)
}

func TestNearestWalkableRingSearch(t *testing.T) {
	grid := NewNavigationGrid(100, 100, 10)
	grid.MarkBlocked(V(50, 50), 30, 30, 0)

	center, ok := grid.Locate(V(50, 50))
	require.True(t, ok)
	require.False(t, grid.IsWalkable(center))

	found, ok := grid.NearestWalkable(center, 4)
	require.True(t, ok)
	assert.True(t, grid.IsWalkable(found))

	_, ok = grid.NearestWalkable(center, 0)
	assert.False(t, ok)
}

func TestLineOfSight(t *testing.T) {
	grid := NewNavigationGrid(200, 200, 10)
	assert.True(t, grid.LineOfSight(V(15, 15), V(185, 185)))

	grid.MarkBlocked(V(100, 100), 20, 20, 0)
	assert.False(t, grid.LineOfSight(V(15, 15), V(185, 185)))
	assert.True(t, grid.LineOfSight(V(15, 185), V(60, 185)))
}
