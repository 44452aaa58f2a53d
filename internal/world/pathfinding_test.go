package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func newTestPlanner(width, height float64) (*PathPlanner, *NavigationGrid, *Clock) {
	clock := &Clock{}
	grid := NewNavigationGrid(width, height, 20)
	return NewPathPlanner(grid, clock), grid, clock
}

func TestFindPathOpenFieldSmoothsToDirectRoute(t *testing.T) {
	planner, _, _ := newTestPlanner(400, 400)
	start := V(30, 30)
	goal := V(357.3, 211.9)

	path, err := planner.FindPath(start, goal)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.LessOrEqual(t, len(path), 2)
	assert.Equal(t, goal, path[len(path)-1], "final waypoint must be the exact goal")
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	planner, grid, _ := newTestPlanner(400, 400)
	grid.MarkBlocked(V(200, 150), 20, 300, 0)

	start := V(100, 100)
	goal := V(300, 100)
	path, err := planner.FindPath(start, goal)
	require.NoError(t, err)
	require.Greater(t, len(path), 2)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])

	detour := false
	for _, p := range path {
		assert.True(t, grid.WalkableAt(p), "waypoint %+v lies in a blocked cell", p)
		if p.Y > 300 {
			detour = true
		}
	}
	assert.True(t, detour, "route must pass below the wall")
	assert.Greater(t, PathLength(path), start.Dist(goal))
}

func TestFindPathUnreachableReturnsNil(t *testing.T) {
	planner, grid, _ := newTestPlanner(400, 400)
	grid.MarkBlocked(V(200, 200), 20, 500, 0)

	path, err := planner.FindPath(V(100, 100), V(300, 100))
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindPathSubstitutesBlockedGoal(t *testing.T) {
	planner, grid, _ := newTestPlanner(400, 400)
	grid.MarkBlocked(V(300, 300), 60, 60, 0)

	goal := V(300, 300)
	path, err := planner.FindPath(V(50, 50), goal)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	require.GreaterOrEqual(t, len(path), 3)
	assert.Equal(t, goal, path[len(path)-1], "route ends at the requested point")
	approach := path[len(path)-2]
	assert.True(t, grid.WalkableAt(approach))
	assert.Less(t, approach.Dist(goal), 6*grid.CellSize())
}

func TestFindPathRejectsInvalidInput(t *testing.T) {
	planner, _, _ := newTestPlanner(400, 400)
	_, err := planner.FindPath(V(math.NaN(), 0), V(10, 10))
	assert.ErrorIs(t, err, ErrInvalidPoint)
	_, err = planner.FindPath(V(0, 0), V(math.Inf(1), 10))
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestFindPathCacheExpiresAndInvalidates(t *testing.T) {
	planner, _, clock := newTestPlanner(400, 400)

	_, err := planner.FindPath(V(30, 30), V(350, 350))
	require.NoError(t, err)
	_, err = planner.FindPath(V(32, 28), V(352, 349))
	require.NoError(t, err)
	assert.Equal(t, 1, planner.Searches(), "same start/goal cells reuse the cached route")

	clock.Advance(PathCacheTTL + 0.1)
	_, _ = planner.FindPath(V(30, 30), V(350, 350))
	assert.Equal(t, 2, planner.Searches())

	planner.Invalidate()
	_, _ = planner.FindPath(V(30, 30), V(350, 350))
	assert.Equal(t, 3, planner.Searches())
}

func TestFindPathIterationBound(t *testing.T) {
	planner, grid, _ := newTestPlanner(400, 400)
	grid.MarkBlocked(V(200, 150), 20, 300, 0)
	planner.SetMaxIterations(5)

	path, err := planner.FindPath(V(100, 100), V(300, 100))
	require.NoError(t, err)
	assert.Nil(t, path)
}
