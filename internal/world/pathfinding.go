package world

import (
	"container/heap"
	"math"
)

const (
	// PathCacheTTL is how long a planned route stays reusable.
	PathCacheTTL = 1.0
	// DefaultMaxIterations bounds A* expansions per query.
	DefaultMaxIterations = 6000
	// GoalSearchRadius bounds the ring search for a blocked goal, in cells.
	GoalSearchRadius = 6
)

type pathNode struct {
	cell   Cell
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

type pathKey struct {
	start Cell
	goal  Cell
}

type cachedPath struct {
	cells    []Cell
	found    bool
	storedAt float64
}

// PathPlanner runs A* over a NavigationGrid and caches routes by
// (start cell, resolved goal cell).
type PathPlanner struct {
	grid          *NavigationGrid
	clock         *Clock
	maxIterations int
	cache         map[pathKey]cachedPath
	searches      int
}

// NewPathPlanner constructs a planner bound to grid and clock.
func NewPathPlanner(grid *NavigationGrid, clock *Clock) *PathPlanner {
	return &PathPlanner{
		grid:          grid,
		clock:         clock,
		maxIterations: DefaultMaxIterations,
		cache:         make(map[pathKey]cachedPath),
	}
}

// SetMaxIterations overrides the expansion bound.
func (p *PathPlanner) SetMaxIterations(n int) {
	if n > 0 {
		p.maxIterations = n
	}
}

// Invalidate drops every cached route.
func (p *PathPlanner) Invalidate() {
	if p == nil {
		return
	}
	p.cache = make(map[pathKey]cachedPath)
}

// Searches counts A* runs that were not served from the cache.
func (p *PathPlanner) Searches() int { return p.searches }

// FindPath returns smoothed world waypoints from start to goal. The first
// waypoint is start and the last is always goal itself. When the goal cell is
// blocked the route runs to the nearest walkable substitute cell, whose center
// precedes goal. A nil path with a nil error means no route exists; callers
// fall back to direct steering.
func (p *PathPlanner) FindPath(start, goal Vec2) ([]Vec2, error) {
	if !start.IsFinite() || !goal.IsFinite() {
		return nil, ErrInvalidPoint
	}
	if p == nil || p.grid == nil {
		return nil, nil
	}
	g := p.grid
	startCell, _ := g.Locate(start)
	goalCell, _ := g.Locate(goal)

	exactGoal := true
	if !g.IsWalkable(goalCell) {
		sub, ok := g.NearestWalkable(goalCell, GoalSearchRadius)
		if !ok {
			return nil, nil
		}
		goalCell = sub
		exactGoal = false
	}
	if !g.IsWalkable(startCell) {
		if sub, ok := g.NearestWalkable(startCell, GoalSearchRadius); ok {
			startCell = sub
		}
	}

	cells, found := p.lookup(startCell, goalCell)
	if !found {
		return nil, nil
	}

	raw := make([]Vec2, 0, len(cells)+2)
	raw = append(raw, start)
	for i := 1; i < len(cells)-1; i++ {
		raw = append(raw, g.WorldPos(cells[i]))
	}
	if !exactGoal && len(cells) > 1 {
		raw = append(raw, g.WorldPos(goalCell))
	}
	raw = append(raw, goal)
	return g.smooth(raw), nil
}

func (p *PathPlanner) lookup(start, goal Cell) ([]Cell, bool) {
	key := pathKey{start: start, goal: goal}
	now := p.clock.Now()
	if entry, ok := p.cache[key]; ok && now-entry.storedAt < PathCacheTTL {
		return entry.cells, entry.found
	}
	p.searches++
	cells, found := p.astar(start, goal)
	p.cache[key] = cachedPath{cells: cells, found: found, storedAt: now}
	return cells, found
}

func (p *PathPlanner) astar(start, goal Cell) ([]Cell, bool) {
	g := p.grid
	if !g.InBounds(start) || !g.IsWalkable(goal) {
		return nil, false
	}
	if start == goal {
		return []Cell{start}, true
	}
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{cell: start, f: heuristic(start, goal)})
	gScore := map[Cell]float64{start: 0}
	closed := make(map[Cell]struct{})

	for iterations := 0; open.Len() > 0; iterations++ {
		if iterations >= p.maxIterations {
			return nil, false
		}
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.cell]; seen {
			continue
		}
		closed[current.cell] = struct{}{}
		if current.cell == goal {
			return reconstructPath(current), true
		}
		for _, n := range g.Neighbors(current.cell, true) {
			if _, seen := closed[n.Cell]; seen {
				continue
			}
			tentative := current.g + n.Cost
			if prev, ok := gScore[n.Cell]; ok && tentative >= prev {
				continue
			}
			gScore[n.Cell] = tentative
			heap.Push(open, &pathNode{
				cell:   n.Cell,
				g:      tentative,
				f:      tentative + heuristic(n.Cell, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

// heuristic is the Euclidean cell distance.
func heuristic(a, b Cell) float64 {
	return math.Hypot(float64(a.Col-b.Col), float64(a.Row-b.Row))
}

func reconstructPath(end *pathNode) []Cell {
	path := make([]Cell, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.cell)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// smooth keeps, from each anchor, only the furthest waypoint still in line of
// sight.
func (g *NavigationGrid) smooth(points []Vec2) []Vec2 {
	if len(points) <= 2 {
		return points
	}
	out := []Vec2{points[0]}
	anchor := 0
	for anchor < len(points)-1 {
		next := anchor + 1
		for j := len(points) - 1; j > anchor+1; j-- {
			if g.LineOfSight(points[anchor], points[j]) {
				next = j
				break
			}
		}
		out = append(out, points[next])
		anchor = next
	}
	return out
}

// PathLength sums the segment lengths of a waypoint list.
func PathLength(path []Vec2) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i-1].Dist(path[i])
	}
	return total
}
