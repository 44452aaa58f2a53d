package world

import (
	"container/heap"
	"math"
)

const (
	// FlowFieldTTL is the lifetime of a computed field in simulation seconds.
	FlowFieldTTL = 2.0
	// ShellMargin inflates obstacle boxes to form the penalised band.
	ShellMargin = 24.0
	// ShellPenalty is added to the step cost of cells inside a shell.
	ShellPenalty = 4.0
	// ClearRadius around the destination carries no penalty and ignores
	// obstacle cores so doors inside a footprint stay reachable.
	ClearRadius = 40.0
)

// ObstacleSource lists the current obstacle footprints.
type ObstacleSource func() []Rect

type flowField struct {
	originCol, originRow int
	cols, rows           int
	gridCols, gridRows   int
	view                 Rect
	dist                 []float64
	vectors              []Vec2
	computedAt           float64
}

func (f *flowField) index(col, row int) int { return row*f.cols + col }

func (f *flowField) distAt(col, row int) float64 {
	if col < 0 || row < 0 || col >= f.cols || row >= f.rows {
		return math.Inf(1)
	}
	return f.dist[f.index(col, row)]
}

// FlowFieldService builds per-destination direction fields over the visible
// canvas and caches them by destination key.
type FlowFieldService struct {
	grid       *NavigationGrid
	clock      *Clock
	obstacles  ObstacleSource
	view       Rect
	fields     map[string]*flowField
	recomputes int
}

// NewFlowFieldService constructs a service over the view rectangle.
func NewFlowFieldService(grid *NavigationGrid, clock *Clock, view Rect, obstacles ObstacleSource) *FlowFieldService {
	return &FlowFieldService{
		grid:      grid,
		clock:     clock,
		obstacles: obstacles,
		view:      view,
		fields:    make(map[string]*flowField),
	}
}

// SetView moves the visible canvas. Fields computed for another view are
// rebuilt lazily.
func (s *FlowFieldService) SetView(view Rect) {
	s.view = view
}

// Invalidate clears every cached field.
func (s *FlowFieldService) Invalidate() {
	if s == nil {
		return
	}
	s.fields = make(map[string]*flowField)
}

// Recomputes counts field builds since construction.
func (s *FlowFieldService) Recomputes() int { return s.recomputes }

// Cached reports the number of cached fields.
func (s *FlowFieldService) Cached() int { return len(s.fields) }

// VectorAt returns the flow direction at query toward dest. The result is a
// unit vector, or zero outside the visible canvas or in unreachable cells.
func (s *FlowFieldService) VectorAt(key string, dest, query Vec2) Vec2 {
	if s == nil || s.grid == nil || !dest.IsFinite() || !query.IsFinite() {
		return Vec2{}
	}
	field := s.field(key, dest)
	if field == nil {
		return Vec2{}
	}
	c, ok := s.grid.Locate(query)
	if !ok || !field.view.Contains(query) {
		return Vec2{}
	}
	col, row := c.Col-field.originCol, c.Row-field.originRow
	if col < 0 || row < 0 || col >= field.cols || row >= field.rows {
		return Vec2{}
	}
	return field.vectors[field.index(col, row)]
}

func (s *FlowFieldService) field(key string, dest Vec2) *flowField {
	now := s.clock.Now()
	if f, ok := s.fields[key]; ok {
		fresh := now-f.computedAt < FlowFieldTTL
		sameGrid := f.gridCols == s.grid.Cols() && f.gridRows == s.grid.Rows()
		if fresh && sameGrid && f.view == s.view {
			return f
		}
	}
	f := s.compute(dest)
	if f == nil {
		delete(s.fields, key)
		return nil
	}
	f.computedAt = now
	s.fields[key] = f
	s.recomputes++
	return f
}

type flowEntry struct {
	idx  int
	dist float64
}

type flowQueue []flowEntry

func (q flowQueue) Len() int { return len(q) }

func (q flowQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }

func (q flowQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *flowQueue) Push(x any) { *q = append(*q, x.(flowEntry)) }

func (q *flowQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

func (s *FlowFieldService) compute(dest Vec2) *flowField {
	g := s.grid
	minCell, ok := g.Locate(s.view.Min())
	if !ok {
		return nil
	}
	maxCell, _ := g.Locate(s.view.Max())
	f := &flowField{
		originCol: minCell.Col,
		originRow: minCell.Row,
		cols:      maxCell.Col - minCell.Col + 1,
		rows:      maxCell.Row - minCell.Row + 1,
		gridCols:  g.Cols(),
		gridRows:  g.Rows(),
		view:      s.view,
	}
	size := f.cols * f.rows
	f.dist = make([]float64, size)
	f.vectors = make([]Vec2, size)
	for i := range f.dist {
		f.dist[i] = math.Inf(1)
	}

	destCell, _ := g.Locate(dest)
	dc, dr := destCell.Col-f.originCol, destCell.Row-f.originRow
	if dc < 0 || dr < 0 || dc >= f.cols || dr >= f.rows {
		// Destination off-canvas: seed from the nearest edge cell.
		dc = clampInt(dc, 0, f.cols-1)
		dr = clampInt(dr, 0, f.rows-1)
	}

	var obstacles []Rect
	if s.obstacles != nil {
		obstacles = s.obstacles()
	}
	blocked := make([]bool, size)
	penalty := make([]float64, size)
	for row := 0; row < f.rows; row++ {
		for col := 0; col < f.cols; col++ {
			idx := f.index(col, row)
			center := g.WorldPos(Cell{Col: col + f.originCol, Row: row + f.originRow})
			if center.Dist(dest) <= ClearRadius {
				continue
			}
			for _, obs := range obstacles {
				if obs.Contains(center) {
					blocked[idx] = true
					break
				}
				if obs.Inflate(ShellMargin).Contains(center) {
					penalty[idx] = ShellPenalty
				}
			}
		}
	}

	start := f.index(dc, dr)
	f.dist[start] = 0
	open := &flowQueue{{idx: start}}
	for open.Len() > 0 {
		cur := heap.Pop(open).(flowEntry)
		if cur.dist > f.dist[cur.idx] {
			continue
		}
		col, row := cur.idx%f.cols, cur.idx/f.cols
		for _, delta := range navNeighborOffsets[:4] {
			nc, nr := col+delta.col, row+delta.row
			if nc < 0 || nr < 0 || nc >= f.cols || nr >= f.rows {
				continue
			}
			nIdx := f.index(nc, nr)
			if blocked[nIdx] {
				continue
			}
			next := cur.dist + 1 + penalty[nIdx]
			if next < f.dist[nIdx] {
				f.dist[nIdx] = next
				heap.Push(open, flowEntry{idx: nIdx, dist: next})
			}
		}
	}

	for row := 0; row < f.rows; row++ {
		for col := 0; col < f.cols; col++ {
			f.vectors[f.index(col, row)] = f.gradient(col, row)
		}
	}
	return f
}

// gradient estimates the descent direction from the neighbor distances.
// Unreachable neighbors borrow the cell's own distance.
func (f *flowField) gradient(col, row int) Vec2 {
	here := f.distAt(col, row)
	if math.IsInf(here, 1) {
		return Vec2{}
	}
	side := func(c, r int) float64 {
		d := f.distAt(c, r)
		if math.IsInf(d, 1) {
			return here
		}
		return d
	}
	gx := side(col-1, row) - side(col+1, row)
	gy := side(col, row-1) - side(col, row+1)
	v := Vec2{X: gx, Y: gy}.Normalize()
	if !v.IsFinite() {
		return Vec2{}
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
