package world

import (
	"strconv"

	"hold-the-line/server/internal/state"
)

// Navigator bundles the navigation services agents share.
type Navigator struct {
	Config  Config
	Clock   *Clock
	Grid    *NavigationGrid
	Planner *PathPlanner
	Flow    *FlowFieldService
}

// NewNavigator builds the grid, planner and flow field service for cfg.
func NewNavigator(cfg Config, clock *Clock, obstacles ObstacleSource) *Navigator {
	cfg = cfg.Normalized()
	if clock == nil {
		clock = &Clock{}
	}
	grid := NewNavigationGrid(cfg.Width, cfg.Height, cfg.CellSize)
	return &Navigator{
		Config:  cfg,
		Clock:   clock,
		Grid:    grid,
		Planner: NewPathPlanner(grid, clock),
		Flow:    NewFlowFieldService(grid, clock, cfg.View(), obstacles),
	}
}

// Bounds returns the world rectangle.
func (n *Navigator) Bounds() Rect { return n.Config.Bounds() }

// MarkBuilding blocks a building footprint.
func (n *Navigator) MarkBuilding(b *state.Building) {
	if n == nil || b == nil {
		return
	}
	n.Grid.MarkBlocked(b.Center, b.Width, b.Height, BuildingPadding)
}

// UnmarkBuilding releases a building footprint.
func (n *Navigator) UnmarkBuilding(b *state.Building) {
	if n == nil || b == nil {
		return
	}
	n.Grid.UnmarkBlocked(b.Center, b.Width, b.Height, BuildingPadding)
}

// TopologyChanged drops every cached flow field and route.
func (n *Navigator) TopologyChanged() {
	if n == nil {
		return
	}
	n.Flow.Invalidate()
	n.Planner.Invalidate()
}

// DoorKey names the flow field cache entry for a building door.
func DoorKey(id state.EntityID) string {
	return "door:" + strconv.FormatUint(uint64(id), 10)
}
