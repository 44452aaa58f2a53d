package steering

import (
	"hold-the-line/server/internal/state"
)

// Separation scales.
const (
	SeparationFull      = 1.0
	SeparationEngaged   = 0.3
	SeparationTravel    = 0.5
	SeparationHoldRange = 0.05
)

// SeparationScale picks the weakest applicable separation factor.
func SeparationScale(engaged, travelling, holdingRange bool) float64 {
	scale := SeparationFull
	if travelling && SeparationTravel < scale {
		scale = SeparationTravel
	}
	if engaged && SeparationEngaged < scale {
		scale = SeparationEngaged
	}
	if holdingRange && SeparationHoldRange < scale {
		scale = SeparationHoldRange
	}
	return scale
}

// Separate accumulates a repulsion away from nearby bodies and returns it.
func (c *Controller) Separate(a *state.Agent, neighbors []*state.Agent, scale float64) Vec2 {
	if a == nil || scale <= 0 {
		return Vec2{}
	}
	p := c.params
	var push Vec2
	for _, other := range neighbors {
		if other == nil || other == a || other.Hidden || !other.Alive() {
			continue
		}
		reach := (a.BodyRadius + other.BodyRadius) * p.SeparationRange
		away := a.Pos.Sub(other.Pos)
		d := away.Len()
		if d >= reach {
			continue
		}
		if d == 0 {
			// Coincident bodies separate along an id-derived axis.
			if a.ID() < other.ID() {
				away = Vec2{X: -1}
			} else {
				away = Vec2{X: 1}
			}
			d = 1e-6
		}
		weight := 1 - d/reach
		push = push.Add(away.Normalize().Scale(weight))
	}
	if push.IsZero() {
		return Vec2{}
	}
	force := push.Limit(1).Scale(a.Speed * p.SeparationForce * scale)
	a.AddAcceleration(force)
	return force
}

// Avoid nudges a sideways away from buildings ahead within the facing cone.
// Near the door of its own target building nothing is applied.
func (c *Controller) Avoid(a *state.Agent, heading Vec2, buildings []*state.Building, goal Goal) Vec2 {
	if a == nil || heading.IsZero() {
		return Vec2{}
	}
	p := c.params
	for _, b := range buildings {
		if b != nil && b.ID() == goal.Building && a.Pos.Dist(b.DoorPoint()) <= p.NearDoorRadius {
			return Vec2{}
		}
	}
	dir := heading.Normalize()
	var nudge Vec2
	for _, b := range buildings {
		if b == nil || !b.Alive() || b.ID() == goal.Building {
			continue
		}
		to := b.Center.Sub(a.Pos)
		if to.IsZero() || dir.Dot(to.Normalize()) < p.AvoidCone {
			continue
		}
		edge := edgeDistance(a.Pos, b.Bounds())
		lookahead := a.BodyRadius + p.AvoidLookahead
		if edge > lookahead {
			continue
		}
		side := dir.Perp()
		if side.Dot(to) > 0 {
			side = side.Scale(-1)
		}
		nudge = nudge.Add(side.Scale(1 - edge/lookahead))
	}
	if nudge.IsZero() {
		return Vec2{}
	}
	force := nudge.Limit(1).Scale(a.Speed * p.AvoidForce)
	a.AddAcceleration(force)
	return force
}

func edgeDistance(p Vec2, r state.Rect) float64 {
	min, max := r.Min(), r.Max()
	dx := 0.0
	if p.X < min.X {
		dx = min.X - p.X
	} else if p.X > max.X {
		dx = p.X - max.X
	}
	dy := 0.0
	if p.Y < min.Y {
		dy = min.Y - p.Y
	} else if p.Y > max.Y {
		dy = p.Y - max.Y
	}
	return state.V(dx, dy).Len()
}

// Move is the full locomotion step used by behaviors: seek, separation and
// building avoidance combined.
type Move struct {
	Goal       Goal
	MaxSpeed   float64
	Separation float64
	Neighbors  []*state.Agent
	Buildings  []*state.Building
}

// Steer applies m to a and reports whether the goal was reached.
func (c *Controller) Steer(a *state.Agent, m Move) bool {
	if a == nil {
		return false
	}
	maxSpeed := m.MaxSpeed
	if maxSpeed <= 0 {
		maxSpeed = a.Speed
	}
	_, arrived := c.Seek(a, m.Goal, maxSpeed, m.Neighbors)
	if arrived {
		return true
	}
	c.Separate(a, m.Neighbors, m.Separation)
	c.Avoid(a, m.Goal.Point.Sub(a.Pos), m.Buildings, m.Goal)
	return false
}

// Flee accelerates a directly away from threat.
func (c *Controller) Flee(a *state.Agent, threat Vec2, maxSpeed float64) Vec2 {
	if a == nil {
		return Vec2{}
	}
	away := a.Pos.Sub(threat).Normalize()
	if away.IsZero() {
		away = Vec2{X: 1}
	}
	return c.SeekVelocity(a, away.Scale(maxSpeed), maxSpeed)
}
