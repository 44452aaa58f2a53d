package world

import (
	"math"

	"hold-the-line/server/internal/state"
)

// Integrate applies the accumulated acceleration to velocity and velocity to
// position, then clears the acceleration. Locked bodies (engaged, stunned or
// movement-locked) hold still. A non-finite result snaps the body back to its
// last good position, or to fallback when that is unusable, and reports true.
func Integrate(a *state.Agent, dt float64, bounds Rect, fallback Vec2) bool {
	if a == nil {
		return false
	}
	defer func() { a.Acc = Vec2{} }()

	if a.Hidden {
		a.Vel = Vec2{}
		return false
	}

	if a.Engaged || a.Stun.Active() || a.MoveLock.Active() {
		a.Vel = Vec2{}
	} else {
		a.Vel = a.Vel.Add(a.Acc.Scale(dt)).Limit(a.Speed)
	}
	next := a.Pos.Add(a.Vel.Scale(dt))

	if !next.IsFinite() || !a.Vel.IsFinite() {
		recovered := a.LastGoodPos
		if !recovered.IsFinite() {
			recovered = fallback
		}
		a.Pos = ClampToBounds(recovered, a.BodyRadius, bounds)
		a.LastGoodPos = a.Pos
		a.HardStop()
		return true
	}

	a.Pos = ClampToBounds(next, a.BodyRadius, bounds)
	a.LastGoodPos = a.Pos
	return false
}

// ResolveObstaclePenetration nudges a body out of every overlapping obstacle
// footprint.
func ResolveObstaclePenetration(a *state.Agent, obstacles []Rect, bounds Rect) {
	if a == nil || a.Hidden {
		return
	}
	radius := a.BodyRadius
	for _, obs := range obstacles {
		if !CircleRectOverlap(a.Pos, radius, obs) {
			continue
		}
		min, max := obs.Min(), obs.Max()
		closestX := Clamp(a.Pos.X, min.X, max.X)
		closestY := Clamp(a.Pos.Y, min.Y, max.Y)
		dx := a.Pos.X - closestX
		dy := a.Pos.Y - closestY
		distSq := dx*dx + dy*dy

		if distSq == 0 {
			left := math.Abs(a.Pos.X - min.X)
			right := math.Abs(max.X - a.Pos.X)
			top := math.Abs(a.Pos.Y - min.Y)
			bottom := math.Abs(max.Y - a.Pos.Y)

			minDist := left
			direction := 0
			if right < minDist {
				minDist = right
				direction = 1
			}
			if top < minDist {
				minDist = top
				direction = 2
			}
			if bottom < minDist {
				direction = 3
			}

			switch direction {
			case 0:
				a.Pos.X = min.X - radius
			case 1:
				a.Pos.X = max.X + radius
			case 2:
				a.Pos.Y = min.Y - radius
			case 3:
				a.Pos.Y = max.Y + radius
			}
		} else {
			dist := math.Sqrt(distSq)
			if dist < radius {
				overlap := radius - dist
				a.Pos.X += dx / dist * overlap
				a.Pos.Y += dy / dist * overlap
			}
		}
		a.Pos = ClampToBounds(a.Pos, radius, bounds)
	}
	a.LastGoodPos = a.Pos
}
