package world

import (
	"math"

	"hold-the-line/server/internal/state"
)

const (
	// CollisionPasses is the number of relaxation sweeps per tick.
	CollisionPasses = 2
	// CollisionPush is the share of overlap removed per pass for free pairs.
	CollisionPush = 0.35
	// CollisionPushEngaged applies when either body is locked in melee.
	CollisionPushEngaged = 0.15
	// CoincidentJitter separates bodies sharing the exact same position.
	CoincidentJitter = 0.5
)

// ResolveCollisions softly separates overlapping bodies. It corrects positions
// only; velocities are left untouched.
func ResolveCollisions(bodies []*state.Agent, bounds Rect) {
	if len(bodies) < 2 {
		return
	}
	for pass := 0; pass < CollisionPasses; pass++ {
		adjusted := false
		for i := 0; i < len(bodies); i++ {
			a := bodies[i]
			if a == nil || a.Hidden || !a.Alive() {
				continue
			}
			for j := i + 1; j < len(bodies); j++ {
				b := bodies[j]
				if b == nil || b.Hidden || !b.Alive() {
					continue
				}
				if separatePair(a, b, bounds) {
					adjusted = true
				}
			}
		}
		if !adjusted {
			break
		}
	}
}

func separatePair(a, b *state.Agent, bounds Rect) bool {
	minDist := a.BodyRadius + b.BodyRadius
	if minDist <= 0 {
		return false
	}
	if a.Pos == b.Pos {
		a.Pos.X -= CoincidentJitter
		b.Pos.X += CoincidentJitter
	}
	dx := b.Pos.X - a.Pos.X
	dy := b.Pos.Y - a.Pos.Y
	dist := math.Hypot(dx, dy)
	if dist >= minDist || dist == 0 {
		return false
	}

	fraction := CollisionPush
	if a.Engaged || b.Engaged {
		fraction = CollisionPushEngaged
	}
	push := (minDist - dist) * fraction
	nx, ny := dx/dist, dy/dist

	a.Pos = ClampToBounds(Vec2{X: a.Pos.X - nx*push, Y: a.Pos.Y - ny*push}, a.BodyRadius, bounds)
	b.Pos = ClampToBounds(Vec2{X: b.Pos.X + nx*push, Y: b.Pos.Y + ny*push}, b.BodyRadius, bounds)
	return true
}
