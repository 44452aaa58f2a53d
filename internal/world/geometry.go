package world

import (
	"errors"
	"math"

	"hold-the-line/server/internal/state"
)

// Vec2 aliases the shared state vector type for world helpers.
type Vec2 = state.Vec2

// Rect aliases the shared rectangle type.
type Rect = state.Rect

// ErrInvalidPoint is returned for NaN or infinite coordinates.
var ErrInvalidPoint = errors.New("world: invalid point")

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// CircleRectOverlap reports whether a circle intersects a rectangle.
func CircleRectOverlap(center Vec2, radius float64, rect Rect) bool {
	min, max := rect.Min(), rect.Max()
	closestX := Clamp(center.X, min.X, max.X)
	closestY := Clamp(center.Y, min.Y, max.Y)
	dx := center.X - closestX
	dy := center.Y - closestY
	return dx*dx+dy*dy < radius*radius
}

// ClampToBounds keeps a circle of radius inside the bounds rectangle.
func ClampToBounds(p Vec2, radius float64, bounds Rect) Vec2 {
	min, max := bounds.Min(), bounds.Max()
	axis := func(v, lo, hi float64) float64 {
		if lo > hi {
			return (lo + hi) / 2
		}
		return Clamp(v, lo, hi)
	}
	return Vec2{
		X: axis(p.X, min.X+radius, max.X-radius),
		Y: axis(p.Y, min.Y+radius, max.Y-radius),
	}
}

// Finite reports whether v is a usable coordinate.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DirectionFrom returns the unit vector from a to b, or zero when they
// coincide.
func DirectionFrom(a, b Vec2) Vec2 {
	return b.Sub(a).Normalize()
}

// FromAngle returns the unit vector at angle radians.
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}
