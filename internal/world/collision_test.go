package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/state"
)

var testBounds = Rect{Center: V(500, 500), Width: 1000, Height: 1000}

func newBody(id state.EntityID, pos Vec2) *state.Agent {
	a := state.NewAgent(id, state.KindMonster, pos, 10, 60, 20)
	return &a
}

func TestResolveCollisionsSeparatesCoincidentBodies(t *testing.T) {
	a := newBody(1, V(200, 200))
	b := newBody(2, V(200, 200))

	ResolveCollisions([]*state.Agent{a, b}, testBounds)

	assert.Greater(t, a.Pos.Dist(b.Pos), 0.0)
	assert.True(t, a.Pos.IsFinite())
	assert.True(t, b.Pos.IsFinite())
}

func TestResolveCollisionsLeavesVelocity(t *testing.T) {
	a := newBody(1, V(200, 200))
	b := newBody(2, V(210, 200))
	a.Vel = V(5, 0)
	b.Vel = V(-5, 0)

	ResolveCollisions([]*state.Agent{a, b}, testBounds)

	assert.Equal(t, V(5, 0), a.Vel)
	assert.Equal(t, V(-5, 0), b.Vel)
	assert.Greater(t, a.Pos.Dist(b.Pos), 10.0)
}

func TestResolveCollisionsEngagedPushIsWeaker(t *testing.T) {
	free1, free2 := newBody(1, V(200, 200)), newBody(2, V(210, 200))
	lock1, lock2 := newBody(3, V(200, 200)), newBody(4, V(210, 200))
	lock1.Engaged = true

	ResolveCollisions([]*state.Agent{free1, free2}, testBounds)
	ResolveCollisions([]*state.Agent{lock1, lock2}, testBounds)

	freeGap := free1.Pos.Dist(free2.Pos)
	lockGap := lock1.Pos.Dist(lock2.Pos)
	assert.Greater(t, freeGap, lockGap)

	// One pass removes 2*35% of the 10 unit overlap from the pair.
	first := 10 + 10*2*CollisionPush
	assert.Greater(t, freeGap, first-1e-9)
}

func TestResolveCollisionsSkipsHiddenAndDead(t *testing.T) {
	a := newBody(1, V(200, 200))
	b := newBody(2, V(200, 200))
	b.Hidden = true
	c := newBody(3, V(200, 200))
	c.SetHP(0)

	ResolveCollisions([]*state.Agent{a, b, c}, testBounds)
	assert.Equal(t, V(200, 200), a.Pos)
}

func TestIntegrateRecoversFromNaN(t *testing.T) {
	a := newBody(1, V(100, 100))
	a.Vel = V(math.NaN(), 0)

	recovered := Integrate(a, 0.1, testBounds, V(500, 500))
	require.True(t, recovered)
	assert.Equal(t, V(100, 100), a.Pos)
	assert.Equal(t, Vec2{}, a.Vel)
	assert.Equal(t, Vec2{}, a.Acc)
}

func TestIntegrateFallsBackWhenLastGoodIsInvalid(t *testing.T) {
	a := newBody(1, V(100, 100))
	a.LastGoodPos = V(math.Inf(1), 0)
	a.Acc = V(math.NaN(), 1)
	a.Vel = V(math.NaN(), 1)

	require.True(t, Integrate(a, 0.1, testBounds, V(500, 520)))
	assert.Equal(t, V(500, 520), a.Pos)
}

func TestIntegrateMovesAndClearsAcceleration(t *testing.T) {
	a := newBody(1, V(100, 100))
	a.Acc = V(1000, 0)

	assert.False(t, Integrate(a, 0.1, testBounds, V(0, 0)))
	assert.InDelta(t, a.Speed, a.Vel.Len(), 1e-9, "velocity capped at speed")
	assert.Greater(t, a.Pos.X, 100.0)
	assert.Equal(t, Vec2{}, a.Acc)
	assert.Equal(t, a.Pos, a.LastGoodPos)
}

func TestIntegrateEngagedHoldsStill(t *testing.T) {
	a := newBody(1, V(100, 100))
	a.Vel = V(30, 0)
	a.Acc = V(100, 0)
	a.Engaged = true

	Integrate(a, 0.1, testBounds, V(0, 0))
	assert.Equal(t, V(100, 100), a.Pos)
	assert.Equal(t, Vec2{}, a.Vel)
}

func TestResolveObstaclePenetrationPushesOut(t *testing.T) {
	a := newBody(1, V(105, 100))
	obstacle := Rect{Center: V(100, 100), Width: 40, Height: 40}

	ResolveObstaclePenetration(a, []Rect{obstacle}, testBounds)
	assert.False(t, CircleRectOverlap(a.Pos, a.BodyRadius-1e-6, obstacle))
}
