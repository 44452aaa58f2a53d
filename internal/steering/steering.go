// Package steering turns a desired destination into an acceleration for a
// mobile body: arrival ramp, flow field blending, head-on deadlock recovery,
// separation and building avoidance.
package steering

import (
	"math"
	"math/rand"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
)

type Vec2 = state.Vec2

// Params tunes the controller. Zero fields take the defaults.
type Params struct {
	HeroArriveRadius  float64
	OtherArriveRadius float64
	StopRadius        float64
	MinCruise         float64
	FlowWeight        float64
	FlowCutoff        float64
	Smoothing         float64
	Responsiveness    float64
	SteerStrength     float64
	BlockDot          float64
	BlockGap          float64
	BlockBias         float64
	BlockStickyMin    float64
	BlockStickyMax    float64
	SeparationRange   float64
	SeparationForce   float64
	AvoidLookahead    float64
	AvoidCone         float64
	AvoidForce        float64
	NearDoorRadius    float64
}

// DefaultParams returns the tuning used by the simulation.
func DefaultParams() Params {
	return Params{
		HeroArriveRadius:  60,
		OtherArriveRadius: 50,
		StopRadius:        5,
		MinCruise:         0.25,
		FlowWeight:        0.6,
		FlowCutoff:        100,
		Smoothing:         0.25,
		Responsiveness:    10,
		SteerStrength:     8,
		BlockDot:          0.55,
		BlockGap:          1.3,
		BlockBias:         0.9,
		BlockStickyMin:    0.3,
		BlockStickyMax:    0.5,
		SeparationRange:   1.6,
		SeparationForce:   4,
		AvoidLookahead:    40,
		AvoidCone:         0.7,
		AvoidForce:        3,
		NearDoorRadius:    70,
	}
}

// Goal is a steering destination. FlowKey is set when the destination is a
// door, enabling the flow field blend; Building names the agent's own target
// building so avoidance leaves its final approach alone.
type Goal struct {
	Point    Vec2
	FlowKey  string
	Building state.EntityID
}

// PointGoal steers straight at p.
func PointGoal(p Vec2) Goal { return Goal{Point: p} }

// DoorGoal steers at a building entrance with flow field assistance.
func DoorGoal(b *state.Building) Goal {
	return Goal{Point: b.DoorPoint(), FlowKey: world.DoorKey(b.ID()), Building: b.ID()}
}

// Controller computes steering for every mobile body.
type Controller struct {
	params Params
	flow   *world.FlowFieldService
	rng    *rand.Rand
}

// NewController binds a controller to the shared flow field service. flow may
// be nil, which disables blending.
func NewController(params Params, flow *world.FlowFieldService, rng *rand.Rand) *Controller {
	return &Controller{params: params, flow: flow, rng: rng}
}

// Params returns the active tuning.
func (c *Controller) Params() Params { return c.params }

// ArriveRadius returns the slowdown radius for a body kind.
func (c *Controller) ArriveRadius(kind state.Kind) float64 {
	if kind == state.KindHero {
		return c.params.HeroArriveRadius
	}
	return c.params.OtherArriveRadius
}

// DesiredSpeed applies the arrival ramp: full speed outside the arrive
// radius, a quadratic ramp inside it with a cruise floor, and zero inside the
// stop radius.
func (c *Controller) DesiredSpeed(dist, arrive, maxSpeed float64) float64 {
	p := c.params
	if dist <= p.StopRadius {
		return 0
	}
	if dist >= arrive || arrive <= p.StopRadius {
		return maxSpeed
	}
	t := (dist - p.StopRadius) / (arrive - p.StopRadius)
	speed := maxSpeed * t * t
	return math.Max(speed, maxSpeed*p.MinCruise)
}

// Seek accumulates the acceleration that moves a toward goal and returns it.
// Inside the stop radius the body is hard-stopped and arrived is true.
func (c *Controller) Seek(a *state.Agent, goal Goal, maxSpeed float64, neighbors []*state.Agent) (Vec2, bool) {
	if a == nil || !goal.Point.IsFinite() {
		return Vec2{}, false
	}
	p := c.params
	to := goal.Point.Sub(a.Pos)
	dist := to.Len()
	if dist <= p.StopRadius {
		a.HardStop()
		a.Steer.Blocked = false
		return Vec2{}, true
	}

	dir := to.Scale(1 / dist)
	if goal.FlowKey != "" && c.flow != nil && dist > p.FlowCutoff {
		if flow := c.flow.VectorAt(goal.FlowKey, goal.Point, a.Pos); !flow.IsZero() {
			blended := dir.Scale(1 - p.FlowWeight).Add(flow.Scale(p.FlowWeight)).Normalize()
			if !blended.IsZero() {
				dir = blended
			}
		}
	}
	dir = c.unblock(a, dir, neighbors)

	speed := c.DesiredSpeed(dist, c.ArriveRadius(a.Kind()), maxSpeed)
	desired := dir.Scale(speed)
	return c.apply(a, desired, maxSpeed), false
}

// SeekVelocity steers toward an explicit desired velocity, used for fleeing
// and kiting.
func (c *Controller) SeekVelocity(a *state.Agent, desired Vec2, maxSpeed float64) Vec2 {
	if a == nil || !desired.IsFinite() {
		return Vec2{}
	}
	return c.apply(a, desired.Limit(maxSpeed), maxSpeed)
}

func (c *Controller) apply(a *state.Agent, desired Vec2, maxSpeed float64) Vec2 {
	p := c.params
	a.Steer.Smoothed = a.Steer.Smoothed.Lerp(desired, p.Smoothing)
	steer := a.Steer.Smoothed.Sub(a.Vel).Scale(p.Responsiveness).Limit(maxSpeed * p.SteerStrength)
	if !steer.IsFinite() {
		a.Steer.Smoothed = Vec2{}
		return Vec2{}
	}
	a.AddAcceleration(steer)
	return steer
}

// unblock detects a unit nearly head-on in the travel direction and bends the
// direction toward a sticky, randomly chosen side.
func (c *Controller) unblock(a *state.Agent, dir Vec2, neighbors []*state.Agent) Vec2 {
	p := c.params
	blocked := false
	for _, other := range neighbors {
		if other == nil || other == a || other.Hidden || !other.Alive() {
			continue
		}
		to := other.Pos.Sub(a.Pos)
		d := to.Len()
		gap := (a.BodyRadius + other.BodyRadius) * p.BlockGap
		if d == 0 || d > gap {
			continue
		}
		if dir.Dot(to.Scale(1/d)) > p.BlockDot {
			blocked = true
			break
		}
	}

	mem := &a.Steer
	if blocked {
		if !mem.Blocked || mem.BlockedTimer.Expired() {
			mem.BlockedSide = world.RandomSign(c.rng)
			mem.BlockedTimer.Reset(world.RandomDistance(c.rng, p.BlockStickyMin, p.BlockStickyMax))
		}
		mem.Blocked = true
	} else if mem.BlockedTimer.Expired() {
		mem.Blocked = false
	}
	if !mem.Blocked {
		return dir
	}
	bent := dir.Add(dir.Perp().Scale(mem.BlockedSide * p.BlockBias)).Normalize()
	if bent.IsZero() {
		return dir
	}
	return bent
}
