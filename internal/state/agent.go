package state

import (
	"math"

	"hold-the-line/server/internal/simutil"
)

// SteerMemory stores the per-agent steering state carried across ticks.
type SteerMemory struct {
	Blocked      bool
	BlockedSide  float64
	BlockedTimer simutil.Timer
	Smoothed     Vec2
}

// StuckMonitor tracks lack of net movement toward a destination.
type StuckMonitor struct {
	Anchor  Vec2
	Still   simutil.Stopwatch
	Retries int
}

// Reset clears the stuck counters and re-anchors at pos.
func (s *StuckMonitor) Reset(pos Vec2) {
	s.Anchor = pos
	s.Still.Reset()
	s.Retries = 0
}

// Route is a planned waypoint list toward Goal. Index points at the next
// waypoint to reach.
type Route struct {
	Goal   Vec2
	Points []Vec2
	Index  int
	Valid  bool
}

// Invalidate forces a replan on the next query.
func (r *Route) Invalidate() {
	r.Valid = false
	r.Points = nil
	r.Index = 0
}

// Agent is the body shared by every mobile entity variant.
type Agent struct {
	base

	Pos         Vec2
	Vel         Vec2
	Acc         Vec2
	LastGoodPos Vec2

	BodyRadius float64
	Speed      float64

	Health    float64
	MaxHealth float64
	dead      bool

	Hidden bool
	Inside EntityID

	Engaged     bool
	EngagedWith EntityID
	EngageLock  simutil.Timer

	AttackCooldown simutil.Timer
	Windup         simutil.Timer
	WindingUp      bool
	MoveLock       simutil.Timer
	Stun           simutil.Timer

	Vulnerable    simutil.Timer
	VulnerableMul float64

	Steer SteerMemory
	Stuck StuckMonitor
	Route Route
}

// NewAgent constructs a live, visible body.
func NewAgent(id EntityID, kind Kind, pos Vec2, radius, speed, hp float64) Agent {
	if hp <= 0 {
		hp = 1
	}
	return Agent{
		base:          base{id: id, kind: kind},
		Pos:           pos,
		LastGoodPos:   pos,
		BodyRadius:    radius,
		Speed:         speed,
		Health:        hp,
		MaxHealth:     hp,
		VulnerableMul: 1,
		Stuck:         StuckMonitor{Anchor: pos},
	}
}

func (a *Agent) Position() Vec2 { return a.Pos }

func (a *Agent) Radius() float64 { return a.BodyRadius }

func (a *Agent) Body() *Agent { return a }

func (a *Agent) HP() float64 { return a.Health }

func (a *Agent) MaxHP() float64 { return a.MaxHealth }

// SetHP stores hp clamped to [0, MaxHealth]. Non-finite values are ignored.
func (a *Agent) SetHP(hp float64) {
	if math.IsNaN(hp) || math.IsInf(hp, 0) {
		return
	}
	if hp < 0 {
		hp = 0
	}
	if a.MaxHealth > 0 && hp > a.MaxHealth {
		hp = a.MaxHealth
	}
	a.Health = hp
}

// Alive reports whether the agent can still act and be targeted.
func (a *Agent) Alive() bool {
	return !a.removed && !a.dead && a.Health > 0
}

// Dead reports whether the death transition already fired.
func (a *Agent) Dead() bool { return a.dead }

// MarkDead fires the death transition. It returns true only for the first
// call; repeated calls are no-ops.
func (a *Agent) MarkDead() bool {
	if a.dead {
		return false
	}
	a.dead = true
	a.removed = true
	return true
}

// Visible reports whether the agent is outside of any building.
func (a *Agent) Visible() bool { return !a.Hidden }

// HealthFraction returns hp/maxHp in [0, 1].
func (a *Agent) HealthFraction() float64 {
	if a.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.MaxHealth
}

// AddAcceleration accumulates steering output for the current tick.
func (a *Agent) AddAcceleration(acc Vec2) {
	if !acc.IsFinite() {
		return
	}
	a.Acc = a.Acc.Add(acc)
}

// HardStop zeroes velocity and acceleration.
func (a *Agent) HardStop() {
	a.Vel = Vec2{}
	a.Acc = Vec2{}
	a.Steer.Smoothed = Vec2{}
}

// Disengage clears the melee lock.
func (a *Agent) Disengage() {
	a.Engaged = false
	a.EngagedWith = NoEntity
	a.EngageLock.Clear()
}

// TickTimers advances every countdown owned by the body.
func (a *Agent) TickTimers(dt float64) {
	a.AttackCooldown.Tick(dt)
	a.Windup.Tick(dt)
	a.MoveLock.Tick(dt)
	a.Stun.Tick(dt)
	a.Steer.BlockedTimer.Tick(dt)
	if a.Vulnerable.Tick(dt) {
		a.VulnerableMul = 1
	}
	if a.EngageLock.Tick(dt) {
		a.Engaged = false
		a.EngagedWith = NoEntity
	}
}

// DistanceTo returns the center distance to another entity.
func (a *Agent) DistanceTo(e Entity) float64 {
	if e == nil {
		return math.Inf(1)
	}
	return a.Pos.Dist(e.Position())
}

// Mobile returns the body of e when it is a live, visible mobile unit.
func Mobile(e Entity) (*Agent, bool) {
	p, ok := e.(Pathing)
	if !ok {
		return nil, false
	}
	body := p.Body()
	if body == nil || !body.Alive() || body.Hidden {
		return nil, false
	}
	return body, true
}
