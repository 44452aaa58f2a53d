package ai

import (
	"math"

	"hold-the-line/server/internal/combat"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/steering"
)

// Monster tuning.
const (
	monsterWindup      = 0.3
	monsterLeash       = 240.0
	noticeRange        = 120.0
	siegeLockDuration  = 3.0
	stickyDuration     = 1.0
	siegeStuckLimit    = 1.5
	doorReachBonus     = 12.0
	rangeHysteresis    = 6.0
	gatherCheckEvery   = 1.0
	gatherJitterRadius = 25.0
	gatherJitterEvery  = 1.5
)

// UpdateMonster advances one monster by dt.
func (e *Env) UpdateMonster(m *state.Monster, dt float64) {
	if m == nil || !m.Alive() {
		return
	}
	m.TickTimers(dt)
	if m.Stun.Active() {
		m.WindingUp = false
		m.HardStop()
		return
	}
	from := m.State
	if m.State == state.MonsterGather {
		e.gather(m, dt)
	}
	if m.State == state.MonsterHunt {
		e.hunt(m, dt)
	}
	e.publishState(m, from.String(), m.State.String())
}

// gather holds a swarm monster at its rally point until enough allies show
// up, the wait runs out or something hits it.
func (e *Env) gather(m *state.Monster, dt float64) {
	entry := e.Catalog.Archetype(m.Archetype)
	if m.GatherWait.Expired() || m.Aggro != state.NoEntity {
		m.State = state.MonsterHunt
		return
	}
	m.GatherClock.Add(dt)
	if m.GatherClock.Exceeds(gatherCheckEvery) {
		m.GatherClock.Reset()
		if e.alliesNear(m, entry.GatherRadius) >= entry.SwarmThreshold {
			m.State = state.MonsterHunt
			return
		}
	}
	if m.Pos.Dist(m.GatherPoint) <= gatherJitterRadius {
		if m.Jitter.Expired() {
			m.Jitter.Reset(gatherJitterEvery)
			m.GatherPoint = e.randomWalkable(m.GatherPoint, 0, gatherJitterRadius)
		}
		e.hold(&m.Agent, steering.SeparationFull)
		return
	}
	e.chase(&m.Agent, m.GatherPoint, m.Speed*0.5, steering.SeparationFull)
}

// alliesNear counts other monsters of the same behavior within radius.
func (e *Env) alliesNear(m *state.Monster, radius float64) int {
	n := 0
	for _, other := range e.monstersNear(m.Pos, radius) {
		if other != m && other.Behavior == m.Behavior {
			n++
		}
	}
	return n
}

// hunt resolves a target and attacks it. A committed windup keeps its
// target while that target stays live and visible.
func (e *Env) hunt(m *state.Monster, dt float64) {
	target, ok := e.windupTarget(m)
	if !ok {
		target, ok = e.monsterTarget(m)
	}
	if !ok {
		m.WindingUp = false
		e.chase(&m.Agent, e.castleDoor(), m.Speed, steering.SeparationFull)
		return
	}
	m.Target = target.ID()

	b, isBuilding := target.(*state.Building)
	reach := m.BodyRadius + m.AttackRange
	var dist float64
	if isBuilding {
		reach += doorReachBonus
		dist = m.Pos.Dist(b.DoorPoint())
	} else {
		dist = m.Pos.Dist(target.Position()) - target.Radius()
	}
	if m.WindingUp || m.Engaged {
		reach += rangeHysteresis
	}

	if dist > reach {
		m.WindingUp = false
		trackStuck(&m.Agent, dt)
		if isBuilding {
			e.move(&m.Agent, steering.DoorGoal(b), m.Speed, steering.SeparationTravel)
		} else {
			e.chase(&m.Agent, target.Position(), m.Speed, steering.SeparationFull)
		}
		return
	}
	m.Stuck.Reset(m.Pos)
	e.hold(&m.Agent, steering.SeparationHoldRange)
	e.monsterAttack(m, target)
}

func (e *Env) windupTarget(m *state.Monster) (state.Targetable, bool) {
	if !m.WindingUp {
		return nil, false
	}
	t, ok := e.Registry.Target(m.Target)
	if !ok || !visibleTarget(t) {
		m.WindingUp = false
		return nil, false
	}
	return t, true
}

// monsterTarget picks, in order: a live aggro source, the current unit
// target inside the leash, a nearby opportunity and finally a building to
// besiege.
func (e *Env) monsterTarget(m *state.Monster) (state.Targetable, bool) {
	if m.AggroTimer.Active() {
		if t, ok := e.Registry.Validate(&m.Aggro); ok && visibleTarget(t) {
			return t, true
		}
	}

	var current state.Targetable
	if t, ok := e.Registry.Target(m.Target); ok && visibleTarget(t) {
		if _, isBuilding := t.(*state.Building); !isBuilding && m.Pos.Dist(t.Position()) <= monsterLeash {
			current = t
		}
	}
	nearest, nearestDist := e.nearestFriendly(m.Pos, noticeRange)
	if current != nil {
		curDist := m.Pos.Dist(current.Position())
		if nearest != nil && nearest.ID() != current.ID() && !m.Sticky.Active() && nearestDist/combat.AggroSwitchFactor < curDist {
			m.Sticky.Reset(stickyDuration)
			return nearest, true
		}
		return current, true
	}

	if nearest != nil && !m.SiegeLock.Active() && !m.Sticky.Active() {
		if m.Behavior != state.BehaviorSiege || m.Stuck.Still.Exceeds(siegeStuckLimit) {
			m.Sticky.Reset(stickyDuration)
			return nearest, true
		}
	}

	if b, ok := e.Registry.Building(m.Siege); ok && m.SiegeLock.Active() {
		return b, true
	}
	b, ok := e.siegeTarget(m)
	if !ok {
		return nil, false
	}
	if b.ID() != m.Siege {
		m.Siege = b.ID()
		m.SiegeLock.Reset(siegeLockDuration)
	}
	return b, true
}

func visibleTarget(t state.Targetable) bool {
	if p, ok := t.(state.Pathing); ok {
		return !p.Body().Hidden
	}
	return true
}

// nearestFriendly returns the closest live visible unit monsters may attack.
func (e *Env) nearestFriendly(p Vec2, radius float64) (state.Targetable, float64) {
	var best state.Targetable
	bestDist := math.Inf(1)
	for i := 0; i < e.Registry.Len(); i++ {
		ent := e.Registry.At(i)
		if ent == nil || !ent.Kind().Friendly() {
			continue
		}
		body, ok := state.Mobile(ent)
		if !ok {
			continue
		}
		if d := p.Dist(body.Pos); d <= radius && d < bestDist {
			best, bestDist = ent.(state.Targetable), d
		}
	}
	return best, bestDist
}

// siegeTarget picks the nearest constructed building, falling back to the
// castle.
func (e *Env) siegeTarget(m *state.Monster) (*state.Building, bool) {
	var best *state.Building
	bestDist := math.Inf(1)
	for _, b := range e.Registry.Buildings() {
		if !b.Constructed || !b.Alive() {
			continue
		}
		if d := m.Pos.Dist(b.DoorPoint()); d < bestDist {
			best, bestDist = b, d
		}
	}
	if best != nil {
		return best, true
	}
	return e.Registry.Castle()
}

// monsterAttack runs the cooldown, windup and strike cycle.
func (e *Env) monsterAttack(m *state.Monster, target state.Targetable) {
	if !m.WindingUp {
		if m.AttackCooldown.Active() {
			return
		}
		m.WindingUp = true
		m.Windup.Reset(monsterWindup)
		return
	}
	if m.Windup.Active() {
		return
	}
	m.WindingUp = false
	m.AttackCooldown.Reset(m.AttackEvery)
	if m.Behavior == state.BehaviorRanged {
		e.Combat.Fire(m.ID(), state.KindMonster, m.Pos, target, e.Catalog.Archetype(m.Archetype).ProjectileSpeed, m.Damage)
		return
	}
	e.Combat.Apply(combat.Hit{Source: m.ID(), SourceKind: state.KindMonster, Target: target.ID(), Amount: m.Damage})
}
