package combat

import "hold-the-line/server/internal/state"

// DefaultEngageLock is the melee lock refreshed on every melee swing.
const DefaultEngageLock = 1.0

// Engage locks attacker into melee with m, claiming one of its bounded slots.
// An attacker holds at most one engagement; a different previous one is
// released first. It fails when every slot is taken.
func (r *Resolver) Engage(attacker *state.Agent, m *state.Monster, lock float64) bool {
	if attacker == nil || m == nil || !m.Alive() || !attacker.Alive() {
		return false
	}
	if attacker.Engaged && attacker.EngagedWith != m.ID() {
		r.Disengage(attacker)
	}
	r.PruneSlots(m)
	if !m.ClaimSlot(attacker.ID()) {
		return false
	}
	if lock <= 0 {
		lock = DefaultEngageLock
	}
	attacker.Engaged = true
	attacker.EngagedWith = m.ID()
	attacker.EngageLock.Reset(lock)
	return true
}

// Disengage releases a's melee lock and any slot it holds.
func (r *Resolver) Disengage(a *state.Agent) {
	if a == nil {
		return
	}
	if a.EngagedWith != state.NoEntity {
		if e, ok := r.reg.Lookup(a.EngagedWith); ok {
			if m, ok := e.(*state.Monster); ok {
				m.ReleaseSlot(a.ID())
			}
		}
	}
	a.Disengage()
}

// PruneSlots frees slots whose holder died or is no longer locked onto m.
func (r *Resolver) PruneSlots(m *state.Monster) {
	if m == nil {
		return
	}
	for _, id := range m.Engagers() {
		t, ok := r.reg.Target(id)
		if !ok {
			m.ReleaseSlot(id)
			continue
		}
		body, ok := mobileBody(t)
		if !ok || !body.Engaged || body.EngagedWith != m.ID() {
			m.ReleaseSlot(id)
		}
	}
}
