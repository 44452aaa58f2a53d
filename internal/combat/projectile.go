package combat

import "hold-the-line/server/internal/state"

// Projectile defaults.
const (
	DefaultProjectileSpeed = 320.0
)

// Fire appends a projectile aimed at target to the registry. Projectiles are
// added during behavior updates; the registry tolerates the append.
func (r *Resolver) Fire(source state.EntityID, owner state.Kind, from state.Vec2, target state.Targetable, speed, damage float64) *state.Projectile {
	if target == nil || damage <= 0 {
		return nil
	}
	if speed <= 0 {
		speed = DefaultProjectileSpeed
	}
	p := state.NewProjectile(r.reg.AllocateID(), source, owner, from, target.ID(), target.Position(), speed, damage)
	if p.Dir.IsZero() {
		p.Dir = state.V(1, 0)
	}
	if !r.reg.Add(p) {
		return nil
	}
	return p
}

// AdvanceProjectile moves p for dt seconds. It homes on a live target and
// flies straight once the target is gone, applying damage on contact. It
// reports whether the projectile finished this tick.
func (r *Resolver) AdvanceProjectile(p *state.Projectile, dt float64, bounds state.Rect) bool {
	if p == nil || p.Removed() {
		return true
	}
	p.Lifetime += dt
	if p.MaxLife > 0 && p.Lifetime >= p.MaxLife {
		p.MarkRemoved()
		return true
	}

	target, homing := r.reg.Validate(&p.Target)
	if homing {
		if dir := target.Position().Sub(p.Pos).Normalize(); !dir.IsZero() {
			p.Dir = dir
		}
	}
	p.Pos = p.Pos.Add(p.Dir.Scale(p.Speed * dt))
	if !p.Pos.IsFinite() || !bounds.Contains(p.Pos) {
		p.MarkRemoved()
		return true
	}

	if homing {
		if p.Pos.Dist(target.Position()) <= p.Size+target.Radius() {
			r.impact(p, target.ID())
			return true
		}
		return false
	}
	if victim, ok := r.strayHit(p); ok {
		r.impact(p, victim)
		return true
	}
	return false
}

func (r *Resolver) impact(p *state.Projectile, target state.EntityID) {
	r.Apply(Hit{Source: p.Source, SourceKind: p.Owner, Target: target, Amount: p.Damage})
	p.MarkRemoved()
}

// strayHit finds a hostile body touching a projectile whose target is gone.
func (r *Resolver) strayHit(p *state.Projectile) (state.EntityID, bool) {
	hitsMonsters := p.Owner != state.KindMonster
	var found state.EntityID
	r.reg.Each(func(e state.Entity) {
		if found != state.NoEntity {
			return
		}
		body, ok := state.Mobile(e)
		if !ok {
			return
		}
		if (e.Kind() == state.KindMonster) != hitsMonsters {
			return
		}
		if p.Pos.Dist(body.Pos) <= p.Size+body.BodyRadius {
			found = e.ID()
		}
	})
	return found, found != state.NoEntity
}
