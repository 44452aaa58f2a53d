package ai

import (
	"context"
	"math"

	"hold-the-line/server/internal/catalog"
	"hold-the-line/server/internal/combat"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
	loggingcombat "hold-the-line/server/logging/combat"
	"hold-the-line/server/logging/lifecycle"
	"hold-the-line/server/stats"
)

// Combat tuning.
const (
	heroWindup        = 0.25
	critMultiplier    = 1.5
	kiteStaminaRate   = 12.0
	chaseGiveUpFactor = 1.5
	xpPerLevel        = 100.0
	levelHealFraction = 0.25
	levelPrimaryGain  = 2.0
	levelVitalityGain = 1.0
)

func xpValue(m *state.Monster) float64 {
	return m.MaxHealth / 2
}

// edgeGap is the distance between two body edges.
func edgeGap(a *state.Agent, b state.Targetable) float64 {
	return a.Pos.Dist(b.Position()) - a.BodyRadius - b.Radius()
}

// fight runs the FIGHT state against the current target.
func (e *Env) fight(h *state.Hero, dt float64) {
	m, ok := e.Registry.Monster(h.Target)
	if !ok || !m.Alive() || m.Hidden {
		e.win(h)
		return
	}
	if e.trySkill(h, m) {
		return
	}

	gap := edgeGap(&h.Agent, m)
	switch {
	case !h.Melee && gap < h.Range.Min && !h.WindingUp:
		if e.spendStamina(h, kiteStaminaRate*dt) {
			e.Steer.Flee(&h.Agent, m.Pos, h.Speed)
			return
		}
	case gap > h.Range.Max:
		if gap > h.Perception*chaseGiveUpFactor {
			e.Combat.Disengage(&h.Agent)
			h.Target = state.NoEntity
			h.WindingUp = false
			h.SetState(state.HeroDecision)
			return
		}
		h.WindingUp = false
		e.chase(&h.Agent, m.Pos, h.Speed, e.heroSeparation(h, false))
		return
	}

	e.hold(&h.Agent, e.heroSeparation(h, true))
	if h.Melee && !e.Combat.Engage(&h.Agent, m, combat.DefaultEngageLock) {
		h.Target = state.NoEntity
		h.WindingUp = false
		h.SetState(state.HeroDecision)
		return
	}
	e.heroAttack(h, m)
}

// heroAttack runs the cooldown, windup and strike cycle.
func (e *Env) heroAttack(h *state.Hero, m *state.Monster) {
	if !h.WindingUp {
		if h.AttackCooldown.Active() {
			return
		}
		h.WindingUp = true
		h.Windup.Reset(heroWindup)
		return
	}
	if h.Windup.Active() {
		return
	}
	h.WindingUp = false
	h.AttackCooldown.Reset(h.AttackInterval())

	damage := h.Damage()
	if world.RandomFloat(e.RNG) < h.Stats.GetDerived(stats.DerivedCritChance) {
		damage *= critMultiplier
		e.feedback("CRIT", state.ColorWarn, m.Pos)
	}
	if h.Melee {
		h.EngageLock.Reset(combat.DefaultEngageLock)
		if out := e.Combat.Apply(combat.Hit{Source: h.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: damage}); out.Killed {
			e.win(h)
		}
		return
	}
	e.Combat.Fire(h.ID(), state.KindHero, h.Pos, m, e.Catalog.Class(string(h.Class)).ProjectileSpeed, damage)
}

// trySkill fires at most one ready skill whose trigger matches.
func (e *Env) trySkill(h *state.Hero, m *state.Monster) bool {
	if h.MoveLock.Active() {
		return false
	}
	gap := edgeGap(&h.Agent, m)
	now := e.now()
	for _, learned := range h.Skills {
		skill, ok := e.Catalog.Skill(learned.ID)
		if !ok || !h.SkillReady(skill.Name, now) {
			continue
		}
		if !skillTriggered(skill.Trigger, gap, m.HealthFraction()) {
			continue
		}
		if !e.spendStamina(h, skill.Stamina) {
			return false
		}
		h.StartSkillCooldown(skill.Name, now+skill.Cooldown)
		h.MoveLock.Reset(skill.Effect.MoveLock)
		e.applySkill(h, m, skill)
		loggingcombat.Skill(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(m),
			loggingcombat.SkillPayload{Skill: skill.Name}, nil)
		return true
	}
	return false
}

func skillTriggered(t catalog.SkillTrigger, gap, targetFraction float64) bool {
	if gap < t.MinRange || gap > t.MaxRange {
		return false
	}
	return t.TargetBelow <= 0 || targetFraction < t.TargetBelow
}

func (e *Env) applySkill(h *state.Hero, m *state.Monster, skill catalog.SkillEntry) {
	fx := skill.Effect
	damage := h.Damage() * fx.DamageMult
	hit := func(amount float64) {
		if amount <= 0 {
			return
		}
		if out := e.Combat.Apply(combat.Hit{Source: h.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: amount}); out.Killed {
			e.win(h)
		}
	}
	e.feedback(skill.Name, state.ColorInfo, h.Pos)

	switch fx.Kind {
	case "stun":
		hit(damage)
		if m.Alive() {
			m.Stun.Reset(fx.Stun)
			m.WindingUp = false
			if fx.Vulnerable > 0 {
				m.Vulnerable.Reset(fx.Vulnerable)
				m.VulnerableMul = math.Max(1, fx.VulnerableMul)
			}
		}
	case "knockback":
		hit(damage)
		if m.Alive() {
			dir := m.Pos.Sub(h.Pos).Normalize()
			if landing := m.Pos.Add(dir.Scale(fx.Knockback)); e.walkable(landing) {
				m.Pos = landing
				m.Route.Invalidate()
			}
		}
	case "dash":
		e.dashAway(h, m.Pos, fx.Dash)
		if fx.Retaliate && damage > 0 {
			e.Combat.Fire(h.ID(), state.KindHero, h.Pos, m, e.Catalog.Class(string(h.Class)).ProjectileSpeed, damage)
		}
	case "execute":
		if m.HealthFraction() < skill.Trigger.TargetBelow {
			damage *= math.Max(1, fx.ExecuteBonus)
		}
		if h.Melee {
			hit(damage)
		} else {
			e.Combat.Fire(h.ID(), state.KindHero, h.Pos, m, e.Catalog.Class(string(h.Class)).ProjectileSpeed, damage)
		}
	}
}

// dashAway jumps h up to distance away from threat, trying angles around the
// direct escape until the landing is walkable.
func (e *Env) dashAway(h *state.Hero, threat Vec2, distance float64) {
	away := h.Pos.Sub(threat).Normalize()
	if away.IsZero() {
		away = state.V(1, 0)
	}
	base := math.Atan2(away.Y, away.X)
	for _, offset := range []float64{0, math.Pi / 6, -math.Pi / 6, math.Pi / 3, -math.Pi / 3, math.Pi / 2, -math.Pi / 2} {
		a := base + offset
		landing := h.Pos.Add(state.V(math.Cos(a), math.Sin(a)).Scale(distance))
		if e.walkable(landing) {
			e.Combat.Disengage(&h.Agent)
			h.Pos = landing
			h.LastGoodPos = landing
			h.HardStop()
			h.Route.Invalidate()
			return
		}
	}
}

// win ends a fight: experience, level-ups, morale and a short VICTORY.
func (e *Env) win(h *state.Hero) {
	if h.State != state.HeroFight {
		return
	}
	e.Combat.Disengage(&h.Agent)
	h.XP += h.TargetValue * math.Max(0, e.Catalog.Class(string(h.Class)).XPMultiplier)
	h.TargetValue = 0
	h.Target = state.NoEntity
	h.WindingUp = false
	e.levelUp(h)
	h.AdjustMorale(moraleWin)
	from := h.State
	e.enterVictory(h)
	e.publishState(h, from.String(), h.State.String())
}

// XPForLevel is the experience needed to advance past level.
func XPForLevel(level int) float64 {
	return xpPerLevel * float64(level)
}

// levelUp spends banked experience one level at a time. Level gains live in
// a single progression source so repeated level-ups replace it.
func (e *Env) levelUp(h *state.Hero) {
	gained := 0
	for h.XP >= XPForLevel(h.Level) {
		h.XP -= XPForLevel(h.Level)
		h.Level++
		gained++
	}
	if gained == 0 {
		return
	}
	levels := float64(h.Level - 1)
	mod := stats.Modifier{
		Layer:  stats.LayerLevel,
		Source: stats.SourceKey{Kind: stats.SourceKindProgression, ID: "level"},
	}
	mod.Add[h.Stats.Primary()] = levelPrimaryGain * levels
	mod.Add[stats.StatVitality] += levelVitalityGain * levels
	h.Stats.Set(mod)
	e.resolveStats(h)
	h.SetHP(h.Health + h.MaxHealth*levelHealFraction)
	e.learnSkills(h)
	e.feedback("LEVEL UP", state.ColorGold, h.Pos)
	lifecycle.LevelUp(context.Background(), e.Publisher, e.tick(), e.ref(h),
		lifecycle.LevelUpPayload{Level: h.Level}, nil)
}

// learnSkills adds every class skill unlocked at the hero's level.
func (e *Env) learnSkills(h *state.Hero) {
	for _, skill := range e.Catalog.SkillsFor(string(h.Class), h.Level) {
		if !h.Knows(skill.Name) {
			h.Skills = append(h.Skills, state.LearnedSkill{ID: skill.Name})
		}
	}
}
