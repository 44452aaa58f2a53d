// Package combat applies damage, resolves deaths exactly once, manages melee
// engagement slots and distributes monster bounties.
package combat

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/logging"
	loggingcombat "hold-the-line/server/logging/combat"
	loggingeconomy "hold-the-line/server/logging/economy"
	"hold-the-line/server/stats"
)

const (
	// AggroDuration is how long a monster remembers its latest attacker.
	AggroDuration = 5.0
	// AggroSwitchFactor scales the attacker distance when deciding whether to
	// abandon the current aggro target for a closer one.
	AggroSwitchFactor = 0.7
	// NearDeathFraction marks the health fraction counted as a near-death.
	NearDeathFraction = 0.2
	// MoraleNearDeath is the morale penalty for a near-death.
	MoraleNearDeath = -0.1
)

// Clock reports simulation time and the current tick.
type Clock interface {
	Now() float64
	Tick() uint64
}

// Hit is a single damage application.
type Hit struct {
	Source     state.EntityID
	SourceKind state.Kind
	Target     state.EntityID
	Amount     float64
}

// Outcome reports what a hit did.
type Outcome struct {
	Dealt  float64
	Killed bool
}

// DeathFunc observes a completed death transition.
type DeathFunc func(victim state.Targetable, killer state.EntityID)

// Config wires a Resolver to the simulation root.
type Config struct {
	Registry  *state.Registry
	Treasury  *state.Treasury
	Clock     Clock
	Emitter   state.Emitter
	Publisher logging.Publisher
	Logger    logrus.FieldLogger
	OnDeath   DeathFunc
}

// Resolver is the single entry point for damage in the simulation.
type Resolver struct {
	reg      *state.Registry
	treasury *state.Treasury
	clock    Clock
	emitter  state.Emitter
	pub      logging.Publisher
	log      logrus.FieldLogger
	onDeath  DeathFunc
	deaths   int
}

// NewResolver constructs a resolver. Missing collaborators fall back to
// no-op implementations.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		reg:      cfg.Registry,
		treasury: cfg.Treasury,
		clock:    cfg.Clock,
		emitter:  cfg.Emitter,
		pub:      cfg.Publisher,
		onDeath:  cfg.OnDeath,
	}
	if r.reg == nil {
		r.reg = state.NewRegistry()
	}
	if r.emitter == nil {
		r.emitter = state.NopEmitter{}
	}
	if r.pub == nil {
		r.pub = logging.NopPublisher()
	}
	logger := cfg.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(nopWriter{})
		logger = discard
	}
	r.log = logger.WithField("component", "combat")
	return r
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetOnDeath replaces the death hook.
func (r *Resolver) SetOnDeath(fn DeathFunc) { r.onDeath = fn }

// Deaths returns the number of death transitions fired.
func (r *Resolver) Deaths() int { return r.deaths }

func (r *Resolver) now() float64 {
	if r.clock == nil {
		return 0
	}
	return r.clock.Now()
}

func (r *Resolver) tick() uint64 {
	if r.clock == nil {
		return 0
	}
	return r.clock.Tick()
}

// Apply resolves hit against its target. Dead, removed or unknown targets and
// non-positive amounts are ignored, so repeated hits after death never fire a
// second death transition.
func (r *Resolver) Apply(hit Hit) Outcome {
	if hit.Amount <= 0 || math.IsNaN(hit.Amount) || math.IsInf(hit.Amount, 0) {
		return Outcome{}
	}
	target, ok := r.reg.Target(hit.Target)
	if !ok {
		return Outcome{}
	}
	victim, ok := target.(state.Damageable)
	if !ok {
		return Outcome{}
	}

	amount := hit.Amount
	if body, ok := mobileBody(target); ok {
		if body.VulnerableMul > 0 {
			amount *= body.VulnerableMul
		}
	}
	if h, ok := target.(*state.Hero); ok {
		amount *= 1 - stats.ArmorReduction(h.Armor())
	}

	before := victim.HP()
	after := math.Max(0, before-amount)
	victim.SetHP(after)
	dealt := before - after

	switch v := target.(type) {
	case *state.Hero:
		r.woundHero(v, before, after)
	case *state.Monster:
		v.RecordDamage(hit.Source, hit.SourceKind, dealt)
		v.LastHitBy = hit.Source
		r.refreshAggro(v, hit)
	case *state.Building:
		v.NoteDamage(r.now())
	}

	r.emitter.Feedback(state.Feedback{
		Text:  fmt.Sprintf("-%d", int(math.Round(dealt))),
		Color: state.ColorDamage,
		Pos:   target.Position(),
	})
	loggingcombat.Damage(context.Background(), r.pub, r.tick(),
		logging.Ref(hit.SourceKind, uint64(hit.Source)),
		logging.Ref(target.Kind(), uint64(target.ID())),
		loggingcombat.DamagePayload{Source: hit.SourceKind.String(), Amount: dealt, TargetHealth: after},
		nil)

	out := Outcome{Dealt: dealt}
	if after <= 0 {
		out.Killed = r.kill(target, hit.Source, hit.SourceKind)
	}
	return out
}

func mobileBody(t state.Targetable) (*state.Agent, bool) {
	p, ok := t.(state.Pathing)
	if !ok {
		return nil, false
	}
	body := p.Body()
	return body, body != nil
}

func (r *Resolver) woundHero(h *state.Hero, before, after float64) {
	h.History.TimesWounded++
	threshold := h.MaxHealth * NearDeathFraction
	if before > threshold && after > 0 && after <= threshold {
		h.History.NearDeath++
		h.AdjustMorale(MoraleNearDeath)
	}
}

// refreshAggro points the monster at heroes and towers that hit it. An
// existing aggro target is kept unless the new attacker is meaningfully
// closer.
func (r *Resolver) refreshAggro(m *state.Monster, hit Hit) {
	if hit.Source == state.NoEntity {
		return
	}
	attacker, ok := r.reg.Target(hit.Source)
	if !ok {
		return
	}
	if hit.SourceKind != state.KindHero && !isTower(attacker) {
		return
	}
	if m.Aggro == hit.Source {
		m.AggroTimer.Reset(AggroDuration)
		return
	}
	current, ok := r.reg.Validate(&m.Aggro)
	if ok && m.Pos.Dist(attacker.Position())*(1/AggroSwitchFactor) >= m.Pos.Dist(current.Position()) {
		return
	}
	m.Aggro = hit.Source
	m.AggroTimer.Reset(AggroDuration)
	// A windup in progress lands on its committed target; the new aggro
	// takes over on the next target resolution.
	if !m.WindingUp {
		m.Target = hit.Source
	}
}

func isTower(t state.Targetable) bool {
	b, ok := t.(*state.Building)
	return ok && b.Type == state.BuildingTower
}

// Kill forces the death transition on target regardless of its hp.
func (r *Resolver) Kill(target state.EntityID, killer state.EntityID, killerKind state.Kind) bool {
	t, ok := r.reg.Target(target)
	if !ok {
		return false
	}
	if d, ok := t.(state.Damageable); ok {
		d.SetHP(0)
	}
	return r.kill(t, killer, killerKind)
}

// kill fires the single death transition and its side effects.
func (r *Resolver) kill(target state.Targetable, killer state.EntityID, killerKind state.Kind) bool {
	switch v := target.(type) {
	case *state.Building:
		if v.Removed() {
			return false
		}
		v.MarkRemoved()
		for _, id := range v.Occupants() {
			v.Release(id)
			if h, ok := r.reg.Hero(id); ok {
				h.Hidden = false
				h.Inside = state.NoEntity
				h.Pos = v.DoorPoint()
			}
		}
	default:
		body, ok := mobileBody(target)
		if !ok {
			target.MarkRemoved()
			break
		}
		if !body.MarkDead() {
			return false
		}
		r.releaseEngagements(target, body)
		if body.Inside != state.NoEntity {
			if b, ok := r.reg.Lookup(body.Inside); ok {
				if e, ok := b.(state.Enterable); ok {
					e.Release(target.ID())
				}
			}
		}
	}
	r.deaths++

	reward := 0
	if m, ok := target.(*state.Monster); ok {
		reward = m.Reward
		r.distribute(m, killer, killerKind)
	}
	if killerKind == state.KindHero {
		if h, ok := r.reg.Hero(killer); ok {
			h.History.Kills++
		}
	}

	loggingcombat.Defeat(context.Background(), r.pub, r.tick(),
		logging.Ref(killerKind, uint64(killer)),
		logging.Ref(target.Kind(), uint64(target.ID())),
		loggingcombat.DefeatPayload{Source: killerKind.String(), Reward: reward},
		nil)
	r.log.WithFields(logrus.Fields{
		"victim": target.ID(),
		"kind":   target.Kind().String(),
		"killer": killer,
	}).Debug("death")

	if r.onDeath != nil {
		r.onDeath(target, killer)
	}
	return true
}

func (r *Resolver) releaseEngagements(target state.Targetable, body *state.Agent) {
	if m, ok := target.(*state.Monster); ok {
		for _, id := range m.Engagers() {
			m.ReleaseSlot(id)
			if e, ok := r.reg.Lookup(id); ok {
				if b, ok := mobileBody(asTargetable(e)); ok && b.EngagedWith == m.ID() {
					b.Disengage()
				}
			}
		}
	}
	r.Disengage(body)
}

func asTargetable(e state.Entity) state.Targetable {
	t, _ := e.(state.Targetable)
	return t
}

// Credit deposits gold in the treasury and publishes the mutation.
func (r *Resolver) Credit(amount int, reason string) {
	if amount <= 0 || r.treasury == nil {
		return
	}
	r.treasury.Credit(amount)
	loggingeconomy.TreasuryCredit(context.Background(), r.pub, r.tick(), logging.WorldRef(),
		loggingeconomy.TreasuryPayload{Amount: amount, Balance: r.treasury.Balance(), Reason: reason}, nil)
}
