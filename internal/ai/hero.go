package ai

import (
	"fmt"
	"math"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/steering"
	"hold-the-line/server/internal/world"
)

// Hero tuning.
const (
	retreatCeiling    = 0.45
	retreatBravery    = 0.3
	shopGoldThreshold = 50
	shopCooldown      = 20.0
	smithCooldown     = 30.0
	reactionDelay     = 0.4
	dangerRadius      = 150.0
	fleeRadius        = 100.0
	questDangerRadius = 150.0
	potionThreshold   = 0.35
	staminaRegen      = 10.0
	tiredCooldown     = 1.0
	victoryDuration   = 1.5
	victoryWander     = 60.0
	moraleWin         = 0.05
)

// UpdateHero advances one hero by dt.
func (e *Env) UpdateHero(h *state.Hero, dt float64) {
	if h == nil || !h.Alive() {
		return
	}
	h.TickTimers(dt)
	h.Stamina = math.Min(h.MaxStamina, h.Stamina+staminaRegen*dt)

	if e.correctVisibility(h) {
		return
	}
	if h.Stun.Active() {
		h.HardStop()
		return
	}
	e.drinkIfNeeded(h)

	if e.retreatOverride(h) {
		return
	}

	from := h.State
	switch h.State {
	case state.HeroDecision:
		e.decide(h)
	case state.HeroFight:
		e.fight(h, dt)
	case state.HeroQuest:
		e.quest(h, dt)
	case state.HeroRetreat, state.HeroRetreatEntering:
		e.retreat(h, dt)
	case state.HeroRestingInside:
		e.rest(h, dt)
	case state.HeroShop, state.HeroShopEntering:
		e.shop(h, dt)
	case state.HeroShopInside:
		e.shopInside(h)
	case state.HeroVictory:
		e.victory(h)
	case state.HeroPatrol:
		e.patrol(h, dt)
	case state.HeroExplore:
		e.explore(h, dt)
	default:
		h.SetState(state.HeroDecision)
	}
	if !h.State.Valid() {
		h.SetState(state.HeroDecision)
	}
	e.publishState(h, from.String(), h.State.String())
}

// correctVisibility repairs a hero that is hidden without a valid building
// holding it, or visible somewhere off the map. It reports true when a
// correction happened.
func (e *Env) correctVisibility(h *state.Hero) bool {
	if h.Hidden {
		b, ok := e.Registry.Building(h.Inside)
		if ok && containsID(b.Occupants(), h.ID()) {
			return false
		}
		e.Logger.WithField("hero", h.ID()).Debug("hidden hero outside any building")
		h.Hidden = false
		h.Inside = state.NoEntity
	} else if e.bounds().Contains(h.Pos) && h.Pos.IsFinite() {
		return false
	}
	if !e.bounds().Contains(h.Pos) || !h.Pos.IsFinite() {
		h.Pos = h.LastGoodPos
		if !e.bounds().Contains(h.Pos) || !h.Pos.IsFinite() {
			h.Pos = e.castleDoor()
		}
		h.LastGoodPos = h.Pos
	}
	h.HardStop()
	h.Travel = state.Travel{}
	h.SetState(state.HeroDecision)
	return true
}

func containsID(ids []state.EntityID, id state.EntityID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RetreatThreshold is the health fraction below which a hero of the given
// bravery runs home.
func RetreatThreshold(brave float64) float64 {
	return retreatCeiling - retreatBravery*brave
}

// retreatOverride sends a badly hurt hero home from any state outside the
// retreat chain.
func (e *Env) retreatOverride(h *state.Hero) bool {
	switch h.State {
	case state.HeroRetreat, state.HeroRetreatEntering, state.HeroRestingInside:
		return false
	}
	if h.HealthFraction() >= RetreatThreshold(h.Personality.Brave) {
		return false
	}
	home, ok := e.homeFor(h)
	if !ok {
		return false
	}
	from := h.State
	if h.Hidden {
		e.exitBuilding(h)
	}
	e.Combat.Disengage(&h.Agent)
	h.Target = state.NoEntity
	h.WindingUp = false
	h.SetState(state.HeroRetreat)
	h.Travel = state.Travel{Purpose: state.TravelRetreat, Building: home.ID()}
	h.Travel.Approach.Reset(approachTimeout)
	e.publishState(h, from.String(), h.State.String())
	return true
}

// homeFor prefers the hero's own guild, then any guild, then any constructed
// economic building, then the castle.
func (e *Env) homeFor(h *state.Hero) (*state.Building, bool) {
	if b, ok := e.Registry.Building(h.Home); ok && b.Constructed {
		return b, true
	}
	if b, ok := e.nearestBuilding(h.Pos, state.BuildingGuild); ok {
		return b, true
	}
	var best *state.Building
	bestDist := math.Inf(1)
	for _, b := range e.constructed("") {
		if !b.Type.Economic() {
			continue
		}
		if d := h.Pos.Dist(b.DoorPoint()); d < bestDist {
			best, bestDist = b, d
		}
	}
	if best != nil {
		return best, true
	}
	return e.Registry.Castle()
}

func (e *Env) drinkIfNeeded(h *state.Hero) {
	if h.HealthFraction() >= potionThreshold || h.Belt.Potions <= 0 || h.Belt.Cooldown.Active() {
		return
	}
	potion := e.Catalog.Potion()
	before := h.Health
	h.SetHP(h.Health + potion.Heal)
	h.Belt.Potions--
	h.Belt.Cooldown.Reset(potion.Cooldown)
	e.feedback(fmt.Sprintf("+%d", int(math.Round(h.Health-before))), state.ColorHeal, h.Pos)
}

// spendStamina spends stamina when available. Otherwise it emits a rate-limited
// TIRED label and reports false.
func (e *Env) spendStamina(h *state.Hero, cost float64) bool {
	if h.Stamina >= cost {
		h.Stamina -= cost
		return true
	}
	if h.TiredTimer.Expired() {
		e.feedback("TIRED", state.ColorWarn, h.Pos)
		h.TiredTimer.Reset(tiredCooldown)
	}
	return false
}

func (e *Env) heroSeparation(h *state.Hero, holdingRange bool) float64 {
	return steering.SeparationScale(h.Engaged, h.State.Travelling(), holdingRange)
}

// decide is the DECISION hub.
func (e *Env) decide(h *state.Hero) {
	e.hold(&h.Agent, steering.SeparationFull)
	threats := e.monstersNear(h.Pos, dangerRadius)

	if !h.HasPlan && len(threats) == 0 {
		switch {
		case e.wantsShop(h):
			e.plan(h, state.HeroShop, state.TravelShop)
		case e.wantsSmith(h):
			e.plan(h, state.HeroShop, state.TravelSmith)
		}
	}

	if e.fleeIfCowardly(h) {
		return
	}
	if e.acquireTarget(h) {
		return
	}

	if h.HasPlan {
		if h.Decision.Expired() {
			e.enterPlanned(h)
		}
		return
	}
	if f, ok := e.questFor(h); ok {
		h.Quest = f.ID()
		f.Claim = h.ID()
		h.Pending = state.HeroQuest
		h.HasPlan = true
		h.Decision.Reset(reactionDelay)
		return
	}
	e.plan(h, e.rollRoam(h), state.TravelNone)
}

// wantsShop reports the shopping gate: enough gold, room on the belt, the
// cooldown elapsed and a market standing.
func (e *Env) wantsShop(h *state.Hero) bool {
	if h.Gold < shopGoldThreshold || h.Belt.Full() || h.ShopCooldown.Active() {
		return false
	}
	_, ok := e.nearestBuilding(h.Pos, state.BuildingMarket)
	return ok
}

func (e *Env) wantsSmith(h *state.Hero) bool {
	if h.SmithCooldown.Active() {
		return false
	}
	if _, ok := e.nearestBuilding(h.Pos, state.BuildingBlacksmith); !ok {
		return false
	}
	up, ok := e.nextUpgrade(h)
	return ok && h.Gold >= up.Cost
}

// plan schedules a transition after the reaction delay.
func (e *Env) plan(h *state.Hero, next state.HeroState, purpose state.TravelPurpose) {
	h.Pending = next
	h.HasPlan = true
	h.Decision.Reset(reactionDelay)
	h.Travel = state.Travel{Purpose: purpose}
}

func (e *Env) enterPlanned(h *state.Hero) {
	next, purpose := h.Pending, h.Travel.Purpose
	h.SetState(next)
	switch next {
	case state.HeroShop:
		typ := state.BuildingMarket
		if purpose == state.TravelSmith {
			typ = state.BuildingBlacksmith
		}
		b, ok := e.nearestBuilding(h.Pos, typ)
		if !ok {
			h.SetState(state.HeroDecision)
			return
		}
		h.Travel = state.Travel{Purpose: purpose, Building: b.ID()}
		h.Travel.Approach.Reset(approachTimeout)
	case state.HeroPatrol:
		if !e.buildPatrol(h) {
			h.SetState(state.HeroExplore)
			e.startExplore(h)
		}
	case state.HeroExplore:
		e.startExplore(h)
	case state.HeroQuest:
		if _, ok := e.Registry.Lookup(h.Quest); !ok {
			h.SetState(state.HeroDecision)
		}
	}
}

// fleeIfCowardly runs directly away from a scary monster when courage is too
// low to fight.
func (e *Env) fleeIfCowardly(h *state.Hero) bool {
	if !ShouldFlee(h.Personality, h.Morale) {
		return false
	}
	var scariest *state.Monster
	worst := 0.0
	for _, m := range e.monstersNear(h.Pos, fleeRadius) {
		if t := heroThreat(h, m); Threatened(t) && t > worst {
			scariest, worst = m, t
		}
	}
	if scariest == nil {
		return false
	}
	h.Target = state.NoEntity
	h.HasPlan = false
	h.FleeTimer.Reset(1)
	e.Steer.Flee(&h.Agent, scariest.Pos, h.Speed)
	return true
}

// acquireTarget runs personality-weighted target selection over the
// monsters within perception.
func (e *Env) acquireTarget(h *state.Hero) bool {
	var scored []Candidate
	for _, m := range e.monstersNear(h.Pos, h.Perception) {
		if h.Melee && m.SlotCount() >= m.MaxSlots && !m.HoldsSlot(h.ID()) {
			continue
		}
		scored = append(scored, Candidate{
			ID:       m.ID(),
			Distance: h.Pos.Dist(m.Pos),
			Threat:   heroThreat(h, m),
			Gold:     m.Reward,
			HP:       m.Health,
			MaxHP:    m.MaxHealth,
		})
	}
	best, ok := SelectTarget(scored, h.Personality)
	if !ok {
		return false
	}
	m, ok := e.Registry.Monster(best.ID)
	if !ok {
		return false
	}
	e.startFight(h, m)
	return true
}

func (e *Env) startFight(h *state.Hero, m *state.Monster) {
	h.SetState(state.HeroFight)
	h.Target = m.ID()
	h.TargetValue = xpValue(m)
	h.WindingUp = false
}

func (e *Env) questFor(h *state.Hero) (*state.Flag, bool) {
	tolerance := DangerTolerance(h.Personality.Brave)
	var best *state.Flag
	bestDist := math.Inf(1)
	e.Registry.Each(func(ent state.Entity) {
		f, ok := ent.(*state.Flag)
		if !ok || !f.Alive() {
			return
		}
		if f.Claim != state.NoEntity && f.Claim != h.ID() {
			if _, alive := e.Registry.Hero(f.Claim); alive {
				return
			}
		}
		danger := f.Danger
		for _, m := range e.monstersNear(f.Pos, questDangerRadius) {
			danger += heroThreat(h, m)
		}
		if danger >= tolerance {
			return
		}
		if d := h.Pos.Dist(f.Pos); d < bestDist {
			best, bestDist = f, d
		}
	})
	return best, best != nil
}

// rollRoam picks PATROL or EXPLORE by class affinity and personality.
func (e *Env) rollRoam(h *state.Hero) state.HeroState {
	affinity := e.Catalog.Class(string(h.Class)).PatrolAffinity
	patrol := affinity + h.Personality.Smart*0.5
	explore := (1 - affinity) + h.Personality.Greedy*0.5
	if h.Gold < shopGoldThreshold {
		explore += 0.3
	}
	if h.Belt.Potions == 0 {
		explore += 0.2
	}
	if h.HealthFraction() > 0.8 {
		explore += 0.2
	}
	if world.RandomFloat(e.RNG)*(patrol+explore) < patrol {
		return state.HeroPatrol
	}
	return state.HeroExplore
}

// victory idles briefly near the wander point, then hands back to DECISION.
func (e *Env) victory(h *state.Hero) {
	if h.StateTimer.Expired() {
		h.SetState(state.HeroDecision)
		return
	}
	e.chase(&h.Agent, h.WanderPoint, h.Speed*0.5, steering.SeparationFull)
}

func (e *Env) enterVictory(h *state.Hero) {
	h.SetState(state.HeroVictory)
	h.StateTimer.Reset(victoryDuration)
	h.WanderPoint = e.randomWalkable(h.Pos, 10, victoryWander)
}
