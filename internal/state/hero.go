package state

import (
	"math"

	"hold-the-line/server/internal/simutil"
	"hold-the-line/server/stats"
)

// HeroState enumerates the hero behavior states.
type HeroState uint8

const (
	HeroDecision HeroState = iota
	HeroFight
	HeroQuest
	HeroRetreat
	HeroRetreatEntering
	HeroRestingInside
	HeroShop
	HeroShopEntering
	HeroShopInside
	HeroVictory
	HeroPatrol
	HeroExplore

	heroStateCount
)

var heroStateNames = [...]string{
	HeroDecision:        "DECISION",
	HeroFight:           "FIGHT",
	HeroQuest:           "QUEST",
	HeroRetreat:         "RETREAT",
	HeroRetreatEntering: "RETREAT_ENTERING",
	HeroRestingInside:   "RESTING_INSIDE",
	HeroShop:            "SHOP",
	HeroShopEntering:    "SHOP_ENTERING",
	HeroShopInside:      "SHOP_INSIDE",
	HeroVictory:         "VICTORY",
	HeroPatrol:          "PATROL",
	HeroExplore:         "EXPLORE",
}

func (s HeroState) String() string {
	if s < heroStateCount {
		return heroStateNames[s]
	}
	return "INVALID"
}

// Valid reports whether s is one of the enumerated states.
func (s HeroState) Valid() bool { return s < heroStateCount }

// Travelling reports whether the state is a door/route travel state in which
// separation is damped.
func (s HeroState) Travelling() bool {
	switch s {
	case HeroShop, HeroShopEntering, HeroRetreat, HeroRetreatEntering, HeroPatrol, HeroExplore:
		return true
	default:
		return false
	}
}

// HeroClass names a hero class table entry.
type HeroClass string

const (
	ClassWarrior HeroClass = "warrior"
	ClassRanger  HeroClass = "ranger"
)

// Personality is fixed at creation; every component lies in [0, 1].
type Personality struct {
	Brave  float64
	Greedy float64
	Smart  float64
	Social float64
}

// Clamped returns the personality with every trait clamped to [0, 1].
func (p Personality) Clamped() Personality {
	c := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return Personality{Brave: c(p.Brave), Greedy: c(p.Greedy), Smart: c(p.Smart), Social: c(p.Social)}
}

// Belt is the bounded potion inventory.
type Belt struct {
	Potions  int
	Capacity int
	Cooldown simutil.Timer
}

// Full reports whether no more potions fit.
func (b Belt) Full() bool { return b.Potions >= b.Capacity }

// Space returns how many potions still fit.
func (b Belt) Space() int {
	if b.Potions >= b.Capacity {
		return 0
	}
	return b.Capacity - b.Potions
}

// Equipment tracks upgrade tiers bought from the blacksmith.
type Equipment struct {
	WeaponTier int
	ArmorTier  int
}

// History counts notable events in a hero's life.
type History struct {
	Kills        int
	GoldEarned   int
	NearDeath    int
	TimesWounded int
}

// LearnedSkill records a known skill and the simulation time it is ready.
type LearnedSkill struct {
	ID      string
	ReadyAt float64
}

// RangeBand is the class-defined optimal combat distance.
type RangeBand struct {
	Min float64
	Max float64
}

// TravelPurpose distinguishes why a hero walks to a building door.
type TravelPurpose uint8

const (
	TravelNone TravelPurpose = iota
	TravelRetreat
	TravelShop
	TravelSmith
)

// Travel is the door approach plan shared by retreat and shop states.
type Travel struct {
	Purpose  TravelPurpose
	Building EntityID
	Approach simutil.Timer
	Inside   simutil.Timer
	Purchase simutil.Timer
	Bought   int
}

// PatrolRoute is the multi-waypoint route built on entering PATROL.
type PatrolRoute struct {
	Waypoints []Vec2
	Index     int
	Linger    simutil.Timer
	Lingering bool
}

// Current returns the active waypoint.
func (r PatrolRoute) Current() (Vec2, bool) {
	if r.Index < 0 || r.Index >= len(r.Waypoints) {
		return Vec2{}, false
	}
	return r.Waypoints[r.Index], true
}

// ExploreMemory holds the active exploration goal.
type ExploreMemory struct {
	Point      Vec2
	Active     bool
	Discovered map[EntityID]struct{}
}

// Hero is the autonomous defender agent.
type Hero struct {
	Agent

	Name        string
	Class       HeroClass
	Melee       bool
	Level       int
	XP          float64
	Stats       stats.Component
	Personality Personality
	Morale      float64
	Stamina     float64
	MaxStamina  float64
	Range       RangeBand
	Perception  float64

	Belt      Belt
	Equipment Equipment
	Gold      int
	History   History
	Skills    []LearnedSkill

	State       HeroState
	Target      EntityID
	TargetValue float64
	Home        EntityID
	Decision    simutil.Timer
	Pending     HeroState
	HasPlan     bool

	StateTimer    simutil.Timer
	ShopCooldown  simutil.Timer
	SmithCooldown simutil.Timer
	FleeTimer     simutil.Timer
	TiredTimer    simutil.Timer
	WanderPoint   Vec2

	Travel  Travel
	Patrol  PatrolRoute
	Explore ExploreMemory
	Quest   EntityID
}

// NewHero constructs a hero body around the provided stat component. Derived
// stats are resolved immediately.
func NewHero(id EntityID, class HeroClass, pos Vec2, radius, speed float64, comp stats.Component, p Personality) *Hero {
	comp.Resolve()
	maxHP := comp.GetDerived(stats.DerivedMaxHealth)
	h := &Hero{
		Agent:       NewAgent(id, KindHero, pos, radius, speed, maxHP),
		Class:       class,
		Level:       1,
		Stats:       comp,
		Personality: p.Clamped(),
		Morale:      1,
		State:       HeroDecision,
		Explore:     ExploreMemory{Discovered: make(map[EntityID]struct{})},
	}
	h.MaxStamina = comp.GetDerived(stats.DerivedMaxStamina)
	h.Stamina = h.MaxStamina
	return h
}

// Damage returns the derived attack damage including the weapon tier.
func (h *Hero) Damage() float64 {
	return h.Stats.GetDerived(stats.DerivedDamage)
}

// AttackInterval returns the derived seconds between attacks.
func (h *Hero) AttackInterval() float64 {
	return h.Stats.GetDerived(stats.DerivedAttackInterval)
}

// Armor returns the derived armor rating.
func (h *Hero) Armor() float64 {
	return h.Stats.GetDerived(stats.DerivedArmor)
}

// SetState switches state and clears the per-state timer.
func (h *Hero) SetState(s HeroState) {
	if !s.Valid() {
		s = HeroDecision
	}
	h.State = s
	h.StateTimer.Clear()
	h.HasPlan = false
	h.Stuck.Reset(h.Pos)
}

// SkillReady reports whether the learned skill is off cooldown at now.
func (h *Hero) SkillReady(id string, now float64) bool {
	for _, s := range h.Skills {
		if s.ID == id {
			return now >= s.ReadyAt
		}
	}
	return false
}

// StartSkillCooldown stamps the next ready time for a learned skill.
func (h *Hero) StartSkillCooldown(id string, readyAt float64) {
	for i := range h.Skills {
		if h.Skills[i].ID == id {
			h.Skills[i].ReadyAt = readyAt
			return
		}
	}
}

// Knows reports whether the hero learned the skill.
func (h *Hero) Knows(id string) bool {
	for _, s := range h.Skills {
		if s.ID == id {
			return true
		}
	}
	return false
}

// TickTimers advances hero-specific countdowns in addition to the body ones.
func (h *Hero) TickTimers(dt float64) {
	h.Agent.TickTimers(dt)
	h.Decision.Tick(dt)
	h.StateTimer.Tick(dt)
	h.ShopCooldown.Tick(dt)
	h.SmithCooldown.Tick(dt)
	h.FleeTimer.Tick(dt)
	h.TiredTimer.Tick(dt)
	h.Belt.Cooldown.Tick(dt)
	h.Travel.Approach.Tick(dt)
	h.Travel.Inside.Tick(dt)
	h.Travel.Purchase.Tick(dt)
	h.Patrol.Linger.Tick(dt)
}

// Morale bounds.
const (
	MoraleMin = 0.5
	MoraleMax = 1.5
)

// AdjustMorale shifts morale by delta within [MoraleMin, MoraleMax].
func (h *Hero) AdjustMorale(delta float64) {
	h.Morale = math.Min(MoraleMax, math.Max(MoraleMin, h.Morale+delta))
}
