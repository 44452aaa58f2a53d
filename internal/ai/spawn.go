package ai

import (
	"context"
	"fmt"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
	"hold-the-line/server/logging/lifecycle"
	"hold-the-line/server/stats"
)

// Support NPC defaults.
const (
	workerRadius     = 8.0
	workerSpeed      = 60.0
	workerHP         = 60.0
	workerBuildRate  = 1.0
	guardRadius      = 10.0
	guardSpeed       = 65.0
	guardHP          = 180.0
	guardDamage      = 12.0
	collectorRadius  = 8.0
	collectorSpeed   = 70.0
	collectorHP      = 50.0
	heroStartGold    = 20
	heroStartPotions = 1
)

var primaryStats = map[string]stats.StatID{
	"strength":  stats.StatStrength,
	"agility":   stats.StatAgility,
	"intellect": stats.StatIntellect,
}

// HeroSpawn describes a hero to bootstrap from its class entry.
type HeroSpawn struct {
	Class string
	Pos   Vec2
	Home  state.EntityID
	Name  string
	// Personality is rolled when nil.
	Personality *state.Personality
	Reason      string
}

// SpawnHero builds a hero from the class table and adds it to the registry.
// Unknown classes fall back to the default class.
func (e *Env) SpawnHero(cfg HeroSpawn) *state.Hero {
	entry := e.Catalog.Class(cfg.Class)
	primary, ok := primaryStats[entry.Primary]
	if !ok {
		primary = stats.StatStrength
	}
	base := stats.ValueSet{
		stats.StatStrength:  entry.Attributes.Strength,
		stats.StatAgility:   entry.Attributes.Agility,
		stats.StatIntellect: entry.Attributes.Intellect,
		stats.StatVitality:  entry.Attributes.Vitality,
	}
	personality := RollPersonality(e)
	if cfg.Personality != nil {
		personality = *cfg.Personality
	}

	comp := stats.NewComponent(base, primary)
	id := e.Registry.AllocateID()
	h := state.NewHero(id, state.HeroClass(entry.Name), cfg.Pos, entry.Radius, entry.Speed, comp, personality)
	h.Speed += h.Stats.GetDerived(stats.DerivedSpeedBonus)
	h.Name = cfg.Name
	if h.Name == "" {
		h.Name = fmt.Sprintf("%s-%d", entry.Name, id)
	}
	h.Melee = entry.Melee
	h.Range = state.RangeBand{Min: entry.RangeMin, Max: entry.RangeMax}
	h.Perception = entry.Perception
	h.Belt.Capacity = entry.BeltCapacity
	h.Belt.Potions = min(heroStartPotions, entry.BeltCapacity)
	h.Gold = heroStartGold
	h.Home = cfg.Home
	e.learnSkills(h)

	e.Registry.Add(h)
	e.publishSpawn(h, entry.Name, cfg.Reason)
	return h
}

// RollPersonality draws every trait uniformly.
func RollPersonality(e *Env) state.Personality {
	return state.Personality{
		Brave:  world.RandomFloat(e.RNG),
		Greedy: world.RandomFloat(e.RNG),
		Smart:  world.RandomFloat(e.RNG),
		Social: world.RandomFloat(e.RNG),
	}
}

// MonsterSpawn describes a monster to bootstrap from its archetype entry.
type MonsterSpawn struct {
	Archetype string
	Pos       Vec2
	// Gather allows swarm archetypes to roll into GATHER.
	Gather bool
	Reason string
}

// SpawnMonster builds a monster from the archetype table and adds it to the
// registry. Unknown archetypes fall back to the default archetype.
func (e *Env) SpawnMonster(cfg MonsterSpawn) *state.Monster {
	entry := e.Catalog.Archetype(cfg.Archetype)
	m := state.NewMonster(e.Registry.AllocateID(), entry.Name, state.Behavior(entry.Behavior),
		cfg.Pos, entry.Radius, entry.Speed, entry.HP)
	m.Damage = entry.Damage
	m.AttackRange = entry.AttackRange
	m.AttackEvery = entry.AttackEvery
	m.Reward = entry.Reward
	m.MaxSlots = entry.Slots

	if cfg.Gather && m.Behavior == state.BehaviorSwarm && world.RandomFloat(e.RNG) < entry.GatherChance {
		e.StartGather(m, entry.GatherWait)
	}

	e.Registry.Add(m)
	e.publishSpawn(m, entry.Name, cfg.Reason)
	return m
}

// StartGather puts a swarm monster into GATHER near its spawn point.
func (e *Env) StartGather(m *state.Monster, wait float64) {
	m.State = state.MonsterGather
	m.GatherPoint = e.randomWalkable(m.Pos, 20, 80)
	m.GatherWait.Reset(wait)
	m.GatherClock.Reset()
}

// SpawnBuilding builds a structure from the building table and adds it to
// the registry. Castles are always constructed.
func (e *Env) SpawnBuilding(typ state.BuildingType, center Vec2, constructed bool) (*state.Building, bool) {
	entry, ok := e.Catalog.Building(string(typ))
	if !ok {
		return nil, false
	}
	b := state.NewBuilding(e.Registry.AllocateID(), typ, center, entry.Width, entry.Height, entry.HP)
	b.Constructed = constructed || typ == state.BuildingCastle
	if b.Constructed {
		b.Progress = entry.BuildCost
	}
	b.BuildCost = entry.BuildCost
	b.Capacity = entry.Capacity
	b.TaxRate = entry.TaxRate
	b.TowerRange = entry.TowerRange
	b.TowerDamage = entry.TowerDamage
	b.TowerReload = entry.TowerReload
	e.Registry.Add(b)
	e.publishSpawn(b, string(typ), "")
	return b, true
}

// SpawnWorker adds a construction worker.
func (e *Env) SpawnWorker(pos Vec2) *state.Worker {
	w := state.NewWorker(e.Registry.AllocateID(), pos, workerRadius, workerSpeed, workerHP, workerBuildRate)
	e.Registry.Add(w)
	e.publishSpawn(w, "worker", "")
	return w
}

// SpawnGuard adds a castle guard starting at ringAngle on its patrol ring.
func (e *Env) SpawnGuard(pos Vec2, ringAngle float64) *state.Guard {
	g := state.NewGuard(e.Registry.AllocateID(), pos, guardRadius, guardSpeed, guardHP, guardDamage)
	g.RingAngle = ringAngle
	e.Registry.Add(g)
	e.publishSpawn(g, "guard", "")
	return g
}

// SpawnTaxCollector adds a tax collector.
func (e *Env) SpawnTaxCollector(pos Vec2) *state.TaxCollector {
	c := state.NewTaxCollector(e.Registry.AllocateID(), pos, collectorRadius, collectorSpeed, collectorHP)
	e.Registry.Add(c)
	e.publishSpawn(c, "tax_collector", "")
	return c
}

func (e *Env) publishSpawn(ent state.Entity, variant, reason string) {
	pos := ent.Position()
	lifecycle.Spawn(context.Background(), e.Publisher, e.tick(), e.ref(ent),
		lifecycle.SpawnPayload{Variant: variant, X: pos.X, Y: pos.Y, Reason: reason}, nil)
}
