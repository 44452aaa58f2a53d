package state

import "hold-the-line/server/internal/simutil"

// Behavior is the archetype behavior tag.
type Behavior string

const (
	BehaviorSwarm  Behavior = "swarm"
	BehaviorTank   Behavior = "tank"
	BehaviorRanged Behavior = "ranged"
	BehaviorSiege  Behavior = "siege"
)

// MonsterState enumerates the monster behavior states.
type MonsterState uint8

const (
	MonsterHunt MonsterState = iota
	MonsterGather
)

func (s MonsterState) String() string {
	switch s {
	case MonsterGather:
		return "GATHER"
	default:
		return "HUNT"
	}
}

// Monster is an attacking agent spawned by waves.
type Monster struct {
	Agent

	Archetype   string
	Behavior    Behavior
	Damage      float64
	AttackRange float64
	AttackEvery float64
	Reward      int
	MaxSlots    int

	State  MonsterState
	Target EntityID

	Aggro      EntityID
	AggroTimer simutil.Timer
	Siege      EntityID
	SiegeLock  simutil.Timer
	Sticky     simutil.Timer

	damageBy    map[EntityID]float64
	damageOrder []DamageRecord
	LastHitBy   EntityID

	engagers []EntityID

	GatherPoint Vec2
	GatherWait  simutil.Timer
	GatherClock simutil.Stopwatch
	Jitter      simutil.Timer
}

// NewMonster constructs a monster body.
func NewMonster(id EntityID, archetype string, behavior Behavior, pos Vec2, radius, speed, hp float64) *Monster {
	return &Monster{
		Agent:     NewAgent(id, KindMonster, pos, radius, speed, hp),
		Archetype: archetype,
		Behavior:  behavior,
		State:     MonsterHunt,
		damageBy:  make(map[EntityID]float64),
		MaxSlots:  3,
	}
}

// DamageRecord is one contributor in a monster's damage history. Kind is
// captured at hit time so the source can be classified after it is swept.
type DamageRecord struct {
	Source EntityID
	Kind   Kind
	Amount float64
}

// RecordDamage accumulates damage dealt by a source.
func (m *Monster) RecordDamage(source EntityID, kind Kind, amount float64) {
	if source == NoEntity || amount <= 0 {
		return
	}
	if m.damageBy == nil {
		m.damageBy = make(map[EntityID]float64)
	}
	if _, ok := m.damageBy[source]; !ok {
		m.damageOrder = append(m.damageOrder, DamageRecord{Source: source, Kind: kind})
	}
	m.damageBy[source] += amount
}

// DamageFrom returns the total damage recorded from source.
func (m *Monster) DamageFrom(source EntityID) float64 {
	return m.damageBy[source]
}

// DamageHistory returns the contributors in first-hit order with their
// accumulated totals.
func (m *Monster) DamageHistory() []DamageRecord {
	out := make([]DamageRecord, len(m.damageOrder))
	for i, rec := range m.damageOrder {
		rec.Amount = m.damageBy[rec.Source]
		out[i] = rec
	}
	return out
}

// Engagers returns the heroes holding melee slots on this monster.
func (m *Monster) Engagers() []EntityID {
	out := make([]EntityID, len(m.engagers))
	copy(out, m.engagers)
	return out
}

// SlotCount reports the number of occupied melee slots.
func (m *Monster) SlotCount() int { return len(m.engagers) }

// HoldsSlot reports whether id occupies a melee slot.
func (m *Monster) HoldsSlot(id EntityID) bool {
	for _, e := range m.engagers {
		if e == id {
			return true
		}
	}
	return false
}

// ClaimSlot registers id as a melee attacker. It fails when all slots are
// taken; claiming an already held slot succeeds.
func (m *Monster) ClaimSlot(id EntityID) bool {
	if m.HoldsSlot(id) {
		return true
	}
	if len(m.engagers) >= m.MaxSlots {
		return false
	}
	m.engagers = append(m.engagers, id)
	return true
}

// ReleaseSlot frees the slot held by id, if any.
func (m *Monster) ReleaseSlot(id EntityID) {
	for i, e := range m.engagers {
		if e == id {
			m.engagers = append(m.engagers[:i], m.engagers[i+1:]...)
			return
		}
	}
}

// TickTimers advances monster countdowns in addition to the body ones.
func (m *Monster) TickTimers(dt float64) {
	m.Agent.TickTimers(dt)
	if m.AggroTimer.Tick(dt) {
		m.Aggro = NoEntity
	}
	m.SiegeLock.Tick(dt)
	m.Sticky.Tick(dt)
	m.GatherWait.Tick(dt)
	m.Jitter.Tick(dt)
}
