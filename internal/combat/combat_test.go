package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/state"
	loggingcombat "hold-the-line/server/logging/combat"
	"hold-the-line/server/logging/sinks"
	"hold-the-line/server/stats"
)

type testClock struct {
	now  float64
	tick uint64
}

func (c *testClock) Now() float64 { return c.now }
func (c *testClock) Tick() uint64 { return c.tick }

type fixture struct {
	reg      *state.Registry
	treasury *state.Treasury
	emitter  *state.RecordingEmitter
	events   *sinks.MemorySink
	clock    *testClock
	resolver *Resolver
	deaths   []state.EntityID
}

func newFixture() *fixture {
	f := &fixture{
		reg:      state.NewRegistry(),
		treasury: state.NewTreasury(0),
		emitter:  &state.RecordingEmitter{},
		events:   sinks.NewMemorySink(),
		clock:    &testClock{now: 10, tick: 100},
	}
	f.resolver = NewResolver(Config{
		Registry:  f.reg,
		Treasury:  f.treasury,
		Clock:     f.clock,
		Emitter:   f.emitter,
		Publisher: f.events,
		OnDeath: func(victim state.Targetable, _ state.EntityID) {
			f.deaths = append(f.deaths, victim.ID())
		},
	})
	return f
}

func (f *fixture) hero(pos state.Vec2) *state.Hero {
	comp := stats.NewComponent(stats.ValueSet{stats.StatStrength: 0, stats.StatVitality: 4}, stats.StatStrength)
	h := state.NewHero(f.reg.AllocateID(), state.ClassWarrior, pos, 10, 80, comp, state.Personality{Brave: 0.5})
	f.reg.Add(h)
	return h
}

func (f *fixture) monster(pos state.Vec2, hp float64, reward int) *state.Monster {
	m := state.NewMonster(f.reg.AllocateID(), "goblin", state.BehaviorSwarm, pos, 8, 60, hp)
	m.Reward = reward
	f.reg.Add(m)
	return m
}

func TestApplyFloorsHealthAndFiresDeathOnce(t *testing.T) {
	f := newFixture()
	h := f.hero(state.V(0, 0))
	m := f.monster(state.V(20, 0), 10, 0)

	out := f.resolver.Apply(Hit{Source: h.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 25})
	require.True(t, out.Killed)
	assert.Equal(t, 10.0, out.Dealt)
	assert.Equal(t, 0.0, m.HP())
	assert.True(t, m.Dead())

	again := f.resolver.Apply(Hit{Source: h.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 25})
	assert.Equal(t, Outcome{}, again)
	assert.False(t, f.resolver.Kill(m.ID(), h.ID(), state.KindHero))
	assert.Equal(t, 0.0, m.HP())
	assert.Equal(t, []state.EntityID{m.ID()}, f.deaths)
	assert.Equal(t, 1, f.resolver.Deaths())
	assert.Len(t, f.events.OfType(loggingcombat.EventDefeat), 1)
	assert.Equal(t, 1, h.History.Kills)
}

func TestApplyIgnoresNonPositiveAndNonFiniteAmounts(t *testing.T) {
	f := newFixture()
	m := f.monster(state.V(0, 0), 30, 0)
	for _, amount := range []float64{0, -5} {
		f.resolver.Apply(Hit{Target: m.ID(), Amount: amount})
	}
	assert.Equal(t, 30.0, m.HP())
	assert.Empty(t, f.emitter.Labels)
}

func TestHeroArmorAndNearDeathBookkeeping(t *testing.T) {
	f := newFixture()
	h := f.hero(state.V(0, 0))
	maxHP := h.MaxHP()
	reduction := stats.ArmorReduction(h.Armor())

	raw := (maxHP*0.85)/(1-reduction) + 0.01
	f.resolver.Apply(Hit{Source: 99, SourceKind: state.KindMonster, Target: h.ID(), Amount: raw})

	assert.InDelta(t, maxHP*0.15, h.HP(), 0.02)
	assert.Equal(t, 1, h.History.TimesWounded)
	assert.Equal(t, 1, h.History.NearDeath)
	assert.InDelta(t, 0.9, h.Morale, 1e-9)
}

func TestMonsterAggroFollowsHeroAttackers(t *testing.T) {
	f := newFixture()
	m := f.monster(state.V(0, 0), 500, 0)
	far := f.hero(state.V(200, 0))
	near := f.hero(state.V(50, 0))
	mid := f.hero(state.V(180, 0))

	f.resolver.Apply(Hit{Source: far.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 1})
	assert.Equal(t, far.ID(), m.Aggro)
	assert.Equal(t, AggroDuration, m.AggroTimer.Remaining)

	f.resolver.Apply(Hit{Source: mid.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 1})
	assert.Equal(t, far.ID(), m.Aggro, "a barely closer attacker does not steal aggro")

	f.resolver.Apply(Hit{Source: near.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 1})
	assert.Equal(t, near.ID(), m.Aggro)
	assert.Equal(t, near.ID(), m.Target)
	assert.Equal(t, near.ID(), m.LastHitBy)
}

func TestAggroDuringWindupKeepsCommittedTarget(t *testing.T) {
	f := newFixture()
	m := f.monster(state.V(0, 0), 500, 0)
	committed := f.hero(state.V(30, 0))
	attacker := f.hero(state.V(60, 0))
	m.Target = committed.ID()
	m.WindingUp = true

	f.resolver.Apply(Hit{Source: attacker.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 1})
	assert.Equal(t, attacker.ID(), m.Aggro)
	assert.Equal(t, committed.ID(), m.Target)
}

func TestTowerHitRefreshesAggroButGuardDoesNot(t *testing.T) {
	f := newFixture()
	m := f.monster(state.V(0, 0), 500, 0)
	tower := state.NewBuilding(f.reg.AllocateID(), state.BuildingTower, state.V(100, 0), 30, 30, 200)
	f.reg.Add(tower)
	guard := state.NewGuard(f.reg.AllocateID(), state.V(10, 0), 10, 70, 80, 6)
	f.reg.Add(guard)

	f.resolver.Apply(Hit{Source: guard.ID(), SourceKind: state.KindGuard, Target: m.ID(), Amount: 1})
	assert.Equal(t, state.NoEntity, m.Aggro)

	f.resolver.Apply(Hit{Source: tower.ID(), SourceKind: state.KindBuilding, Target: m.ID(), Amount: 1})
	assert.Equal(t, tower.ID(), m.Aggro)
}

func TestSplitRewardKillBonusAndShares(t *testing.T) {
	heroA, heroB := state.EntityID(1), state.EntityID(2)
	split := SplitReward(100, heroA, []Contribution{{Hero: heroA, Damage: 30}, {Hero: heroB, Damage: 10}})

	assert.Equal(t, 20, split.KillBonus)
	assert.Equal(t, 80, split.GoldFor(heroA))
	assert.Equal(t, 20, split.GoldFor(heroB))
	assert.Zero(t, split.Dropped)
	assert.Zero(t, split.Treasury)
}

func TestSplitRewardCases(t *testing.T) {
	tests := []struct {
		name     string
		reward   int
		killer   state.EntityID
		contribs []Contribution
		gold     map[state.EntityID]int
		treasury int
		dropped  int
	}{
		{
			name:     "no hero contributors",
			reward:   50,
			killer:   state.NoEntity,
			treasury: 50,
		},
		{
			name:     "non hero killer splits everything by share",
			reward:   90,
			killer:   state.NoEntity,
			contribs: []Contribution{{Hero: 1, Damage: 1}, {Hero: 2, Damage: 2}},
			gold:     map[state.EntityID]int{1: 30, 2: 60},
		},
		{
			name:     "rounding loss is dropped",
			reward:   10,
			killer:   1,
			contribs: []Contribution{{Hero: 1, Damage: 1}, {Hero: 2, Damage: 1}, {Hero: 3, Damage: 1}},
			gold:     map[state.EntityID]int{1: 4, 2: 2, 3: 2},
			dropped:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := SplitReward(tt.reward, tt.killer, tt.contribs)
			for hero, gold := range tt.gold {
				assert.Equal(t, gold, split.GoldFor(hero), "hero %d", hero)
			}
			assert.Equal(t, tt.treasury, split.Treasury)
			assert.Equal(t, tt.dropped, split.Dropped)
		})
	}
}

func TestDeathDistributesBountyToHeroes(t *testing.T) {
	f := newFixture()
	a := f.hero(state.V(0, 0))
	b := f.hero(state.V(30, 0))
	m := f.monster(state.V(10, 10), 40, 100)

	f.resolver.Apply(Hit{Source: b.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 10})
	f.resolver.Apply(Hit{Source: a.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 30})

	assert.Equal(t, 80, a.Gold)
	assert.Equal(t, 20, b.Gold)
	assert.Equal(t, 80, a.History.GoldEarned)
	assert.Zero(t, f.treasury.Balance())
	assert.True(t, f.emitter.HasLabel("+80g"))
}

func TestDeathWithoutHeroesFundsTreasury(t *testing.T) {
	f := newFixture()
	tower := state.NewBuilding(f.reg.AllocateID(), state.BuildingTower, state.V(100, 0), 30, 30, 200)
	f.reg.Add(tower)
	m := f.monster(state.V(0, 0), 5, 25)

	f.resolver.Apply(Hit{Source: tower.ID(), SourceKind: state.KindBuilding, Target: m.ID(), Amount: 10})
	assert.Equal(t, 25, f.treasury.Balance())
}

func TestDeadContributorShareIsDropped(t *testing.T) {
	f := newFixture()
	a := f.hero(state.V(0, 0))
	b := f.hero(state.V(30, 0))
	m := f.monster(state.V(10, 10), 40, 100)

	f.resolver.Apply(Hit{Source: b.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 20})
	require.True(t, f.resolver.Kill(b.ID(), m.ID(), state.KindMonster))
	f.reg.Sweep()
	f.resolver.Apply(Hit{Source: a.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 20})

	assert.Equal(t, 20+40, a.Gold)
	assert.Zero(t, f.treasury.Balance(), "a swept hero contributor still counts as a hero")
}

func TestEngagementSlotsAreBounded(t *testing.T) {
	f := newFixture()
	m := f.monster(state.V(0, 0), 100, 0)
	var heroes []*state.Hero
	for i := 0; i < m.MaxSlots+2; i++ {
		heroes = append(heroes, f.hero(state.V(float64(i*5), 20)))
	}
	claimed := 0
	for _, h := range heroes {
		if f.resolver.Engage(&h.Agent, m, 1) {
			claimed++
		}
		assert.LessOrEqual(t, m.SlotCount(), m.MaxSlots)
	}
	assert.Equal(t, m.MaxSlots, claimed)

	heroes[0].TickTimers(2)
	require.False(t, heroes[0].Engaged)
	assert.True(t, f.resolver.Engage(&heroes[len(heroes)-1].Agent, m, 1), "expired locks free their slot")
	assert.LessOrEqual(t, m.SlotCount(), m.MaxSlots)
}

func TestEngageHoldsOneMonsterAtATime(t *testing.T) {
	f := newFixture()
	h := f.hero(state.V(0, 0))
	m1 := f.monster(state.V(10, 0), 100, 0)
	m2 := f.monster(state.V(-10, 0), 100, 0)

	require.True(t, f.resolver.Engage(&h.Agent, m1, 1))
	require.True(t, f.resolver.Engage(&h.Agent, m2, 1))
	assert.False(t, m1.HoldsSlot(h.ID()))
	assert.True(t, m2.HoldsSlot(h.ID()))
	assert.Equal(t, m2.ID(), h.EngagedWith)
}

func TestMonsterDeathReleasesEngagers(t *testing.T) {
	f := newFixture()
	h := f.hero(state.V(0, 0))
	m := f.monster(state.V(10, 0), 5, 0)
	require.True(t, f.resolver.Engage(&h.Agent, m, 1))

	f.resolver.Apply(Hit{Source: h.ID(), SourceKind: state.KindHero, Target: m.ID(), Amount: 10})
	assert.False(t, h.Engaged)
	assert.Zero(t, m.SlotCount())
}

func TestBuildingDestructionReleasesOccupants(t *testing.T) {
	f := newFixture()
	house := state.NewBuilding(f.reg.AllocateID(), state.BuildingHouse, state.V(300, 300), 40, 40, 20)
	house.Constructed = true
	f.reg.Add(house)
	h := f.hero(state.V(0, 0))
	require.True(t, house.Admit(h.ID()))
	h.Hidden = true
	h.Inside = house.ID()

	out := f.resolver.Apply(Hit{Source: 7, SourceKind: state.KindMonster, Target: house.ID(), Amount: 50})
	require.True(t, out.Killed)
	assert.True(t, house.Removed())
	assert.False(t, h.Hidden)
	assert.Equal(t, house.DoorPoint(), h.Pos)
	assert.Equal(t, []state.EntityID{house.ID()}, f.deaths)
	assert.True(t, house.DamagedWithin(f.clock.now, 3))
}

func TestProjectileHomesAndHits(t *testing.T) {
	f := newFixture()
	bounds := state.Rect{Center: state.V(500, 500), Width: 1000, Height: 1000}
	h := f.hero(state.V(100, 100))
	m := f.monster(state.V(200, 100), 50, 0)

	p := f.resolver.Fire(h.ID(), state.KindHero, h.Pos, m, 300, 12)
	require.NotNil(t, p)
	m.Pos = state.V(200, 140)

	for i := 0; i < 20 && !p.Removed(); i++ {
		f.resolver.AdvanceProjectile(p, 0.05, bounds)
	}
	assert.True(t, p.Removed())
	assert.Equal(t, 38.0, m.HP())
	assert.Equal(t, 12.0, m.DamageFrom(h.ID()))
}

func TestProjectileFliesStraightAfterTargetDiesAndExpires(t *testing.T) {
	f := newFixture()
	bounds := state.Rect{Center: state.V(500, 500), Width: 1000, Height: 1000}
	m := f.monster(state.V(400, 100), 50, 0)
	p := f.resolver.Fire(999, state.KindBuilding, state.V(100, 100), m, 50, 5)
	require.NotNil(t, p)

	require.True(t, f.resolver.Kill(m.ID(), 999, state.KindBuilding))
	f.resolver.AdvanceProjectile(p, 0.1, bounds)
	assert.Equal(t, state.NoEntity, p.Target)
	assert.InDelta(t, 105, p.Pos.X, 1e-9)
	assert.InDelta(t, 100, p.Pos.Y, 1e-9)

	for i := 0; i < 40 && !p.Removed(); i++ {
		f.resolver.AdvanceProjectile(p, 0.1, bounds)
	}
	assert.True(t, p.Removed())
	assert.GreaterOrEqual(t, p.Lifetime, p.MaxLife)
}

func TestStrayProjectileHitsAnotherHostile(t *testing.T) {
	f := newFixture()
	bounds := state.Rect{Center: state.V(500, 500), Width: 1000, Height: 1000}
	gone := f.monster(state.V(300, 100), 50, 0)
	other := f.monster(state.V(130, 100), 50, 0)
	p := f.resolver.Fire(999, state.KindHero, state.V(100, 100), gone, 200, 7)
	require.NotNil(t, p)
	f.resolver.Kill(gone.ID(), 999, state.KindHero)

	for i := 0; i < 10 && !p.Removed(); i++ {
		f.resolver.AdvanceProjectile(p, 0.05, bounds)
	}
	assert.Equal(t, 43.0, other.HP())
}
