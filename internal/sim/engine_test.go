package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/ai"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/internal/world"
	"hold-the-line/server/logging/lifecycle"
	"hold-the-line/server/logging/simulation"
	"hold-the-line/server/logging/sinks"
)

type harness struct {
	engine  *Engine
	events  *sinks.MemorySink
	metrics *telemetry.Counters
	emitter *state.RecordingEmitter
}

func newHarness(t *testing.T, opts ...EngineOption) *harness {
	t.Helper()
	h := &harness{
		events:  sinks.NewMemorySink(),
		metrics: &telemetry.Counters{},
		emitter: &state.RecordingEmitter{},
	}
	base := []EngineOption{WithDeps(Deps{Publisher: h.events, Metrics: h.metrics, Emitter: h.emitter})}
	engine, err := NewEngine(append(base, opts...)...)
	require.NoError(t, err)
	h.engine = engine
	return h
}

func (h *harness) run(steps int, dt float64) {
	for i := 0; i < steps; i++ {
		h.engine.Step(dt)
	}
}

func (h *harness) castle(t *testing.T) *state.Building {
	t.Helper()
	castle, ok := h.engine.Registry().Castle()
	require.True(t, ok)
	return castle
}

func warriorGuild() Scenario {
	return Scenario{Buildings: []Placement{{Type: state.BuildingGuild, DX: -220, DY: -40, Guild: "warrior", Constructed: true}}}
}

func aiHero(class string, guild *state.Building) ai.HeroSpawn {
	return ai.HeroSpawn{Class: class, Pos: guild.DoorPoint(), Home: guild.ID()}
}

func TestNewEngineBuildsCastleAtCenter(t *testing.T) {
	h := newHarness(t)
	castle := h.castle(t)
	assert.Equal(t, h.engine.Config().World.Bounds().Center, castle.Center)
	assert.True(t, castle.Constructed)
	assert.False(t, h.engine.Navigator().Grid.WalkableAt(castle.Center))
	assert.Equal(t, DefaultStartingGold, h.engine.Treasury().Balance())
}

func TestStepClampsDelta(t *testing.T) {
	cases := []struct {
		name string
		dt   float64
		want float64
	}{
		{name: "stall is clamped", dt: 5, want: DefaultMaxDelta},
		{name: "negative is zero", dt: -1, want: 0},
		{name: "nan is zero", dt: math.NaN(), want: 0},
		{name: "normal passes", dt: 0.05, want: 0.05},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.engine.Step(tc.dt)
			assert.InDelta(t, tc.want, h.engine.Clock().Now(), 1e-12)
			assert.Equal(t, uint64(1), h.engine.Clock().Tick())
		})
	}
}

func TestStepRunsPhasesInOrder(t *testing.T) {
	var phases []Phase
	h := newHarness(t, WithPhaseHook(func(p Phase) { phases = append(phases, p) }))
	h.engine.Step(0.1)
	h.engine.Step(0.1)
	want := []Phase{PhaseBehavior, PhaseIntegrate, PhaseCollide, PhaseSweep}
	assert.Equal(t, append(append([]Phase{}, want...), want...), phases)
}

func TestCoincidentUnitsSeparateAfterOneTick(t *testing.T) {
	h := newHarness(t)
	env := h.engine.Behaviors()
	a := env.SpawnWorker(state.V(600, 600))
	b := env.SpawnWorker(state.V(600, 600))

	h.engine.Step(0.1)
	assert.Greater(t, a.Pos.Dist(b.Pos), 0.0)
}

func TestNonFiniteVelocityIsRecovered(t *testing.T) {
	h := newHarness(t)
	w := h.engine.Behaviors().SpawnWorker(state.V(600, 600))
	w.Vel = state.V(math.NaN(), 0)

	h.engine.Step(0.05)

	assert.True(t, w.Pos.IsFinite())
	assert.True(t, w.Vel.IsZero())
	assert.True(t, h.engine.Navigator().Bounds().Contains(w.Pos))
	assert.Len(t, h.events.OfType(simulation.EventNaNRecovered), 1)
	assert.Equal(t, uint64(1), h.metrics.Get(telemetry.MetricNaNRecoveries))
}

func TestPlaceBuildingInvalidatesNavigation(t *testing.T) {
	h := newHarness(t)
	nav := h.engine.Navigator()
	nav.Flow.VectorAt("probe", state.V(1200, 1000), state.V(1000, 900))
	require.Equal(t, 1, nav.Flow.Cached())

	site := state.V(900, 1000)
	b, err := h.engine.PlaceBuilding(state.BuildingHouse, site)
	require.NoError(t, err)

	assert.False(t, b.Constructed)
	assert.Equal(t, 0, nav.Flow.Cached(), "flow cache cleared")
	assert.False(t, nav.Grid.WalkableAt(site))
	assert.Equal(t, DefaultStartingGold-50, h.engine.Treasury().Balance())
}

func TestPlaceBuildingRejections(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.PlaceBuilding(state.BuildingHouse, state.V(900, 1000))
	require.NoError(t, err)

	_, err = h.engine.PlaceBuilding(state.BuildingHouse, state.V(910, 1005))
	assert.ErrorIs(t, err, ErrBlockedPlacement)

	_, err = h.engine.PlaceBuilding(state.BuildingHouse, state.V(5, 5))
	assert.ErrorIs(t, err, ErrBlockedPlacement)

	_, err = h.engine.PlaceBuilding("palace", state.V(500, 500))
	assert.ErrorIs(t, err, ErrUnknownBuilding)

	_, err = h.engine.PlaceBuilding(state.BuildingCastle, state.V(500, 500))
	assert.ErrorIs(t, err, ErrUnknownBuilding)

	require.True(t, h.engine.Treasury().Debit(h.engine.Treasury().Balance()))
	_, err = h.engine.PlaceBuilding(state.BuildingHouse, state.V(500, 500))
	assert.ErrorIs(t, err, ErrInsufficientGold)
}

func TestWorkerFinishesPlacedBuilding(t *testing.T) {
	h := newHarness(t)
	site, err := h.engine.PlaceBuilding(state.BuildingHouse, state.V(900, 1000))
	require.NoError(t, err)
	h.engine.Behaviors().SpawnWorker(site.DoorPoint().Add(state.V(0, 14)))

	for i := 0; i < 300 && !site.Constructed; i++ {
		h.engine.Step(0.1)
	}
	require.True(t, site.Constructed)
	assert.InDelta(t, site.BuildCost, site.Progress, 1e-9)
	assert.Len(t, h.events.OfType(lifecycle.EventBuildingComplete), 1)
}

func TestRecruitTrainsHeroAtGuild(t *testing.T) {
	h := newHarness(t)
	h.engine.Populate(warriorGuild())
	guild, ok := h.engine.guildFor("warrior")
	require.True(t, ok)

	require.NoError(t, h.engine.Recruit("warrior"))
	assert.Equal(t, DefaultStartingGold-60, h.engine.Treasury().Balance())
	assert.Equal(t, 1, h.engine.Pending())
	assert.Equal(t, 0, h.engine.Registry().CountKind(state.KindHero))

	h.run(52, 0.1)

	heroes := h.engine.Registry().Heroes()
	require.Len(t, heroes, 1)
	assert.Equal(t, guild.ID(), heroes[0].Home)
	require.NotEmpty(t, h.emitter.Spawns)
	last := h.emitter.Spawns[len(h.emitter.Spawns)-1]
	assert.Equal(t, state.KindHero, last.Kind)
	assert.Equal(t, "recruit", last.Reason)
}

func TestRecruitRejections(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.engine.Recruit("warrior"), ErrNoGuild)

	h.engine.Populate(warriorGuild())
	require.True(t, h.engine.Treasury().Debit(h.engine.Treasury().Balance()-10))
	assert.ErrorIs(t, h.engine.Recruit("warrior"), ErrInsufficientGold)
	assert.Equal(t, 10, h.engine.Treasury().Balance())
	assert.Equal(t, 0, h.engine.Pending())
}

func TestDeadHeroRespawnsAtHome(t *testing.T) {
	h := newHarness(t)
	h.engine.Populate(warriorGuild())
	guild, ok := h.engine.guildFor("warrior")
	require.True(t, ok)

	hero := h.engine.Behaviors().SpawnHero(aiHero("warrior", guild))
	require.True(t, h.engine.Combat().Kill(hero.ID(), state.NoEntity, state.KindMonster))
	assert.Equal(t, 1, h.engine.Pending())

	h.run(125, 0.1)

	heroes := h.engine.Registry().Heroes()
	require.Len(t, heroes, 1)
	assert.NotEqual(t, hero.ID(), heroes[0].ID())
	assert.Equal(t, guild.ID(), heroes[0].Home)
	_, stillThere := h.engine.Registry().Lookup(hero.ID())
	assert.False(t, stillThere, "dead hero swept")
}

func TestCastleDestructionEndsGame(t *testing.T) {
	h := newHarness(t)
	castle := h.castle(t)

	require.True(t, h.engine.Combat().Kill(castle.ID(), state.NoEntity, state.KindMonster))

	assert.True(t, h.engine.GameOver())
	assert.True(t, h.engine.Navigator().Grid.WalkableAt(castle.Center), "footprint released")
	assert.Len(t, h.events.OfType(simulation.EventGameOver), 1)

	h.engine.Step(0.1)
	assert.True(t, h.engine.Snapshot().GameOver)
}

func TestWaveSpawnsMonstersAtMapEdge(t *testing.T) {
	h := newHarness(t)
	h.engine.Populate(Scenario{Waves: true})

	h.run(190, 0.1)
	assert.Equal(t, 0, h.engine.Wave())

	h.run(90, 0.1)
	assert.Equal(t, 1, h.engine.Wave())
	assert.Len(t, h.events.OfType(simulation.EventWave), 1)

	bounds := h.engine.Navigator().Bounds()
	inset := h.engine.Config().WaveInset
	monsters := 0
	for _, req := range h.emitter.Spawns {
		if req.Kind != state.KindMonster {
			continue
		}
		monsters++
		min, max := bounds.Min(), bounds.Max()
		edge := math.Min(math.Min(req.Pos.X-min.X, max.X-req.Pos.X), math.Min(req.Pos.Y-min.Y, max.Y-req.Pos.Y))
		assert.LessOrEqual(t, edge, inset+1e-6)
		assert.Equal(t, "wave", req.Reason)
	}
	assert.Equal(t, 6, monsters)
}

func TestApplyJoinsCommandErrors(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Apply([]Command{
		recruit("warrior"),
		{Type: CommandBuild, Build: &BuildCommand{Type: "palace", X: 500, Y: 500}},
		{Type: CommandFlag, Flag: &FlagCommand{X: 700, Y: 700, Reward: 40}},
		{Type: CommandFlag},
	})

	assert.ErrorIs(t, err, ErrNoGuild)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Equal(t, 1, h.engine.Registry().CountKind(state.KindFlag))
	assert.Equal(t, DefaultStartingGold-40, h.engine.Treasury().Balance())
}

func TestBuildCommandAssignsGuildClass(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Apply([]Command{
		{Type: CommandBuild, Build: &BuildCommand{Type: "guild", X: 700, Y: 500, Guild: "ranger"}},
	}))
	var guild *state.Building
	for _, b := range h.engine.Registry().Buildings() {
		if b.Type == state.BuildingGuild {
			guild = b
		}
	}
	require.NotNil(t, guild)
	assert.Equal(t, state.HeroClass("ranger"), guild.Guild)
	assert.False(t, guild.Constructed)
}

func TestTaxAccruesOnConstructedBuildings(t *testing.T) {
	h := newHarness(t)
	h.engine.Populate(Scenario{Buildings: []Placement{
		{Type: state.BuildingFarm, DX: 330, DY: 150, Constructed: true},
		{Type: state.BuildingHouse, DX: -320, DY: 140},
	}})
	h.run(10, 0.1)
	for _, b := range h.engine.Registry().Buildings() {
		switch {
		case b.Type == state.BuildingFarm:
			assert.InDelta(t, 0.8, b.TaxAccrued, 1e-9)
		case b.Type == state.BuildingHouse:
			assert.Zero(t, b.TaxAccrued, "unfinished buildings pay nothing")
		}
	}
}

func TestDefaultScenarioRunsWithoutLosingBodies(t *testing.T) {
	h := newHarness(t)
	h.engine.Populate(DefaultScenario())

	reg := h.engine.Registry()
	assert.Equal(t, 4, reg.CountKind(state.KindHero))
	assert.Equal(t, 2, reg.CountKind(state.KindWorker))
	assert.Equal(t, 2, reg.CountKind(state.KindGuard))
	assert.Equal(t, 1, reg.CountKind(state.KindTaxCollector))
	assert.Len(t, reg.Buildings(), 9)
	for _, hero := range reg.Heroes() {
		home, ok := reg.Building(hero.Home)
		require.True(t, ok)
		assert.Equal(t, hero.Class, home.Guild)
	}

	bounds := h.engine.Navigator().Bounds()
	h.run(150, 1.0/30)
	for _, body := range reg.Bodies() {
		assert.True(t, body.Pos.IsFinite())
		assert.True(t, bounds.Contains(body.Pos))
	}
	assert.Equal(t, uint64(150), h.metrics.Get(telemetry.MetricTicks))
	assert.Equal(t, uint64(0), h.metrics.Get(telemetry.MetricNaNRecoveries))
}

func TestLoopAdvanceAppliesQueuedCommands(t *testing.T) {
	h := newHarness(t)
	var dropped []string
	loop := NewLoop(h.engine, LoopConfig{CommandCapacity: 2}, LoopHooks{
		OnCommandDrop: func(reason string, _ Command) { dropped = append(dropped, reason) },
	})
	flag := func(x float64) Command {
		return Command{Type: CommandFlag, Flag: &FlagCommand{X: x, Y: 600, Reward: 10}}
	}

	ok, _ := loop.Enqueue(flag(600))
	require.True(t, ok)
	ok, _ = loop.Enqueue(flag(650))
	require.True(t, ok)
	ok, reason := loop.Enqueue(flag(700))
	assert.False(t, ok)
	assert.Equal(t, CommandRejectQueueFull, reason)
	assert.Equal(t, []string{CommandRejectQueueFull}, dropped)

	result := loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.1})
	assert.Len(t, result.Commands, 2)
	assert.NoError(t, result.CommandErr)
	assert.Equal(t, uint64(1), result.Tick)
	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, 2, h.engine.Registry().CountKind(state.KindFlag))
	assert.Equal(t, DefaultStartingGold-20, result.Snapshot.Treasury)
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steps := 0
	loop := NewLoop(h.engine, LoopConfig{TickRate: 200}, LoopHooks{
		AfterStep: func(LoopStepResult) {
			steps++
			if steps == 3 {
				cancel()
			}
		},
	})

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, steps, 3)
	assert.Equal(t, uint64(steps), h.engine.Clock().Tick())
}

func TestLoopRunReturnsWhenCastleFalls(t *testing.T) {
	h := newHarness(t)
	castle := h.castle(t)
	require.True(t, h.engine.Combat().Kill(castle.ID(), state.NoEntity, state.KindMonster))

	loop := NewLoop(h.engine, LoopConfig{TickRate: 200}, LoopHooks{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, loop.Run(ctx))
}

func TestLoopReportsBudgetOverrun(t *testing.T) {
	h := newHarness(t)
	loop := NewLoop(h.engine, LoopConfig{}, LoopHooks{})

	loop.checkBudget(LoopStepResult{Tick: 3, Budget: 10 * time.Millisecond, Duration: 25 * time.Millisecond})
	loop.checkBudget(LoopStepResult{Tick: 4, Budget: 10 * time.Millisecond, Duration: 30 * time.Millisecond})

	events := h.events.OfType(simulation.EventTickBudgetOverrun)
	require.Len(t, events, 2)
	payload, ok := events[1].Payload.(simulation.TickBudgetOverrunPayload)
	require.True(t, ok)
	assert.Equal(t, uint64(2), payload.Streak)
	assert.InDelta(t, 3.0, payload.Ratio, 1e-9)
	assert.Equal(t, uint64(2), h.metrics.Get(telemetry.MetricTickOverruns))

	loop.checkBudget(LoopStepResult{Tick: 5, Budget: 10 * time.Millisecond, Duration: time.Millisecond})
	assert.Equal(t, uint64(0), loop.overrunStreak)
}

func TestConfigNormalizedFillsDefaults(t *testing.T) {
	cfg := Config{TickRate: -1, MaxDelta: math.Inf(1), StartingGold: -5}.Normalized()
	assert.Equal(t, DefaultStartingGold, Config{}.Normalized().StartingGold)
	assert.Equal(t, DefaultTickRate, cfg.TickRate)
	assert.Equal(t, DefaultMaxDelta, cfg.MaxDelta)
	assert.Equal(t, 0, cfg.StartingGold)
	assert.Equal(t, DefaultNPCRespawn, cfg.NPCRespawn)
	assert.Equal(t, world.DefaultWidth, cfg.World.Width)
}
