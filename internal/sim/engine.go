// Package sim owns the simulation root: the entity registry, treasury,
// navigation services and combat resolver, and steps them in a fixed order.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/ai"
	"hold-the-line/server/internal/catalog"
	"hold-the-line/server/internal/combat"
	"hold-the-line/server/internal/state"
	herostats "hold-the-line/server/internal/stats"
	"hold-the-line/server/internal/steering"
	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/internal/world"
	"hold-the-line/server/logging"
	"hold-the-line/server/logging/lifecycle"
	"hold-the-line/server/logging/simulation"
)

// ErrMissingCatalog indicates the catalog could not be loaded.
var ErrMissingCatalog = errors.New("sim: catalog unavailable")

// Phase names one stage of a tick.
type Phase string

const (
	PhaseBehavior  Phase = "behavior"
	PhaseIntegrate Phase = "integrate"
	PhaseCollide   Phase = "collide"
	PhaseSweep     Phase = "sweep"
)

// EngineOption configures NewEngine. Options are applied in order; later
// options override earlier ones.
type EngineOption interface {
	apply(*engineConfig)
}

type engineOptionFunc func(*engineConfig)

func (f engineOptionFunc) apply(cfg *engineConfig) {
	if f != nil {
		f(cfg)
	}
}

type engineConfig struct {
	config  Config
	deps    Deps
	catalog *catalog.Catalog
	onPhase func(Phase)
}

// WithConfig sets the engine configuration.
func WithConfig(cfg Config) EngineOption {
	return engineOptionFunc(func(c *engineConfig) { c.config = cfg })
}

// WithDeps injects shared infrastructure dependencies.
func WithDeps(deps Deps) EngineOption {
	return engineOptionFunc(func(c *engineConfig) { c.deps = deps })
}

// WithCatalog supplies the configuration tables. The embedded tables are
// used when omitted.
func WithCatalog(cat *catalog.Catalog) EngineOption {
	return engineOptionFunc(func(c *engineConfig) { c.catalog = cat })
}

// WithPhaseHook observes the end of every tick stage.
func WithPhaseHook(fn func(Phase)) EngineOption {
	return engineOptionFunc(func(c *engineConfig) { c.onPhase = fn })
}

// Engine is the simulation root. It is not safe for concurrent use; the
// Loop serializes access.
type Engine struct {
	cfg     Config
	deps    Deps
	log     logrus.FieldLogger
	catalog *catalog.Catalog
	onPhase func(Phase)

	clock    *world.Clock
	registry *state.Registry
	treasury *state.Treasury
	nav      *world.Navigator
	combat   *combat.Resolver
	env      *ai.Env
	rng      *rand.Rand

	requests []state.SpawnRequest
	pending  []pendingSpawn
	waves    waveState

	gameOver bool
}

// NewEngine builds an engine with a castle at the world center.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	var cfg engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	deps := cfg.deps.normalized()
	config := cfg.config.Normalized()
	cat := cfg.catalog
	if cat == nil {
		loaded, err := catalog.Load(catalog.Options{Logger: deps.Logger, Publisher: deps.Publisher})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingCatalog, err)
		}
		cat = loaded
	}

	e := &Engine{
		cfg:      config,
		deps:     deps,
		log:      deps.Logger.WithField("component", "sim"),
		catalog:  cat,
		onPhase:  cfg.onPhase,
		clock:    &world.Clock{},
		registry: state.NewRegistry(),
		treasury: state.NewTreasury(config.StartingGold),
	}
	e.nav = world.NewNavigator(config.World, e.clock, e.obstacles)
	e.combat = combat.NewResolver(combat.Config{
		Registry:  e.registry,
		Treasury:  e.treasury,
		Clock:     e.clock,
		Emitter:   e,
		Publisher: deps.Publisher,
		Logger:    deps.Logger,
		OnDeath:   e.handleDeath,
	})
	e.env = (&ai.Env{
		Registry:  e.registry,
		Nav:       e.nav,
		Steer:     steering.NewController(steering.DefaultParams(), e.nav.Flow, world.NewDeterministicRNG(config.World.Seed, "steering")),
		Combat:    e.combat,
		Catalog:   cat,
		Treasury:  e.treasury,
		Emitter:   e,
		Publisher: deps.Publisher,
		RNG:       world.NewDeterministicRNG(config.World.Seed, "ai"),
		Logger:    deps.Logger,

		OnBuildingComplete: e.CompleteBuilding,
	}).Ready()
	e.rng = world.NewDeterministicRNG(config.World.Seed, "spawns")

	center := config.World.Bounds().Center
	castle, ok := e.env.SpawnBuilding(state.BuildingCastle, center, true)
	if !ok {
		return nil, fmt.Errorf("%w: no castle entry", ErrMissingCatalog)
	}
	e.nav.MarkBuilding(castle)
	e.nav.TopologyChanged()
	return e, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config { return e.cfg }

// Deps returns the injected dependencies.
func (e *Engine) Deps() Deps { return e.deps }

// Registry exposes the live-entity collection.
func (e *Engine) Registry() *state.Registry { return e.registry }

// Treasury exposes the player's gold.
func (e *Engine) Treasury() *state.Treasury { return e.treasury }

// Navigator exposes the shared navigation services.
func (e *Engine) Navigator() *world.Navigator { return e.nav }

// Combat exposes the damage resolver.
func (e *Engine) Combat() *combat.Resolver { return e.combat }

// Behaviors exposes the agent behavior environment.
func (e *Engine) Behaviors() *ai.Env { return e.env }

// Clock exposes simulation time.
func (e *Engine) Clock() *world.Clock { return e.clock }

// GameOver reports whether the castle has fallen.
func (e *Engine) GameOver() bool { return e.gameOver }

// Feedback forwards a label to the outward emitter.
func (e *Engine) Feedback(f state.Feedback) {
	e.deps.Emitter.Feedback(f)
}

// Spawn queues a spawn request. Queued requests are materialized after the
// sweep of the current tick.
func (e *Engine) Spawn(req state.SpawnRequest) {
	e.requests = append(e.requests, req)
}

// Step advances the simulation by dt seconds, clamped to [0, MaxDelta].
// Every behavior update runs before any integration, every integration
// before collision resolution, and removed entities are swept last.
func (e *Engine) Step(dt float64) {
	dt = clampDelta(dt, e.cfg.MaxDelta)
	e.clock.Advance(dt)
	if e.gameOver {
		return
	}

	e.accrueTax(dt)
	e.advanceWaves(dt)
	e.advancePending()

	for i := 0; i < e.registry.Len(); i++ {
		e.env.Update(e.registry.At(i), dt)
	}
	herostats.Resolve(herostats.HeroActors(e.registry.Heroes()))
	e.phase(PhaseBehavior)

	e.integrate(dt)
	e.phase(PhaseIntegrate)

	world.ResolveCollisions(e.registry.Bodies(), e.nav.Bounds())
	e.phase(PhaseCollide)

	for _, gone := range e.registry.Sweep() {
		lifecycle.Removed(context.Background(), e.deps.Publisher, e.clock.Tick(),
			logging.Ref(gone.Kind(), uint64(gone.ID())), nil)
	}
	e.phase(PhaseSweep)

	e.flushSpawns()
	e.recordMetrics()
}

func clampDelta(dt, max float64) float64 {
	if !(dt > 0) {
		return 0
	}
	return math.Min(dt, max)
}

func (e *Engine) phase(p Phase) {
	if e.onPhase != nil {
		e.onPhase(p)
	}
}

// integrate moves every live body and pushes it out of building footprints.
// Bodies that went non-finite are snapped back and reported.
func (e *Engine) integrate(dt float64) {
	bounds := e.nav.Bounds()
	obstacles := e.obstacles()
	fallback := e.fallbackAnchor()
	for i := 0; i < e.registry.Len(); i++ {
		p, ok := e.registry.At(i).(state.Pathing)
		if !ok {
			continue
		}
		body := p.Body()
		if !body.Alive() || body.Removed() {
			continue
		}
		if world.Integrate(body, dt, bounds, fallback) {
			e.deps.Metrics.Add(telemetry.MetricNaNRecoveries, 1)
			e.log.WithFields(logrus.Fields{"entity": body.ID(), "x": body.Pos.X, "y": body.Pos.Y}).
				Warn("recovered non-finite position")
			simulation.NaNRecovered(context.Background(), e.deps.Publisher, e.clock.Tick(),
				logging.Ref(body.Kind(), uint64(body.ID())),
				simulation.NaNRecoveredPayload{X: body.Pos.X, Y: body.Pos.Y}, nil)
		}
		world.ResolveObstaclePenetration(body, obstacles, bounds)
	}
}

// obstacles lists the footprint of every standing building.
func (e *Engine) obstacles() []world.Rect {
	buildings := e.registry.Buildings()
	rects := make([]world.Rect, 0, len(buildings))
	for _, b := range buildings {
		rects = append(rects, b.Bounds())
	}
	return rects
}

func (e *Engine) fallbackAnchor() state.Vec2 {
	if castle, ok := e.registry.Castle(); ok {
		return castle.DoorPoint()
	}
	return e.nav.Bounds().Center
}

// accrueTax grows the pending tax of every constructed taxable building.
func (e *Engine) accrueTax(dt float64) {
	for _, b := range e.registry.Buildings() {
		if b.Constructed && b.TaxRate > 0 {
			b.TaxAccrued += b.TaxRate * dt
		}
	}
}

func (e *Engine) recordMetrics() {
	m := e.deps.Metrics
	m.Add(telemetry.MetricTicks, 1)
	m.Store(telemetry.MetricHeroes, uint64(e.registry.CountKind(state.KindHero)))
	m.Store(telemetry.MetricMonsters, uint64(e.registry.CountKind(state.KindMonster)))
	m.Store(telemetry.MetricDeaths, uint64(e.combat.Deaths()))
	m.Store(telemetry.MetricPathSearches, uint64(e.nav.Planner.Searches()))
	m.Store(telemetry.MetricFlowRecomputes, uint64(e.nav.Flow.Recomputes()))
}

// handleDeath reacts to a completed death transition.
func (e *Engine) handleDeath(victim state.Targetable, _ state.EntityID) {
	switch v := victim.(type) {
	case *state.Hero:
		delay := e.catalog.Class(string(v.Class)).RespawnTime
		e.schedule(delay, state.SpawnRequest{Kind: state.KindHero, Class: v.Class, Home: v.Home, Reason: "respawn"})
	case *state.Worker, *state.Guard, *state.TaxCollector:
		e.schedule(e.cfg.NPCRespawn, state.SpawnRequest{Kind: v.Kind(), Reason: "respawn"})
	case *state.Building:
		e.buildingDestroyed(v)
	}
}

// buildingDestroyed releases the footprint and ends the game with the castle.
func (e *Engine) buildingDestroyed(b *state.Building) {
	e.nav.UnmarkBuilding(b)
	e.nav.TopologyChanged()
	e.log.WithFields(logrus.Fields{"building": b.ID(), "type": b.Type}).Info("building destroyed")
	if b.Type != state.BuildingCastle || e.gameOver {
		return
	}
	e.gameOver = true
	simulation.GameOver(context.Background(), e.deps.Publisher, e.clock.Tick(),
		logging.Ref(b.Kind(), uint64(b.ID())),
		simulation.GameOverPayload{Seconds: e.clock.Now(), Wave: e.waves.started}, nil)
	e.log.WithFields(logrus.Fields{"seconds": e.clock.Now(), "wave": e.waves.started}).Warn("castle destroyed")
}
