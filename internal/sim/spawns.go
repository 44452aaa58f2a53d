package sim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/ai"
	"hold-the-line/server/internal/simutil"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
	"hold-the-line/server/logging/simulation"
)

const (
	treasureMinGold   = 15
	treasureMaxGold   = 60
	treasureMinRadius = 350.0
	treasureMaxRadius = 700.0
	guardRingRadius   = 140.0
	minWaveDelay      = 1.0
)

// pendingSpawn is a spawn request due at a simulation time.
type pendingSpawn struct {
	due float64
	req state.SpawnRequest
}

// waveState tracks the wave schedule. started counts waves begun so far.
type waveState struct {
	enabled bool
	started int
	delay   simutil.Timer
	spacing simutil.Timer
	every   float64
	queue   []string
}

// schedule queues req to be emitted after delay seconds.
func (e *Engine) schedule(delay float64, req state.SpawnRequest) {
	e.pending = append(e.pending, pendingSpawn{due: e.clock.Now() + math.Max(0, delay), req: req})
}

// Pending reports how many delayed spawns are outstanding.
func (e *Engine) Pending() int { return len(e.pending) }

// advancePending emits every delayed spawn that has come due, keeping the
// rest in order.
func (e *Engine) advancePending() {
	now := e.clock.Now()
	kept := e.pending[:0]
	for _, p := range e.pending {
		if p.due <= now {
			e.Spawn(p.req)
			continue
		}
		kept = append(kept, p)
	}
	e.pending = kept
}

// flushSpawns materializes the queued spawn requests and notifies the
// outward emitter of each one.
func (e *Engine) flushSpawns() {
	requests := e.requests
	e.requests = nil
	for _, req := range requests {
		if e.materialize(req) {
			e.deps.Emitter.Spawn(req)
		}
	}
}

func (e *Engine) materialize(req state.SpawnRequest) bool {
	switch req.Kind {
	case state.KindHero:
		home, pos := e.heroHome(req)
		e.env.SpawnHero(ai.HeroSpawn{Class: string(req.Class), Pos: pos, Home: home, Reason: req.Reason})
	case state.KindMonster:
		e.env.SpawnMonster(ai.MonsterSpawn{Archetype: req.Archetype, Pos: req.Pos, Gather: req.Gather, Reason: req.Reason})
	case state.KindWorker:
		e.env.SpawnWorker(e.npcPos(req))
	case state.KindGuard:
		e.env.SpawnGuard(e.npcPos(req), world.RandomAngle(e.rng))
	case state.KindTaxCollector:
		e.env.SpawnTaxCollector(e.npcPos(req))
	default:
		e.log.WithField("kind", req.Kind.String()).Warn("unsupported spawn request")
		return false
	}
	return true
}

// heroHome resolves where a hero appears: its home guild when it still
// stands, otherwise a guild of its class, otherwise the castle.
func (e *Engine) heroHome(req state.SpawnRequest) (state.EntityID, state.Vec2) {
	if b, ok := e.registry.Building(req.Home); ok && b.Constructed {
		return b.ID(), b.DoorPoint()
	}
	if b, ok := e.guildFor(string(req.Class)); ok {
		return b.ID(), b.DoorPoint()
	}
	if e.positionUsable(req.Pos) {
		return state.NoEntity, req.Pos
	}
	return state.NoEntity, e.fallbackAnchor()
}

func (e *Engine) npcPos(req state.SpawnRequest) state.Vec2 {
	if e.positionUsable(req.Pos) {
		return req.Pos
	}
	return e.fallbackAnchor()
}

func (e *Engine) positionUsable(p state.Vec2) bool {
	return !p.IsZero() && p.IsFinite() && e.nav.Bounds().Contains(p)
}

// guildFor returns a constructed guild training class, preferring one
// dedicated to it over a shared one.
func (e *Engine) guildFor(class string) (*state.Building, bool) {
	var shared *state.Building
	for _, b := range e.registry.Buildings() {
		if b.Type != state.BuildingGuild || !b.Constructed {
			continue
		}
		switch string(b.Guild) {
		case class:
			return b, true
		case "":
			if shared == nil {
				shared = b
			}
		}
	}
	return shared, shared != nil
}

// advanceWaves starts the next wave when its delay runs out and releases the
// queued monsters of the current wave one interval apart at the map edge.
func (e *Engine) advanceWaves(dt float64) {
	w := &e.waves
	if !w.enabled {
		return
	}
	if w.delay.Tick(dt) {
		e.startWave()
	}
	if len(w.queue) == 0 {
		return
	}
	w.spacing.Tick(dt)
	if w.spacing.Active() {
		return
	}
	archetype := w.queue[0]
	w.queue = w.queue[1:]
	w.spacing.Reset(w.every)
	e.Spawn(state.SpawnRequest{
		Kind:      state.KindMonster,
		Archetype: archetype,
		Pos:       world.RandomEdgePoint(e.rng, e.nav.Bounds(), e.cfg.WaveInset),
		Gather:    true,
		Reason:    "wave",
	})
}

func (e *Engine) startWave() {
	w := &e.waves
	entry := e.catalog.Wave(w.started)
	w.started++
	for _, s := range entry.Spawns {
		for i := 0; i < s.Count; i++ {
			w.queue = append(w.queue, s.Archetype)
		}
	}
	w.every = entry.Interval
	w.spacing.Clear()
	w.delay.Reset(math.Max(minWaveDelay, e.catalog.Wave(w.started).Delay))

	simulation.Wave(context.Background(), e.deps.Publisher, e.clock.Tick(),
		simulation.WavePayload{Wave: w.started, Monsters: entry.Size()}, nil)
	e.log.WithFields(logrus.Fields{"wave": w.started, "monsters": entry.Size()}).Info("wave started")
}

// Wave reports how many waves have started.
func (e *Engine) Wave() int { return e.waves.started }

// Populate places the opening buildings and units of sc around the castle
// and arms the wave schedule when requested.
func (e *Engine) Populate(sc Scenario) {
	castle, ok := e.registry.Castle()
	if !ok {
		return
	}
	origin := castle.Center
	for _, p := range sc.Buildings {
		b, ok := e.env.SpawnBuilding(p.Type, origin.Add(state.V(p.DX, p.DY)), p.Constructed)
		if !ok {
			e.log.WithField("type", p.Type).Warn("unknown building in scenario")
			continue
		}
		b.Guild = state.HeroClass(p.Guild)
		e.nav.MarkBuilding(b)
	}
	e.nav.TopologyChanged()

	for _, class := range sc.Heroes {
		e.Spawn(state.SpawnRequest{Kind: state.KindHero, Class: state.HeroClass(class), Reason: "initial"})
	}
	door := castle.DoorPoint()
	for i := 0; i < sc.Workers; i++ {
		e.Spawn(state.SpawnRequest{Kind: state.KindWorker, Pos: door.Add(state.V(float64(i*20-10), 24)), Reason: "initial"})
	}
	for i := 0; i < sc.Guards; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(1, sc.Guards))
		pos := origin.Add(state.V(math.Cos(angle), math.Sin(angle)).Scale(guardRingRadius))
		e.Spawn(state.SpawnRequest{Kind: state.KindGuard, Pos: pos, Reason: "initial"})
	}
	for i := 0; i < sc.TaxCollectors; i++ {
		e.Spawn(state.SpawnRequest{Kind: state.KindTaxCollector, Pos: door.Add(state.V(0, 40)), Reason: "initial"})
	}
	for i := 0; i < sc.Treasures; i++ {
		e.placeTreasure(origin)
	}
	e.flushSpawns()

	if sc.Waves && e.catalog.WaveCount() > 0 {
		e.waves.enabled = true
		e.waves.delay.Reset(math.Max(minWaveDelay, e.catalog.Wave(0).Delay))
	}
}

// placeTreasure drops a gold pile on a walkable point in a ring around
// origin.
func (e *Engine) placeTreasure(origin state.Vec2) {
	for attempt := 0; attempt < 10; attempt++ {
		p := world.RandomPointInRing(e.rng, origin, treasureMinRadius, treasureMaxRadius)
		if !e.nav.Bounds().Contains(p) || !e.nav.Grid.WalkableAt(p) {
			continue
		}
		gold := treasureMinGold + e.rng.Intn(treasureMaxGold-treasureMinGold+1)
		e.registry.Add(state.NewTreasure(e.registry.AllocateID(), p, gold))
		return
	}
}
