package ai

import (
	"context"
	"math"
	"strconv"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/steering"
	"hold-the-line/server/internal/world"
	loggingeconomy "hold-the-line/server/logging/economy"
)

// Roaming tuning.
const (
	patrolMinStops     = 3
	patrolMaxStops     = 5
	patrolLingerMin    = 3.0
	patrolLingerMax    = 5.0
	patrolMargin       = 30.0
	patrolReach        = 20.0
	defenseWindow      = 3.0
	defenseReach       = 1.5
	exploreMinDistance = 250.0
	exploreMaxDistance = 600.0
	exploreSpread      = math.Pi / 3
	exploreReach       = 30.0
	exploreAttempts    = 10
	treasureNearby     = 120.0
	questReach         = 16.0
	roamSpeedFactor    = 0.8
)

// buildPatrol lays out a route around randomly chosen constructed
// buildings. It reports false when nothing is standing.
func (e *Env) buildPatrol(h *state.Hero) bool {
	buildings := e.constructed("")
	if len(buildings) == 0 {
		return false
	}
	stops := patrolMinStops + e.RNG.Intn(patrolMaxStops-patrolMinStops+1)
	route := state.PatrolRoute{Waypoints: make([]Vec2, 0, stops)}
	for i := 0; i < stops; i++ {
		b := buildings[e.RNG.Intn(len(buildings))]
		if p, ok := e.perimeterPoint(b); ok {
			route.Waypoints = append(route.Waypoints, p)
		}
	}
	if len(route.Waypoints) == 0 {
		return false
	}
	h.Patrol = route
	return true
}

// perimeterPoint picks a walkable point just outside a building footprint.
func (e *Env) perimeterPoint(b *state.Building) (Vec2, bool) {
	for i := 0; i < exploreAttempts; i++ {
		p := world.RandomEdgePoint(e.RNG, b.Bounds().Inflate(patrolMargin), 0)
		p = world.ClampToBounds(p, patrolMargin, e.bounds())
		if e.walkable(p) {
			return p, true
		}
	}
	return Vec2{}, false
}

// patrol walks the route, lingering at each stop, and answers attacks on
// nearby buildings.
func (e *Env) patrol(h *state.Hero, dt float64) {
	if m, ok := e.defenseTarget(h); ok {
		e.startFight(h, m)
		return
	}
	if m, _ := e.nearestMonster(h.Pos, h.Perception); m != nil {
		h.SetState(state.HeroDecision)
		return
	}
	wp, ok := h.Patrol.Current()
	if !ok {
		h.SetState(state.HeroDecision)
		return
	}
	if h.Patrol.Lingering {
		e.hold(&h.Agent, e.heroSeparation(h, false))
		if h.Patrol.Linger.Expired() {
			h.Patrol.Lingering = false
			h.Patrol.Index++
			h.Stuck.Reset(h.Pos)
		}
		return
	}
	if h.Pos.Dist(wp) <= patrolReach {
		h.Patrol.Lingering = true
		h.Patrol.Linger.Reset(patrolLingerMin + world.RandomFloat(e.RNG)*(patrolLingerMax-patrolLingerMin))
		return
	}
	if trackStuck(&h.Agent, dt) {
		if h.Stuck.Retries > maxStuckRetries {
			h.SetState(state.HeroDecision)
			return
		}
		h.Patrol.Index++
	}
	e.move(&h.Agent, steering.PointGoal(wp), h.Speed*roamSpeedFactor, e.heroSeparation(h, false))
}

// defenseTarget finds a monster near a recently damaged building within the
// widened defensive perception.
func (e *Env) defenseTarget(h *state.Hero) (*state.Monster, bool) {
	now := e.now()
	for _, b := range e.Registry.Buildings() {
		if !b.DamagedWithin(now, defenseWindow) {
			continue
		}
		if h.Pos.Dist(b.Center) > h.Perception*defenseReach {
			continue
		}
		if m, _ := e.nearestMonster(b.Center, h.Perception*defenseReach); m != nil {
			return m, true
		}
	}
	return nil, false
}

// startExplore begins a trip. Monsters judged on earlier trips are judged
// again.
func (e *Env) startExplore(h *state.Hero) {
	if h.Explore.Discovered == nil {
		h.Explore.Discovered = make(map[state.EntityID]struct{})
	} else {
		clear(h.Explore.Discovered)
	}
	e.pickExplorePoint(h, nil)
}

// pickExplorePoint chooses a destination biased away from the castle. With
// a monster to avoid, the bias points away from it instead.
func (e *Env) pickExplorePoint(h *state.Hero, avoid *state.Monster) {
	origin := e.castleDoor()
	dir := h.Pos.Sub(origin)
	if avoid != nil {
		dir = h.Pos.Sub(avoid.Pos)
	}
	heading := math.Atan2(dir.Y, dir.X)
	if dir.IsZero() {
		heading = world.RandomAngle(e.RNG)
	}
	for i := 0; i < exploreAttempts; i++ {
		a := heading + (world.RandomFloat(e.RNG)*2-1)*exploreSpread
		d := world.RandomDistance(e.RNG, exploreMinDistance, exploreMaxDistance)
		p := world.ClampToBounds(h.Pos.Add(state.V(math.Cos(a), math.Sin(a)).Scale(d)), patrolMargin, e.bounds())
		if e.walkable(p) {
			h.Explore.Point = p
			h.Explore.Active = true
			h.Stuck.Reset(h.Pos)
			return
		}
	}
	h.Explore.Point = e.randomWalkable(h.Pos, exploreMinDistance/2, exploreMaxDistance/2)
	h.Explore.Active = true
}

// explore walks to the exploration point, looting treasure and reacting to
// newly discovered monsters.
func (e *Env) explore(h *state.Hero, dt float64) {
	if !h.Explore.Active {
		e.startExplore(h)
	} else if h.Explore.Discovered == nil {
		h.Explore.Discovered = make(map[state.EntityID]struct{})
	}
	e.lootTreasure(h)

	for _, m := range e.monstersNear(h.Pos, h.Perception) {
		if _, seen := h.Explore.Discovered[m.ID()]; seen {
			continue
		}
		h.Explore.Discovered[m.ID()] = struct{}{}
		response := EvaluateDanger(heroThreat(h, m), h.Personality, h.Morale, e.treasureNear(h.Pos))
		e.Logger.WithField("hero", h.ID()).WithField("response", response.String()).Debug("monster discovered")
		switch response {
		case ResponseFight:
			h.Explore.Active = false
			e.startFight(h, m)
			return
		case ResponseFlee:
			h.Explore.Active = false
			if home, ok := e.homeFor(h); ok {
				h.SetState(state.HeroRetreat)
				h.Travel = state.Travel{Purpose: state.TravelRetreat, Building: home.ID()}
				h.Travel.Approach.Reset(approachTimeout)
			} else {
				h.SetState(state.HeroDecision)
			}
			return
		case ResponseReroute:
			e.pickExplorePoint(h, m)
		}
	}

	if h.Pos.Dist(h.Explore.Point) <= exploreReach {
		h.Explore.Active = false
		h.SetState(state.HeroDecision)
		return
	}
	if trackStuck(&h.Agent, dt) {
		if h.Stuck.Retries > maxStuckRetries {
			h.Explore.Active = false
			h.SetState(state.HeroDecision)
			return
		}
		retries := h.Stuck.Retries
		e.pickExplorePoint(h, nil)
		h.Stuck.Retries = retries
	}
	e.move(&h.Agent, steering.PointGoal(h.Explore.Point), h.Speed*roamSpeedFactor, e.heroSeparation(h, false))
}

func (e *Env) treasureNear(p Vec2) bool {
	found := false
	e.Registry.Each(func(ent state.Entity) {
		if t, ok := ent.(*state.Treasure); ok && t.Alive() && p.Dist(t.Pos) <= treasureNearby {
			found = true
		}
	})
	return found
}

// lootTreasure collects every treasure touching the hero.
func (e *Env) lootTreasure(h *state.Hero) {
	e.Registry.Each(func(ent state.Entity) {
		t, ok := ent.(*state.Treasure)
		if !ok || !t.Alive() || h.Pos.Dist(t.Pos) > h.BodyRadius+t.Radius() {
			return
		}
		e.collect(h, t.Gold, "treasure", t.Pos)
		t.MarkRemoved()
	})
}

func (e *Env) collect(h *state.Hero, gold int, source string, at Vec2) {
	h.Gold += gold
	h.History.GoldEarned += gold
	e.feedback("+"+strconv.Itoa(gold)+"g", state.ColorGold, at)
	loggingeconomy.Loot(context.Background(), e.Publisher, e.tick(), e.ref(h),
		loggingeconomy.LootPayload{Source: source, Gold: gold}, nil)
}

// quest walks to the claimed flag and collects its bounty.
func (e *Env) quest(h *state.Hero, dt float64) {
	ent, ok := e.Registry.Lookup(h.Quest)
	f, isFlag := ent.(*state.Flag)
	if !ok || !isFlag || !f.Alive() {
		h.Quest = state.NoEntity
		h.SetState(state.HeroDecision)
		return
	}
	if h.Pos.Dist(f.Pos) <= questReach+h.BodyRadius {
		e.collect(h, f.Reward, "flag", f.Pos)
		f.MarkRemoved()
		h.Quest = state.NoEntity
		e.enterVictory(h)
		return
	}
	if trackStuck(&h.Agent, dt) && h.Stuck.Retries > maxStuckRetries {
		f.Claim = state.NoEntity
		h.Quest = state.NoEntity
		h.SetState(state.HeroDecision)
		return
	}
	e.move(&h.Agent, steering.PointGoal(f.Pos), h.Speed, e.heroSeparation(h, false))
}
