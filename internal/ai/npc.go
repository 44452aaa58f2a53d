package ai

import (
	"context"
	"math"
	"sort"
	"strconv"

	"hold-the-line/server/internal/combat"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/steering"
	loggingeconomy "hold-the-line/server/logging/economy"
	"hold-the-line/server/logging/lifecycle"
)

// Support NPC tuning.
const (
	npcFleeRadius  = 100.0
	siteReach      = 12.0
	idleRadius     = 60.0
	idleEvery      = 3.0
	guardRingStep  = math.Pi / 4
	guardRingEvery = 4.0
	guardRingReach = 16.0
	collectorPause = 2.0
	collectorReach = 16.0
)

// UpdateWorker walks to the nearest unfinished site and builds it.
func (e *Env) UpdateWorker(w *state.Worker, dt float64) {
	if w == nil || !w.Alive() {
		return
	}
	w.TickTimers(dt)
	from := w.State
	defer func() { e.publishState(w, from.String(), w.State.String()) }()

	if m, _ := e.nearestMonster(w.Pos, npcFleeRadius); m != nil {
		w.State = state.NPCFleeing
		e.Steer.Flee(&w.Agent, m.Pos, w.Speed)
		return
	}

	site, ok := e.Registry.Building(w.Site)
	if !ok || site.Constructed || !site.Alive() {
		site, ok = e.nearestSite(w.Pos)
		if !ok {
			w.Site = state.NoEntity
			e.idle(w)
			return
		}
		w.Site = site.ID()
	}

	door := site.DoorPoint()
	if w.Pos.Dist(door) > siteReach+w.BodyRadius {
		w.State = state.NPCTravelling
		e.move(&w.Agent, steering.DoorGoal(site), w.Speed, steering.SeparationTravel)
		return
	}
	w.State = state.NPCWorking
	e.hold(&w.Agent, steering.SeparationHoldRange)
	site.Progress += w.BuildRate * dt
	if site.Progress >= site.BuildCost {
		e.completeSite(site, w)
		w.Site = state.NoEntity
	}
}

func (e *Env) completeSite(b *state.Building, by *state.Worker) {
	if e.OnBuildingComplete != nil {
		e.OnBuildingComplete(b)
	} else {
		b.Constructed = true
	}
	lifecycle.BuildingComplete(context.Background(), e.Publisher, e.tick(), e.ref(by), e.ref(b),
		lifecycle.BuildingPayload{Building: string(b.Type)}, nil)
}

// nearestSite returns the closest live unfinished building.
func (e *Env) nearestSite(p Vec2) (*state.Building, bool) {
	var best *state.Building
	bestDist := math.Inf(1)
	for _, b := range e.Registry.Buildings() {
		if b.Constructed || !b.Alive() {
			continue
		}
		if d := p.Dist(b.DoorPoint()); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, best != nil
}

// idle loiters around the castle door.
func (e *Env) idle(w *state.Worker) {
	w.State = state.NPCIdle
	if w.Idle.Expired() {
		w.Idle.Reset(idleEvery)
		w.Steer.Smoothed = Vec2{}
		w.Route.Goal = e.randomWalkable(e.castleDoor(), 20, idleRadius)
		w.Route.Valid = false
	}
	e.chase(&w.Agent, w.Route.Goal, w.Speed*0.5, steering.SeparationFull)
}

// UpdateGuard defends the castle ring.
func (e *Env) UpdateGuard(g *state.Guard, dt float64) {
	if g == nil || !g.Alive() {
		return
	}
	g.TickTimers(dt)
	from := g.State
	defer func() { e.publishState(g, from.String(), g.State.String()) }()
	castle := e.castleDoor()

	m, ok := e.Registry.Monster(g.Target)
	if !ok || !m.Alive() || m.Pos.Dist(castle) > g.Leash {
		if ok {
			e.Combat.Disengage(&g.Agent)
		}
		g.Target = state.NoEntity
		m, _ = e.nearestMonster(g.Pos, g.Perception)
		if m != nil && m.Pos.Dist(castle) <= g.Leash {
			g.Target = m.ID()
		} else {
			m = nil
		}
	}
	if m != nil {
		g.State = state.NPCFighting
		e.guardFight(g, m)
		return
	}

	g.State = state.NPCIdle
	post := castle.Add(Vec2{X: math.Cos(g.RingAngle), Y: math.Sin(g.RingAngle)}.Scale(g.RingRadius))
	if g.Pos.Dist(post) <= guardRingReach || g.RingStep.Expired() {
		g.RingAngle = math.Mod(g.RingAngle+guardRingStep, 2*math.Pi)
		g.RingStep.Reset(guardRingEvery)
	}
	e.chase(&g.Agent, post, g.Speed*0.6, steering.SeparationFull)
}

func (e *Env) guardFight(g *state.Guard, m *state.Monster) {
	reach := g.BodyRadius + m.BodyRadius + 4
	if g.Pos.Dist(m.Pos) > reach {
		e.chase(&g.Agent, m.Pos, g.Speed, steering.SeparationFull)
		return
	}
	e.hold(&g.Agent, steering.SeparationEngaged)
	if !e.Combat.Engage(&g.Agent, m, combat.DefaultEngageLock) {
		g.Target = state.NoEntity
		return
	}
	if g.AttackCooldown.Active() {
		return
	}
	g.AttackCooldown.Reset(g.AttackEvery)
	e.Combat.Apply(combat.Hit{Source: g.ID(), SourceKind: state.KindGuard, Target: m.ID(), Amount: g.Damage})
}

// UpdateTaxCollector tours taxable buildings and deposits at the castle.
func (e *Env) UpdateTaxCollector(c *state.TaxCollector, dt float64) {
	if c == nil || !c.Alive() {
		return
	}
	c.TickTimers(dt)
	from := c.State
	defer func() { e.publishState(c, from.String(), c.State.String()) }()

	if m, _ := e.nearestMonster(c.Pos, npcFleeRadius); m != nil {
		c.State = state.NPCFleeing
		e.Steer.Flee(&c.Agent, m.Pos, c.Speed)
		return
	}
	if c.Pause.Active() {
		c.State = state.NPCIdle
		e.hold(&c.Agent, steering.SeparationFull)
		return
	}
	if len(c.Route) == 0 || c.Stop > len(c.Route) {
		c.Route = e.taxRoute()
		c.Stop = 0
		if len(c.Route) == 0 {
			c.State = state.NPCIdle
			c.Pause.Reset(collectorPause)
			return
		}
	}

	if c.Stop == len(c.Route) {
		c.State = state.NPCReturning
		e.returnTax(c)
		return
	}
	b, ok := e.Registry.Building(c.Route[c.Stop])
	if !ok || !b.Constructed {
		c.Stop++
		return
	}
	c.State = state.NPCTravelling
	if c.Pos.Dist(b.DoorPoint()) > collectorReach+c.BodyRadius {
		e.move(&c.Agent, steering.DoorGoal(b), c.Speed, steering.SeparationTravel)
		return
	}
	if amount := int(math.Floor(b.TaxAccrued)); amount > 0 {
		b.TaxAccrued -= float64(amount)
		c.Carried += amount
		loggingeconomy.TaxCollected(context.Background(), e.Publisher, e.tick(), e.ref(c), e.ref(b),
			loggingeconomy.TaxPayload{Amount: amount}, nil)
	}
	c.Stop++
}

func (e *Env) returnTax(c *state.TaxCollector) {
	castle, ok := e.Registry.Castle()
	if !ok {
		c.Route = nil
		return
	}
	if c.Pos.Dist(castle.DoorPoint()) > collectorReach+c.BodyRadius {
		e.move(&c.Agent, steering.DoorGoal(castle), c.Speed, steering.SeparationTravel)
		return
	}
	if c.Carried > 0 {
		e.Combat.Credit(c.Carried, "tax")
		e.feedback("+"+strconv.Itoa(c.Carried)+"g", state.ColorGold, castle.DoorPoint())
		c.Carried = 0
	}
	c.Route = nil
	c.Stop = 0
	c.Pause.Reset(collectorPause)
}

// taxRoute lists taxable constructed buildings in id order.
func (e *Env) taxRoute() []state.EntityID {
	var route []state.EntityID
	for _, b := range e.constructed("") {
		if b.TaxRate > 0 {
			route = append(route, b.ID())
		}
	}
	sort.Slice(route, func(i, j int) bool { return route[i] < route[j] })
	return route
}
