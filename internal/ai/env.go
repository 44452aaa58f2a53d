// Package ai holds the behavior state machines of heroes, monsters, support
// NPCs and towers. Every behavior reads the shared navigation services and
// writes steering into the acceleration of its own body; integration happens
// later in the tick.
package ai

import (
	"context"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/catalog"
	"hold-the-line/server/internal/combat"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/steering"
	"hold-the-line/server/internal/world"
	"hold-the-line/server/logging"
	"hold-the-line/server/logging/lifecycle"
)

// Vec2 is the shared 2D vector.
type Vec2 = state.Vec2

const (
	neighborRadius  = 80.0
	waypointReach   = 18.0
	replanDistance  = 40.0
	routeMinLength  = 120.0
	stuckMoveEps    = 4.0
	stuckLimit      = 2.0
	maxStuckRetries = 3
)

// Env bundles the collaborators behaviors read and mutate.
type Env struct {
	Registry  *state.Registry
	Nav       *world.Navigator
	Steer     *steering.Controller
	Combat    *combat.Resolver
	Catalog   *catalog.Catalog
	Treasury  *state.Treasury
	Emitter   state.Emitter
	Publisher logging.Publisher
	RNG       *rand.Rand
	Logger    logrus.FieldLogger

	// OnBuildingComplete finishes construction of a site. When nil the
	// building is simply flagged constructed.
	OnBuildingComplete func(b *state.Building)
}

// Ready fills missing optional collaborators with no-op implementations.
func (e *Env) Ready() *Env {
	if e.Registry == nil {
		e.Registry = state.NewRegistry()
	}
	if e.Emitter == nil {
		e.Emitter = state.NopEmitter{}
	}
	if e.Publisher == nil {
		e.Publisher = logging.NopPublisher()
	}
	if e.RNG == nil {
		e.RNG = world.NewDeterministicRNG(world.DefaultSeed, "ai")
	}
	if e.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(nopWriter{})
		e.Logger = discard
	}
	e.Logger = e.Logger.WithField("component", "ai")
	return e
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Update runs one behavior step for an entity.
func (e *Env) Update(ent state.Entity, dt float64) {
	if ent == nil || ent.Removed() {
		return
	}
	switch v := ent.(type) {
	case *state.Hero:
		e.UpdateHero(v, dt)
	case *state.Monster:
		e.UpdateMonster(v, dt)
	case *state.Worker:
		e.UpdateWorker(v, dt)
	case *state.Guard:
		e.UpdateGuard(v, dt)
	case *state.TaxCollector:
		e.UpdateTaxCollector(v, dt)
	case *state.Building:
		e.UpdateTower(v, dt)
	case *state.Projectile:
		e.Combat.AdvanceProjectile(v, dt, e.bounds())
	}
}

func (e *Env) now() float64 {
	if e.Nav == nil {
		return 0
	}
	return e.Nav.Clock.Now()
}

func (e *Env) tick() uint64 {
	if e.Nav == nil {
		return 0
	}
	return e.Nav.Clock.Tick()
}

func (e *Env) bounds() state.Rect {
	if e.Nav == nil {
		return world.DefaultConfig().Bounds()
	}
	return e.Nav.Bounds()
}

func (e *Env) ref(ent state.Entity) logging.EntityRef {
	if ent == nil {
		return logging.EntityRef{}
	}
	return logging.Ref(ent.Kind(), uint64(ent.ID()))
}

func (e *Env) feedback(text, color string, pos Vec2) {
	e.Emitter.Feedback(state.Feedback{Text: text, Color: color, Pos: pos})
}

// neighbors returns the live visible bodies near a, excluding a itself.
func (e *Env) neighbors(a *state.Agent) []*state.Agent {
	var out []*state.Agent
	for _, body := range e.Registry.Bodies() {
		if body == a {
			continue
		}
		if a.Pos.Dist(body.Pos) <= neighborRadius {
			out = append(out, body)
		}
	}
	return out
}

// monstersNear returns the live visible monsters within radius of p.
func (e *Env) monstersNear(p Vec2, radius float64) []*state.Monster {
	var out []*state.Monster
	for _, m := range e.Registry.Monsters() {
		if m.Hidden {
			continue
		}
		if p.Dist(m.Pos) <= radius {
			out = append(out, m)
		}
	}
	return out
}

// nearestMonster returns the closest live visible monster within radius.
func (e *Env) nearestMonster(p Vec2, radius float64) (*state.Monster, float64) {
	var best *state.Monster
	bestDist := math.Inf(1)
	for _, m := range e.monstersNear(p, radius) {
		if d := p.Dist(m.Pos); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best, bestDist
}

// constructed returns the live constructed buildings of typ, or of any type
// when typ is empty.
func (e *Env) constructed(typ state.BuildingType) []*state.Building {
	var out []*state.Building
	for _, b := range e.Registry.Buildings() {
		if !b.Constructed {
			continue
		}
		if typ != "" && b.Type != typ {
			continue
		}
		out = append(out, b)
	}
	return out
}

// nearestBuilding returns the constructed building of typ closest to p.
func (e *Env) nearestBuilding(p Vec2, typ state.BuildingType) (*state.Building, bool) {
	var best *state.Building
	bestDist := math.Inf(1)
	for _, b := range e.constructed(typ) {
		if d := p.Dist(b.DoorPoint()); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, best != nil
}

// castleDoor returns the castle entrance, or the world center without one.
func (e *Env) castleDoor() Vec2 {
	if c, ok := e.Registry.Castle(); ok {
		return c.DoorPoint()
	}
	return e.bounds().Center
}

// walkable reports whether p lies inside the world on a free cell.
func (e *Env) walkable(p Vec2) bool {
	if !p.IsFinite() || !e.bounds().Contains(p) {
		return false
	}
	if e.Nav == nil {
		return true
	}
	return e.Nav.Grid.WalkableAt(p)
}

// move steers a toward goal with separation and building avoidance. Long
// trips follow a planned route; the final leg uses the goal itself so door
// approaches keep their flow blending.
func (e *Env) move(a *state.Agent, goal steering.Goal, maxSpeed, separation float64) bool {
	neighbors := e.neighbors(a)
	if wp, ok := e.waypoint(a, goal.Point); ok {
		dir := wp.Sub(a.Pos).Normalize()
		e.Steer.SeekVelocity(a, dir.Scale(maxSpeed), maxSpeed)
		e.Steer.Separate(a, neighbors, separation)
		e.Steer.Avoid(a, dir, e.Registry.Buildings(), goal)
		return false
	}
	return e.Steer.Steer(a, steering.Move{
		Goal:       goal,
		MaxSpeed:   maxSpeed,
		Separation: separation,
		Neighbors:  neighbors,
		Buildings:  e.Registry.Buildings(),
	})
}

// chase steers straight at a moving point without route planning.
func (e *Env) chase(a *state.Agent, p Vec2, maxSpeed, separation float64) bool {
	a.Route.Invalidate()
	return e.Steer.Steer(a, steering.Move{
		Goal:       steering.PointGoal(p),
		MaxSpeed:   maxSpeed,
		Separation: separation,
		Neighbors:  e.neighbors(a),
		Buildings:  e.Registry.Buildings(),
	})
}

// hold brakes a toward standing still while keeping a weak separation.
func (e *Env) hold(a *state.Agent, separation float64) {
	e.Steer.SeekVelocity(a, Vec2{}, a.Speed)
	e.Steer.Separate(a, e.neighbors(a), separation)
}

// waypoint returns the next intermediate route point toward goal. It reports
// false on the final leg, for short trips and when no route exists; callers
// then steer directly.
func (e *Env) waypoint(a *state.Agent, goal Vec2) (Vec2, bool) {
	if e.Nav == nil || a.Pos.Dist(goal) < routeMinLength {
		return Vec2{}, false
	}
	r := &a.Route
	if !r.Valid || r.Goal.Dist(goal) > replanDistance {
		path, err := e.Nav.Planner.FindPath(a.Pos, goal)
		if err != nil {
			e.Logger.WithError(err).WithField("entity", a.ID()).Debug("route planning failed")
		}
		r.Goal = goal
		r.Points = path
		r.Index = 1
		r.Valid = true
	}
	for r.Index < len(r.Points)-1 && a.Pos.Dist(r.Points[r.Index]) <= waypointReach {
		r.Index++
	}
	if r.Index >= len(r.Points)-1 {
		return Vec2{}, false
	}
	return r.Points[r.Index], true
}

// trackStuck watches net movement while travelling. It reports true each
// time the body stood still for longer than the stuck limit; the route is
// dropped so the next step replans.
func trackStuck(a *state.Agent, dt float64) bool {
	if a.Pos.Dist(a.Stuck.Anchor) > stuckMoveEps {
		a.Stuck.Anchor = a.Pos
		a.Stuck.Still.Reset()
		return false
	}
	a.Stuck.Still.Add(dt)
	if !a.Stuck.Still.Exceeds(stuckLimit) {
		return false
	}
	a.Stuck.Retries++
	a.Stuck.Still.Reset()
	a.Route.Invalidate()
	return true
}

// randomWalkable draws a walkable point in the ring around center, falling
// back to center after a few attempts.
func (e *Env) randomWalkable(center Vec2, minRadius, maxRadius float64) Vec2 {
	b := e.bounds()
	for i := 0; i < 8; i++ {
		p := world.ClampToBounds(world.RandomPointInRing(e.RNG, center, minRadius, maxRadius), 20, b)
		if e.walkable(p) {
			return p
		}
	}
	return center
}

func (e *Env) publishState(ent state.Entity, from, to string) {
	if from == to {
		return
	}
	lifecycle.StateChange(context.Background(), e.Publisher, e.tick(), e.ref(ent),
		lifecycle.StateChangePayload{From: from, To: to}, nil)
}
