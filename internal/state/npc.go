package state

import "hold-the-line/server/internal/simutil"

// NPCState enumerates the coarse modes shared by support NPCs.
type NPCState uint8

const (
	NPCIdle NPCState = iota
	NPCWorking
	NPCTravelling
	NPCFighting
	NPCFleeing
	NPCReturning
)

func (s NPCState) String() string {
	switch s {
	case NPCWorking:
		return "WORKING"
	case NPCTravelling:
		return "TRAVELLING"
	case NPCFighting:
		return "FIGHTING"
	case NPCFleeing:
		return "FLEEING"
	case NPCReturning:
		return "RETURNING"
	default:
		return "IDLE"
	}
}

// Worker constructs buildings.
type Worker struct {
	Agent

	State     NPCState
	Site      EntityID
	BuildRate float64
	Idle      simutil.Timer
}

// NewWorker constructs a worker body.
func NewWorker(id EntityID, pos Vec2, radius, speed, hp, buildRate float64) *Worker {
	return &Worker{
		Agent:     NewAgent(id, KindWorker, pos, radius, speed, hp),
		BuildRate: buildRate,
	}
}

func (w *Worker) TickTimers(dt float64) {
	w.Agent.TickTimers(dt)
	w.Idle.Tick(dt)
}

// Guard protects the castle perimeter.
type Guard struct {
	Agent

	State       NPCState
	Target      EntityID
	Damage      float64
	AttackEvery float64
	Perception  float64
	Leash       float64
	RingAngle   float64
	RingRadius  float64
	RingStep    simutil.Timer
}

// NewGuard constructs a guard body.
func NewGuard(id EntityID, pos Vec2, radius, speed, hp, damage float64) *Guard {
	return &Guard{
		Agent:       NewAgent(id, KindGuard, pos, radius, speed, hp),
		Damage:      damage,
		AttackEvery: 1.2,
		Perception:  180,
		Leash:       320,
		RingRadius:  140,
	}
}

func (g *Guard) TickTimers(dt float64) {
	g.Agent.TickTimers(dt)
	g.RingStep.Tick(dt)
}

// TaxCollector gathers accrued tax from economic buildings.
type TaxCollector struct {
	Agent

	State   NPCState
	Route   []EntityID
	Stop    int
	Carried int
	Pause   simutil.Timer
}

// NewTaxCollector constructs a tax collector body.
func NewTaxCollector(id EntityID, pos Vec2, radius, speed, hp float64) *TaxCollector {
	return &TaxCollector{Agent: NewAgent(id, KindTaxCollector, pos, radius, speed, hp)}
}

func (c *TaxCollector) TickTimers(dt float64) {
	c.Agent.TickTimers(dt)
	c.Pause.Tick(dt)
}
