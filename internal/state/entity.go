package state

// EntityID is a handle into the live-entity registry. IDs are allocated
// monotonically and never reused, so a stale handle can only resolve to nothing.
type EntityID uint64

// NoEntity is the null handle.
const NoEntity EntityID = 0

// Kind is the closed set of entity variants known to the simulation.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindHero
	KindMonster
	KindWorker
	KindGuard
	KindTaxCollector
	KindBuilding
	KindProjectile
	KindFlag
	KindTreasure
)

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindHero:         "hero",
	KindMonster:      "monster",
	KindWorker:       "worker",
	KindGuard:        "guard",
	KindTaxCollector: "tax_collector",
	KindBuilding:     "building",
	KindProjectile:   "projectile",
	KindFlag:         "flag",
	KindTreasure:     "treasure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Mobile reports whether the kind moves under steering and collides with
// other units.
func (k Kind) Mobile() bool {
	switch k {
	case KindHero, KindMonster, KindWorker, KindGuard, KindTaxCollector:
		return true
	default:
		return false
	}
}

// Friendly reports whether the kind fights on the castle's side.
func (k Kind) Friendly() bool {
	switch k {
	case KindHero, KindWorker, KindGuard, KindTaxCollector:
		return true
	default:
		return false
	}
}

// Entity is the minimal surface shared by everything in the registry.
type Entity interface {
	ID() EntityID
	Kind() Kind
	Position() Vec2
	Removed() bool
	MarkRemoved()
}

// Targetable entities can be chosen as a behavior target.
type Targetable interface {
	Entity
	Radius() float64
	Alive() bool
}

// Damageable entities carry hit points.
type Damageable interface {
	Targetable
	HP() float64
	MaxHP() float64
	SetHP(hp float64)
}

// Enterable entities expose a door and admit occupants.
type Enterable interface {
	Targetable
	DoorPoint() Vec2
	Admit(id EntityID) bool
	Release(id EntityID)
}

// Pathing entities own a steerable body.
type Pathing interface {
	Entity
	Body() *Agent
}

// base carries the identity and lifecycle flag shared by all entity variants.
type base struct {
	id      EntityID
	kind    Kind
	removed bool
}

func (b *base) ID() EntityID { return b.id }

func (b *base) Kind() Kind { return b.kind }

func (b *base) Removed() bool { return b.removed }

// MarkRemoved sets the terminal lifecycle flag. The registry sweep drops the
// entity at the end of the tick.
func (b *base) MarkRemoved() { b.removed = true }
