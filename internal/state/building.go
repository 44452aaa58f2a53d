package state

import (
	"math"

	"hold-the-line/server/internal/simutil"
)

// BuildingType names a building table entry.
type BuildingType string

const (
	BuildingCastle     BuildingType = "castle"
	BuildingGuild      BuildingType = "guild"
	BuildingMarket     BuildingType = "market"
	BuildingBlacksmith BuildingType = "blacksmith"
	BuildingTower      BuildingType = "tower"
	BuildingHouse      BuildingType = "house"
	BuildingFarm       BuildingType = "farm"
)

// Economic reports whether the building type produces taxable income.
func (t BuildingType) Economic() bool {
	switch t {
	case BuildingMarket, BuildingBlacksmith, BuildingHouse, BuildingFarm:
		return true
	default:
		return false
	}
}

// DoorInset is the distance from the bottom edge to the door point.
const DoorInset = 4.0

// Building is a static structure occupying navigation cells.
type Building struct {
	base

	Type        BuildingType
	Center      Vec2
	Width       float64
	Height      float64
	Constructed bool
	Progress    float64
	BuildCost   float64

	Health    float64
	MaxHealth float64

	Capacity  int
	occupants []EntityID

	LastDamagedAt float64
	damaged       bool

	TaxRate    float64
	TaxAccrued float64

	Guild HeroClass

	TowerRange  float64
	TowerDamage float64
	TowerReload float64
	FireTimer   simutil.Timer
}

// NewBuilding constructs a building. Castles start constructed.
func NewBuilding(id EntityID, typ BuildingType, center Vec2, w, h, hp float64) *Building {
	if hp <= 0 {
		hp = 1
	}
	return &Building{
		base:        base{id: id, kind: KindBuilding},
		Type:        typ,
		Center:      center,
		Width:       w,
		Height:      h,
		Constructed: typ == BuildingCastle,
		Health:      hp,
		MaxHealth:   hp,
		Capacity:    4,
		BuildCost:   10,
	}
}

func (b *Building) Position() Vec2 { return b.Center }

// Radius approximates the footprint as the half-diagonal.
func (b *Building) Radius() float64 { return math.Hypot(b.Width, b.Height) / 2 }

func (b *Building) Alive() bool { return !b.removed && b.Health > 0 }

func (b *Building) HP() float64 { return b.Health }

func (b *Building) MaxHP() float64 { return b.MaxHealth }

func (b *Building) SetHP(hp float64) {
	if math.IsNaN(hp) || math.IsInf(hp, 0) {
		return
	}
	b.Health = math.Max(0, math.Min(hp, b.MaxHealth))
}

// Bounds returns the footprint rectangle.
func (b *Building) Bounds() Rect {
	return Rect{Center: b.Center, Width: b.Width, Height: b.Height}
}

// DoorPoint returns the entrance on the bottom edge, slightly inset.
func (b *Building) DoorPoint() Vec2 {
	return Vec2{X: b.Center.X, Y: b.Center.Y + b.Height/2 - DoorInset}
}

// Occupants returns the ids currently inside.
func (b *Building) Occupants() []EntityID {
	out := make([]EntityID, len(b.occupants))
	copy(out, b.occupants)
	return out
}

// Admit registers id as an occupant. It fails when the building is not
// constructed, dead or at capacity.
func (b *Building) Admit(id EntityID) bool {
	if !b.Constructed || !b.Alive() {
		return false
	}
	for _, o := range b.occupants {
		if o == id {
			return true
		}
	}
	if b.Capacity > 0 && len(b.occupants) >= b.Capacity {
		return false
	}
	b.occupants = append(b.occupants, id)
	return true
}

// Release removes id from the occupants.
func (b *Building) Release(id EntityID) {
	for i, o := range b.occupants {
		if o == id {
			b.occupants = append(b.occupants[:i], b.occupants[i+1:]...)
			return
		}
	}
}

// NoteDamage stamps the last time the building was hit.
func (b *Building) NoteDamage(now float64) {
	b.LastDamagedAt = now
	b.damaged = true
}

// DamagedWithin reports whether the building was hit within window seconds.
func (b *Building) DamagedWithin(now, window float64) bool {
	return b.damaged && now-b.LastDamagedAt <= window
}

// Obstacle reports whether the building blocks navigation. Sites under
// construction already occupy their footprint.
func (b *Building) Obstacle() bool { return !b.removed }
