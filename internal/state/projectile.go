package state

// Projectile is a homing shot fired by ranged heroes, ranged monsters and
// towers.
type Projectile struct {
	base

	Pos      Vec2
	Dir      Vec2
	Speed    float64
	Size     float64
	Damage   float64
	Source   EntityID
	Owner    Kind
	Target   EntityID
	Lifetime float64
	MaxLife  float64
}

// NewProjectile constructs a projectile aimed at target.
func NewProjectile(id EntityID, source EntityID, owner Kind, from Vec2, target EntityID, aim Vec2, speed, damage float64) *Projectile {
	return &Projectile{
		base:    base{id: id, kind: KindProjectile},
		Pos:     from,
		Dir:     aim.Sub(from).Normalize(),
		Speed:   speed,
		Size:    3,
		Damage:  damage,
		Source:  source,
		Owner:   owner,
		Target:  target,
		MaxLife: 3,
	}
}

func (p *Projectile) Position() Vec2 { return p.Pos }

func (p *Projectile) Radius() float64 { return p.Size }

func (p *Projectile) Alive() bool { return !p.removed }
