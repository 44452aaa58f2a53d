package state

// Flag is a bounty placed by the player; heroes claim it as a quest.
type Flag struct {
	base

	Pos    Vec2
	Reward int
	Danger float64
	Claim  EntityID
}

func NewFlag(id EntityID, pos Vec2, reward int) *Flag {
	return &Flag{base: base{id: id, kind: KindFlag}, Pos: pos, Reward: reward}
}

func (f *Flag) Position() Vec2 { return f.Pos }

func (f *Flag) Radius() float64 { return 8 }

func (f *Flag) Alive() bool { return !f.removed }

// Treasure is looted on contact by exploring heroes.
type Treasure struct {
	base

	Pos  Vec2
	Gold int
}

func NewTreasure(id EntityID, pos Vec2, gold int) *Treasure {
	return &Treasure{base: base{id: id, kind: KindTreasure}, Pos: pos, Gold: gold}
}

func (t *Treasure) Position() Vec2 { return t.Pos }

func (t *Treasure) Radius() float64 { return 6 }

func (t *Treasure) Alive() bool { return !t.removed }
