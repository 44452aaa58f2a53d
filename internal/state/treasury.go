package state

// Treasury is the player's gold counter, owned by the simulation root and
// passed to behaviors that touch the economy.
type Treasury struct {
	gold int
}

// NewTreasury constructs a treasury with an opening balance.
func NewTreasury(gold int) *Treasury {
	if gold < 0 {
		gold = 0
	}
	return &Treasury{gold: gold}
}

// Balance returns the current gold.
func (t *Treasury) Balance() int {
	if t == nil {
		return 0
	}
	return t.gold
}

// Credit adds gold. Non-positive amounts are ignored.
func (t *Treasury) Credit(amount int) {
	if t == nil || amount <= 0 {
		return
	}
	t.gold += amount
}

// Debit removes gold when the balance covers it.
func (t *Treasury) Debit(amount int) bool {
	if t == nil || amount < 0 || amount > t.gold {
		return false
	}
	t.gold -= amount
	return true
}
