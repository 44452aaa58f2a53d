package sim

import "hold-the-line/server/internal/state"

// Snapshot summarizes the simulation at the end of a tick.
type Snapshot struct {
	Tick      uint64  `json:"tick"`
	Time      float64 `json:"time"`
	Treasury  int     `json:"treasury"`
	Wave      int     `json:"wave"`
	Heroes    int     `json:"heroes"`
	Monsters  int     `json:"monsters"`
	Buildings int     `json:"buildings"`
	CastleHP  float64 `json:"castleHp"`
	GameOver  bool    `json:"gameOver"`
}

// Snapshot captures the current summary.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:      e.clock.Tick(),
		Time:      e.clock.Now(),
		Treasury:  e.treasury.Balance(),
		Wave:      e.waves.started,
		Heroes:    e.registry.CountKind(state.KindHero),
		Monsters:  e.registry.CountKind(state.KindMonster),
		Buildings: len(e.registry.Buildings()),
		GameOver:  e.gameOver,
	}
	if castle, ok := e.registry.Castle(); ok {
		snap.CastleHP = castle.Health
	}
	return snap
}
