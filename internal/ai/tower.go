package ai

import "hold-the-line/server/internal/state"

// UpdateTower fires at the nearest monster in range once reloaded. Other
// building types have no behavior.
func (e *Env) UpdateTower(b *state.Building, dt float64) {
	if b == nil || b.Type != state.BuildingTower || !b.Constructed || !b.Alive() {
		return
	}
	b.FireTimer.Tick(dt)
	if b.FireTimer.Active() {
		return
	}
	m, _ := e.nearestMonster(b.Center, b.TowerRange)
	if m == nil {
		return
	}
	if e.Combat.Fire(b.ID(), state.KindBuilding, b.Center, m, 0, b.TowerDamage) != nil {
		b.FireTimer.Reset(b.TowerReload)
	}
}
