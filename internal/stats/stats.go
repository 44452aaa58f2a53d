// Package stats resolves hero stat components once per tick and propagates
// derived values back onto the hero bodies.
package stats

import (
	"hold-the-line/server/internal/state"
	serverstats "hold-the-line/server/stats"
)

// Actor captures a stat component and the callback receiving its derived max
// health.
type Actor struct {
	Component     *serverstats.Component
	SyncMaxHealth func(maxHealth float64)
}

// Resolve folds the pending modifiers of every actor whose component
// changed and pushes the new max health through its sync callback.
func Resolve(actors []Actor) {
	for _, actor := range actors {
		if !actor.Component.Dirty() {
			continue
		}
		actor.Component.Resolve()
		SyncMaxHealth(actor.Component, actor.SyncMaxHealth)
	}
}

// SyncMaxHealth invokes sync with the derived max health when it is positive.
func SyncMaxHealth(component *serverstats.Component, sync func(maxHealth float64)) {
	if component == nil || sync == nil {
		return
	}
	maxHealth := component.GetDerived(serverstats.DerivedMaxHealth)
	if maxHealth <= 0 {
		return
	}
	sync(maxHealth)
}

// HeroActors builds the actor list for the live heroes.
func HeroActors(heroes []*state.Hero) []Actor {
	actors := make([]Actor, 0, len(heroes))
	for _, h := range heroes {
		h := h
		actors = append(actors, Actor{
			Component:     &h.Stats,
			SyncMaxHealth: func(max float64) { ApplyMaxHealth(h, max) },
		})
	}
	return actors
}

// ApplyMaxHealth stores a new max health on the hero. Gains grant the
// difference as current health; losses clamp current health.
func ApplyMaxHealth(h *state.Hero, max float64) {
	if h == nil || max <= 0 || max == h.MaxHealth {
		return
	}
	gain := max - h.MaxHealth
	h.MaxHealth = max
	if gain > 0 {
		h.SetHP(h.Health + gain)
		return
	}
	h.SetHP(h.Health)
}
