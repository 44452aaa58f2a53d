package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/state"
	serverstats "hold-the-line/server/stats"
)

func newHero(t *testing.T) *state.Hero {
	t.Helper()
	comp := serverstats.NewComponent(serverstats.ValueSet{10, 5, 3, 8}, serverstats.StatStrength)
	return state.NewHero(1, state.ClassWarrior, state.V(0, 0), 10, 70, comp, state.Personality{})
}

func TestResolveInvokesSyncForActors(t *testing.T) {
	component := serverstats.NewComponent(serverstats.ValueSet{5, 5, 5, 5}, serverstats.StatStrength)

	var invoked int
	Resolve([]Actor{{
		Component: &component,
		SyncMaxHealth: func(max float64) {
			invoked++
			assert.Positive(t, max)
		},
	}})
	assert.Equal(t, 1, invoked)
}

func TestResolveSkipsNilComponents(t *testing.T) {
	Resolve([]Actor{{
		SyncMaxHealth: func(float64) { t.Fatal("nil component must be skipped") },
	}})
}

func TestSyncMaxHealthIgnoresMissingCallback(t *testing.T) {
	component := serverstats.NewComponent(serverstats.ValueSet{}, serverstats.StatStrength)
	component.Resolve()
	SyncMaxHealth(&component, nil)
}

func TestHeroActorsPropagateVitalityGain(t *testing.T) {
	h := newHero(t)
	before := h.MaxHealth
	h.SetHP(before - 30)

	armor := serverstats.Modifier{
		Layer:  serverstats.LayerEquipment,
		Source: serverstats.SourceKey{Kind: serverstats.SourceKindEquipment, ID: "armor"},
	}
	armor.Add[serverstats.StatVitality] = 2
	h.Stats.Set(armor)

	Resolve(HeroActors([]*state.Hero{h}))
	require.InDelta(t, before+20, h.MaxHealth, 1e-9)
	assert.InDelta(t, before-10, h.Health, 1e-9)
}

func TestApplyMaxHealthClampsLoss(t *testing.T) {
	h := newHero(t)
	ApplyMaxHealth(h, 50)
	assert.Equal(t, 50.0, h.MaxHealth)
	assert.Equal(t, 50.0, h.Health)
}
