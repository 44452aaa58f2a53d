package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayersAddThenScale(t *testing.T) {
	comp := NewComponent(ValueSet{StatStrength: 10}, StatStrength)

	level := Modifier{Layer: LayerLevel, Source: SourceKey{Kind: SourceKindProgression, ID: "level"}}
	level.Add[StatStrength] = 5
	comp.Set(level)

	weapon := Modifier{Layer: LayerEquipment, Source: SourceKey{Kind: SourceKindEquipment, ID: "weapon"}}
	weapon.Add[StatStrength] = 5
	weapon.Scale[StatStrength] = 1.1
	comp.Set(weapon)

	require.True(t, comp.Dirty())
	comp.Resolve()
	assert.False(t, comp.Dirty())
	assert.InDelta(t, 22.0, comp.Total(StatStrength), 1e-9)
	assert.InDelta(t, baseDamageFlat+22*primaryDamageScalar, comp.GetDerived(DerivedDamage), 1e-9)
}

func TestSetReplacesBySource(t *testing.T) {
	comp := NewComponent(ValueSet{StatVitality: 10}, StatStrength)
	key := SourceKey{Kind: SourceKindEquipment, ID: "armor"}

	for _, bonus := range []float64{4, 6} {
		armor := Modifier{Layer: LayerEquipment, Source: key}
		armor.Add[StatVitality] = bonus
		comp.Set(armor)
	}
	comp.Resolve()
	assert.InDelta(t, 16.0, comp.Total(StatVitality), 1e-9)

	same := Modifier{Layer: LayerEquipment, Source: key}
	same.Add[StatVitality] = 6
	comp.Set(same)
	assert.False(t, comp.Dirty(), "identical modifier is a no-op")
}

func TestPrimaryStatDrivesDamage(t *testing.T) {
	base := ValueSet{StatStrength: 4, StatAgility: 20}

	ranger := NewComponent(base, StatAgility)
	ranger.Resolve()
	warrior := NewComponent(base, StatStrength)
	warrior.Resolve()

	assert.Greater(t, ranger.GetDerived(DerivedDamage), warrior.GetDerived(DerivedDamage))
	assert.Equal(t, ranger.GetDerived(DerivedAttackInterval), warrior.GetDerived(DerivedAttackInterval))
	assert.Equal(t, StatAgility, ranger.Primary())

	fallback := NewComponent(base, StatCount)
	assert.Equal(t, StatStrength, fallback.Primary(), "invalid primary falls back")
}

func TestDerivedClamps(t *testing.T) {
	comp := NewComponent(ValueSet{StatAgility: 1000}, StatAgility)
	comp.Resolve()

	assert.Equal(t, minAttackInterval, comp.GetDerived(DerivedAttackInterval))
	assert.Equal(t, maxCritChance, comp.GetDerived(DerivedCritChance))
	assert.Zero(t, comp.GetDerived(DerivedCount))
	assert.Zero(t, comp.Total(StatCount))
}

func TestRemoveRestoresTotals(t *testing.T) {
	comp := NewComponent(ValueSet{StatVitality: 10}, StatStrength)
	comp.Resolve()
	before := comp.GetDerived(DerivedMaxHealth)

	key := SourceKey{Kind: SourceKindEquipment, ID: "armor"}
	armor := Modifier{Layer: LayerEquipment, Source: key}
	armor.Add[StatVitality] = 6
	comp.Set(armor)
	comp.Resolve()
	assert.InDelta(t, before+6*vitalityHealthScalar, comp.GetDerived(DerivedMaxHealth), 1e-9)

	require.True(t, comp.Remove(key))
	assert.False(t, comp.Remove(key))
	comp.Resolve()
	assert.InDelta(t, before, comp.GetDerived(DerivedMaxHealth), 1e-9)
}

func TestArmorReduction(t *testing.T) {
	assert.Equal(t, 0.0, ArmorReduction(0))
	assert.Equal(t, 0.0, ArmorReduction(-3))
	assert.InDelta(t, 0.5, ArmorReduction(armorHalfPoint), 1e-9)
}
