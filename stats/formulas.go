package stats

import "math"

func computeDerived(total ValueSet, primary StatID) DerivedSet {
	var derived DerivedSet

	strength := clamp(total[StatStrength], 0, 1e9)
	agility := clamp(total[StatAgility], 0, 1e9)
	vitality := clamp(total[StatVitality], 0, 1e9)
	primaryValue := clamp(total[primary], 0, 1e9)

	derived[DerivedMaxHealth] = baseHealthFlat + vitality*vitalityHealthScalar + strength*strengthHealthScalar
	derived[DerivedDamage] = baseDamageFlat + primaryValue*primaryDamageScalar
	derived[DerivedAttackInterval] = clamp(baseAttackInterval-agility*agilityIntervalScalar, minAttackInterval, maxAttackInterval)
	derived[DerivedArmor] = strength*strengthArmorScalar + vitality*vitalityArmorScalar
	derived[DerivedCritChance] = clamp(baseCritChance+agility*agilityCritScalar, 0, maxCritChance)
	derived[DerivedMaxStamina] = baseStaminaFlat + vitality*vitalityStaminaScalar + agility*agilityStaminaScalar
	derived[DerivedSpeedBonus] = agility * agilitySpeedScalar

	return derived
}

// ArmorReduction converts an armor rating into the fraction of incoming
// damage that is absorbed.
func ArmorReduction(armor float64) float64 {
	if armor <= 0 || math.IsNaN(armor) {
		return 0
	}
	return armor / (armor + armorHalfPoint)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

const (
	baseHealthFlat        = 60.0
	vitalityHealthScalar  = 10.0
	strengthHealthScalar  = 2.0
	baseDamageFlat        = 4.0
	primaryDamageScalar   = 1.1
	baseAttackInterval    = 1.6
	agilityIntervalScalar = 0.015
	minAttackInterval     = 0.4
	maxAttackInterval     = 2.0
	strengthArmorScalar   = 0.3
	vitalityArmorScalar   = 0.2
	baseCritChance        = 0.05
	agilityCritScalar     = 0.004
	maxCritChance         = 0.5
	baseStaminaFlat       = 80.0
	vitalityStaminaScalar = 2.0
	agilityStaminaScalar  = 1.0
	agilitySpeedScalar    = 0.5
	armorHalfPoint        = 50.0
)
