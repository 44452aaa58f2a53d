package ai

import (
	"math"

	"hold-the-line/server/internal/state"
)

// Threat and targeting weights.
const (
	threatDamageWeight = 50.0
	threatHealthWeight = 10.0
	braveUnderestimate = 0.6
	cowardOverestimate = 1.5
	toleranceBase      = 20.0
	toleranceBravery   = 80.0
	traitHigh          = 0.7
	traitLow           = 0.4
	fleeCourage        = 0.5
)

// ThreatScore rates how dangerous an enemy with the given damage and max hp
// is for a hero with ownHP/ownMaxHP. Brave heroes underestimate, cowards
// overestimate.
func ThreatScore(damage, maxHP, ownHP, ownMaxHP, brave float64) float64 {
	if ownHP <= 0 {
		ownHP = 1
	}
	if ownMaxHP <= 0 {
		ownMaxHP = 1
	}
	score := damage/ownHP*threatDamageWeight + maxHP/ownMaxHP*threatHealthWeight
	switch {
	case brave > traitHigh:
		score *= braveUnderestimate
	case brave < traitLow:
		score *= cowardOverestimate
	}
	return score
}

// DangerTolerance is the highest threat a hero of the given bravery engages.
func DangerTolerance(brave float64) float64 {
	return toleranceBase + brave*toleranceBravery
}

// Threatened reports whether a threat score scares even a hero with zero
// bravery tolerance.
func Threatened(threat float64) bool {
	return threat > DangerTolerance(0)
}

// ShouldFlee reports whether courage (bravery scaled by morale) is too low to
// fight.
func ShouldFlee(p state.Personality, morale float64) bool {
	return p.Brave*morale < fleeCourage
}

// Candidate is a potential combat target seen by a hero.
type Candidate struct {
	ID       state.EntityID
	Distance float64
	Threat   float64
	Gold     int
	HP       float64
	MaxHP    float64
}

// TargetScore ranks a tolerable candidate; higher is better.
func TargetScore(c Candidate, p state.Personality) float64 {
	score := -2 * c.Distance
	if p.Greedy > traitHigh {
		score += float64(c.Gold) * 5
	}
	if p.Brave > traitHigh {
		score += c.MaxHP * 0.5
	}
	if p.Smart > traitHigh {
		score += 1000 - c.HP
	}
	return score
}

// SelectTarget drops candidates above the danger tolerance and returns the
// best scoring survivor.
func SelectTarget(candidates []Candidate, p state.Personality) (Candidate, bool) {
	tolerance := DangerTolerance(p.Brave)
	var best Candidate
	bestScore := math.Inf(-1)
	found := false
	for _, c := range candidates {
		if c.Threat >= tolerance {
			continue
		}
		if score := TargetScore(c, p); !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// DangerResponse is an exploring hero's reaction to a discovered enemy.
type DangerResponse uint8

const (
	ResponseIgnore DangerResponse = iota
	ResponseFight
	ResponseFlee
	ResponseReroute
)

func (r DangerResponse) String() string {
	switch r {
	case ResponseFight:
		return "FIGHT"
	case ResponseFlee:
		return "FLEE"
	case ResponseReroute:
		return "REROUTE"
	default:
		return "IGNORE"
	}
}

// EvaluateDanger blends the threat with personality. Greedy heroes near
// treasure accept more danger; smart heroes route around what they will not
// fight.
func EvaluateDanger(threat float64, p state.Personality, morale float64, treasureNearby bool) DangerResponse {
	tolerance := DangerTolerance(p.Brave)
	if treasureNearby && p.Greedy > traitHigh {
		tolerance += toleranceBase
	}
	blended := threat * (1.2 - 0.4*p.Brave*morale)
	if blended >= tolerance {
		if p.Smart > 0.5 {
			return ResponseReroute
		}
		return ResponseFlee
	}
	if !ShouldFlee(p, morale) || (treasureNearby && p.Greedy > traitHigh) {
		return ResponseFight
	}
	if p.Smart > 0.6 {
		return ResponseReroute
	}
	return ResponseIgnore
}

// heroThreat scores a monster for h.
func heroThreat(h *state.Hero, m *state.Monster) float64 {
	return ThreatScore(m.Damage, m.MaxHealth, h.Health, h.MaxHealth, h.Personality.Brave)
}
