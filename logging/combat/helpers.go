// Package combat defines the combat and bounty events.
package combat

import (
	"context"

	"hold-the-line/server/logging"
)

const (
	EventDamage      logging.EventType = "combat.damage"
	EventDefeat      logging.EventType = "combat.defeat"
	EventRewardSplit logging.EventType = "combat.reward_split"
	EventSkill       logging.EventType = "combat.skill"
)

var (
	damage      = logging.Template{Type: EventDamage, Category: logging.CategoryCombat, Severity: logging.SeverityDebug}
	defeat      = logging.Template{Type: EventDefeat, Category: logging.CategoryCombat, Severity: logging.SeverityInfo}
	rewardSplit = logging.Template{Type: EventRewardSplit, Category: logging.CategoryEconomy, Severity: logging.SeverityInfo}
	skill       = logging.Template{Type: EventSkill, Category: logging.CategoryCombat, Severity: logging.SeverityDebug}
)

// DamagePayload is the hit that landed and the health left.
type DamagePayload struct {
	Source       string  `json:"source,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

type DefeatPayload struct {
	Source string `json:"source,omitempty"`
	Reward int    `json:"reward,omitempty"`
}

// RewardSplitPayload maps hero ids to the gold each received. Treasury is
// the tax cut; Dropped is gold left on the ground.
type RewardSplitPayload struct {
	Reward    int            `json:"reward"`
	KillBonus int            `json:"killBonus"`
	Shares    map[string]int `json:"shares,omitempty"`
	Treasury  int            `json:"treasury,omitempty"`
	Dropped   int            `json:"dropped,omitempty"`
}

type SkillPayload struct {
	Skill string `json:"skill"`
}

// Damage is published for every hit on a living target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	damage.Emit(ctx, pub, tick, actor, []logging.EntityRef{target}, payload, extra)
}

// Defeat is published once, for the blow that takes hp to zero.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DefeatPayload, extra map[string]any) {
	defeat.Emit(ctx, pub, tick, actor, []logging.EntityRef{target}, payload, extra)
}

func RewardSplit(ctx context.Context, pub logging.Publisher, tick uint64, monster logging.EntityRef, recipients []logging.EntityRef, payload RewardSplitPayload, extra map[string]any) {
	rewardSplit.Emit(ctx, pub, tick, monster, recipients, payload, extra)
}

func Skill(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload SkillPayload, extra map[string]any) {
	skill.Emit(ctx, pub, tick, actor, []logging.EntityRef{target}, payload, extra)
}
