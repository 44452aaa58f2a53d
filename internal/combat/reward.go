package combat

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/logging"
	loggingcombat "hold-the-line/server/logging/combat"
)

// KillBonusFraction of a bounty goes to the hero landing the killing blow.
const KillBonusFraction = 0.2

// Contribution is one hero's accumulated damage on a monster.
type Contribution struct {
	Hero   state.EntityID
	Damage float64
}

// Payout is the gold owed to one hero.
type Payout struct {
	Hero state.EntityID
	Gold int
}

// Split is the outcome of dividing a bounty.
type Split struct {
	KillBonus int
	Payouts   []Payout
	Treasury  int
	Dropped   int
}

// GoldFor returns the total payout owed to hero.
func (s Split) GoldFor(hero state.EntityID) int {
	total := 0
	for _, p := range s.Payouts {
		if p.Hero == hero {
			total += p.Gold
		}
	}
	return total
}

// SplitReward divides reward among hero contributors. A hero killer earns the
// kill bonus; the rest is split by damage share with floor rounding and the
// rounding loss is dropped. Without hero contributors the treasury gets all.
func SplitReward(reward int, killer state.EntityID, contributions []Contribution) Split {
	if reward <= 0 {
		return Split{}
	}
	total := 0.0
	killerContributed := false
	for _, c := range contributions {
		if c.Damage <= 0 || c.Hero == state.NoEntity {
			continue
		}
		total += c.Damage
		if c.Hero == killer {
			killerContributed = true
		}
	}
	if total <= 0 {
		return Split{Treasury: reward}
	}

	var out Split
	if killerContributed {
		out.KillBonus = int(math.Floor(float64(reward) * KillBonusFraction))
	}
	pool := reward - out.KillBonus
	distributed := out.KillBonus
	for _, c := range contributions {
		if c.Damage <= 0 || c.Hero == state.NoEntity {
			continue
		}
		share := int(math.Floor(c.Damage*float64(pool)/total + 1e-9))
		gold := share
		if c.Hero == killer {
			gold += out.KillBonus
		}
		out.Payouts = append(out.Payouts, Payout{Hero: c.Hero, Gold: gold})
		distributed += share
	}
	out.Dropped = reward - distributed
	return out
}

// HeroContributions extracts the hero entries of a monster's damage history.
func HeroContributions(m *state.Monster) []Contribution {
	var out []Contribution
	for _, rec := range m.DamageHistory() {
		if rec.Kind == state.KindHero {
			out = append(out, Contribution{Hero: rec.Source, Damage: rec.Amount})
		}
	}
	return out
}

// distribute pays out a dead monster's bounty. Shares owed to heroes that
// died before the monster are dropped.
func (r *Resolver) distribute(m *state.Monster, killer state.EntityID, killerKind state.Kind) {
	if m.Reward <= 0 {
		return
	}
	heroKiller := state.NoEntity
	if killerKind == state.KindHero {
		heroKiller = killer
	}
	split := SplitReward(m.Reward, heroKiller, HeroContributions(m))

	shares := make(map[string]int, len(split.Payouts))
	recipients := make([]logging.EntityRef, 0, len(split.Payouts))
	for _, p := range split.Payouts {
		h, ok := r.reg.Hero(p.Hero)
		if !ok {
			split.Dropped += p.Gold
			continue
		}
		h.Gold += p.Gold
		h.History.GoldEarned += p.Gold
		shares[strconv.FormatUint(uint64(p.Hero), 10)] = p.Gold
		recipients = append(recipients, logging.Ref(state.KindHero, uint64(p.Hero)))
		if p.Gold > 0 {
			r.emitter.Feedback(state.Feedback{Text: fmt.Sprintf("+%dg", p.Gold), Color: state.ColorGold, Pos: h.Pos})
		}
	}
	if split.Treasury > 0 {
		r.Credit(split.Treasury, "bounty")
		r.emitter.Feedback(state.Feedback{Text: fmt.Sprintf("+%dg", split.Treasury), Color: state.ColorGold, Pos: m.Pos})
	}

	loggingcombat.RewardSplit(context.Background(), r.pub, r.tick(),
		logging.Ref(m.Kind(), uint64(m.ID())), recipients,
		loggingcombat.RewardSplitPayload{
			Reward:    m.Reward,
			KillBonus: split.KillBonus,
			Shares:    shares,
			Treasury:  split.Treasury,
			Dropped:   split.Dropped,
		}, nil)
}
