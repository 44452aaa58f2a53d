package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
	loggingcombat "hold-the-line/server/logging/combat"
)

func firedSkills(f *fixture) []string {
	var out []string
	for _, ev := range f.events.OfType(loggingcombat.EventSkill) {
		if p, ok := ev.Payload.(loggingcombat.SkillPayload); ok {
			out = append(out, p.Skill)
		}
	}
	return out
}

func learned(ids ...string) []state.LearnedSkill {
	out := make([]state.LearnedSkill, len(ids))
	for i, id := range ids {
		out[i] = state.LearnedSkill{ID: id}
	}
	return out
}

func TestSkillOrderAndMovementLock(t *testing.T) {
	cases := []struct {
		name  string
		order []string
		want  string
	}{
		{name: "bash first", order: []string{"shield_bash", "cleave"}, want: "shield_bash"},
		{name: "cleave first", order: []string{"cleave", "shield_bash"}, want: "cleave"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			h := f.hero("warrior", state.V(500, 500), state.Personality{Brave: 0.9})
			ogre := f.monster("ogre", state.V(530, 500))
			h.Skills = learned(tc.order...)
			f.env.startFight(h, ogre)
			stamina := h.Stamina

			f.env.UpdateHero(h, 0.1)
			require.Equal(t, []string{tc.want}, firedSkills(f), "one skill per tick")
			skill, ok := f.env.Catalog.Skill(tc.want)
			require.True(t, ok)
			assert.InDelta(t, stamina-skill.Stamina, h.Stamina, 1e-9)
			assert.False(t, h.SkillReady(tc.want, f.clock.Now()))
			require.True(t, h.MoveLock.Active())
			switch tc.want {
			case "shield_bash":
				assert.True(t, ogre.Stun.Active())
			case "cleave":
				assert.Greater(t, ogre.Pos.X, 530.0, "knocked back")
			}

			// Locked heroes neither fire another skill nor move.
			f.env.UpdateHero(h, 0.1)
			assert.Len(t, firedSkills(f), 1)
			before := h.Pos
			h.Vel = state.V(50, 0)
			h.Acc = state.V(200, 0)
			world.Integrate(&h.Agent, 0.1, f.env.bounds(), before)
			assert.Equal(t, before, h.Pos)
		})
	}
}

func TestSkillTriggerGates(t *testing.T) {
	cases := []struct {
		name     string
		gap      float64
		hpFrac   float64
		wantFire bool
	}{
		{name: "wounded target in range", gap: 120, hpFrac: 0.3, wantFire: true},
		{name: "healthy target", gap: 120, hpFrac: 0.5},
		{name: "beyond trigger range", gap: 230, hpFrac: 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			h := f.hero("ranger", state.V(400, 500), state.Personality{Brave: 0.9})
			m := f.monster("goblin", state.V(400+tc.gap+h.BodyRadius+8, 500))
			require.InDelta(t, tc.gap, edgeGap(&h.Agent, m), 1e-9)
			m.SetHP(m.MaxHealth * tc.hpFrac)
			h.Skills = learned("piercing_shot")
			f.env.startFight(h, m)

			f.env.UpdateHero(h, 0.1)
			if tc.wantFire {
				assert.Equal(t, []string{"piercing_shot"}, firedSkills(f))
			} else {
				assert.Empty(t, firedSkills(f))
			}
			assert.Equal(t, state.HeroFight, h.State)
		})
	}
}

func TestRangedKiteCostsStamina(t *testing.T) {
	cases := []struct {
		name      string
		stamina   float64
		wantKite  bool
		wantTired bool
	}{
		{name: "rested", stamina: -1, wantKite: true},
		{name: "exhausted", stamina: 0, wantTired: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			h := f.hero("ranger", state.V(400, 500), state.Personality{Brave: 0.9})
			m := f.monster("goblin", state.V(400+40+h.BodyRadius+8, 500))
			h.Skills = nil
			f.env.startFight(h, m)
			if tc.stamina >= 0 {
				h.Stamina = tc.stamina
			}

			f.env.UpdateHero(h, 0.1)
			if tc.wantKite {
				assert.InDelta(t, h.MaxStamina-kiteStaminaRate*0.1, h.Stamina, 1e-9)
				assert.Less(t, h.Acc.X, 0.0, "backs away from the monster")
				assert.False(t, h.WindingUp)
			}
			assert.Equal(t, tc.wantTired, f.emitter.HasLabel("TIRED"))
			if !tc.wantTired {
				return
			}
			assert.True(t, h.TiredTimer.Active())
			assert.True(t, h.WindingUp, "stands and shoots instead")

			// The label is rate limited.
			h.Stamina = 0
			h.WindingUp = false
			f.env.UpdateHero(h, 0.1)
			tired := 0
			for _, l := range f.emitter.Labels {
				if l.Text == "TIRED" {
					tired++
				}
			}
			assert.Equal(t, 1, tired)
		})
	}
}
