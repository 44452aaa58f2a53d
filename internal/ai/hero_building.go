package ai

import (
	"context"
	"math"

	"hold-the-line/server/internal/state"
	herostats "hold-the-line/server/internal/stats"
	"hold-the-line/server/internal/steering"
	loggingeconomy "hold-the-line/server/logging/economy"
	"hold-the-line/server/logging/lifecycle"
	"hold-the-line/server/stats"
)

// Door approach and building stay tuning.
const (
	approachTimeout  = 12.0
	nearDoorRadius   = 40.0
	enterSlack       = state.DoorInset + 8
	restHealRate     = 0.08
	restTimeout      = 20.0
	shopDuration     = 3.0
	purchaseInterval = 1.0
	traitVeryHigh    = 0.8
)

// offMap parks hidden bodies away from every spatial query.
var offMap = Vec2{X: -1e4, Y: -1e4}

// approach walks h to b's door. It reports arrival once h stands close
// enough to enter and failure on timeout or when stuck for good. Close to the door the state moves to its entering variant.
func (e *Env) approach(h *state.Hero, b *state.Building, entering state.HeroState, dt float64) (arrived, failed bool) {
	if h.Travel.Approach.Expired() {
		return false, true
	}
	door := b.DoorPoint()
	dist := h.Pos.Dist(door)
	if dist <= h.BodyRadius+enterSlack {
		return true, false
	}
	if dist <= nearDoorRadius && h.State != entering {
		from := h.State
		h.State = entering
		e.publishState(h, from.String(), entering.String())
	}
	if trackStuck(&h.Agent, dt) && h.Stuck.Retries > maxStuckRetries {
		return false, true
	}
	e.move(&h.Agent, steering.DoorGoal(b), h.Speed, e.heroSeparation(h, false))
	return false, false
}

// enter hides h inside b. It fails when the building refuses admission.
func (e *Env) enter(h *state.Hero, b *state.Building) bool {
	if !b.Admit(h.ID()) {
		return false
	}
	e.Combat.Disengage(&h.Agent)
	h.Target = state.NoEntity
	h.Hidden = true
	h.Inside = b.ID()
	h.LastGoodPos = b.DoorPoint()
	h.Pos = offMap
	h.HardStop()
	h.Route.Invalidate()
	lifecycle.BuildingEnter(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(b),
		lifecycle.BuildingPayload{Building: string(b.Type)}, nil)
	return true
}

// exitBuilding puts h back at the door of the building holding it, or at its
// last good position when that building is gone.
func (e *Env) exitBuilding(h *state.Hero) {
	pos := h.LastGoodPos
	if b, ok := e.Registry.Building(h.Inside); ok {
		b.Release(h.ID())
		pos = b.DoorPoint()
		lifecycle.BuildingExit(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(b),
			lifecycle.BuildingPayload{Building: string(b.Type)}, nil)
	}
	if !e.bounds().Contains(pos) {
		pos = e.castleDoor()
	}
	h.Hidden = false
	h.Inside = state.NoEntity
	h.Pos = pos
	h.LastGoodPos = pos
	h.HardStop()
	h.Stuck.Reset(pos)
}

// retreat covers RETREAT and RETREAT_ENTERING.
func (e *Env) retreat(h *state.Hero, dt float64) {
	b, ok := e.Registry.Building(h.Travel.Building)
	if !ok || !b.Constructed {
		if b, ok = e.homeFor(h); !ok {
			h.SetState(state.HeroDecision)
			return
		}
		h.Travel.Building = b.ID()
	}
	arrived, failed := e.approach(h, b, state.HeroRetreatEntering, dt)
	switch {
	case failed:
		h.SetState(state.HeroDecision)
	case arrived:
		if !e.enter(h, b) {
			h.SetState(state.HeroDecision)
			return
		}
		h.SetState(state.HeroRestingInside)
		h.Travel.Inside.Reset(restTimeout)
	}
}

// rest heals a hidden hero and leaves at full health or on timeout.
func (e *Env) rest(h *state.Hero, dt float64) {
	h.SetHP(h.Health + h.MaxHealth*restHealRate*dt)
	if h.Health >= h.MaxHealth || h.Travel.Inside.Expired() {
		e.exitBuilding(h)
		h.AdjustMorale(moraleWin)
		h.SetState(state.HeroDecision)
	}
}

// shop covers SHOP and SHOP_ENTERING for both markets and blacksmiths.
func (e *Env) shop(h *state.Hero, dt float64) {
	b, ok := e.Registry.Building(h.Travel.Building)
	if !ok || !b.Constructed {
		e.leaveShop(h)
		return
	}
	arrived, failed := e.approach(h, b, state.HeroShopEntering, dt)
	switch {
	case failed:
		e.leaveShop(h)
	case arrived:
		if !e.enter(h, b) {
			e.leaveShop(h)
			return
		}
		h.SetState(state.HeroShopInside)
		h.Travel.Inside.Reset(shopDuration)
		h.Travel.Purchase.Clear()
		h.Travel.Bought = 0
	}
}

// shopInside attempts a purchase every interval until the visit ends.
func (e *Env) shopInside(h *state.Hero) {
	b, ok := e.Registry.Building(h.Inside)
	if !ok {
		e.leaveShop(h)
		return
	}
	if h.Travel.Purchase.Expired() {
		h.Travel.Purchase.Reset(purchaseInterval)
		if h.Travel.Purpose == state.TravelSmith {
			if e.buyUpgrade(h, b) {
				h.Travel.Inside.Clear()
			}
		} else {
			e.buyPotions(h, b)
		}
	}
	if h.Travel.Inside.Expired() {
		e.exitBuilding(h)
		e.leaveShop(h)
	}
}

// leaveShop starts the matching cooldown and hands back to DECISION.
func (e *Env) leaveShop(h *state.Hero) {
	if h.Travel.Purpose == state.TravelSmith {
		h.SmithCooldown.Reset(smithCooldown)
	} else {
		h.ShopCooldown.Reset(shopCooldown)
	}
	h.Travel = state.Travel{}
	h.SetState(state.HeroDecision)
}

// PotionWant is how many potions a hero of personality p wants to buy given
// missing health and remaining belt space.
func PotionWant(p state.Personality, missingHP, heal float64, space int) int {
	if space <= 0 {
		return 0
	}
	var want int
	switch {
	case p.Smart > traitHigh:
		want = 1
		if heal > 0 {
			want = max(1, int(math.Ceil(missingHP/heal)))
		}
	case p.Brave < traitLow:
		want = 2
	case p.Brave > traitVeryHigh:
		want = 1
	default:
		want = space
	}
	return min(want, space)
}

func (e *Env) buyPotions(h *state.Hero, shop *state.Building) {
	potion := e.Catalog.Potion()
	space := h.Belt.Space()
	want := PotionWant(h.Personality, h.MaxHealth-h.Health, potion.Heal, space) - h.Travel.Bought
	if want <= 0 {
		h.Travel.Inside.Clear()
		return
	}
	if potion.Cost > 0 {
		want = min(want, h.Gold/potion.Cost)
	}
	if want <= 0 {
		loggingeconomy.PurchaseFailed(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(shop),
			loggingeconomy.PurchasePayload{Item: "potion", Cost: potion.Cost, Reason: "insufficient gold"}, nil)
		h.Travel.Inside.Clear()
		return
	}
	cost := want * potion.Cost
	tax := int(math.Floor(float64(cost) * e.Catalog.MarketTax()))
	h.Gold -= cost
	h.Belt.Potions += want
	h.Travel.Bought += want
	e.Combat.Credit(tax, "market tax")
	e.feedback("+potion", state.ColorInfo, shop.DoorPoint())
	loggingeconomy.Purchase(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(shop),
		loggingeconomy.PurchasePayload{Item: "potion", Quantity: want, Cost: cost, Tax: tax}, nil)
}

// nextUpgrade picks the cheaper of the next weapon and armor tiers.
func (e *Env) nextUpgrade(h *state.Hero) (upgradeChoice, bool) {
	weapon, wok := e.Catalog.Upgrade("weapon", h.Equipment.WeaponTier+1)
	armor, aok := e.Catalog.Upgrade("armor", h.Equipment.ArmorTier+1)
	switch {
	case wok && aok:
		if h.Equipment.ArmorTier < h.Equipment.WeaponTier {
			return upgradeChoice{Slot: "armor", Tier: armor.Tier, Cost: armor.Cost, Bonus: armor.Bonus}, true
		}
		return upgradeChoice{Slot: "weapon", Tier: weapon.Tier, Cost: weapon.Cost, Bonus: weapon.Bonus}, true
	case wok:
		return upgradeChoice{Slot: "weapon", Tier: weapon.Tier, Cost: weapon.Cost, Bonus: weapon.Bonus}, true
	case aok:
		return upgradeChoice{Slot: "armor", Tier: armor.Tier, Cost: armor.Cost, Bonus: armor.Bonus}, true
	}
	return upgradeChoice{}, false
}

type upgradeChoice struct {
	Slot  string
	Tier  int
	Cost  int
	Bonus float64
}

// buyUpgrade applies the next equipment tier as an equipment-layer stat
// source. It reports whether the visit is finished.
func (e *Env) buyUpgrade(h *state.Hero, smith *state.Building) bool {
	up, ok := e.nextUpgrade(h)
	if !ok {
		return true
	}
	if h.Gold < up.Cost {
		loggingeconomy.PurchaseFailed(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(smith),
			loggingeconomy.PurchasePayload{Item: up.Slot, Cost: up.Cost, Reason: "insufficient gold"}, nil)
		return true
	}
	h.Gold -= up.Cost
	mod := stats.Modifier{
		Layer:  stats.LayerEquipment,
		Source: stats.SourceKey{Kind: stats.SourceKindEquipment, ID: up.Slot},
	}
	if up.Slot == "weapon" {
		h.Equipment.WeaponTier = up.Tier
		mod.Add[h.Stats.Primary()] = up.Bonus
	} else {
		h.Equipment.ArmorTier = up.Tier
		mod.Add[stats.StatVitality] = up.Bonus
	}
	h.Stats.Set(mod)
	e.resolveStats(h)
	tax := int(math.Floor(float64(up.Cost) * e.Catalog.MarketTax()))
	e.Combat.Credit(tax, "smith tax")
	loggingeconomy.Purchase(context.Background(), e.Publisher, e.tick(), e.ref(h), e.ref(smith),
		loggingeconomy.PurchasePayload{Item: up.Slot, Quantity: 1, Cost: up.Cost, Tax: tax}, map[string]any{"tier": up.Tier})
	return true
}

// resolveStats folds pending stat sources and syncs the body.
func (e *Env) resolveStats(h *state.Hero) {
	herostats.Resolve(herostats.HeroActors([]*state.Hero{h}))
	h.MaxStamina = h.Stats.GetDerived(stats.DerivedMaxStamina)
	h.Stamina = math.Min(h.Stamina, h.MaxStamina)
}
