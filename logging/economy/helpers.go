package economy

import (
	"context"

	"hold-the-line/server/logging"
)

const (
	// EventTreasuryCredit is emitted when gold enters the treasury.
	EventTreasuryCredit logging.EventType = "economy.treasury_credit"
	// EventTreasuryDebit is emitted when gold leaves the treasury.
	EventTreasuryDebit logging.EventType = "economy.treasury_debit"
	// EventPurchase is emitted when a hero buys potions or equipment.
	EventPurchase logging.EventType = "economy.purchase"
	// EventPurchaseFailed is emitted when a purchase cannot be afforded.
	EventPurchaseFailed logging.EventType = "economy.purchase_failed"
	// EventTaxCollected is emitted when a collector empties a building.
	EventTaxCollected logging.EventType = "economy.tax_collected"
	// EventLoot is emitted when a hero picks up treasure or a bounty.
	EventLoot logging.EventType = "economy.loot"
)

var (
	treasuryCredit = logging.Template{Type: EventTreasuryCredit, Category: logging.CategoryEconomy, Severity: logging.SeverityDebug}
	treasuryDebit  = logging.Template{Type: EventTreasuryDebit, Category: logging.CategoryEconomy, Severity: logging.SeverityInfo}
	purchase       = logging.Template{Type: EventPurchase, Category: logging.CategoryEconomy, Severity: logging.SeverityInfo}
	purchaseFailed = logging.Template{Type: EventPurchaseFailed, Category: logging.CategoryEconomy, Severity: logging.SeverityDebug}
	taxCollected   = logging.Template{Type: EventTaxCollected, Category: logging.CategoryEconomy, Severity: logging.SeverityDebug}
	loot           = logging.Template{Type: EventLoot, Category: logging.CategoryEconomy, Severity: logging.SeverityInfo}
)

// TreasuryPayload describes a treasury mutation.
type TreasuryPayload struct {
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
	Reason  string `json:"reason,omitempty"`
}

// PurchasePayload describes a shop transaction.
type PurchasePayload struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Cost     int    `json:"cost"`
	Tax      int    `json:"tax,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// TaxPayload describes a tax pickup.
type TaxPayload struct {
	Amount int `json:"amount"`
}

// LootPayload describes collected gold.
type LootPayload struct {
	Source string `json:"source"`
	Gold   int    `json:"gold"`
}

// TreasuryCredit publishes a treasury deposit.
func TreasuryCredit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TreasuryPayload, extra map[string]any) {
	treasuryCredit.Emit(ctx, pub, tick, actor, nil, payload, extra)
}

// TreasuryDebit publishes a treasury withdrawal.
func TreasuryDebit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TreasuryPayload, extra map[string]any) {
	treasuryDebit.Emit(ctx, pub, tick, actor, nil, payload, extra)
}

// Purchase publishes a completed shop transaction.
func Purchase(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, shop logging.EntityRef, payload PurchasePayload, extra map[string]any) {
	purchase.Emit(ctx, pub, tick, actor, []logging.EntityRef{shop}, payload, extra)
}

// PurchaseFailed publishes a purchase that did not execute.
func PurchaseFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, shop logging.EntityRef, payload PurchasePayload, extra map[string]any) {
	purchaseFailed.Emit(ctx, pub, tick, actor, []logging.EntityRef{shop}, payload, extra)
}

// TaxCollected publishes a tax pickup from a building.
func TaxCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, building logging.EntityRef, payload TaxPayload, extra map[string]any) {
	taxCollected.Emit(ctx, pub, tick, actor, []logging.EntityRef{building}, payload, extra)
}

// Loot publishes gold picked up by a hero.
func Loot(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LootPayload, extra map[string]any) {
	loot.Emit(ctx, pub, tick, actor, nil, payload, extra)
}
