package economy

import (
	"context"

	"github.com/virtu333/rogue-emblem-sub003/logging"
)

const (
	// EventGoldEarned is emitted when battle settlement pays out gold.
	EventGoldEarned logging.EventType = "economy.gold_earned"
	// EventGoldSpent is emitted whenever the run pays for something.
	EventGoldSpent logging.EventType = "economy.gold_spent"
	// EventItemSold is emitted when an inventory item is sold.
	EventItemSold logging.EventType = "economy.item_sold"
	// EventTransactionRejected is emitted when a gated transaction is refused.
	EventTransactionRejected logging.EventType = "economy.transaction_rejected"
)

// GoldEarnedPayload records the multiplier chain applied to a payout.
type GoldEarnedPayload struct {
	Base                 int     `json:"base"`
	EliteMultiplier      float64 `json:"eliteMultiplier"`
	BlessingMultiplier   float64 `json:"blessingMultiplier"`
	DifficultyMultiplier float64 `json:"difficultyMultiplier"`
	Final                int     `json:"final"`
	Balance              int     `json:"balance"`
}

// GoldSpentPayload describes a purchase, revive or forge.
type GoldSpentPayload struct {
	Reason  string `json:"reason"`
	Amount  int    `json:"amount"`
	Item    string `json:"item,omitempty"`
	Balance int    `json:"balance"`
}

// ItemSoldPayload describes a sale.
type ItemSoldPayload struct {
	Item    string `json:"item"`
	Price   int    `json:"price"`
	Balance int    `json:"balance"`
}

// TransactionRejectedPayload explains why a transaction did not happen.
type TransactionRejectedPayload struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Item   string `json:"item,omitempty"`
}

// GoldEarned publishes a battle payout.
func GoldEarned(ctx context.Context, pub logging.Publisher, runID string, payload GoldEarnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGoldEarned,
		RunID:    runID,
		Actor:    logging.RunRef(runID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// GoldSpent publishes a gold expenditure on behalf of actor.
func GoldSpent(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload GoldSpentPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGoldSpent,
		RunID:    runID,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// ItemSold publishes a sale.
func ItemSold(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload ItemSoldPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventItemSold,
		RunID:    runID,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// TransactionRejected publishes a refused transaction.
func TransactionRejected(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload TransactionRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTransactionRejected,
		RunID:    runID,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}
