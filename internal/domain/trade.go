package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus represents the settlement state of an execution.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusSettling  TradeStatus = "settling"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusFailed    TradeStatus = "failed"
)

// Trade is a completed execution between two orders. Market fills
// against the platform inventory carry synthetic order IDs for the
// counterparty leg. SettledAt is only set once Status is completed.
type Trade struct {
	ID          string          `json:"id"`
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	AssetID     string          `json:"asset_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalValue  decimal.Decimal `json:"total_value"`
	BuyerID     string          `json:"buyer_id"`
	SellerID    string          `json:"seller_id"`
	Status      TradeStatus     `json:"status"`
	Fees        TradeFees       `json:"fees"`
	ExecutedAt  time.Time       `json:"executed_at"`
	SettledAt   *time.Time      `json:"settled_at"`
	EscrowID    string          `json:"escrow_id,omitempty"`
}

// Clone returns a snapshot copy safe to hand outside the store's
// locks.
func (t *Trade) Clone() *Trade {
	c := *t
	if t.SettledAt != nil {
		at := *t.SettledAt
		c.SettledAt = &at
	}
	return &c
}
