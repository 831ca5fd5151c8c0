package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes limit orders from market orders.
type OrderKind string

const (
	OrderKindLimit  OrderKind = "limit"
	OrderKindMarket OrderKind = "market"
)

// OrderSide indicates whether an order buys or sells asset tokens.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially-filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusExpired         OrderStatus = "expired"
)

// Order is a standing instruction to buy or sell a quantity of an
// asset's tokens, at a limit price or at the asset's reference price.
//
// FilledQuantity + RemainingQuantity == Quantity holds after every
// operation that touches the order, and Status is filled exactly when
// RemainingQuantity is zero.
type Order struct {
	ID                string          `json:"id"`
	AssetID           string          `json:"asset_id"`
	OwnerID           string          `json:"owner_id"`
	Side              OrderSide       `json:"side"`
	Kind              OrderKind       `json:"kind"`
	Quantity          decimal.Decimal `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Status            OrderStatus     `json:"status"`
	FilledQuantity    decimal.Decimal `json:"filled_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Fees              FeeBreakdown    `json:"fees"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	ExpiresAt         *time.Time      `json:"expires_at"`
}

// Clone returns a snapshot copy safe to hand outside the store's
// locks.
func (o *Order) Clone() *Order {
	c := *o
	if o.ExpiresAt != nil {
		t := *o.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// Open reports whether the order can still fill.
func (o *Order) Open() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartiallyFilled
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// ExpiredBy reports whether the order should be treated as expired at
// the given instant: past its expiry with quantity still unfilled.
func (o *Order) ExpiredBy(now time.Time) bool {
	return o.Open() &&
		o.ExpiresAt != nil &&
		!o.ExpiresAt.After(now) &&
		o.RemainingQuantity.IsPositive()
}
