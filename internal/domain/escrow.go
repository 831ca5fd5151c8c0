package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus represents the lifecycle state of an escrow.
// released, refunded, and expired are terminal.
type EscrowStatus string

const (
	EscrowStatusCreated  EscrowStatus = "created"
	EscrowStatusFunded   EscrowStatus = "funded"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusDisputed EscrowStatus = "disputed"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusExpired  EscrowStatus = "expired"
)

// EscrowEventType identifies a timeline entry.
type EscrowEventType string

const (
	EscrowEventCreated  EscrowEventType = "created"
	EscrowEventFunded   EscrowEventType = "funded"
	EscrowEventReleased EscrowEventType = "released"
	EscrowEventDisputed EscrowEventType = "disputed"
	EscrowEventRefunded EscrowEventType = "refunded"
	EscrowEventExpired  EscrowEventType = "expired"
)

// EscrowEvent is one entry in an escrow's append-only timeline. The
// timeline is ordered by timestamp and records every status change, so
// it is always a truthful audit trail of status history.
type EscrowEvent struct {
	ID        string          `json:"id"`
	Type      EscrowEventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Detail    string          `json:"detail"`
}

// ReleaseConditions govern how an escrow resolves.
type ReleaseConditions struct {
	AutoRelease      bool          `json:"auto_release"`
	RequiresApproval bool          `json:"requires_approval"`
	DisputeWindow    time.Duration `json:"dispute_window"`
}

// Escrow holds a completed trade's quantity and value pending release
// to the counterparties.
type Escrow struct {
	ID         string            `json:"id"`
	TradeID    string            `json:"trade_id"`
	AssetID    string            `json:"asset_id"`
	Quantity   decimal.Decimal   `json:"quantity"`
	Value      decimal.Decimal   `json:"value"`
	BuyerID    string            `json:"buyer_id"`
	SellerID   string            `json:"seller_id"`
	Status     EscrowStatus      `json:"status"`
	Conditions ReleaseConditions `json:"conditions"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
	Timeline   []EscrowEvent     `json:"timeline"`
}

// Clone returns a snapshot copy with a detached timeline, safe to hand
// outside the store's locks.
func (e *Escrow) Clone() *Escrow {
	c := *e
	c.Timeline = append([]EscrowEvent(nil), e.Timeline...)
	return &c
}

// Terminal reports whether the escrow has reached a final state. No
// transition out of a terminal state ever succeeds.
func (e *Escrow) Terminal() bool {
	switch e.Status {
	case EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusExpired:
		return true
	}
	return false
}

// ExpiredBy reports whether the escrow is past its expiry without
// having reached a resolution.
func (e *Escrow) ExpiredBy(now time.Time) bool {
	return !e.Terminal() && !e.ExpiresAt.After(now)
}
