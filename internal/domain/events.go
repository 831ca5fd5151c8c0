package domain

import "time"

// EventType identifies a state change published by the trading facade.
type EventType string

const (
	EventOrderCreated   EventType = "order.created"
	EventOrderCancelled EventType = "order.cancelled"
	EventOrderExpired   EventType = "order.expired"
	EventTradeExecuted  EventType = "trade.executed"
	EventEscrowCreated  EventType = "escrow.created"
	EventEscrowFunded   EventType = "escrow.funded"
	EventEscrowReleased EventType = "escrow.released"
	EventEscrowDisputed EventType = "escrow.disputed"
	EventEscrowRefunded EventType = "escrow.refunded"
)

// Event is the payload delivered to facade subscribers on every
// successful mutation. Exactly one of Order, Trade, or Escrow is set,
// matching the event type.
type Event struct {
	Type   EventType `json:"type"`
	At     time.Time `json:"at"`
	Order  *Order    `json:"order,omitempty"`
	Trade  *Trade    `json:"trade,omitempty"`
	Escrow *Escrow   `json:"escrow,omitempty"`
}
