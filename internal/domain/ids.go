package domain

import "github.com/google/uuid"

// Entity ID constructors. Prefixes make identifiers self-describing in
// logs and snapshots.

func NewOrderID() string  { return "ord_" + uuid.New().String() }
func NewTradeID() string  { return "trd_" + uuid.New().String() }
func NewEscrowID() string { return "esc_" + uuid.New().String() }
func NewEventID() string  { return "evt_" + uuid.New().String() }

// NewSyntheticOrderID identifies the counterparty leg of a market fill
// that has no resting order behind it.
func NewSyntheticOrderID() string { return "ord_mkt_" + uuid.New().String() }
