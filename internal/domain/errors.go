package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrAssetNotFound is returned for operations against an unknown asset.
var ErrAssetNotFound = errors.New("asset_not_found")

// ValidationError represents malformed order or request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError is returned when an order, trade, or escrow ID is unknown.
type NotFoundError struct {
	Entity string // "order", "trade", "escrow"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStateError is returned when an illegal state transition is
// attempted. It names both the attempted transition and the current
// state; illegal transitions never silently no-op.
type InvalidStateError struct {
	Entity    string
	ID        string
	Attempted string
	Current   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from state %q", e.Entity, e.ID, e.Attempted, e.Current)
}

// InsufficientSupplyError is returned when a market buy exceeds the
// asset's tradeable supply.
type InsufficientSupplyError struct {
	AssetID   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientSupplyError) Error() string {
	return fmt.Sprintf("asset %s: requested %s exceeds available supply %s",
		e.AssetID, e.Requested, e.Available)
}
