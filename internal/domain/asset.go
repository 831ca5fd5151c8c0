package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is read-only reference data for a tokenized real-world asset.
// The trading core never mutates anything here except AvailableSupply,
// which moves when market orders execute against the platform inventory.
type Asset struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	TotalSupply     decimal.Decimal `json:"total_supply"`
	AvailableSupply decimal.Decimal `json:"available_supply"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Change24h       decimal.Decimal `json:"change_24h"`
	Volume24h       decimal.Decimal `json:"volume_24h"`
	CreatedAt       time.Time       `json:"created_at"`
}
