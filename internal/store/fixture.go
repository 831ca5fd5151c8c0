package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
)

// AssetSeeder supplies the asset reference data loaded at startup.
// Keeping this behind an interface means the core never depends on
// wall-clock-seeded randomness: demo fixtures are deterministic and a
// real deployment swaps in a feed-backed implementation.
type AssetSeeder interface {
	Assets() []*domain.Asset
}

// StaticSeeder returns a fixed set of demo assets.
type StaticSeeder struct{}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Assets returns the demo fixture set. Values are constants so repeated
// runs and tests see identical reference data.
func (StaticSeeder) Assets() []*domain.Asset {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*domain.Asset{
		{
			ID:              "asset_manhattan_lofts",
			Symbol:          "MNLF",
			Name:            "Manhattan Loft Portfolio",
			TotalSupply:     dec("100000"),
			AvailableSupply: dec("42000"),
			CurrentPrice:    dec("5200.00"),
			Change24h:       dec("1.85"),
			Volume24h:       dec("1240000.00"),
			CreatedAt:       createdAt,
		},
		{
			ID:              "asset_bordeaux_estate",
			Symbol:          "BDXE",
			Name:            "Bordeaux Vineyard Estate",
			TotalSupply:     dec("50000"),
			AvailableSupply: dec("18500"),
			CurrentPrice:    dec("2100.00"),
			Change24h:       dec("-0.42"),
			Volume24h:       dec("386000.00"),
			CreatedAt:       createdAt,
		},
		{
			ID:              "asset_solar_farm_tx",
			Symbol:          "SLTX",
			Name:            "West Texas Solar Farm",
			TotalSupply:     dec("250000"),
			AvailableSupply: dec("97000"),
			CurrentPrice:    dec("340.50"),
			Change24h:       dec("3.10"),
			Volume24h:       dec("712000.00"),
			CreatedAt:       createdAt,
		},
		{
			ID:              "asset_contemporary_art",
			Symbol:          "CART",
			Name:            "Contemporary Art Basket",
			TotalSupply:     dec("20000"),
			AvailableSupply: dec("6400"),
			CurrentPrice:    dec("8750.00"),
			Change24h:       dec("0.00"),
			Volume24h:       dec("95000.00"),
			CreatedAt:       createdAt,
		},
	}
}
