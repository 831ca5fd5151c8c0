package engine

import (
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
)

// PriceLevel is one aggregated level of the derived order book.
type PriceLevel struct {
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	OrderCount         int             `json:"order_count"`
	CumulativeQuantity decimal.Decimal `json:"cumulative_quantity"`
	Notional           decimal.Decimal `json:"notional"`
}

// Book is a leveled bid/ask view for one asset. It is purely derived:
// never persisted, always recomputed from the current open order set.
// Spread is nil when either side is empty; callers must handle that
// case explicitly rather than compare against a zero.
type Book struct {
	AssetID    string           `json:"asset_id"`
	Bids       []PriceLevel     `json:"bids"`
	Asks       []PriceLevel     `json:"asks"`
	LastPrice  decimal.Decimal  `json:"last_price"`
	Spread     *decimal.Decimal `json:"spread"`
	SnapshotAt time.Time        `json:"snapshot_at"`
}

// bidLevelLess orders bid levels by price descending so Ascend walks
// best bid first.
func bidLevelLess(a, b PriceLevel) bool {
	return a.Price.GreaterThan(b.Price)
}

// askLevelLess orders ask levels by price ascending so Ascend walks
// best ask first.
func askLevelLess(a, b PriceLevel) bool {
	return a.Price.LessThan(b.Price)
}

// BuildBook derives the order book for one asset from its open limit
// orders. Remaining quantity is grouped by price per side, levels are
// sorted best-first, and cumulative quantity and notional run in sort
// order. LastPrice comes from the most recent completed trade,
// falling back to the asset's current reference price when the asset
// has never traded. Deterministic and side-effect-free.
func BuildBook(asset *domain.Asset, open []*domain.Order, last *domain.Trade, depth int, now time.Time) *Book {
	const degree = 32
	bids := btree.NewG[PriceLevel](degree, bidLevelLess)
	asks := btree.NewG[PriceLevel](degree, askLevelLess)

	for _, o := range open {
		if o.AssetID != asset.ID || o.Kind != domain.OrderKindLimit || !o.Open() {
			continue
		}
		if !o.RemainingQuantity.IsPositive() {
			continue
		}
		tree := bids
		if o.Side == domain.OrderSideSell {
			tree = asks
		}
		level := PriceLevel{Price: o.Price}
		if existing, ok := tree.Get(level); ok {
			level = existing
		}
		level.Quantity = level.Quantity.Add(o.RemainingQuantity)
		level.OrderCount++
		tree.ReplaceOrInsert(level)
	}

	book := &Book{
		AssetID:    asset.ID,
		Bids:       collectLevels(bids, depth),
		Asks:       collectLevels(asks, depth),
		LastPrice:  asset.CurrentPrice,
		SnapshotAt: now,
	}
	if last != nil {
		book.LastPrice = last.Price
	}
	if len(book.Bids) > 0 && len(book.Asks) > 0 {
		spread := book.Asks[0].Price.Sub(book.Bids[0].Price)
		book.Spread = &spread
	}
	return book
}

// collectLevels walks the tree best-first, filling in cumulative
// quantity and notional, up to depth levels (0 means unlimited).
func collectLevels(tree *btree.BTreeG[PriceLevel], depth int) []PriceLevel {
	levels := make([]PriceLevel, 0, tree.Len())
	cumulative := decimal.Zero
	tree.Ascend(func(level PriceLevel) bool {
		if depth > 0 && len(levels) >= depth {
			return false
		}
		cumulative = cumulative.Add(level.Quantity)
		level.CumulativeQuantity = cumulative
		level.Notional = level.Price.Mul(level.Quantity)
		levels = append(levels, level)
		return true
	})
	return levels
}
