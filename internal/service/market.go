package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/store"
)

// Position is a user's net holding in one asset, derived entirely from
// trade history and valued at the current reference price.
type Position struct {
	AssetID       string          `json:"asset_id"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// MarketStats summarizes recent trading for one asset.
type MarketStats struct {
	AssetID       string          `json:"asset_id"`
	LastPrice     decimal.Decimal `json:"last_price"`
	Volume24h     decimal.Decimal `json:"volume_24h"`
	TradeCount24h int             `json:"trade_count_24h"`
	High24h       decimal.Decimal `json:"high_24h"`
	Low24h        decimal.Decimal `json:"low_24h"`
	Change24h     decimal.Decimal `json:"change_24h"`
}

// buildPositions folds a user's trades into per-asset positions. Buys
// add quantity at cost; sells reduce it. Average cost is the VWAP of
// buys. Assets the user has fully exited are omitted.
func buildPositions(principal string, trades []*domain.Trade, assets *store.AssetStore) []Position {
	type accum struct {
		qty     decimal.Decimal
		buyQty  decimal.Decimal
		buyCost decimal.Decimal
	}
	byAsset := make(map[string]*accum)

	for _, t := range trades {
		if t.Status != domain.TradeStatusCompleted {
			continue
		}
		acc, ok := byAsset[t.AssetID]
		if !ok {
			acc = &accum{}
			byAsset[t.AssetID] = acc
		}
		if t.BuyerID == principal {
			acc.qty = acc.qty.Add(t.Quantity)
			acc.buyQty = acc.buyQty.Add(t.Quantity)
			acc.buyCost = acc.buyCost.Add(t.TotalValue)
		}
		if t.SellerID == principal {
			acc.qty = acc.qty.Sub(t.Quantity)
		}
	}

	positions := make([]Position, 0, len(byAsset))
	for assetID, acc := range byAsset {
		if !acc.qty.IsPositive() {
			continue
		}
		pos := Position{
			AssetID:  assetID,
			Quantity: acc.qty,
		}
		if acc.buyQty.IsPositive() {
			pos.AvgCost = acc.buyCost.Div(acc.buyQty)
		}
		if asset, err := assets.Get(assetID); err == nil {
			pos.Symbol = asset.Symbol
			pos.CurrentPrice = asset.CurrentPrice
			pos.MarketValue = acc.qty.Mul(asset.CurrentPrice)
			pos.UnrealizedPnL = asset.CurrentPrice.Sub(pos.AvgCost).Mul(acc.qty)
		}
		positions = append(positions, pos)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].AssetID < positions[j].AssetID
	})
	return positions
}

// buildMarketStats summarizes completed trades executed in the 24 hours
// before now. An asset with no trades in the window reports its
// reference price and 24h figures from asset data.
func buildMarketStats(asset *domain.Asset, trades []*domain.Trade, now time.Time) *MarketStats {
	stats := &MarketStats{
		AssetID:   asset.ID,
		LastPrice: asset.CurrentPrice,
		Volume24h: asset.Volume24h,
		Change24h: asset.Change24h,
		High24h:   asset.CurrentPrice,
		Low24h:    asset.CurrentPrice,
	}

	cutoff := now.Add(-24 * time.Hour)
	var (
		inWindow  []*domain.Trade
		volume    = decimal.Zero
		openPrice decimal.Decimal
	)
	for _, t := range trades {
		if t.Status != domain.TradeStatusCompleted || t.ExecutedAt.Before(cutoff) {
			continue
		}
		inWindow = append(inWindow, t)
		volume = volume.Add(t.TotalValue)
	}
	if len(inWindow) == 0 {
		return stats
	}

	openPrice = inWindow[0].Price
	high := inWindow[0].Price
	low := inWindow[0].Price
	for _, t := range inWindow[1:] {
		if t.Price.GreaterThan(high) {
			high = t.Price
		}
		if t.Price.LessThan(low) {
			low = t.Price
		}
	}
	last := inWindow[len(inWindow)-1].Price

	stats.LastPrice = last
	stats.Volume24h = volume
	stats.TradeCount24h = len(inWindow)
	stats.High24h = high
	stats.Low24h = low
	if openPrice.IsPositive() {
		stats.Change24h = last.Sub(openPrice).Div(openPrice).Mul(decimal.NewFromInt(100))
	}
	return stats
}
