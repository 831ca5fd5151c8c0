package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/store"
)

// MarketCounterparty is the platform inventory account that takes the
// other side of every market fill. There is no real matching: a market
// order fills in full, immediately, at the asset's reference price.
const MarketCounterparty = "platform-inventory"

// Executor fills market orders against the platform inventory at the
// asset's current reference price. Settlement is synchronous: a trade
// leaves here completed with its settled timestamp set.
type Executor struct {
	assets *store.AssetStore
	trades *store.TradeStore
	now    func() time.Time
}

// NewExecutor creates an Executor using the wall clock.
func NewExecutor(assets *store.AssetStore, trades *store.TradeStore) *Executor {
	return &Executor{
		assets: assets,
		trades: trades,
		now:    time.Now,
	}
}

// SetClock replaces the executor's time source. Test hook.
func (x *Executor) SetClock(now func() time.Time) { x.now = now }

// ExecuteMarketOrder fills the entire requested quantity at the asset's
// current reference price. No partial fills, no price improvement, no
// slippage. A buy that exceeds the asset's available supply fails with
// an InsufficientSupplyError; nothing is committed on any failure.
func (x *Executor) ExecuteMarketOrder(assetID string, side domain.OrderSide, quantity decimal.Decimal, principal string) (*domain.Trade, error) {
	if !quantity.IsPositive() {
		return nil, &domain.ValidationError{Message: "quantity must be greater than 0"}
	}
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}

	asset, err := x.assets.Get(assetID)
	if err != nil {
		return nil, err
	}
	if side == domain.OrderSideBuy && quantity.GreaterThan(asset.AvailableSupply) {
		return nil, &domain.InsufficientSupplyError{
			AssetID:   assetID,
			Requested: quantity,
			Available: asset.AvailableSupply,
		}
	}

	price := asset.CurrentPrice
	now := x.now()
	settledAt := now

	trade := &domain.Trade{
		ID:         domain.NewTradeID(),
		AssetID:    assetID,
		Quantity:   quantity,
		Price:      price,
		TotalValue: quantity.Mul(price),
		Status:     domain.TradeStatusCompleted,
		Fees:       domain.SplitTradeFees(quantity, price),
		ExecutedAt: now,
		SettledAt:  &settledAt,
	}
	if side == domain.OrderSideBuy {
		trade.BuyerID = principal
		trade.SellerID = MarketCounterparty
		trade.BuyOrderID = domain.NewSyntheticOrderID()
		trade.SellOrderID = domain.NewSyntheticOrderID()
	} else {
		trade.BuyerID = MarketCounterparty
		trade.SellerID = principal
		trade.BuyOrderID = domain.NewSyntheticOrderID()
		trade.SellOrderID = domain.NewSyntheticOrderID()
	}

	// Supply moves before the trade is visible in history; a failure
	// here commits nothing.
	delta := quantity
	if side == domain.OrderSideBuy {
		delta = quantity.Neg()
	}
	if err := x.assets.AdjustAvailable(assetID, delta); err != nil {
		return nil, err
	}

	x.trades.Append(trade)
	return trade, nil
}
