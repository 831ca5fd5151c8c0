package domain

import "github.com/shopspring/decimal"

// Fee schedule: 25 bps platform fee on notional, plus a flat network
// fee per order/trade.
var (
	PlatformFeeRate = decimal.RequireFromString("0.0025")
	NetworkFeeFlat  = decimal.RequireFromString("10.00")

	two = decimal.NewFromInt(2)
)

// FeeBreakdown is the per-order fee decomposition.
type FeeBreakdown struct {
	PlatformFee decimal.Decimal `json:"platform_fee"`
	NetworkFee  decimal.Decimal `json:"network_fee"`
	TotalFee    decimal.Decimal `json:"total_fee"`
}

// TradeFees is the per-trade fee decomposition. Buyer and seller each
// bear their own platform-fee share; the flat network fee is shared and
// split evenly between them when computing net proceeds/cost.
type TradeFees struct {
	BuyerFee   decimal.Decimal `json:"buyer_fee"`
	SellerFee  decimal.Decimal `json:"seller_fee"`
	NetworkFee decimal.Decimal `json:"network_fee"`
}

// ComputeFees maps (quantity, price, side) to the platform fee, network
// fee, and total fee for a single order. Pure, no side effects. The fee
// schedule is currently side-independent; the side parameter is part of
// the contract so a tiered schedule can differentiate later.
func ComputeFees(quantity, price decimal.Decimal, side OrderSide) FeeBreakdown {
	platform := quantity.Mul(price).Mul(PlatformFeeRate)
	return FeeBreakdown{
		PlatformFee: platform,
		NetworkFee:  NetworkFeeFlat,
		TotalFee:    platform.Add(NetworkFeeFlat),
	}
}

// SplitTradeFees applies the buyer/seller fee split convention for a
// trade of the given quantity and execution price: each party bears the
// full platform fee on the notional, and the flat network fee is held
// once against the trade, half attributable to each side.
func SplitTradeFees(quantity, price decimal.Decimal) TradeFees {
	platform := quantity.Mul(price).Mul(PlatformFeeRate)
	return TradeFees{
		BuyerFee:   platform,
		SellerFee:  platform,
		NetworkFee: NetworkFeeFlat,
	}
}

// BuyerNetworkShare returns the buyer's half of the shared network fee.
func (f TradeFees) BuyerNetworkShare() decimal.Decimal {
	return f.NetworkFee.Div(two)
}

// SellerNetworkShare returns the seller's half of the shared network fee.
func (f TradeFees) SellerNetworkShare() decimal.Decimal {
	return f.NetworkFee.Div(two)
}

// NetCost is the buyer's all-in cost: notional plus the buyer platform
// fee plus half the network fee.
func (f TradeFees) NetCost(totalValue decimal.Decimal) decimal.Decimal {
	return totalValue.Add(f.BuyerFee).Add(f.BuyerNetworkShare())
}

// NetProceeds is the seller's take-home: notional minus the seller
// platform fee minus half the network fee.
func (f TradeFees) NetProceeds(totalValue decimal.Decimal) decimal.Decimal {
	return totalValue.Sub(f.SellerFee).Sub(f.SellerNetworkShare())
}
