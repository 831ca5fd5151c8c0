package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAsset() *domain.Asset {
	return &domain.Asset{
		ID:              "asset_1",
		Symbol:          "MNLF",
		Name:            "Manhattan Lofts",
		TotalSupply:     dec("10000"),
		AvailableSupply: dec("4500"),
		CurrentPrice:    dec("5200.00"),
		CreatedAt:       baseTime,
	}
}

func limitOrder(id, side, price, remaining string) *domain.Order {
	return &domain.Order{
		ID:                id,
		AssetID:           "asset_1",
		OwnerID:           "alice",
		Side:              domain.OrderSide(side),
		Kind:              domain.OrderKindLimit,
		Quantity:          dec(remaining),
		RemainingQuantity: dec(remaining),
		FilledQuantity:    decimal.Zero,
		Price:             dec(price),
		Status:            domain.OrderStatusPending,
		CreatedAt:         baseTime,
		UpdatedAt:         baseTime,
	}
}

func TestBuildBook_AggregatesAndSorts(t *testing.T) {
	open := []*domain.Order{
		limitOrder("ord_1", "buy", "5100", "10"),
		limitOrder("ord_2", "buy", "5150", "5"),
		limitOrder("ord_3", "buy", "5100", "3"),
		limitOrder("ord_4", "sell", "5250", "8"),
		limitOrder("ord_5", "sell", "5200", "2"),
	}

	book := BuildBook(testAsset(), open, nil, 0, baseTime)

	if len(book.Bids) != 2 {
		t.Fatalf("expected 2 bid levels, got %d", len(book.Bids))
	}
	if !book.Bids[0].Price.Equal(dec("5150")) || !book.Bids[1].Price.Equal(dec("5100")) {
		t.Fatalf("bids not sorted best-first: %v, %v", book.Bids[0].Price, book.Bids[1].Price)
	}
	if book.Bids[1].OrderCount != 2 || !book.Bids[1].Quantity.Equal(dec("13")) {
		t.Fatalf("same-price bids not aggregated: %+v", book.Bids[1])
	}
	if !book.Bids[0].CumulativeQuantity.Equal(dec("5")) || !book.Bids[1].CumulativeQuantity.Equal(dec("18")) {
		t.Fatal("cumulative bid quantity wrong")
	}

	if len(book.Asks) != 2 {
		t.Fatalf("expected 2 ask levels, got %d", len(book.Asks))
	}
	if !book.Asks[0].Price.Equal(dec("5200")) || !book.Asks[1].Price.Equal(dec("5250")) {
		t.Fatalf("asks not sorted best-first: %v, %v", book.Asks[0].Price, book.Asks[1].Price)
	}
	if !book.Asks[0].Notional.Equal(dec("10400")) {
		t.Fatalf("notional wrong: %v", book.Asks[0].Notional)
	}

	if book.Spread == nil || !book.Spread.Equal(dec("50")) {
		t.Fatalf("expected spread 50, got %v", book.Spread)
	}
	if !book.SnapshotAt.Equal(baseTime) {
		t.Fatalf("snapshot time wrong: %v", book.SnapshotAt)
	}
}

func TestBuildBook_SpreadNilWhenSideEmpty(t *testing.T) {
	cases := []struct {
		name string
		open []*domain.Order
	}{
		{"no orders", nil},
		{"bids only", []*domain.Order{limitOrder("ord_1", "buy", "5100", "10")}},
		{"asks only", []*domain.Order{limitOrder("ord_1", "sell", "5300", "10")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			book := BuildBook(testAsset(), tc.open, nil, 0, baseTime)
			if book.Spread != nil {
				t.Fatalf("expected nil spread, got %v", book.Spread)
			}
		})
	}
}

func TestBuildBook_LastPrice(t *testing.T) {
	asset := testAsset()

	book := BuildBook(asset, nil, nil, 0, baseTime)
	if !book.LastPrice.Equal(asset.CurrentPrice) {
		t.Fatalf("expected reference price fallback, got %v", book.LastPrice)
	}

	last := &domain.Trade{ID: "trd_1", AssetID: asset.ID, Price: dec("5180"), Status: domain.TradeStatusCompleted}
	book = BuildBook(asset, nil, last, 0, baseTime)
	if !book.LastPrice.Equal(dec("5180")) {
		t.Fatalf("expected last trade price, got %v", book.LastPrice)
	}
}

func TestBuildBook_DepthTruncates(t *testing.T) {
	open := []*domain.Order{
		limitOrder("ord_1", "buy", "5100", "1"),
		limitOrder("ord_2", "buy", "5110", "1"),
		limitOrder("ord_3", "buy", "5120", "1"),
	}
	book := BuildBook(testAsset(), open, nil, 2, baseTime)
	if len(book.Bids) != 2 {
		t.Fatalf("expected depth-limited book, got %d levels", len(book.Bids))
	}
	if !book.Bids[0].Price.Equal(dec("5120")) {
		t.Fatal("truncation must keep the best levels")
	}
}

func TestBuildBook_SkipsIneligibleOrders(t *testing.T) {
	filled := limitOrder("ord_1", "buy", "5100", "10")
	filled.Status = domain.OrderStatusFilled

	market := limitOrder("ord_2", "buy", "5100", "10")
	market.Kind = domain.OrderKindMarket

	other := limitOrder("ord_3", "buy", "5100", "10")
	other.AssetID = "asset_2"

	drained := limitOrder("ord_4", "buy", "5100", "10")
	drained.RemainingQuantity = decimal.Zero

	book := BuildBook(testAsset(), []*domain.Order{filled, market, other, drained}, nil, 0, baseTime)
	if len(book.Bids) != 0 {
		t.Fatalf("expected empty book, got %d bid levels", len(book.Bids))
	}
}

func TestBuildBook_PartialFillUsesRemaining(t *testing.T) {
	o := limitOrder("ord_1", "buy", "5100", "10")
	o.Status = domain.OrderStatusPartiallyFilled
	o.FilledQuantity = dec("4")
	o.RemainingQuantity = dec("6")

	book := BuildBook(testAsset(), []*domain.Order{o}, nil, 0, baseTime)
	if !book.Bids[0].Quantity.Equal(dec("6")) {
		t.Fatalf("level must use remaining quantity, got %v", book.Bids[0].Quantity)
	}
}
