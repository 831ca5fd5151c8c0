package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/engine"
	"github.com/assetra/tradecore/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAssets() []*domain.Asset {
	return []*domain.Asset{
		{
			ID:              "asset_1",
			Symbol:          "MNLF",
			Name:            "Manhattan Lofts",
			TotalSupply:     dec("10000"),
			AvailableSupply: dec("4500"),
			CurrentPrice:    dec("5200.00"),
			CreatedAt:       baseTime,
		},
		{
			ID:              "asset_2",
			Symbol:          "BDXE",
			Name:            "Bordeaux Estate",
			TotalSupply:     dec("8000"),
			AvailableSupply: dec("3000"),
			CurrentPrice:    dec("2100.00"),
			CreatedAt:       baseTime,
		},
	}
}

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	assets := store.NewAssetStore()
	assets.Seed(testAssets())

	orders := store.NewOrderStore()
	orders.SetClock(func() time.Time { return baseTime })

	trades := store.NewTradeStore()

	executor := engine.NewExecutor(assets, trades)
	executor.SetClock(func() time.Time { return baseTime })

	escrows := store.NewEscrowStore()
	escrows.SetClock(func() time.Time { return baseTime })
	manager := NewEscrowManager(escrows, trades, DefaultEscrowConfig())
	manager.SetClock(func() time.Time { return baseTime })

	f := NewFacade(assets, orders, trades, executor, manager, 0, zap.NewNop())
	f.SetClock(func() time.Time { return baseTime })
	return f
}

func limitDraft(assetID, side, qty, price string) OrderDraft {
	p := dec(price)
	return OrderDraft{
		AssetID:  assetID,
		Side:     domain.OrderSide(side),
		Kind:     domain.OrderKindLimit,
		Quantity: dec(qty),
		Price:    &p,
	}
}

func TestFacade_CreateLimitOrder(t *testing.T) {
	f := newTestFacade(t)

	order, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "10", "5200.00"))
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "alice", order.OwnerID)
	assert.True(t, order.TotalValue.Equal(dec("52000.00")))
	assert.True(t, order.FilledQuantity.IsZero())
	assert.True(t, order.RemainingQuantity.Equal(dec("10")))

	assert.True(t, order.Fees.PlatformFee.Equal(dec("130")), "platform fee %v", order.Fees.PlatformFee)
	assert.True(t, order.Fees.NetworkFee.Equal(dec("10.00")))
	assert.True(t, order.Fees.TotalFee.Equal(dec("140")))

	assert.False(t, f.Loading())
	assert.NoError(t, f.LastError())

	listed, err := f.LoadUserOrders("alice", nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
}

func TestFacade_CreateMarketOrderPricesFromReference(t *testing.T) {
	f := newTestFacade(t)

	order, err := f.CreateOrder("alice", OrderDraft{
		AssetID:  "asset_1",
		Side:     domain.OrderSideBuy,
		Kind:     domain.OrderKindMarket,
		Quantity: dec("2"),
	})
	require.NoError(t, err)
	assert.True(t, order.Price.Equal(dec("5200.00")))
	assert.True(t, order.TotalValue.Equal(dec("10400.00")))
}

func TestFacade_CreateOrderValidation(t *testing.T) {
	f := newTestFacade(t)
	past := baseTime.Add(-time.Hour)

	cases := []struct {
		name      string
		principal string
		draft     OrderDraft
	}{
		{"missing principal", "", limitDraft("asset_1", "buy", "10", "5200")},
		{"bad side", "alice", OrderDraft{AssetID: "asset_1", Side: "hold", Kind: domain.OrderKindLimit, Quantity: dec("1")}},
		{"bad kind", "alice", OrderDraft{AssetID: "asset_1", Side: domain.OrderSideBuy, Kind: "stop", Quantity: dec("1")}},
		{"zero quantity", "alice", limitDraft("asset_1", "buy", "0", "5200")},
		{"limit without price", "alice", OrderDraft{AssetID: "asset_1", Side: domain.OrderSideBuy, Kind: domain.OrderKindLimit, Quantity: dec("1")}},
		{"past expiry", "alice", func() OrderDraft {
			d := limitDraft("asset_1", "buy", "1", "5200")
			d.ExpiresAt = &past
			return d
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.CreateOrder(tc.principal, tc.draft)
			var valErr *domain.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.ErrorIs(t, f.LastError(), err)
		})
	}
}

func TestFacade_CreateOrderUnknownAsset(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.CreateOrder("alice", limitDraft("asset_missing", "buy", "1", "100"))
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestFacade_ErrorSlotLastWins(t *testing.T) {
	f := newTestFacade(t)

	_, err := f.CreateOrder("", limitDraft("asset_1", "buy", "1", "5200"))
	require.Error(t, err)
	assert.Error(t, f.LastError())

	// A clean operation clears the slot.
	_, err = f.CreateOrder("alice", limitDraft("asset_1", "buy", "1", "5200"))
	require.NoError(t, err)
	assert.NoError(t, f.LastError())

	// Two failures in sequence: the later one owns the slot.
	_, first := f.CreateOrder("alice", limitDraft("asset_missing", "buy", "1", "5200"))
	_, second := f.CreateOrder("alice", limitDraft("asset_1", "buy", "0", "5200"))
	require.Error(t, first)
	require.Error(t, second)
	assert.ErrorIs(t, f.LastError(), second)
	assert.NotErrorIs(t, f.LastError(), first)
}

func TestFacade_CancelOrder(t *testing.T) {
	f := newTestFacade(t)
	order, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "10", "5200"))
	require.NoError(t, err)

	cancelled, err := f.CancelOrder("alice", order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
}

func TestFacade_CancelOrderOwnership(t *testing.T) {
	f := newTestFacade(t)
	order, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "10", "5200"))
	require.NoError(t, err)

	_, err = f.CancelOrder("mallory", order.ID)
	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr, "foreign orders must look nonexistent")

	got, err := f.LoadUserOrders("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got[0].Status)
}

func TestFacade_LoadOrderBook(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "10", "5100"))
	require.NoError(t, err)
	_, err = f.CreateOrder("bob", limitDraft("asset_1", "sell", "4", "5300"))
	require.NoError(t, err)

	book, err := f.LoadOrderBook("asset_1")
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	require.NotNil(t, book.Spread)
	assert.True(t, book.Spread.Equal(dec("200")))
	assert.True(t, book.LastPrice.Equal(dec("5200.00")), "no trades yet: reference price")
}

func TestFacade_LoadOrderBookLastPriceFollowsTrades(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("5"))
	require.NoError(t, err)

	book, err := f.LoadOrderBook("asset_2")
	require.NoError(t, err)
	assert.True(t, book.LastPrice.Equal(dec("2100.00")))
}

func TestFacade_ExecuteMarketOrder(t *testing.T) {
	f := newTestFacade(t)

	trade, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("5"))
	require.NoError(t, err)

	assert.Equal(t, domain.TradeStatusCompleted, trade.Status)
	assert.True(t, trade.TotalValue.Equal(dec("10500.00")))
	require.NotNil(t, trade.SettledAt)
	assert.Equal(t, engine.MarketCounterparty, trade.SellerID)

	history, err := f.LoadTradeHistory("asset_2")
	require.NoError(t, err)
	require.Len(t, history, 1)

	global, err := f.LoadTradeHistory("")
	require.NoError(t, err)
	assert.Len(t, global, 1)

	mine, err := f.LoadUserTrades("alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestFacade_ExecuteMarketOrderRequiresPrincipal(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.ExecuteMarketOrder("", "asset_2", domain.OrderSideBuy, dec("1"))
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestFacade_ExecuteMarketOrderInsufficientSupply(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("3001"))
	var supplyErr *domain.InsufficientSupplyError
	require.ErrorAs(t, err, &supplyErr)
	assert.ErrorIs(t, f.LastError(), err)
}

func TestFacade_EventsPublished(t *testing.T) {
	f := newTestFacade(t)
	sub := f.Subscribe(8)
	defer f.Unsubscribe(sub)

	order, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "1", "5200"))
	require.NoError(t, err)

	evt := <-sub.C
	assert.Equal(t, domain.EventOrderCreated, evt.Type)
	require.NotNil(t, evt.Order)
	assert.Equal(t, order.ID, evt.Order.ID)

	_, err = f.CancelOrder("alice", order.ID)
	require.NoError(t, err)
	evt = <-sub.C
	assert.Equal(t, domain.EventOrderCancelled, evt.Type)

	_, err = f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("1"))
	require.NoError(t, err)
	evt = <-sub.C
	assert.Equal(t, domain.EventTradeExecuted, evt.Type)
	assert.NotNil(t, evt.Trade)
}

func TestFacade_EventsCarrySnapshots(t *testing.T) {
	f := newTestFacade(t)
	sub := f.Subscribe(8)
	defer f.Unsubscribe(sub)

	order, err := f.CreateOrder("alice", limitDraft("asset_1", "buy", "1", "5200"))
	require.NoError(t, err)
	createdEvt := <-sub.C

	// Cancelling mutates the stored record; the already-published event
	// must keep the state it was published with.
	_, err = f.CancelOrder("alice", order.ID)
	require.NoError(t, err)
	<-sub.C

	assert.Equal(t, domain.OrderStatusPending, createdEvt.Order.Status)

	trade, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("1"))
	require.NoError(t, err)
	<-sub.C

	escrow, err := f.CreateEscrow("alice", trade.ID)
	require.NoError(t, err)
	escrowEvt := <-sub.C

	_, err = f.ReleaseEscrow("alice", escrow.ID)
	require.NoError(t, err)
	<-sub.C

	assert.Equal(t, domain.EscrowStatusCreated, escrowEvt.Escrow.Status)
	assert.Len(t, escrowEvt.Escrow.Timeline, 1)
}

func TestFacade_EscrowFlow(t *testing.T) {
	f := newTestFacade(t)
	trade, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("5"))
	require.NoError(t, err)

	escrow, err := f.CreateEscrow("alice", trade.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusCreated, escrow.Status)

	funded, err := f.FundEscrow("alice", escrow.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusFunded, funded.Status)

	released, err := f.ReleaseEscrow("alice", escrow.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusReleased, released.Status)

	active, err := f.LoadActiveEscrows("alice")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestFacade_EscrowHiddenFromNonParty(t *testing.T) {
	f := newTestFacade(t)
	trade, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("5"))
	require.NoError(t, err)

	_, err = f.CreateEscrow("mallory", trade.ID)
	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)

	escrow, err := f.CreateEscrow("alice", trade.ID)
	require.NoError(t, err)

	_, err = f.FundEscrow("mallory", escrow.ID)
	require.ErrorAs(t, err, &nfErr)
	_, err = f.DisputeEscrow("mallory", escrow.ID, "not mine")
	require.ErrorAs(t, err, &nfErr)
}

func TestFacade_DisputeAndRefund(t *testing.T) {
	f := newTestFacade(t)
	trade, err := f.ExecuteMarketOrder("alice", "asset_2", domain.OrderSideBuy, dec("5"))
	require.NoError(t, err)
	escrow, err := f.CreateEscrow("alice", trade.ID)
	require.NoError(t, err)

	disputed, err := f.DisputeEscrow("alice", escrow.ID, "wrong quantity delivered")
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusDisputed, disputed.Status)

	refunded, err := f.RefundEscrow("alice", escrow.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowStatusRefunded, refunded.Status)
}

func TestFacade_NotifyOrderExpiredPublishes(t *testing.T) {
	f := newTestFacade(t)
	sub := f.Subscribe(1)
	defer f.Unsubscribe(sub)

	order := &domain.Order{ID: "ord_1", AssetID: "asset_1", OwnerID: "alice", Status: domain.OrderStatusExpired}
	f.NotifyOrderExpired(order)

	evt := <-sub.C
	assert.Equal(t, domain.EventOrderExpired, evt.Type)
	assert.Equal(t, "ord_1", evt.Order.ID)
}
