package service

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/engine"
	"github.com/assetra/tradecore/internal/store"
)

// OrderDraft is the caller's input for order creation. Price is
// required for limit orders; for market orders it is taken from the
// asset's current reference price at call time (no live re-quote).
type OrderDraft struct {
	AssetID   string
	Side      domain.OrderSide
	Kind      domain.OrderKind
	Quantity  decimal.Decimal
	Price     *decimal.Decimal
	ExpiresAt *time.Time
}

// Facade is the single entry point the UI layer talks to. It wraps the
// stores, the executor, and the escrow manager, drives the loading
// flag, and captures failures into a single current-error slot.
//
// The error slot is last-wins: when operations overlap, the most recent
// failure overwrites earlier ones and no queue is kept. Callers that
// need per-operation errors must use the returned error, not LastError.
type Facade struct {
	assets   *store.AssetStore
	orders   *store.OrderStore
	trades   *store.TradeStore
	executor *engine.Executor
	escrows  *EscrowManager

	mu      sync.Mutex
	loading bool
	lastErr error

	events    *hub
	bookDepth int
	log       *zap.Logger
	now       func() time.Time
}

// NewFacade wires a Facade. bookDepth limits order book levels per
// side; 0 means unlimited.
func NewFacade(
	assets *store.AssetStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	executor *engine.Executor,
	escrows *EscrowManager,
	bookDepth int,
	log *zap.Logger,
) *Facade {
	return &Facade{
		assets:    assets,
		orders:    orders,
		trades:    trades,
		executor:  executor,
		escrows:   escrows,
		events:    newHub(),
		bookDepth: bookDepth,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the facade's time source. Test hook.
func (f *Facade) SetClock(now func() time.Time) { f.now = now }

// Loading reports whether an operation is currently in flight.
func (f *Facade) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// LastError returns the current error slot, nil after a clean run.
func (f *Facade) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Subscribe registers a listener for facade events. Unsubscribe closes
// the channel.
func (f *Facade) Subscribe(buffer int) *Subscription {
	return f.events.subscribe(buffer)
}

// Unsubscribe removes a listener and closes its channel.
func (f *Facade) Unsubscribe(sub *Subscription) {
	f.events.unsubscribe(sub)
}

func (f *Facade) begin() {
	f.mu.Lock()
	f.loading = true
	f.lastErr = nil
	f.mu.Unlock()
}

func (f *Facade) finish(op string, err error) {
	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.lastErr = err
	}
	f.mu.Unlock()
	if err != nil {
		f.log.Warn("operation failed", zap.String("op", op), zap.Error(err))
	}
}

// publish hands an event to subscribers. Payloads must be clones:
// subscribers marshal them outside the store locks, so they never see a
// record the stores may still mutate.
func (f *Facade) publish(evt domain.Event) {
	f.events.broadcast(evt)
}

// NotifyOrderExpired publishes an expiry event for an order the sweeper
// transitioned. Wired as the sweeper's callback.
func (f *Facade) NotifyOrderExpired(o *domain.Order) {
	f.publish(domain.Event{Type: domain.EventOrderExpired, At: f.now(), Order: o.Clone()})
}

// LoadAssets returns all tradeable assets.
func (f *Facade) LoadAssets() ([]*domain.Asset, error) {
	f.begin()
	defer f.finish("load_assets", nil)
	return f.assets.List(), nil
}

// LoadAssetDetails returns a single asset's reference data.
func (f *Facade) LoadAssetDetails(assetID string) (asset *domain.Asset, err error) {
	f.begin()
	defer func() { f.finish("load_asset_details", err) }()

	return f.assets.Get(assetID)
}

// CreateOrder validates the draft, prices market orders from the
// asset's current reference price, computes fees, and records the
// order as pending.
func (f *Facade) CreateOrder(principal string, draft OrderDraft) (order *domain.Order, err error) {
	f.begin()
	defer func() { f.finish("create_order", err) }()

	if principal == "" {
		return nil, &domain.ValidationError{Message: "principal is required"}
	}
	if draft.Side != domain.OrderSideBuy && draft.Side != domain.OrderSideSell {
		return nil, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if draft.Kind != domain.OrderKindLimit && draft.Kind != domain.OrderKindMarket {
		return nil, &domain.ValidationError{Message: "kind must be 'limit' or 'market'"}
	}
	if !draft.Quantity.IsPositive() {
		return nil, &domain.ValidationError{Message: "quantity must be greater than 0"}
	}

	asset, err := f.assets.Get(draft.AssetID)
	if err != nil {
		return nil, err
	}

	var price decimal.Decimal
	switch draft.Kind {
	case domain.OrderKindLimit:
		if draft.Price == nil || !draft.Price.IsPositive() {
			return nil, &domain.ValidationError{Message: "price must be greater than 0 for limit orders"}
		}
		price = *draft.Price
	case domain.OrderKindMarket:
		price = asset.CurrentPrice
	}
	if draft.ExpiresAt != nil && !draft.ExpiresAt.After(f.now()) {
		return nil, &domain.ValidationError{Message: "expires_at must be a future timestamp"}
	}

	now := f.now()
	order = &domain.Order{
		ID:                domain.NewOrderID(),
		AssetID:           asset.ID,
		OwnerID:           principal,
		Side:              draft.Side,
		Kind:              draft.Kind,
		Quantity:          draft.Quantity,
		Price:             price,
		TotalValue:        draft.Quantity.Mul(price),
		Status:            domain.OrderStatusPending,
		FilledQuantity:    decimal.Zero,
		RemainingQuantity: draft.Quantity,
		Fees:              domain.ComputeFees(draft.Quantity, price, draft.Side),
		CreatedAt:         now,
		UpdatedAt:         now,
		ExpiresAt:         draft.ExpiresAt,
	}
	f.orders.Create(order)

	f.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("asset_id", order.AssetID),
		zap.String("side", string(order.Side)),
		zap.String("kind", string(order.Kind)),
	)
	f.publish(domain.Event{Type: domain.EventOrderCreated, At: now, Order: order.Clone()})
	return order, nil
}

// CancelOrder cancels one of the principal's open orders.
func (f *Facade) CancelOrder(principal, orderID string) (order *domain.Order, err error) {
	f.begin()
	defer func() { f.finish("cancel_order", err) }()

	existing, err := f.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != principal {
		return nil, &domain.NotFoundError{Entity: "order", ID: orderID}
	}

	order, err = f.orders.Cancel(orderID)
	if err != nil {
		return nil, err
	}

	f.log.Info("order cancelled", zap.String("order_id", order.ID))
	f.publish(domain.Event{Type: domain.EventOrderCancelled, At: f.now(), Order: order.Clone()})
	return order, nil
}

// LoadUserOrders returns the principal's orders in creation order,
// optionally filtered by status.
func (f *Facade) LoadUserOrders(principal string, status *domain.OrderStatus) ([]*domain.Order, error) {
	f.begin()
	defer f.finish("load_user_orders", nil)

	return f.orders.List(principal, status), nil
}

// LoadOrderBook recomputes the derived bid/ask view from the current
// open order set. It holds no state of its own.
func (f *Facade) LoadOrderBook(assetID string) (book *engine.Book, err error) {
	f.begin()
	defer func() { f.finish("load_order_book", err) }()

	asset, err := f.assets.Get(assetID)
	if err != nil {
		return nil, err
	}
	open := f.orders.OpenLimitByAsset(assetID)
	last, _ := f.trades.LastByAsset(assetID)
	return engine.BuildBook(asset, open, last, f.bookDepth, f.now()), nil
}

// ExecuteMarketOrder fills a market intent through the executor.
func (f *Facade) ExecuteMarketOrder(principal, assetID string, side domain.OrderSide, quantity decimal.Decimal) (trade *domain.Trade, err error) {
	f.begin()
	defer func() { f.finish("execute_market_order", err) }()

	if principal == "" {
		return nil, &domain.ValidationError{Message: "principal is required"}
	}
	trade, err = f.executor.ExecuteMarketOrder(assetID, side, quantity, principal)
	if err != nil {
		return nil, err
	}

	f.log.Info("market order executed",
		zap.String("trade_id", trade.ID),
		zap.String("asset_id", trade.AssetID),
		zap.String("side", string(side)),
	)
	f.publish(domain.Event{Type: domain.EventTradeExecuted, At: f.now(), Trade: trade.Clone()})
	return trade, nil
}

// LoadTradeHistory returns the trade history, globally or for one
// asset.
func (f *Facade) LoadTradeHistory(assetID string) ([]*domain.Trade, error) {
	f.begin()
	defer f.finish("load_trade_history", nil)

	if assetID == "" {
		return f.trades.ListAll(), nil
	}
	return f.trades.ListByAsset(assetID), nil
}

// LoadUserTrades returns the trades the principal participated in.
func (f *Facade) LoadUserTrades(principal string) ([]*domain.Trade, error) {
	f.begin()
	defer f.finish("load_user_trades", nil)

	return f.trades.ListByUser(principal), nil
}

// LoadUserPositions folds the principal's trades into per-asset
// positions valued at current reference prices.
func (f *Facade) LoadUserPositions(principal string) ([]Position, error) {
	f.begin()
	defer f.finish("load_user_positions", nil)

	return buildPositions(principal, f.trades.ListByUser(principal), f.assets), nil
}

// LoadMarketStats summarizes the last 24 hours of trading for one
// asset, falling back to asset reference data when it has not traded.
func (f *Facade) LoadMarketStats(assetID string) (stats *MarketStats, err error) {
	f.begin()
	defer func() { f.finish("load_market_stats", err) }()

	asset, err := f.assets.Get(assetID)
	if err != nil {
		return nil, err
	}
	return buildMarketStats(asset, f.trades.ListByAsset(assetID), f.now()), nil
}

// LoadActiveEscrows returns the principal's non-terminal escrows.
func (f *Facade) LoadActiveEscrows(principal string) ([]*domain.Escrow, error) {
	f.begin()
	defer f.finish("load_active_escrows", nil)

	return f.escrows.ListActive(principal), nil
}

// CreateEscrow opens an escrow for a completed trade the principal is
// party to.
func (f *Facade) CreateEscrow(principal, tradeID string) (escrow *domain.Escrow, err error) {
	f.begin()
	defer func() { f.finish("create_escrow", err) }()

	trade, err := f.trades.Get(tradeID)
	if err != nil {
		return nil, err
	}
	if trade.BuyerID != principal && trade.SellerID != principal {
		return nil, &domain.NotFoundError{Entity: "trade", ID: tradeID}
	}

	escrow, err = f.escrows.Create(tradeID, principal)
	if err != nil {
		return nil, err
	}
	f.publish(domain.Event{Type: domain.EventEscrowCreated, At: f.now(), Escrow: escrow.Clone()})
	return escrow, nil
}

// FundEscrow marks an escrow as funded.
func (f *Facade) FundEscrow(principal, escrowID string) (escrow *domain.Escrow, err error) {
	f.begin()
	defer func() { f.finish("fund_escrow", err) }()

	escrow, err = f.escrowOp(principal, escrowID, f.escrows.Fund)
	if err != nil {
		return nil, err
	}
	f.publish(domain.Event{Type: domain.EventEscrowFunded, At: f.now(), Escrow: escrow.Clone()})
	return escrow, nil
}

// ReleaseEscrow resolves an escrow in favor of the counterparties.
func (f *Facade) ReleaseEscrow(principal, escrowID string) (escrow *domain.Escrow, err error) {
	f.begin()
	defer func() { f.finish("release_escrow", err) }()

	escrow, err = f.escrowOp(principal, escrowID, f.escrows.Release)
	if err != nil {
		return nil, err
	}
	f.publish(domain.Event{Type: domain.EventEscrowReleased, At: f.now(), Escrow: escrow.Clone()})
	return escrow, nil
}

// DisputeEscrow freezes an escrow pending resolution.
func (f *Facade) DisputeEscrow(principal, escrowID, reason string) (escrow *domain.Escrow, err error) {
	f.begin()
	defer func() { f.finish("dispute_escrow", err) }()

	if err := f.requireParty(principal, escrowID); err != nil {
		return nil, err
	}
	escrow, err = f.escrows.Dispute(escrowID, principal, reason)
	if err != nil {
		return nil, err
	}
	f.publish(domain.Event{Type: domain.EventEscrowDisputed, At: f.now(), Escrow: escrow.Clone()})
	return escrow, nil
}

// RefundEscrow resolves a disputed escrow back to the buyer.
func (f *Facade) RefundEscrow(principal, escrowID string) (escrow *domain.Escrow, err error) {
	f.begin()
	defer func() { f.finish("refund_escrow", err) }()

	escrow, err = f.escrowOp(principal, escrowID, f.escrows.Refund)
	if err != nil {
		return nil, err
	}
	f.publish(domain.Event{Type: domain.EventEscrowRefunded, At: f.now(), Escrow: escrow.Clone()})
	return escrow, nil
}

// escrowOp runs a two-argument escrow transition after the party check.
func (f *Facade) escrowOp(principal, escrowID string, op func(string, string) (*domain.Escrow, error)) (*domain.Escrow, error) {
	if err := f.requireParty(principal, escrowID); err != nil {
		return nil, err
	}
	return op(escrowID, principal)
}

// requireParty hides escrows from principals that are not a party to
// them.
func (f *Facade) requireParty(principal, escrowID string) error {
	escrow, err := f.escrows.Get(escrowID)
	if err != nil {
		return err
	}
	if escrow.BuyerID != principal && escrow.SellerID != principal {
		return &domain.NotFoundError{Entity: "escrow", ID: escrowID}
	}
	return nil
}
