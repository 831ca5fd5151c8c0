package store

import (
	"sync"

	"github.com/assetra/tradecore/internal/domain"
)

// TradeStore is an append-only store of trade executions with secondary
// indexes by user (buyer and seller) and by asset.
type TradeStore struct {
	mu      sync.RWMutex
	trades  []*domain.Trade
	byID    map[string]*domain.Trade
	byUser  map[string][]*domain.Trade
	byAsset map[string][]*domain.Trade
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byID:    make(map[string]*domain.Trade),
		byUser:  make(map[string][]*domain.Trade),
		byAsset: make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to the global history and to each counterparty's
// personal list. A self-trade is indexed once.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, t)
	s.byID[t.ID] = t
	s.byUser[t.BuyerID] = append(s.byUser[t.BuyerID], t)
	if t.SellerID != t.BuyerID {
		s.byUser[t.SellerID] = append(s.byUser[t.SellerID], t)
	}
	s.byAsset[t.AssetID] = append(s.byAsset[t.AssetID], t)
}

// Get retrieves a trade by ID. It returns a NotFoundError if the trade
// does not exist.
func (s *TradeStore) Get(id string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "trade", ID: id}
	}
	return t, nil
}

// AttachEscrow records the escrow created for a trade. A trade takes at
// most one escrow: the check and the set share the store lock, so
// concurrent attachers get exactly one winner.
func (s *TradeStore) AttachEscrow(tradeID, escrowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[tradeID]
	if !ok {
		return &domain.NotFoundError{Entity: "trade", ID: tradeID}
	}
	if t.EscrowID != "" {
		return &domain.InvalidStateError{
			Entity:    "trade",
			ID:        tradeID,
			Attempted: "attach escrow",
			Current:   "escrowed",
		}
	}
	t.EscrowID = escrowID
	return nil
}

// ListAll returns the global trade history in execution order.
func (s *TradeStore) ListAll() []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// ListByUser returns the trades a user participated in, in execution order.
func (s *TradeStore) ListByUser(userID string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.byUser[userID]
	out := make([]*domain.Trade, len(src))
	copy(out, src)
	return out
}

// ListByAsset returns the trades for an asset, in execution order.
func (s *TradeStore) ListByAsset(assetID string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.byAsset[assetID]
	out := make([]*domain.Trade, len(src))
	copy(out, src)
	return out
}

// LastByAsset returns the most recent completed trade for an asset, or
// false when the asset has never traded.
func (s *TradeStore) LastByAsset(assetID string) (*domain.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.byAsset[assetID]
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].Status == domain.TradeStatusCompleted {
			return trades[i], true
		}
	}
	return nil, false
}

// Snapshot returns deep copies of all trades in execution order.
func (s *TradeStore) Snapshot() []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		cp := *t
		if t.SettledAt != nil {
			at := *t.SettledAt
			cp.SettledAt = &at
		}
		out = append(out, &cp)
	}
	return out
}

// Restore replaces the store contents with the given trades, rebuilding
// all indexes. The slice order is taken as the execution sequence.
func (s *TradeStore) Restore(trades []*domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = make([]*domain.Trade, 0, len(trades))
	s.byID = make(map[string]*domain.Trade, len(trades))
	s.byUser = make(map[string][]*domain.Trade)
	s.byAsset = make(map[string][]*domain.Trade)
	for _, t := range trades {
		s.trades = append(s.trades, t)
		s.byID[t.ID] = t
		s.byUser[t.BuyerID] = append(s.byUser[t.BuyerID], t)
		if t.SellerID != t.BuyerID {
			s.byUser[t.SellerID] = append(s.byUser[t.SellerID], t)
		}
		s.byAsset[t.AssetID] = append(s.byAsset[t.AssetID], t)
	}
}
