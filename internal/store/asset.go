package store

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/assetra/tradecore/internal/domain"
)

// AssetStore is a thread-safe registry of tradeable assets. Reference
// data is seeded once; the only field the trading core moves afterwards
// is AvailableSupply.
type AssetStore struct {
	mu       sync.RWMutex
	assets   map[string]*domain.Asset
	bySymbol map[string]*domain.Asset
}

// NewAssetStore creates an empty AssetStore.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		assets:   make(map[string]*domain.Asset),
		bySymbol: make(map[string]*domain.Asset),
	}
}

// Seed registers assets, replacing any with the same ID. An asset whose
// available supply exceeds its total supply is clamped to the total.
func (s *AssetStore) Seed(assets []*domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assets {
		if a.AvailableSupply.GreaterThan(a.TotalSupply) {
			a.AvailableSupply = a.TotalSupply
		}
		s.assets[a.ID] = a
		s.bySymbol[a.Symbol] = a
	}
}

// Get retrieves an asset by ID. It returns domain.ErrAssetNotFound if
// the asset does not exist.
func (s *AssetStore) Get(id string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return a, nil
}

// GetBySymbol retrieves an asset by symbol.
func (s *AssetStore) GetBySymbol(symbol string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.bySymbol[symbol]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return a, nil
}

// List returns all assets ordered by symbol.
func (s *AssetStore) List() []*domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Count returns the number of registered assets.
func (s *AssetStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// AdjustAvailable moves the asset's available supply by delta (negative
// when tokens leave platform inventory on a market buy). The result is
// kept within [0, TotalSupply]; a move that would leave the range fails
// with a ValidationError rather than clamping silently.
func (s *AssetStore) AdjustAvailable(id string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	next := a.AvailableSupply.Add(delta)
	if next.IsNegative() || next.GreaterThan(a.TotalSupply) {
		return &domain.ValidationError{
			Message: "available supply adjustment out of range",
		}
	}
	a.AvailableSupply = next
	return nil
}
