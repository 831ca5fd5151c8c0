package store

import (
	"sync"
	"time"

	"github.com/assetra/tradecore/internal/domain"
)

// OrderStore owns the set of orders and is the only writer of order
// status. It keeps a primary index by order ID, a secondary index by
// owner, and the global creation sequence for stable listing.
//
// Expiry is evaluated lazily: any read path first applies the expiry
// rule against the store clock, so an order past its expiry is observed
// as expired no matter which accessor sees it first.
type OrderStore struct {
	mu          sync.Mutex
	orders      map[string]*domain.Order
	ownerOrders map[string][]*domain.Order
	seq         []*domain.Order // creation order
	now         func() time.Time
}

// NewOrderStore creates an empty OrderStore using the wall clock.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:      make(map[string]*domain.Order),
		ownerOrders: make(map[string][]*domain.Order),
		now:         time.Now,
	}
}

// SetClock replaces the store's time source. Test hook.
func (s *OrderStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create adds an order to the store and appends it to the owner's
// secondary index and the global creation sequence.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.ownerOrders[o.OwnerID] = append(s.ownerOrders[o.OwnerID], o)
	s.seq = append(s.seq, o)
}

// Get retrieves an order by ID with the expiry rule applied. It returns
// a NotFoundError if the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	s.applyExpiry(o)
	return o, nil
}

// Cancel transitions a pending or partially filled order to cancelled.
// It returns a NotFoundError for unknown IDs and an InvalidStateError
// when the order is already in a terminal state. No partial-fill amount
// is reverted; the remaining quantity simply stops being fillable.
func (s *OrderStore) Cancel(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	s.applyExpiry(o)
	if !o.Open() {
		return nil, &domain.InvalidStateError{
			Entity:    "order",
			ID:        id,
			Attempted: "cancel",
			Current:   string(o.Status),
		}
	}

	o.Status = domain.OrderStatusCancelled
	o.UpdatedAt = s.now()
	return o, nil
}

// List returns orders in creation order. An empty ownerID matches all
// owners; a nil status matches all statuses.
func (s *OrderStore) List(ownerID string, status *domain.OrderStatus) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.seq
	if ownerID != "" {
		src = s.ownerOrders[ownerID]
	}

	out := make([]*domain.Order, 0, len(src))
	for _, o := range src {
		s.applyExpiry(o)
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	return out
}

// OpenLimitByAsset returns the open (pending or partially filled) limit
// orders for one asset, in creation order. This is the input set for
// order book aggregation.
func (s *OrderStore) OpenLimitByAsset(assetID string) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Order
	for _, o := range s.seq {
		s.applyExpiry(o)
		if o.AssetID != assetID || o.Kind != domain.OrderKindLimit || !o.Open() {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ExpireDue applies the expiry rule to every open order and returns the
// orders that expired in this pass. Used by the scheduled sweeper; the
// lazy read-time evaluation above remains authoritative without it.
func (s *OrderStore) ExpireDue() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*domain.Order
	for _, o := range s.seq {
		if o.ExpiredBy(s.now()) {
			s.applyExpiry(o)
			expired = append(expired, o)
		}
	}
	return expired
}

// applyExpiry transitions an order past its expiry with unfilled
// quantity to expired. UpdatedAt is pinned to the expiry timestamp so
// two reads at different instants report the same transition time.
// Caller must hold s.mu.
func (s *OrderStore) applyExpiry(o *domain.Order) {
	if o.ExpiredBy(s.now()) {
		o.Status = domain.OrderStatusExpired
		o.UpdatedAt = *o.ExpiresAt
	}
}

// Snapshot returns deep copies of all orders in creation order, for
// persistence.
func (s *OrderStore) Snapshot() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Order, 0, len(s.seq))
	for _, o := range s.seq {
		cp := *o
		if o.ExpiresAt != nil {
			t := *o.ExpiresAt
			cp.ExpiresAt = &t
		}
		out = append(out, &cp)
	}
	return out
}

// Restore replaces the store contents with the given orders, rebuilding
// both indexes. The slice order is taken as the creation sequence.
func (s *OrderStore) Restore(orders []*domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[string]*domain.Order, len(orders))
	s.ownerOrders = make(map[string][]*domain.Order)
	s.seq = make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		s.orders[o.ID] = o
		s.ownerOrders[o.OwnerID] = append(s.ownerOrders[o.OwnerID], o)
		s.seq = append(s.seq, o)
	}
}
