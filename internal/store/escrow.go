package store

import (
	"sync"
	"time"

	"github.com/assetra/tradecore/internal/domain"
)

// EscrowStore holds escrow records and their append-only timelines.
// Status transitions run through Mutate so the timeline event and the
// status change are applied under one critical section; a reader never
// observes a status whose event is not yet on the timeline.
//
// Like orders, escrow expiry is evaluated lazily on every read path.
type EscrowStore struct {
	mu      sync.Mutex
	escrows map[string]*domain.Escrow
	byParty map[string][]*domain.Escrow
	seq     []*domain.Escrow
	now     func() time.Time
}

// NewEscrowStore creates an empty EscrowStore using the wall clock.
func NewEscrowStore() *EscrowStore {
	return &EscrowStore{
		escrows: make(map[string]*domain.Escrow),
		byParty: make(map[string][]*domain.Escrow),
		now:     time.Now,
	}
}

// SetClock replaces the store's time source. Test hook.
func (s *EscrowStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create adds an escrow to the store and to each party's index.
func (s *EscrowStore) Create(e *domain.Escrow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.escrows[e.ID] = e
	s.byParty[e.BuyerID] = append(s.byParty[e.BuyerID], e)
	if e.SellerID != e.BuyerID {
		s.byParty[e.SellerID] = append(s.byParty[e.SellerID], e)
	}
	s.seq = append(s.seq, e)
}

// Get retrieves an escrow by ID with the expiry rule applied. It
// returns a NotFoundError if the escrow does not exist.
func (s *EscrowStore) Get(id string) (*domain.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "escrow", ID: id}
	}
	s.applyExpiry(e)
	return e, nil
}

// Mutate runs fn against the escrow under the store lock, after the
// expiry rule has been applied. If fn returns an error no change is
// visible to other readers.
func (s *EscrowStore) Mutate(id string, fn func(*domain.Escrow) error) (*domain.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "escrow", ID: id}
	}
	s.applyExpiry(e)
	if err := fn(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListActive returns the non-terminal escrows a party is involved in,
// in creation order. An empty partyID matches all escrows.
func (s *EscrowStore) ListActive(partyID string) []*domain.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.seq
	if partyID != "" {
		src = s.byParty[partyID]
	}

	out := make([]*domain.Escrow, 0, len(src))
	for _, e := range src {
		s.applyExpiry(e)
		if e.Terminal() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// applyExpiry resolves an escrow past its window: auto-release sends it
// to released, otherwise it lands in the terminal expired state. The
// transition is recorded on the timeline first, pinned to the expiry
// instant. Caller must hold s.mu.
func (s *EscrowStore) applyExpiry(e *domain.Escrow) {
	if !e.ExpiredBy(s.now()) {
		return
	}
	next := domain.EscrowStatusExpired
	eventType := domain.EscrowEventExpired
	detail := "escrow window elapsed without resolution"
	if e.Conditions.AutoRelease && (e.Status == domain.EscrowStatusCreated || e.Status == domain.EscrowStatusFunded) {
		next = domain.EscrowStatusReleased
		eventType = domain.EscrowEventReleased
		detail = "auto-released after escrow window"
	}
	e.Timeline = append(e.Timeline, domain.EscrowEvent{
		ID:        domain.NewEventID(),
		Type:      eventType,
		Timestamp: e.ExpiresAt,
		Actor:     "system",
		Detail:    detail,
	})
	e.Status = next
}

// Snapshot returns deep copies of all escrows in creation order.
func (s *EscrowStore) Snapshot() []*domain.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Escrow, 0, len(s.seq))
	for _, e := range s.seq {
		cp := *e
		cp.Timeline = make([]domain.EscrowEvent, len(e.Timeline))
		copy(cp.Timeline, e.Timeline)
		out = append(out, &cp)
	}
	return out
}

// Restore replaces the store contents with the given escrows,
// rebuilding the party index. The slice order is taken as the creation
// sequence.
func (s *EscrowStore) Restore(escrows []*domain.Escrow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.escrows = make(map[string]*domain.Escrow, len(escrows))
	s.byParty = make(map[string][]*domain.Escrow)
	s.seq = make([]*domain.Escrow, 0, len(escrows))
	for _, e := range escrows {
		s.escrows[e.ID] = e
		s.byParty[e.BuyerID] = append(s.byParty[e.BuyerID], e)
		if e.SellerID != e.BuyerID {
			s.byParty[e.SellerID] = append(s.byParty[e.SellerID], e)
		}
		s.seq = append(s.seq, e)
	}
}
