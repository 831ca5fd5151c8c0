package service

import (
	"fmt"
	"time"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/store"
)

// Escrow lifecycle defaults.
const (
	DefaultEscrowWindow  = 7 * 24 * time.Hour
	DefaultDisputeWindow = 48 * time.Hour
)

// EscrowConfig sets the window and default release conditions applied
// to new escrows.
type EscrowConfig struct {
	Window           time.Duration
	DisputeWindow    time.Duration
	AutoRelease      bool
	RequiresApproval bool
}

// DefaultEscrowConfig mirrors the platform defaults: auto-release on, no
// approval required, 7-day window, 48-hour dispute window.
func DefaultEscrowConfig() EscrowConfig {
	return EscrowConfig{
		Window:           DefaultEscrowWindow,
		DisputeWindow:    DefaultDisputeWindow,
		AutoRelease:      true,
		RequiresApproval: false,
	}
}

// EscrowManager owns escrow records and their lifecycle:
//
//	created → funded → released
//	created/funded → disputed → refunded
//	any pre-terminal state → expired once past the window
//
// Every transition appends its timeline event in the same critical
// section as the status change, so the timeline is always a truthful
// audit trail. Illegal transitions fail with an InvalidStateError
// naming the attempted transition and the current state.
type EscrowManager struct {
	escrows *store.EscrowStore
	trades  *store.TradeStore
	cfg     EscrowConfig
	now     func() time.Time
}

// NewEscrowManager creates an EscrowManager. Zero durations in cfg fall
// back to the platform defaults.
func NewEscrowManager(escrows *store.EscrowStore, trades *store.TradeStore, cfg EscrowConfig) *EscrowManager {
	if cfg.Window <= 0 {
		cfg.Window = DefaultEscrowWindow
	}
	if cfg.DisputeWindow <= 0 {
		cfg.DisputeWindow = DefaultDisputeWindow
	}
	return &EscrowManager{
		escrows: escrows,
		trades:  trades,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetClock replaces the manager's time source. Test hook.
func (m *EscrowManager) SetClock(now func() time.Time) { m.now = now }

// Create opens an escrow for a completed trade. The trade must exist,
// be completed, and not already have an escrow.
func (m *EscrowManager) Create(tradeID, actor string) (*domain.Escrow, error) {
	trade, err := m.trades.Get(tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status != domain.TradeStatusCompleted {
		return nil, &domain.InvalidStateError{
			Entity:    "trade",
			ID:        tradeID,
			Attempted: "create escrow",
			Current:   string(trade.Status),
		}
	}
	now := m.now()
	escrow := &domain.Escrow{
		ID:       domain.NewEscrowID(),
		TradeID:  trade.ID,
		AssetID:  trade.AssetID,
		Quantity: trade.Quantity,
		Value:    trade.TotalValue,
		BuyerID:  trade.BuyerID,
		SellerID: trade.SellerID,
		Status:   domain.EscrowStatusCreated,
		Conditions: domain.ReleaseConditions{
			AutoRelease:      m.cfg.AutoRelease,
			RequiresApproval: m.cfg.RequiresApproval,
			DisputeWindow:    m.cfg.DisputeWindow,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Window),
		Timeline: []domain.EscrowEvent{{
			ID:        domain.NewEventID(),
			Type:      domain.EscrowEventCreated,
			Timestamp: now,
			Actor:     actor,
			Detail:    fmt.Sprintf("escrow opened for trade %s", trade.ID),
		}},
	}

	// The attach is the duplicate guard: it reserves the trade under the
	// trade store's lock before the escrow record becomes visible, so
	// concurrent creates for one trade produce exactly one escrow.
	if err := m.trades.AttachEscrow(trade.ID, escrow.ID); err != nil {
		return nil, err
	}
	m.escrows.Create(escrow)
	return escrow, nil
}

// Fund marks the escrow's value as received.
func (m *EscrowManager) Fund(escrowID, actor string) (*domain.Escrow, error) {
	return m.transition(escrowID, actor, "fund",
		[]domain.EscrowStatus{domain.EscrowStatusCreated},
		domain.EscrowStatusFunded, domain.EscrowEventFunded,
		"escrow funded")
}

// Release resolves the escrow in favor of the counterparties. Allowed
// only from created or funded.
func (m *EscrowManager) Release(escrowID, actor string) (*domain.Escrow, error) {
	return m.transition(escrowID, actor, "release",
		[]domain.EscrowStatus{domain.EscrowStatusCreated, domain.EscrowStatusFunded},
		domain.EscrowStatusReleased, domain.EscrowEventReleased,
		"escrow released to counterparties")
}

// Dispute freezes the escrow pending resolution.
func (m *EscrowManager) Dispute(escrowID, actor, reason string) (*domain.Escrow, error) {
	detail := "dispute raised"
	if reason != "" {
		detail = "dispute raised: " + reason
	}
	return m.transition(escrowID, actor, "dispute",
		[]domain.EscrowStatus{domain.EscrowStatusCreated, domain.EscrowStatusFunded},
		domain.EscrowStatusDisputed, domain.EscrowEventDisputed,
		detail)
}

// Refund resolves a disputed escrow back to the buyer.
func (m *EscrowManager) Refund(escrowID, actor string) (*domain.Escrow, error) {
	return m.transition(escrowID, actor, "refund",
		[]domain.EscrowStatus{domain.EscrowStatusDisputed},
		domain.EscrowStatusRefunded, domain.EscrowEventRefunded,
		"escrow refunded to buyer")
}

// Get retrieves an escrow by ID.
func (m *EscrowManager) Get(escrowID string) (*domain.Escrow, error) {
	return m.escrows.Get(escrowID)
}

// ListActive returns the non-terminal escrows a party is involved in.
func (m *EscrowManager) ListActive(partyID string) []*domain.Escrow {
	return m.escrows.ListActive(partyID)
}

// transition applies one lifecycle step. The timeline event is appended
// before the status is set, inside the store's critical section.
func (m *EscrowManager) transition(
	escrowID, actor, attempted string,
	allowed []domain.EscrowStatus,
	next domain.EscrowStatus,
	eventType domain.EscrowEventType,
	detail string,
) (*domain.Escrow, error) {
	return m.escrows.Mutate(escrowID, func(e *domain.Escrow) error {
		ok := false
		for _, status := range allowed {
			if e.Status == status {
				ok = true
				break
			}
		}
		if !ok {
			return &domain.InvalidStateError{
				Entity:    "escrow",
				ID:        escrowID,
				Attempted: attempted,
				Current:   string(e.Status),
			}
		}
		e.Timeline = append(e.Timeline, domain.EscrowEvent{
			ID:        domain.NewEventID(),
			Type:      eventType,
			Timestamp: m.now(),
			Actor:     actor,
			Detail:    detail,
		})
		e.Status = next
		return nil
	})
}
