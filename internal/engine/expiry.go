package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/assetra/tradecore/internal/domain"
	"github.com/assetra/tradecore/internal/store"
)

// Sweeper periodically forces the order store's expiry rule so expired
// orders surface (and notify listeners) without waiting for a read.
// Correctness never depends on the sweep: the store applies the same
// rule lazily on every read path.
type Sweeper struct {
	interval  time.Duration
	orders    *store.OrderStore
	onExpired func(*domain.Order)
	log       *zap.Logger
}

// NewSweeper creates a Sweeper. onExpired may be nil.
func NewSweeper(interval time.Duration, orders *store.OrderStore, onExpired func(*domain.Order), log *zap.Logger) *Sweeper {
	return &Sweeper{
		interval:  interval,
		orders:    orders,
		onExpired: onExpired,
		log:       log,
	}
}

// Start launches the sweep loop in a goroutine. It stops when ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep runs one expiry pass and returns the number of orders expired.
func (s *Sweeper) Sweep() int {
	expired := s.orders.ExpireDue()
	for _, o := range expired {
		s.log.Info("order expired",
			zap.String("order_id", o.ID),
			zap.String("asset_id", o.AssetID),
			zap.String("owner_id", o.OwnerID),
		)
		if s.onExpired != nil {
			s.onExpired(o)
		}
	}
	return len(expired)
}
