package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/assetra/tradecore/internal/domain"
)

// Snapshot is a JSON-serializable image of the order, trade, and escrow
// collections. Snapshots round-trip through save and load without loss.
type Snapshot struct {
	Orders  []*domain.Order  `json:"orders"`
	Trades  []*domain.Trade  `json:"trades"`
	Escrows []*domain.Escrow `json:"escrows"`
	TakenAt time.Time        `json:"taken_at"`
}

// Fixed keys under which each collection is persisted.
var (
	keyOrders  = []byte("snap:orders")
	keyTrades  = []byte("snap:trades")
	keyEscrows = []byte("snap:escrows")
	keyTakenAt = []byte("snap:taken_at")
)

// SnapshotStore persists snapshots to a pebble key-value database. The
// persisted image is never the source of truth; the in-memory stores
// are, and a snapshot is just their latest mirror.
type SnapshotStore struct {
	db *pebble.DB
}

// OpenSnapshotStore opens (or creates) the snapshot database at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error { return s.db.Close() }

// Save writes the snapshot. The three collections and the timestamp go
// into one batch so a snapshot is committed whole or not at all.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	sets := []struct {
		key []byte
		val any
	}{
		{keyOrders, snap.Orders},
		{keyTrades, snap.Trades},
		{keyEscrows, snap.Escrows},
		{keyTakenAt, snap.TakenAt},
	}
	for _, kv := range sets {
		data, err := json.Marshal(kv.val)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kv.key, err)
		}
		if err := batch.Set(kv.key, data, nil); err != nil {
			return fmt.Errorf("set %s: %w", kv.key, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the latest snapshot. It returns (nil, nil) when no
// snapshot has ever been saved.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	snap := &Snapshot{}

	found, err := s.get(keyOrders, &snap.Orders)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if _, err := s.get(keyTrades, &snap.Trades); err != nil {
		return nil, err
	}
	if _, err := s.get(keyEscrows, &snap.Escrows); err != nil {
		return nil, err
	}
	if _, err := s.get(keyTakenAt, &snap.TakenAt); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) get(key []byte, out any) (bool, error) {
	data, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
