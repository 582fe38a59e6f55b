package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dbt "wallet/db/db"
)

// inMemorySnapshotDBWrapper is an in-memory implementation of dbt.SnapshotDBWrapper.
type inMemorySnapshotDBWrapper struct {
	snapshots map[uuid.UUID]*dbt.Snapshot
	now       func() time.Time

	mu sync.RWMutex
}

// NewInMemorySnapshotDBWrapper creates and returns a new instance of inMemorySnapshotDBWrapper.
func NewInMemorySnapshotDBWrapper() dbt.SnapshotDBWrapper {
	return &inMemorySnapshotDBWrapper{
		snapshots: make(map[uuid.UUID]*dbt.Snapshot),
		now:       time.Now,
	}
}

// SaveSnapshot stores a copy of snapshot, replacing any previous one for the wallet.
func (db *inMemorySnapshotDBWrapper) SaveSnapshot(snapshot *dbt.Snapshot) error {
	if snapshot == nil || snapshot.WalletID == uuid.Nil {
		return fmt.Errorf("snapshot must have a wallet ID")
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	db.snapshots[snapshot.WalletID] = &dbt.Snapshot{
		WalletID:  snapshot.WalletID,
		Payload:   append([]byte(nil), snapshot.Payload...),
		UpdatedAt: db.now(),
	}
	return nil
}

// GetSnapshot returns a copy of the wallet's snapshot.
func (db *inMemorySnapshotDBWrapper) GetSnapshot(walletID uuid.UUID) (*dbt.Snapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snapshot, exists := db.snapshots[walletID]
	if !exists {
		return nil, fmt.Errorf("wallet %s: %w", walletID, dbt.ErrSnapshotNotFound)
	}
	return copySnapshot(snapshot), nil
}

// ListWallets returns every wallet with a stored snapshot, sorted by ID.
func (db *inMemorySnapshotDBWrapper) ListWallets() ([]uuid.UUID, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(db.snapshots))
	for id := range db.snapshots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (db *inMemorySnapshotDBWrapper) DeleteSnapshot(walletID uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.snapshots[walletID]; !exists {
		return fmt.Errorf("wallet %s: %w", walletID, dbt.ErrSnapshotNotFound)
	}
	delete(db.snapshots, walletID)
	return nil
}

// DataLoaderGetSnapshots returns the snapshots found among walletIDs. Missing
// wallets are simply absent from the map.
func (db *inMemorySnapshotDBWrapper) DataLoaderGetSnapshots(_ context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*dbt.Snapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make(map[uuid.UUID]*dbt.Snapshot, len(walletIDs))
	for _, id := range walletIDs {
		if snapshot, ok := db.snapshots[id]; ok {
			result[id] = copySnapshot(snapshot)
		}
	}
	return result, nil
}

func copySnapshot(s *dbt.Snapshot) *dbt.Snapshot {
	return &dbt.Snapshot{
		WalletID:  s.WalletID,
		Payload:   append([]byte(nil), s.Payload...),
		UpdatedAt: s.UpdatedAt,
	}
}
