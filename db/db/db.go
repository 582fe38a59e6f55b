package db

import (
	"context"

	"github.com/google/uuid"
)

type SnapshotDBWrapper interface {
	// Create or replace
	SaveSnapshot(snapshot *Snapshot) error
	// Read
	GetSnapshot(walletID uuid.UUID) (*Snapshot, error)
	ListWallets() ([]uuid.UUID, error)
	// Delete
	DeleteSnapshot(walletID uuid.UUID) error
	// Data Loader
	DataLoaderGetSnapshots(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*Snapshot, error)
}
