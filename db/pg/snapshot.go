package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbt "wallet/db/db"
)

// GORMSnapshotDBWrapper is a GORM-based PostgreSQL implementation of dbt.SnapshotDBWrapper.
type GORMSnapshotDBWrapper struct {
	db *gorm.DB
}

// NewGORMSnapshotDBWrapper creates and returns a new instance of GORMSnapshotDBWrapper.
func NewGORMSnapshotDBWrapper(db *gorm.DB) dbt.SnapshotDBWrapper {
	return &GORMSnapshotDBWrapper{
		db: db,
	}
}

// SaveSnapshot upserts the wallet's snapshot.
func (pgdb *GORMSnapshotDBWrapper) SaveSnapshot(snapshot *dbt.Snapshot) error {
	if snapshot == nil || snapshot.WalletID == uuid.Nil {
		return fmt.Errorf("snapshot must have a wallet ID")
	}
	model := SnapshotModel{
		WalletID: snapshot.WalletID,
		Payload:  snapshot.Payload,
	}
	result := pgdb.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to save snapshot for wallet %s: %w", snapshot.WalletID, result.Error)
	}
	return nil
}

// GetSnapshot retrieves the wallet's snapshot.
func (pgdb *GORMSnapshotDBWrapper) GetSnapshot(walletID uuid.UUID) (*dbt.Snapshot, error) {
	var model SnapshotModel
	result := pgdb.db.First(&model, "wallet_id = ?", walletID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wallet %s: %w", walletID, dbt.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot for wallet %s: %w", walletID, result.Error)
	}
	return toSnapshot(model), nil
}

// ListWallets returns the IDs of every wallet with a snapshot.
func (pgdb *GORMSnapshotDBWrapper) ListWallets() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := pgdb.db.Model(&SnapshotModel{}).Order("wallet_id").Pluck("wallet_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", result.Error)
	}
	return ids, nil
}

func (pgdb *GORMSnapshotDBWrapper) DeleteSnapshot(walletID uuid.UUID) error {
	result := pgdb.db.Delete(&SnapshotModel{}, "wallet_id = ?", walletID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete snapshot for wallet %s: %w", walletID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet %s: %w", walletID, dbt.ErrSnapshotNotFound)
	}
	return nil
}

// DataLoaderGetSnapshots retrieves the snapshots of several wallets in one query.
// This method is designed to be used with a DataLoader for batching queries.
func (pgdb *GORMSnapshotDBWrapper) DataLoaderGetSnapshots(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*dbt.Snapshot, error) {
	var models []SnapshotModel
	result := pgdb.db.WithContext(ctx).Where("wallet_id IN ?", walletIDs).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve snapshots: %w", result.Error)
	}

	snapshots := make(map[uuid.UUID]*dbt.Snapshot, len(models))
	for _, m := range models {
		snapshots[m.WalletID] = toSnapshot(m)
	}
	return snapshots, nil
}

func toSnapshot(m SnapshotModel) *dbt.Snapshot {
	return &dbt.Snapshot{
		WalletID:  m.WalletID,
		Payload:   m.Payload,
		UpdatedAt: m.UpdatedAt,
	}
}
