package pg

import (
	"time"

	"github.com/google/uuid"
)

type SnapshotModel struct {
	WalletID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Payload  []byte    `gorm:"type:jsonb;not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for SnapshotModel.
func (SnapshotModel) TableName() string {
	return "send_snapshots"
}
