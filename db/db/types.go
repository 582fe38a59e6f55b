package db

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the persisted send state of one wallet. Payload is the
// rehydration document, {"send": {...}}.
type Snapshot struct {
	WalletID  uuid.UUID
	Payload   []byte
	UpdatedAt time.Time
}

// DBError is a sentinel error shared by every SnapshotDBWrapper implementation.
type DBError string

func (e DBError) Error() string {
	return string(e)
}

const (
	ErrSnapshotNotFound DBError = "snapshot not found"
)
