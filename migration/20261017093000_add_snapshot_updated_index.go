package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"wallet/config"
)

func init() {
	goose.AddMigrationContext(upAddSnapshotUpdatedIndex, downAddSnapshotUpdatedIndex)
}

func upAddSnapshotUpdatedIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_send_snapshots_updated_at
			ON %s.send_snapshots (updated_at DESC);
	`, config.AppName))
	return err
}

func downAddSnapshotUpdatedIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s.idx_send_snapshots_updated_at;`, config.AppName))
	return err
}
