package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"wallet/config"
)

func init() {
	goose.AddMigrationContext(upInitSendSnapshots, downInitSendSnapshots)
}

func upInitSendSnapshots(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, config.AppName))
	if err != nil {
		return err
	}

	// One row per wallet holding the rehydration document.
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE %s.send_snapshots (
			wallet_id UUID PRIMARY KEY,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`, config.AppName))
	return err
}

func downInitSendSnapshots(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s.send_snapshots;`, config.AppName))
	return err
}
