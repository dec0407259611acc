package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the paystream store.
var Migrations = migrate.NewGroup("paystream")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_paystream_config",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS paystream_config (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    admin          TEXT NOT NULL,
    fee_collector  TEXT NOT NULL,
    fee_rate_bps   INTEGER NOT NULL DEFAULT 0 CHECK (fee_rate_bps BETWEEN 0 AND 10000),
    next_stream_id INTEGER NOT NULL DEFAULT 1,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS paystream_config`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_paystream_streams",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS paystream_streams (
    id               INTEGER PRIMARY KEY,
    sender           TEXT NOT NULL,
    recipient        TEXT NOT NULL,
    token            TEXT NOT NULL,
    total_amount     INTEGER NOT NULL CHECK (total_amount > 0),
    balance          INTEGER NOT NULL DEFAULT 0,
    withdrawn_amount INTEGER NOT NULL DEFAULT 0,
    start_time       INTEGER NOT NULL,
    end_time         INTEGER NOT NULL,
    status           TEXT NOT NULL DEFAULT 'Active',
    active_elapsed   INTEGER NOT NULL DEFAULT 0,
    last_resume_time INTEGER NOT NULL DEFAULT 0,
    delegate         TEXT,
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now')),
    CHECK (withdrawn_amount BETWEEN 0 AND balance),
    CHECK (balance <= total_amount),
    CHECK (start_time >= 0 AND end_time >= start_time)
);

CREATE INDEX IF NOT EXISTS idx_paystream_streams_sender ON paystream_streams (sender, status);
CREATE INDEX IF NOT EXISTS idx_paystream_streams_recipient ON paystream_streams (recipient, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS paystream_streams`)
				return err
			},
		},
	)
}
