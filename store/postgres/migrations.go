package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the economy store.
var Migrations = migrate.NewGroup("economy")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_economy_guilds",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS economy_guilds (
    guild_id   TEXT PRIMARY KEY,
    doc        JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS economy_guilds`)
				return err
			},
		},
	)
}
