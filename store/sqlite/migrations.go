package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the economy store (SQLite).
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
    doc        TEXT NOT NULL DEFAULT '{}',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
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
