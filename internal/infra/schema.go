package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id             UUID PRIMARY KEY,
    username       TEXT NOT NULL UNIQUE,
    academic_email TEXT UNIQUE,
    personal_email TEXT NOT NULL DEFAULT '',
    password_hash  BYTEA NOT NULL,
    token_version  INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL,
    last_login     TIMESTAMPTZ
);
`

// Migrate creates the tables the auth API relies on when they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
