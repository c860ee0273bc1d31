package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order at startup. Statements are idempotent so
// a restart against an existing database is a no-op. Note the absence of a
// status column on coupons: status is derived, never stored.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS coupons (
		id                  TEXT PRIMARY KEY,
		code                TEXT NOT NULL,
		company             TEXT NOT NULL,
		type                TEXT NOT NULL CHECK (type IN ('money', 'product')),
		original_amount     DOUBLE PRECISION,
		remaining_amount    DOUBLE PRECISION,
		currency            TEXT NOT NULL DEFAULT '',
		product_description TEXT NOT NULL DEFAULT '',
		is_used             BOOLEAN NOT NULL DEFAULT FALSE,
		category            TEXT NOT NULL DEFAULT '',
		expiration_date     DATE,
		notes               TEXT NOT NULL DEFAULT '',
		last_used           TIMESTAMPTZ,
		date_added          TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Case-sensitive uniqueness: "X1" and "x1" may coexist.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code ON coupons (code)`,
	`CREATE INDEX IF NOT EXISTS idx_coupons_date_added ON coupons (date_added DESC)`,
	`CREATE TABLE IF NOT EXISTS coupon_usage (
		id              BIGSERIAL PRIMARY KEY,
		coupon_id       TEXT NOT NULL REFERENCES coupons (id) ON DELETE CASCADE,
		usage_date      TIMESTAMPTZ NOT NULL DEFAULT now(),
		usage_type      TEXT NOT NULL CHECK (usage_type IN ('used', 'partial_use')),
		amount          DOUBLE PRECISION,
		currency        TEXT NOT NULL DEFAULT '',
		remaining_after DOUBLE PRECISION,
		notes           TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_coupon_usage_coupon_id ON coupon_usage (coupon_id)`,
}

// Migrate applies the schema at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("database schema up to date")
	return nil
}
