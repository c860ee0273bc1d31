package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/pkg/database"
)

// UsagePoolInterface defines the database operations needed by
// UsageRepository.
type UsagePoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UsageRepository provides access to the append-only usage history.
type UsageRepository struct {
	pool UsagePoolInterface
}

// NewUsageRepository creates a new UsageRepository with the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// NewUsageRepositoryWithPool creates a new UsageRepository with a custom
// pool interface. This is primarily used for testing.
func NewUsageRepositoryWithPool(pool UsagePoolInterface) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Insert appends one usage event. Must be called within the same
// transaction that updates the coupon so the mutation and its audit entry
// commit together.
func (r *UsageRepository) Insert(ctx context.Context, tx database.TxQuerier, event *model.UsageEvent) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO coupon_usage (coupon_id, usage_date, usage_type, amount, currency, remaining_after, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.CouponID, event.Date, event.Type,
		event.Amount, event.Currency, event.RemainingAfter, event.Notes)
	if err != nil {
		return fmt.Errorf("insert usage event for %s: %w", event.CouponID, err)
	}
	return nil
}

// ListByCoupon retrieves a coupon's usage history, most recent first.
// On success, returns an empty slice (not nil) when no events exist.
func (r *UsageRepository) ListByCoupon(ctx context.Context, couponID string) ([]model.UsageEvent, error) {
	query := `SELECT id, coupon_id, usage_date, usage_type, amount, currency, remaining_after, notes
		FROM coupon_usage WHERE coupon_id = $1 ORDER BY usage_date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, couponID)
	if err != nil {
		return nil, fmt.Errorf("list usage for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	events := []model.UsageEvent{}
	for rows.Next() {
		var e model.UsageEvent
		err := rows.Scan(&e.ID, &e.CouponID, &e.Date, &e.Type, &e.Amount, &e.Currency, &e.RemainingAfter, &e.Notes)
		if err != nil {
			return nil, fmt.Errorf("scan usage event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage events: %w", err)
	}
	return events, nil
}
