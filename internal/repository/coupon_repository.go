package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/internal/service"
	"github.com/matanchen1/voucher-manager/pkg/database"
)

// couponColumns is the select list shared by every coupon read. There is no
// status column: status is derived in the service layer.
const couponColumns = `id, code, company, type, original_amount, remaining_amount, currency,
	product_description, is_used, category, expiration_date, notes, last_used,
	date_added, created_at, updated_at`

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom
// pool interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Company,
		&c.Type,
		&c.OriginalAmount,
		&c.RemainingAmount,
		&c.Currency,
		&c.ProductDescription,
		&c.IsUsed,
		&c.Category,
		&c.ExpirationDate,
		&c.Notes,
		&c.LastUsed,
		&c.DateAdded,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCoupons(rows pgx.Rows) ([]model.Coupon, error) {
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, nil
}

// Insert inserts a new coupon.
// Returns service.ErrDuplicateCode when the code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, company, type, original_amount, remaining_amount, currency,
			product_description, is_used, category, expiration_date, notes, last_used,
			date_added, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		coupon.ID, coupon.Code, coupon.Company, coupon.Type,
		coupon.OriginalAmount, coupon.RemainingAmount, coupon.Currency,
		coupon.ProductDescription, coupon.IsUsed, coupon.Category,
		coupon.ExpirationDate, coupon.Notes, coupon.LastUsed,
		coupon.DateAdded, coupon.CreatedAt, coupon.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateCode
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon %s: %w", id, err)
	}
	return coupon, nil
}

// GetForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE),
// holding it until the transaction completes. The lock is what makes the
// use operation's balance check and decrement atomic per coupon.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", id, err)
	}
	return coupon, nil
}

// Update persists all mutable coupon fields. Must be called within a
// transaction after locking the row.
// Returns service.ErrDuplicateCode when a code edit collides.
func (r *CouponRepository) Update(ctx context.Context, tx database.TxQuerier, coupon *model.Coupon) error {
	_, err := tx.Exec(ctx,
		`UPDATE coupons SET code = $2, company = $3, type = $4, original_amount = $5,
			remaining_amount = $6, currency = $7, product_description = $8, is_used = $9,
			category = $10, expiration_date = $11, notes = $12, last_used = $13, updated_at = $14
		WHERE id = $1`,
		coupon.ID, coupon.Code, coupon.Company, coupon.Type,
		coupon.OriginalAmount, coupon.RemainingAmount, coupon.Currency,
		coupon.ProductDescription, coupon.IsUsed, coupon.Category,
		coupon.ExpirationDate, coupon.Notes, coupon.LastUsed, coupon.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateCode
		}
		return fmt.Errorf("update coupon %s: %w", coupon.ID, err)
	}
	return nil
}

// Delete hard-deletes a coupon. Usage history rows follow via ON DELETE
// CASCADE. Returns false when no row matched the id.
func (r *CouponRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete coupon %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// List retrieves coupons matching the filter, newest first. Company and
// category match case-insensitively; search matches as a case-insensitive
// substring across code, company, product description and notes.
func (r *CouponRepository) List(ctx context.Context, filter model.CouponFilter) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE 1=1`
	args := []any{}

	if filter.Company != "" {
		args = append(args, filter.Company)
		query += fmt.Sprintf(" AND LOWER(company) = LOWER($%d)", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(
			" AND (code ILIKE $%d OR company ILIKE $%d OR product_description ILIKE $%d OR notes ILIKE $%d)",
			n, n, n, n)
	}
	query += " ORDER BY date_added DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return collectCoupons(rows)
}

// ListAll retrieves every coupon, newest first.
func (r *CouponRepository) ListAll(ctx context.Context) ([]model.Coupon, error) {
	return r.List(ctx, model.CouponFilter{})
}

// ListRecent retrieves the most recently added coupons.
func (r *CouponRepository) ListRecent(ctx context.Context, limit int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY date_added DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent coupons: %w", err)
	}
	return collectCoupons(rows)
}
