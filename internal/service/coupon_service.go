package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/pkg/database"
)

const (
	// DefaultListLimit is the page size when the client does not send one.
	DefaultListLimit = 50
	// MaxListLimit caps the page size a client may request.
	MaxListLimit = 100
	// DefaultRecentLimit is how many coupons /coupons/recent returns.
	DefaultRecentLimit = 5

	expirationDateLayout = "2006-01-02"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Coupon, error)
	Update(ctx context.Context, tx database.TxQuerier, coupon *model.Coupon) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter model.CouponFilter) ([]model.Coupon, error)
	ListAll(ctx context.Context) ([]model.Coupon, error)
	ListRecent(ctx context.Context, limit int) ([]model.Coupon, error)
}

// UsageRepositoryInterface defines the interface for usage-history access.
type UsageRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, event *model.UsageEvent) error
	ListByCoupon(ctx context.Context, couponID string) ([]model.UsageEvent, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService orchestrates storage, status derivation and the usage rules
// behind the HTTP surface.
type CouponService struct {
	pool            TxBeginner
	coupons         CouponRepositoryInterface
	usage           UsageRepositoryInterface
	defaultCurrency string
	now             func() time.Time
}

// NewCouponService creates a new CouponService with the given pool and
// repositories.
func NewCouponService(pool *pgxpool.Pool, coupons CouponRepositoryInterface, usage UsageRepositoryInterface, defaultCurrency string) *CouponService {
	return &CouponService{
		pool:            pool,
		coupons:         coupons,
		usage:           usage,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom
// TxBeginner. Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, coupons CouponRepositoryInterface, usage UsageRepositoryInterface, defaultCurrency string) *CouponService {
	return &CouponService{
		pool:            pool,
		coupons:         coupons,
		usage:           usage,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// List returns a page of coupons matching the query, plus the total size of
// the filtered set before pagination.
//
// The repository narrows by company/category/type/search in SQL; the status
// filter and pagination run here because status is derived per coupon at
// read time and cannot be expressed as a stored predicate.
func (s *CouponService) List(ctx context.Context, q *model.ListCouponsQuery) (*model.ListCouponsResponse, error) {
	if q == nil {
		q = &model.ListCouponsQuery{}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	coupons, err := s.coupons.List(ctx, model.CouponFilter{
		Search:   q.Search,
		Company:  q.Company,
		Category: q.Category,
		Type:     q.Type,
	})
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	now := s.now()
	filtered := make([]model.CouponResponse, 0, len(coupons))
	for i := range coupons {
		status := CalculateStatus(&coupons[i], now)
		if q.Status != "" && string(status) != q.Status {
			continue
		}
		filtered = append(filtered, model.CouponResponse{Coupon: coupons[i], Status: status})
	}

	total := len(filtered)
	page := []model.CouponResponse{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = filtered[offset:end]
	}

	return &model.ListCouponsResponse{
		Coupons: page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// GetByID retrieves one coupon with its derived status. Money coupons also
// carry their usage history.
// Returns ErrCouponNotFound if the id does not exist.
func (s *CouponService) GetByID(ctx context.Context, id string) (*model.CouponResponse, error) {
	coupon, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	resp := &model.CouponResponse{
		Coupon: *coupon,
		Status: CalculateStatus(coupon, s.now()),
	}

	if coupon.Type == model.TypeMoney {
		history, err := s.usage.ListByCoupon(ctx, coupon.ID)
		if err != nil {
			return nil, fmt.Errorf("get usage history: %w", err)
		}
		resp.UsageHistory = history
	}
	return resp, nil
}

// Create validates and persists a new coupon, assigning its id and
// timestamps. Returns ErrDuplicateCode when the code is taken and
// ErrInvalidRequest when per-type required fields are missing.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.CouponResponse, error) {
	// Defense-in-depth: the handler validates the request first.
	if req == nil {
		return nil, ErrInvalidRequest
	}

	now := s.now()
	coupon := &model.Coupon{
		ID:        uuid.NewString(),
		Code:      req.Code,
		Company:   req.Company,
		Type:      model.CouponType(req.Type),
		Category:  req.Category,
		Notes:     req.Notes,
		DateAdded: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch coupon.Type {
	case model.TypeMoney:
		if req.OriginalAmount == nil || *req.OriginalAmount < 0 {
			return nil, fmt.Errorf("%w: original_amount is required for money coupons", ErrInvalidRequest)
		}
		original := *req.OriginalAmount
		remaining := original
		coupon.OriginalAmount = &original
		coupon.RemainingAmount = &remaining
		coupon.Currency = req.Currency
		if coupon.Currency == "" {
			coupon.Currency = s.defaultCurrency
		}
	case model.TypeProduct:
		if strings.TrimSpace(req.ProductDescription) == "" {
			return nil, fmt.Errorf("%w: product_description is required for product coupons", ErrInvalidRequest)
		}
		coupon.ProductDescription = req.ProductDescription
	default:
		return nil, fmt.Errorf("%w: type must be money or product", ErrInvalidRequest)
	}

	if req.ExpirationDate != "" {
		expiry, err := time.Parse(expirationDateLayout, req.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed expiration_date", ErrInvalidRequest)
		}
		coupon.ExpirationDate = &expiry
	}

	if err := s.coupons.Insert(ctx, coupon); err != nil {
		return nil, err
	}

	return &model.CouponResponse{Coupon: *coupon, Status: CalculateStatus(coupon, now)}, nil
}

// Update merges the partial request into the stored coupon inside a
// transaction, locking the row for the read-modify-write round trip.
//
// When original_amount changes on a money coupon the remaining balance is
// recomputed so the already-used amount is preserved: correcting a
// face-value typo must not refund or destroy usage history.
func (s *CouponService) Update(ctx context.Context, id string, req *model.UpdateCouponRequest) (*model.CouponResponse, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	coupon, err := s.coupons.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if req.Code != nil {
		coupon.Code = *req.Code
	}
	if req.Company != nil {
		coupon.Company = *req.Company
	}
	if req.Type != nil {
		coupon.Type = model.CouponType(*req.Type)
	}
	if req.OriginalAmount != nil && coupon.Type == model.TypeMoney {
		newOriginal := *req.OriginalAmount
		oldOriginal, oldRemaining := 0.0, 0.0
		if coupon.OriginalAmount != nil {
			oldOriginal = *coupon.OriginalAmount
		}
		if coupon.RemainingAmount != nil {
			oldRemaining = *coupon.RemainingAmount
		}
		if newOriginal != oldOriginal {
			remaining := math.Max(0, newOriginal-(oldOriginal-oldRemaining))
			coupon.RemainingAmount = &remaining
		}
		coupon.OriginalAmount = &newOriginal
	}
	if req.Currency != nil {
		coupon.Currency = *req.Currency
	}
	if req.ProductDescription != nil {
		coupon.ProductDescription = *req.ProductDescription
	}
	if req.Category != nil {
		coupon.Category = *req.Category
	}
	if req.ExpirationDate != nil {
		if *req.ExpirationDate == "" {
			coupon.ExpirationDate = nil
		} else {
			expiry, err := time.Parse(expirationDateLayout, *req.ExpirationDate)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed expiration_date", ErrInvalidRequest)
			}
			coupon.ExpirationDate = &expiry
		}
	}
	if req.Notes != nil {
		coupon.Notes = *req.Notes
	}
	coupon.UpdatedAt = now

	if err := s.coupons.Update(ctx, tx, coupon); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.CouponResponse{Coupon: *coupon, Status: CalculateStatus(coupon, now)}, nil
}

// Use applies a usage request to one coupon atomically: the row is locked,
// the engine validates and mutates, and the update plus the history append
// commit together. Two concurrent partial uses can therefore never jointly
// overdraw the balance.
// Returns:
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrAlreadyUsed if a product coupon was already redeemed
//   - ErrInsufficientBalance if a money coupon would be overdrawn
func (s *CouponService) Use(ctx context.Context, id string, req *model.UseCouponRequest) (*model.CouponResponse, error) {
	if req == nil {
		req = &model.UseCouponRequest{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	coupon, err := s.coupons.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	event, err := ApplyUsage(coupon, req.Amount, req.Notes, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.coupons.Update(ctx, tx, coupon); err != nil {
		return nil, fmt.Errorf("persist usage: %w", err)
	}
	if err := s.usage.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("append usage history: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.CouponResponse{Coupon: *coupon, Status: CalculateStatus(coupon, event.Date)}, nil
}

// Delete hard-deletes a coupon and its usage history.
// Returns ErrCouponNotFound if the id does not exist.
func (s *CouponService) Delete(ctx context.Context, id string) error {
	deleted, err := s.coupons.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if !deleted {
		return ErrCouponNotFound
	}
	return nil
}

// RecentlyAdded returns the most recently added coupons, newest first, with
// their derived status.
func (s *CouponService) RecentlyAdded(ctx context.Context, limit int) ([]model.CouponResponse, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	coupons, err := s.coupons.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent coupons: %w", err)
	}

	now := s.now()
	out := make([]model.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, model.CouponResponse{
			Coupon: coupons[i],
			Status: CalculateStatus(&coupons[i], now),
		})
	}
	return out, nil
}

// StatsSummary aggregates the full coupon set at call time.
func (s *CouponService) StatsSummary(ctx context.Context) (*model.StatsSummary, error) {
	coupons, err := s.coupons.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons for stats: %w", err)
	}
	summary := Summarize(coupons, s.now())
	return &summary, nil
}
