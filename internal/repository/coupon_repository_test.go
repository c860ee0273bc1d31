package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/internal/service"
)

// mockRow implements pgx.Row for testing single-row reads.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// emptyRows implements pgx.Rows with no data, for SQL-capture tests.
type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(dest ...any) error                       { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }

// mockCouponPool implements PoolInterface for testing.
type mockCouponPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockCouponPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockCouponPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockCouponPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return emptyRows{}, nil
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestCouponRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockCouponPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	now := time.Now()
	coupon := &model.Coupon{
		ID:              "c-1",
		Code:            "X1",
		Company:         "A",
		Type:            model.TypeMoney,
		OriginalAmount:  floatPtr(100),
		RemainingAmount: floatPtr(100),
		Currency:        "NIS",
		DateAdded:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := repo.Insert(context.Background(), coupon)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO coupons")
	assert.Len(t, capturedArgs, 16)
	assert.Equal(t, "c-1", capturedArgs[0])
	assert.Equal(t, "X1", capturedArgs[1])
}

func TestCouponRepository_Insert_DuplicateCode(t *testing.T) {
	mock := &mockCouponPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			// Simulate PostgreSQL unique violation error (code 23505)
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:    "23505",
				Message: "duplicate key value violates unique constraint",
			}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Insert(context.Background(), &model.Coupon{ID: "c-1", Code: "X1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrDuplicateCode))
}

func TestCouponRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockCouponPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon, err := repo.GetByID(context.Background(), "missing")

	require.NoError(t, err, "not found is not an error at the repository layer")
	assert.Nil(t, coupon)
}

func TestCouponRepository_GetForUpdate_NotFound(t *testing.T) {
	tx := &mockCouponPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(tx)
	coupon, err := repo.GetForUpdate(context.Background(), tx, "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound))
	assert.Nil(t, coupon)
}

func TestCouponRepository_GetForUpdate_LocksRow(t *testing.T) {
	var capturedSQL string
	tx := &mockCouponPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(tx)
	_, _ = repo.GetForUpdate(context.Background(), tx, "c-1")

	assert.Contains(t, capturedSQL, "FOR UPDATE")
}

func TestCouponRepository_Delete(t *testing.T) {
	mock := &mockCouponPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			if arguments[0] == "c-1" {
				return pgconn.NewCommandTag("DELETE 1"), nil
			}
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)

	deleted, err := repo.Delete(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted, "zero rows affected means the id did not exist")
}

func TestCouponRepository_List_BuildsFilters(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockCouponPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return emptyRows{}, nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupons, err := repo.List(context.Background(), model.CouponFilter{
		Company:  "Acme",
		Category: "spa",
		Type:     "money",
		Search:   "gift",
	})

	require.NoError(t, err)
	assert.NotNil(t, coupons)
	assert.Contains(t, capturedSQL, "LOWER(company) = LOWER($1)")
	assert.Contains(t, capturedSQL, "LOWER(category) = LOWER($2)")
	assert.Contains(t, capturedSQL, "type = $3")
	assert.Contains(t, capturedSQL, "ILIKE $4")
	assert.Contains(t, capturedSQL, "ORDER BY date_added DESC")
	assert.Equal(t, []any{"Acme", "spa", "money", "%gift%"}, capturedArgs)
}

func TestCouponRepository_List_NoFilters(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockCouponPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return emptyRows{}, nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	_, err := repo.List(context.Background(), model.CouponFilter{})

	require.NoError(t, err)
	assert.NotContains(t, capturedSQL, "LOWER(")
	assert.NotContains(t, capturedSQL, "ILIKE")
	assert.Empty(t, capturedArgs)
}

func TestCouponRepository_ListRecent_AppliesLimit(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockCouponPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return emptyRows{}, nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	_, err := repo.ListRecent(context.Background(), 5)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "ORDER BY date_added DESC LIMIT $1")
	assert.Equal(t, []any{5}, capturedArgs)
}
