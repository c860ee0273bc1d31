//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanchen1/voucher-manager/internal/model"
)

func TestCouponLifecycle_Money(t *testing.T) {
	cleanupTables(t)

	created := createCoupon(t, model.CreateCouponRequest{
		Code:           "BUYME-500",
		Company:        "BuyMe",
		Type:           "money",
		OriginalAmount: floatPtr(500),
		Category:       "gift card",
		ExpirationDate: time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
	})

	require.NotEmpty(t, created.ID)
	assert.Equal(t, "BUYME-500", created.Code)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.Equal(t, "NIS", created.Currency, "default currency should apply")
	require.NotNil(t, created.RemainingAmount)
	assert.Equal(t, 500.0, *created.RemainingAmount)

	// Verify the row landed in the database with remaining = original
	var code string
	var remaining float64
	err := testPool.QueryRow(context.Background(),
		"SELECT code, remaining_amount FROM coupons WHERE id = $1",
		created.ID).Scan(&code, &remaining)
	require.NoError(t, err)
	assert.Equal(t, "BUYME-500", code)
	assert.Equal(t, 500.0, remaining)

	// Fetch it back over the API
	resp, err := getJSON(formatURL("/coupons/" + created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched model.CouponResponse
	require.NoError(t, readJSONResponse(resp, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, model.StatusActive, fetched.Status)
	assert.NotNil(t, fetched.UsageHistory, "money coupon detail carries usage history")
	assert.Empty(t, fetched.UsageHistory)

	// Update mutable fields
	resp, err = putJSON(formatURL("/coupons/"+created.ID), map[string]any{
		"company": "BuyMe Group",
		"notes":   "anniversary gift",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.CouponResponse
	require.NoError(t, readJSONResponse(resp, &updated))
	assert.Equal(t, "BuyMe Group", updated.Company)
	assert.Equal(t, "anniversary gift", updated.Notes)
	assert.Equal(t, 500.0, *updated.RemainingAmount, "update must not touch the balance")

	// Delete and confirm it is gone
	resp, err = deleteRequest(formatURL("/coupons/" + created.ID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = getJSON(formatURL("/coupons/" + created.ID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateCoupon_DuplicateCode(t *testing.T) {
	cleanupTables(t)

	createCoupon(t, model.CreateCouponRequest{
		Code: "DUP-1", Company: "A", Type: "product", ProductDescription: "massage",
	})

	resp, err := postJSON(formatURL("/coupons"), model.CreateCouponRequest{
		Code: "DUP-1", Company: "B", Type: "product", ProductDescription: "facial",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateCoupon_ValidationErrors(t *testing.T) {
	cleanupTables(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing_code", map[string]any{"company": "A", "type": "product", "product_description": "x"}},
		{"money_without_amount", map[string]any{"code": "M1", "company": "A", "type": "money"}},
		{"product_without_description", map[string]any{"code": "P1", "company": "A", "type": "product"}},
		{"unknown_type", map[string]any{"code": "X1", "company": "A", "type": "points"}},
		{"bad_date", map[string]any{"code": "D1", "company": "A", "type": "product", "product_description": "x", "expiration_date": "31/12/2026"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := postJSON(formatURL("/coupons"), tc.body)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUpdateCoupon_ReducedOriginalPreservesUsed(t *testing.T) {
	cleanupTables(t)

	created := createCoupon(t, model.CreateCouponRequest{
		Code: "ADJ-100", Company: "Acme", Type: "money", OriginalAmount: floatPtr(100),
	})

	// Spend 40, then correct the original amount down to 80.
	resp, err := putJSON(formatURL("/coupons/"+created.ID+"/use"), map[string]any{"amount": 40})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = putJSON(formatURL("/coupons/"+created.ID), map[string]any{"original_amount": 80})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.CouponResponse
	require.NoError(t, readJSONResponse(resp, &updated))
	require.NotNil(t, updated.RemainingAmount)
	assert.Equal(t, 40.0, *updated.RemainingAmount, "80 original minus the 40 already used")
}
