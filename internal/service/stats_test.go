package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matanchen1/voucher-manager/internal/model"
)

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, time.Now())

	assert.Equal(t, model.StatsSummary{}, summary)
}

func TestSummarize_CountsByDerivedStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	coupons := []model.Coupon{
		// Active money coupon.
		{Type: model.TypeMoney, Company: "Acme", Category: "food", RemainingAmount: floatPtr(100)},
		// Expiring money coupon: counted in expiring_soon, not in active_money_coupons.
		{Type: model.TypeMoney, Company: "Acme", Category: "food", RemainingAmount: floatPtr(50), ExpirationDate: timePtr(now.AddDate(0, 0, 3))},
		// Spent money coupon.
		{Type: model.TypeMoney, Company: "Globex", RemainingAmount: floatPtr(0)},
		// Active product coupon.
		{Type: model.TypeProduct, Company: "Globex", Category: "spa"},
		// Expiring product coupon.
		{Type: model.TypeProduct, Company: "Initech", ExpirationDate: timePtr(now.AddDate(0, 0, 7))},
		// Redeemed product coupon.
		{Type: model.TypeProduct, Company: "Initech", IsUsed: true},
	}

	summary := Summarize(coupons, now)

	assert.Equal(t, 6, summary.TotalCoupons)
	assert.Equal(t, 1, summary.ActiveMoneyCoupons, "expiring and spent money coupons are not active")
	assert.Equal(t, 1, summary.ActiveProductCoupons)
	assert.Equal(t, 2, summary.ExpiringSoon, "expiring_soon spans both types")
	assert.Equal(t, 3, summary.TotalCompanies)
	assert.Equal(t, 2, summary.TotalCategories, "empty categories are not counted")
}

func TestSummarize_TotalValueIgnoresStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	coupons := []model.Coupon{
		// Expired but with residual balance: still value on the books.
		{Type: model.TypeMoney, Company: "A", RemainingAmount: floatPtr(60), ExpirationDate: timePtr(now.AddDate(0, -1, 0))},
		{Type: model.TypeMoney, Company: "B", RemainingAmount: floatPtr(40)},
		{Type: model.TypeMoney, Company: "C", RemainingAmount: floatPtr(0)},
		// Product coupons never contribute to total_value.
		{Type: model.TypeProduct, Company: "D"},
	}

	summary := Summarize(coupons, now)

	assert.Equal(t, 100.0, summary.TotalValue)
}
