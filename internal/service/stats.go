package service

import (
	"time"

	"github.com/matanchen1/voucher-manager/internal/model"
)

// Summarize computes aggregate statistics over the given coupons at the
// given clock reading. Status is recomputed per coupon here because
// expiration is time-dependent: counts can change between calls with no
// write having occurred.
//
// TotalValue deliberately sums remaining_amount across all money coupons
// regardless of status: an expired card with residual balance is still value
// on the books.
func Summarize(coupons []model.Coupon, now time.Time) model.StatsSummary {
	summary := model.StatsSummary{TotalCoupons: len(coupons)}

	companies := make(map[string]struct{})
	categories := make(map[string]struct{})

	for i := range coupons {
		c := &coupons[i]
		status := CalculateStatus(c, now)

		switch {
		case c.Type == model.TypeMoney && status == model.StatusActive:
			summary.ActiveMoneyCoupons++
		case c.Type == model.TypeProduct && status == model.StatusActive:
			summary.ActiveProductCoupons++
		}
		if status == model.StatusExpiring {
			summary.ExpiringSoon++
		}

		if c.Type == model.TypeMoney && c.RemainingAmount != nil {
			summary.TotalValue += *c.RemainingAmount
		}

		companies[c.Company] = struct{}{}
		if c.Category != "" {
			categories[c.Category] = struct{}{}
		}
	}

	summary.TotalCompanies = len(companies)
	summary.TotalCategories = len(categories)
	return summary
}
