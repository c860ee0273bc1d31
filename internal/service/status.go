package service

import (
	"math"
	"time"

	"github.com/matanchen1/voucher-manager/internal/model"
)

// expiringWindowDays is how many days before expiration a coupon starts
// reporting the expiring status.
const expiringWindowDays = 7

// CalculateStatus derives a coupon's status from its current fields and the
// given clock reading. Pure function; the result is never persisted.
//
// Precedence: usage state dominates expiration state. A spent money coupon
// or a redeemed product coupon reports "used" even when it is also past its
// expiration date. Expiration is only consulted for coupons that still hold
// value.
func CalculateStatus(c *model.Coupon, now time.Time) model.Status {
	switch c.Type {
	case model.TypeProduct:
		if c.IsUsed {
			return model.StatusUsed
		}
	case model.TypeMoney:
		if c.RemainingAmount == nil || *c.RemainingAmount <= 0 {
			return model.StatusUsed
		}
	}

	if c.ExpirationDate != nil {
		days := daysUntil(*c.ExpirationDate, now)
		if days < 0 {
			return model.StatusExpired
		}
		if days <= expiringWindowDays {
			return model.StatusExpiring
		}
	}

	return model.StatusActive
}

// daysUntil returns the number of whole days until expiry, rounding up.
// A coupon expiring later today counts as 0 days left, not -1.
func daysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
