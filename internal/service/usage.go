package service

import (
	"fmt"
	"time"

	"github.com/matanchen1/voucher-manager/internal/model"
)

// defaultProductUsageNote is recorded when a product coupon is redeemed
// without an operator note.
const defaultProductUsageNote = "coupon redeemed"

// ApplyUsage validates a usage request against the coupon and applies it in
// place, returning the history entry to append. The caller owns the
// read-modify-write round trip; on error the coupon is untouched.
//
// Product coupons ignore amount and flip is_used once; a second call fails
// with ErrAlreadyUsed. Money coupons debit the given amount, or the full
// remaining balance when amount is nil or non-positive; overdrawing fails
// with ErrInsufficientBalance. Both record the full-balance money debit as
// partial_use; only product redemptions get the used tag.
func ApplyUsage(c *model.Coupon, amount *float64, notes string, now time.Time) (*model.UsageEvent, error) {
	event := &model.UsageEvent{
		CouponID: c.ID,
		Date:     now,
		Notes:    notes,
	}

	switch c.Type {
	case model.TypeProduct:
		if c.IsUsed {
			return nil, ErrAlreadyUsed
		}
		c.IsUsed = true
		event.Type = model.UsageUsed
		if event.Notes == "" {
			event.Notes = defaultProductUsageNote
		}

	case model.TypeMoney:
		if c.RemainingAmount == nil || *c.RemainingAmount <= 0 {
			// An exhausted card cannot be debited, not even for zero.
			return nil, ErrInsufficientBalance
		}
		remaining := *c.RemainingAmount
		effective := remaining
		if amount != nil && *amount > 0 {
			effective = *amount
		}
		if effective > remaining {
			return nil, ErrInsufficientBalance
		}

		newRemaining := remaining - effective
		c.RemainingAmount = &newRemaining

		event.Type = model.UsagePartial
		event.Amount = &effective
		event.Currency = c.Currency
		event.RemainingAfter = &newRemaining
		if event.Notes == "" {
			event.Notes = fmt.Sprintf("used %.2f %s", effective, c.Currency)
		}

	default:
		return nil, fmt.Errorf("%w: unknown coupon type %q", ErrInvalidRequest, c.Type)
	}

	c.LastUsed = &now
	c.UpdatedAt = now
	return event, nil
}
