// Package notifier runs the periodic expiring-coupon scan. The scan only
// re-reads and logs; it never mutates coupons.
package notifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/internal/service"
)

const scanTimeout = 30 * time.Second

// CouponLister is the read access the scan needs.
type CouponLister interface {
	ListAll(ctx context.Context) ([]model.Coupon, error)
}

// Notifier schedules the expiring-coupon scan.
type Notifier struct {
	coupons  CouponLister
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// New creates a Notifier with the given cron schedule, e.g. "0 9 * * *"
// for a daily 09:00 scan.
func New(coupons CouponLister, schedule string) *Notifier {
	return &Notifier{coupons: coupons, schedule: schedule, now: time.Now}
}

// Start registers the scan with the scheduler and begins running it.
func (n *Notifier) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(n.schedule, n.run); err != nil {
		return fmt.Errorf("schedule expiry scan: %w", err)
	}
	c.Start()
	n.cron = c
	log.Info().Str("schedule", n.schedule).Msg("expiring-coupon scan scheduled")
	return nil
}

// Stop halts the scheduler. Running scans are not interrupted.
func (n *Notifier) Stop() {
	if n.cron != nil {
		n.cron.Stop()
	}
}

func (n *Notifier) run() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	if _, _, err := n.ScanExpiring(ctx); err != nil {
		log.Error().Err(err).Msg("expiring-coupon scan failed")
	}
}

// ScanExpiring reports coupons whose derived status is expiring, splitting
// out those that expire today. Used-up and already-expired coupons are
// skipped: there is nothing left to redeem.
func (n *Notifier) ScanExpiring(ctx context.Context) (expiringSoon, expiringToday []model.Coupon, err error) {
	coupons, err := n.coupons.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list coupons: %w", err)
	}

	now := n.now()
	for _, c := range coupons {
		if service.CalculateStatus(&c, now) != model.StatusExpiring {
			continue
		}
		daysLeft := int(math.Ceil(c.ExpirationDate.Sub(now).Hours() / 24))
		if daysLeft <= 0 {
			expiringToday = append(expiringToday, c)
		}
		expiringSoon = append(expiringSoon, c)

		log.Warn().
			Str("coupon_code", c.Code).
			Str("company", c.Company).
			Int("days_left", daysLeft).
			Time("expiration_date", *c.ExpirationDate).
			Msg("coupon expiring soon")
	}

	for _, c := range expiringToday {
		log.Warn().
			Str("coupon_code", c.Code).
			Str("company", c.Company).
			Msg("coupon expires today")
	}

	if len(expiringSoon) == 0 {
		log.Info().Msg("no coupons expiring soon")
	} else {
		log.Info().
			Int("expiring_soon", len(expiringSoon)).
			Int("expiring_today", len(expiringToday)).
			Msg("expiring-coupon scan complete")
	}
	return expiringSoon, expiringToday, nil
}
