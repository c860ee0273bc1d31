package model

import "time"

// CouponType discriminates the two voucher kinds.
type CouponType string

const (
	// TypeMoney is a gift card with a depletable balance.
	TypeMoney CouponType = "money"
	// TypeProduct is a single-use service voucher.
	TypeProduct CouponType = "product"
)

// Status is derived from the coupon fields on every read; it is never
// authoritative in storage.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
	StatusUsed     Status = "used"
)

// UsageType tags entries in a coupon's usage history.
type UsageType string

const (
	// UsageUsed marks the single redemption of a product coupon.
	UsageUsed UsageType = "used"
	// UsagePartial marks a balance debit on a money coupon, including a
	// debit of the full remaining balance.
	UsagePartial UsageType = "partial_use"
)

// Coupon represents a stored voucher. Money-only fields are pointers so
// product coupons carry NULL in the database rather than a fake zero.
type Coupon struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	Company            string     `json:"company"`
	Type               CouponType `json:"type"`
	OriginalAmount     *float64   `json:"original_amount,omitempty"`
	RemainingAmount    *float64   `json:"remaining_amount,omitempty"`
	Currency           string     `json:"currency,omitempty"`
	ProductDescription string     `json:"product_description,omitempty"`
	IsUsed             bool       `json:"is_used"`
	Category           string     `json:"category,omitempty"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	LastUsed           *time.Time `json:"last_used,omitempty"`
	DateAdded          time.Time  `json:"date_added"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UsageEvent is one append-only entry in a coupon's usage history.
type UsageEvent struct {
	ID             int64     `json:"-"`
	CouponID       string    `json:"-"`
	Date           time.Time `json:"date"`
	Type           UsageType `json:"type"`
	Amount         *float64  `json:"amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	RemainingAfter *float64  `json:"remaining_after,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// CouponResponse is a coupon enriched with its derived status and, for
// money coupons on the detail endpoint, its usage history.
type CouponResponse struct {
	Coupon
	Status       Status       `json:"status"`
	UsageHistory []UsageEvent `json:"usage_history,omitempty"`
}

// CreateCouponRequest is the DTO for POST /coupons.
type CreateCouponRequest struct {
	Code               string   `json:"code" validate:"required,notblank,max=255"`
	Company            string   `json:"company" validate:"required,notblank,max=255"`
	Type               string   `json:"type" validate:"required,oneof=money product"`
	OriginalAmount     *float64 `json:"original_amount" validate:"required_if=Type money,omitempty,gte=0"`
	Currency           string   `json:"currency" validate:"omitempty,len=3"`
	ProductDescription string   `json:"product_description" validate:"required_if=Type product,omitempty,max=1000"`
	Category           string   `json:"category" validate:"omitempty,max=255"`
	ExpirationDate     string   `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Notes              string   `json:"notes"`
}

// UpdateCouponRequest is the DTO for PUT /coupons/:id. Every field is a
// pointer so absent and zero-valued fields are distinguishable.
// RemainingAmount and IsUsed are deliberately not accepted: the balance only
// moves through the use operation or the original_amount correction rule,
// and the used flag only moves through the use operation.
type UpdateCouponRequest struct {
	Code               *string  `json:"code" validate:"omitempty,notblank,max=255"`
	Company            *string  `json:"company" validate:"omitempty,notblank,max=255"`
	Type               *string  `json:"type" validate:"omitempty,oneof=money product"`
	OriginalAmount     *float64 `json:"original_amount" validate:"omitempty,gte=0"`
	Currency           *string  `json:"currency" validate:"omitempty,len=3"`
	ProductDescription *string  `json:"product_description" validate:"omitempty,max=1000"`
	Category           *string  `json:"category" validate:"omitempty,max=255"`
	ExpirationDate     *string  `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Notes              *string  `json:"notes"`
}

// UseCouponRequest is the DTO for PUT /coupons/:id/use. A nil or
// non-positive amount on a money coupon means "use the full remaining
// balance"; amount is ignored for product coupons.
type UseCouponRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
	Notes  string   `json:"notes"`
}

// ListCouponsQuery carries the filters and pagination for GET /coupons.
type ListCouponsQuery struct {
	Search   string `query:"search"`
	Company  string `query:"company"`
	Category string `query:"category"`
	Type     string `query:"type" validate:"omitempty,oneof=money product"`
	Status   string `query:"status" validate:"omitempty,oneof=active used expired expiring"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset   int    `query:"offset" validate:"omitempty,gte=0"`
}

// CouponFilter is the subset of list filters the repository can apply in
// SQL. The status filter is absent on purpose: status is derived and
// time-dependent, so the service filters on it after computing it.
type CouponFilter struct {
	Search   string
	Company  string
	Category string
	Type     string
}

// ListCouponsResponse is a page of coupons plus the pre-pagination total.
type ListCouponsResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// StatsSummary aggregates the full coupon set. TotalValue is the raw sum of
// money balances regardless of status.
type StatsSummary struct {
	TotalCoupons         int     `json:"total_coupons"`
	ActiveMoneyCoupons   int     `json:"active_money_coupons"`
	ActiveProductCoupons int     `json:"active_product_coupons"`
	ExpiringSoon         int     `json:"expiring_soon"`
	TotalValue           float64 `json:"total_value"`
	TotalCompanies       int     `json:"total_companies"`
	TotalCategories      int     `json:"total_categories"`
}
