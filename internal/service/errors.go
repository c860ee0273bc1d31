package service

import "errors"

var (
	// ErrCouponNotFound is returned when a coupon id does not exist
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrDuplicateCode is returned when creating a coupon whose code is
	// already taken (case-sensitive comparison)
	ErrDuplicateCode = errors.New("coupon code already exists")

	// ErrInsufficientBalance is returned when a usage request would overdraw
	// a money coupon
	ErrInsufficientBalance = errors.New("amount exceeds remaining balance")

	// ErrAlreadyUsed is returned when a product coupon is used a second time
	ErrAlreadyUsed = errors.New("product coupon already used")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")
)
