package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/matanchen1/voucher-manager/internal/model"
	"github.com/matanchen1/voucher-manager/internal/service"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	List(ctx context.Context, q *model.ListCouponsQuery) (*model.ListCouponsResponse, error)
	GetByID(ctx context.Context, id string) (*model.CouponResponse, error)
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.CouponResponse, error)
	Update(ctx context.Context, id string, req *model.UpdateCouponRequest) (*model.CouponResponse, error)
	Use(ctx context.Context, id string, req *model.UseCouponRequest) (*model.CouponResponse, error)
	Delete(ctx context.Context, id string) error
	RecentlyAdded(ctx context.Context, limit int) ([]model.CouponResponse, error)
	StatsSummary(ctx context.Context) (*model.StatsSummary, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service     CouponServiceInterface
	validator   *validator.Validate
	recentLimit int
}

// NewCouponHandler creates a new CouponHandler with the given service and
// validator. recentLimit bounds GET /coupons/recent.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate, recentLimit int) *CouponHandler {
	if recentLimit <= 0 {
		recentLimit = service.DefaultRecentLimit
	}
	return &CouponHandler{service: svc, validator: v, recentLimit: recentLimit}
}

// formatValidationError converts validator errors into a field-level message.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "required_if":
				return "invalid request: " + field + " is required for this coupon type"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "gte", "lte":
				return "invalid request: " + field + " is out of range"
			case "oneof":
				return "invalid request: " + field + " must be one of [" + fe.Param() + "]"
			case "len":
				return "invalid request: " + field + " must be exactly " + fe.Param() + " characters"
			case "datetime":
				return "invalid request: " + field + " must be a date in YYYY-MM-DD format"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// ListCoupons handles GET /coupons with filtering and pagination.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	var q model.ListCouponsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query parameters"})
	}
	if err := h.validator.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	page, err := h.service.List(c.Context(), &q)
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(page)
}

// GetCoupon handles GET /coupons/:id.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	coupon, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to get coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(coupon)
}

// CreateCoupon handles POST /coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCode) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid request",
				"message": err.Error(),
			})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_id", coupon.ID).
		Str("coupon_code", coupon.Code).
		Str("type", string(coupon.Type)).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// UpdateCoupon handles PUT /coupons/:id.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		case errors.Is(err, service.ErrDuplicateCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coupon code already exists"})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid request",
				"message": err.Error(),
			})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to update coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(coupon)
}

// UseCoupon handles PUT /coupons/:id/use.
func (h *CouponHandler) UseCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UseCouponRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Use(c.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		case errors.Is(err, service.ErrAlreadyUsed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product coupon already used"})
		case errors.Is(err, service.ErrInsufficientBalance):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount exceeds remaining balance"})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to use coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_id", id).
		Str("status", string(coupon.Status)).
		Msg("coupon used")

	return c.JSON(coupon)
}

// DeleteCoupon handles DELETE /coupons/:id.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to delete coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecentCoupons handles GET /coupons/recent.
func (h *CouponHandler) RecentCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.RecentlyAdded(c.Context(), h.recentLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list recent coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(coupons)
}

// StatsSummary handles GET /coupons/stats/summary.
func (h *CouponHandler) StatsSummary(c *fiber.Ctx) error {
	summary, err := h.service.StatsSummary(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute stats summary")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(summary)
}
