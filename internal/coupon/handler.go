package coupon

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"leadmarket/internal/auth"
	"leadmarket/internal/notification"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB, notifier *notification.Service) *Handler {
	return &Handler{service: NewService(NewRepository(db), notifier)}
}

func (h *Handler) Claim(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ClaimCoupon(c.Request.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCouponNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
		case errors.Is(err, ErrInactive):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "coupon is no longer active"})
		case errors.Is(err, ErrExhausted):
			c.JSON(http.StatusGone, gin.H{"error": "coupon has no uses left"})
		case errors.Is(err, ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "coupon already claimed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim coupon"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coupon, err := h.service.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrCodeExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "coupon code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create coupon"})
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

func (h *Handler) List(c *gin.Context) {
	coupons, err := h.service.ListCoupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load coupons"})
		return
	}

	c.JSON(http.StatusOK, coupons)
}
