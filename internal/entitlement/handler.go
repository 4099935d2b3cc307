package entitlement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"leadmarket/internal/api"
	"leadmarket/internal/auth"
	"leadmarket/internal/lead"
	"leadmarket/internal/ledger"
	"leadmarket/internal/notification"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB, notifier *notification.Service) *Handler {
	return &Handler{
		service: NewService(NewRepository(db), lead.NewRepository(db), ledger.NewRepository(db), notifier),
	}
}

// Unlock godoc
// @Summary      Unlock lead contact details
// @Description  Debits the caller's LeadCoin balance for the requested tier and returns the contact payload. Repeat unlocks of a paid tier are free.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        leadID   path      int            true  "Lead ID"
// @Param        request  body      UnlockRequest  true  "View tier"
// @Success      200      {object}  UnlockResult
// @Failure      402      {object}  api.InsufficientBalanceResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /leads/{leadID}/view [post]
// @Security     BearerAuth
func (h *Handler) Unlock(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	leadID, err := strconv.Atoi(c.Param("leadID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewType, err := ParseViewType(req.ViewType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view_type must be one of contact_info, detailed_info, full_access"})
		return
	}

	result, err := h.service.UnlockLead(c.Request.Context(), userID, leadID, viewType)
	if err != nil {
		var insufficient *InsufficientBalanceError
		switch {
		case errors.As(err, &insufficient):
			c.JSON(http.StatusPaymentRequired, api.InsufficientBalanceResponse{
				Error:     "insufficient balance",
				Required:  insufficient.Required,
				Available: insufficient.Available,
			})
		case errors.Is(err, lead.ErrLeadNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlock lead"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) HasViewed(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	leadID, err := strconv.Atoi(c.Param("leadID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	viewed, err := h.service.HasViewed(c.Request.Context(), userID, leadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check view state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewed": viewed})
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}
