package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"leadmarket/internal/auth"
	"leadmarket/internal/logger"
	"leadmarket/internal/metrics"
	"leadmarket/internal/notification"
)

type Handler struct {
	repo     Repository
	notifier *notification.Service
}

func NewHandler(db *sqlx.DB, notifier *notification.Service) *Handler {
	return &Handler{
		repo:     NewRepository(db),
		notifier: notifier,
	}
}

func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()

	balance, err := h.repo.GetBalance(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance"})
		return
	}

	monthly, err := h.repo.MonthlySpend(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load monthly spend"})
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		UserID:       userID,
		LeadCoins:    balance,
		MonthlySpend: monthly,
	})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// SendCoins credits a user from the admin panel. Admin role is enforced by
// route middleware; the admin id lands on the log entry for audit.
func (h *Handler) SendCoins(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	targetID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req SendCoinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.repo.SendCoins(c.Request.Context(), adminID, targetID, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send coins"})
		return
	}

	metrics.RecordCredit("admin_topup", req.Amount)
	logger.Infof("Admin %d sent %d coins to user %d", adminID, req.Amount, targetID)

	ctx := c.Request.Context()
	h.notifier.NotifyCoinsReceived(ctx, targetID, req.Amount, req.Description)
	h.notifier.BalanceRecovered(ctx, targetID, balance)

	c.JSON(http.StatusOK, gin.H{
		"message":     "coins sent",
		"new_balance": balance,
	})
}
