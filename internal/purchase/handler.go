package purchase

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"leadmarket/internal/auth"
	"leadmarket/internal/logger"
	"leadmarket/internal/notification"
	"leadmarket/internal/payment"
	"leadmarket/internal/user"
)

type Handler struct {
	service       Service
	webhookSecret string
}

func NewHandler(db *sqlx.DB, provider payment.Provider, notifier *notification.Service, mailer Mailer, urls CheckoutURLs, webhookSecret string) *Handler {
	return &Handler{
		service:       NewService(NewRepository(db), provider, user.NewRepository(db), notifier, mailer, urls),
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load packages"})
		return
	}

	c.JSON(http.StatusOK, packages)
}

func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, Plans())
}

func (h *Handler) PurchaseCoins(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PurchaseCoinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkout, err := h.service.PurchaseCoins(c.Request.Context(), userID, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPackageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "coin package not found"})
		case errors.Is(err, payment.ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start checkout"})
		}
		return
	}

	c.JSON(http.StatusCreated, checkout)
}

func (h *Handler) PurchaseSubscription(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PurchaseSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkout, err := h.service.PurchaseSubscription(c.Request.Context(), userID, req.PlanType)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subscription plan"})
		case errors.Is(err, payment.ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start checkout"})
		}
		return
	}

	c.JSON(http.StatusCreated, checkout)
}

// VerifyPayment is the polling side of reconciliation. It converges on the
// same terminal state as the webhook no matter which one runs first.
func (h *Handler) VerifyPayment(c *gin.Context) {
	if _, ok := auth.GetUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment session not found"})
		case errors.Is(err, payment.ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify payment"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListMyPurchases(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	purchases, err := h.service.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
		return
	}

	c.JSON(http.StatusOK, purchases)
}

func (h *Handler) ListMySubscriptions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subs, err := h.service.ListSubscriptions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

// Webhook ingests signed provider events. Non-2xx responses trigger
// provider-side retries, so only retryable failures return one: a session we
// have already processed, or one we cannot ever recover, is acknowledged.
func (h *Handler) Webhook(c *gin.Context) {
	payloadBytes, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read payload"})
		return
	}

	event, err := payment.ParseEvent(payloadBytes, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Errorf("Webhook signature rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.service.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrAlreadyProcessed) {
			logger.Infof("Webhook %s acknowledged without action: %v", event.ID, err)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		logger.Errorf("Webhook %s processing failed: %v", event.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
