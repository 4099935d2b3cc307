package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"leadmarket/internal/auth"
	"leadmarket/internal/config"
	"leadmarket/internal/coupon"
	"leadmarket/internal/email"
	"leadmarket/internal/entitlement"
	"leadmarket/internal/lead"
	"leadmarket/internal/ledger"
	"leadmarket/internal/notification"
	"leadmarket/internal/payment"
	"leadmarket/internal/purchase"
	"leadmarket/internal/user"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, provider payment.Provider) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	notifier := notification.NewService(notification.NewRepository(db), user.NewRepository(db), emailService)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	leadHandler := lead.NewHandler(db)
	entitlementHandler := entitlement.NewHandler(db, notifier)
	ledgerHandler := ledger.NewHandler(db, notifier)
	notificationHandler := notification.NewHandler(db)
	couponHandler := coupon.NewHandler(db, notifier)
	purchaseHandler := purchase.NewHandler(db, provider, notifier, emailService,
		purchase.CheckoutURLs{SuccessURL: cfg.CheckoutSuccessURL, CancelURL: cfg.CheckoutCancelURL},
		cfg.PaymentWebhookSecret)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	// The payment provider calls this; it authenticates via signature, not JWT.
	router.POST("/webhook", purchaseHandler.Webhook)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/leads", leadHandler.List)
		protected.GET("/leads/:leadID", leadHandler.Get)
		protected.POST("/leads/:leadID/view", entitlementHandler.Unlock)
		protected.GET("/leads/:leadID/viewed", entitlementHandler.HasViewed)

		protected.GET("/coins/balance", ledgerHandler.GetBalance)
		protected.GET("/coins/transactions", ledgerHandler.ListTransactions)
		protected.GET("/coins/purchases", purchaseHandler.ListMyPurchases)
		protected.POST("/coins/purchase", purchaseHandler.PurchaseCoins)

		protected.GET("/packages", purchaseHandler.ListPackages)

		protected.GET("/subscriptions", purchaseHandler.ListMySubscriptions)
		protected.GET("/subscriptions/plans", purchaseHandler.ListPlans)
		protected.POST("/subscriptions/purchase", purchaseHandler.PurchaseSubscription)
		protected.GET("/subscriptions/verify-payment", purchaseHandler.VerifyPayment)

		protected.POST("/coupons/claim", couponHandler.Claim)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:notificationID/read", notificationHandler.MarkRead)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/leads", leadHandler.Create)
		admin.PUT("/leads/:leadID", leadHandler.Update)
		admin.DELETE("/leads/:leadID", leadHandler.Delete)

		admin.POST("/users/:userID/send-coins", ledgerHandler.SendCoins)

		admin.GET("/settings/lead-coins", entitlementHandler.GetSettings)
		admin.PUT("/settings/lead-coins", entitlementHandler.UpdateSettings)

		admin.GET("/coupons", couponHandler.List)
		admin.POST("/coupons", couponHandler.Create)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.srv = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
