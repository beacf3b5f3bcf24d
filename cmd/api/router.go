package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"technest-backend/internal/shared/middleware"
	"technest-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
		middleware.ClientIPMiddleware(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupPaymentRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// PAYMENT ROUTES (public: checkout + provider callbacks)
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	payments := v1.Group("/payments")
	{
		payments.POST("/sslcommerz/init", c.PaymentHandler.InitiateSSLCommerz)
		payments.POST("/sslcommerz/ipn", c.PaymentHandler.SSLCommerzIPN)

		payments.POST("/stripe/init", c.PaymentHandler.InitiateStripe)
		payments.POST("/stripe/webhook", c.PaymentHandler.StripeWebhook)

		payments.POST("/bkash/init", c.PaymentHandler.InitiateBkash)
		payments.GET("/bkash/callback", c.PaymentHandler.BkashCallback)

		payments.POST("/nagad/init", c.PaymentHandler.InitiateNagad)
		payments.GET("/nagad/callback", c.PaymentHandler.NagadCallback)

		payments.POST("/payoneer/request", c.PaymentHandler.RequestPayoneerInvoice)
	}
}

// ========================================
// ORDER ROUTES (public status polling)
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders")
	{
		orders.GET("/:order_ref", c.OrderHandler.GetStatus)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		admin.GET("/orders", c.OrderHandler.List)
		admin.GET("/orders/:order_ref", c.OrderHandler.Get)
		admin.POST("/orders/:order_ref/reconcile", c.OrderHandler.Reconcile)
		admin.POST("/orders/:order_ref/refund", c.OrderHandler.Refund)
		admin.POST("/orders/:order_ref/fulfill", c.OrderHandler.Fulfill)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := c.DB.HealthCheck(checkCtx); err != nil {
			dbStatus = "down"
		}

		cacheStatus := "ok"
		if err := c.Cache.Ping(checkCtx); err != nil {
			cacheStatus = "down"
		}

		code := http.StatusOK
		if dbStatus != "ok" {
			code = http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":   dbStatus,
			"database": dbStatus,
			"cache":    cacheStatus,
			"version":  c.Config.App.Version,
		})
	}
}
