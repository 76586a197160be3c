package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/server/http/handlers"
	"github.com/mwangikib/coursepay/internal/server/http/middleware"
)

// Setup configures the gin router with handlers and middleware.
func Setup(facade handlers.SettlementFacade, settlement *metrics.Settlement, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	paymentHandler := handlers.NewPaymentHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	api := engine.Group("/api")

	payments := api.Group("/payments")
	payments.POST("", paymentHandler.Create)
	payments.POST("/validate", paymentHandler.Validate)
	payments.GET("/:orderID", paymentHandler.Get)
	payments.POST("/:orderID/verify", paymentHandler.Verify)

	api.POST("/webhooks/:provider", webhookHandler.Handle)

	admin := api.Group("/admin/payments")
	admin.POST("/:orderID/approve", adminHandler.Approve)
	admin.POST("/:orderID/reject", adminHandler.Reject)
	admin.POST("/:orderID/refund", adminHandler.Refund)

	engine.GET("/healthz", healthHandler.Healthz)
	engine.GET("/metrics", gin.WrapH(settlement.Handler()))

	return engine
}
