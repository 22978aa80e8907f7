package router

import (
	"github.com/gin-gonic/gin"

	"invoiceview/internal/config"
	"invoiceview/internal/handler"
	"invoiceview/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	reviewH *handler.ReviewHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	reviews := v1.Group("/reviews")
	reviews.POST("", reviewH.Create)
	reviews.GET("/:id", reviewH.Get)
	reviews.POST("/:id/upload", reviewH.Upload)
	reviews.POST("/:id/cancel", reviewH.CancelUpload)
	reviews.POST("/:id/reset", reviewH.Reset)
	reviews.PUT("/:id/record", reviewH.UpdateRecord)
	reviews.POST("/:id/refresh", reviewH.RefreshRecord)
	reviews.POST("/:id/line-items", reviewH.AddLineItem)
	reviews.DELETE("/:id/line-items/:index", reviewH.RemoveLineItem)
	reviews.POST("/:id/submit", reviewH.Submit)
	reviews.POST("/:id/dismiss-warning", reviewH.DismissWarning)
	reviews.POST("/:id/preview/transform", reviewH.TransformPreview)
	reviews.GET("/:id/export", reviewH.Export)

	return r
}
