package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/soletrea/atelier/internal/config"
	"github.com/soletrea/atelier/internal/ratelimit"
	"github.com/soletrea/atelier/internal/server/http/handlers"
	"github.com/soletrea/atelier/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketplaceFacade, pinger handlers.Pinger, limiter ratelimit.Limiter, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	checkoutHandler := handlers.NewCheckoutHandler(facade)
	productHandler := handlers.NewProductHandler(facade)
	sweepHandler := handlers.NewSweepHandler(facade)
	healthHandler := handlers.NewHealthHandler(pinger, limiter)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.Use(middleware.RateLimit(limiter, ratelimit.PresetAPI))
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/checkout", checkoutHandler.Create)
	api.POST("/checkout/confirm", checkoutHandler.Confirm)

	internal := engine.Group("/api/internal")
	internal.Use(middleware.SweepAuth(cfg.SweepSecret, cfg.SweepAuthDisabled))
	internal.POST("/sweep", sweepHandler.Trigger)

	return engine
}
