package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"luckyspot/internal/adapters/http/handler"
	"luckyspot/internal/adapters/http/middleware"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
)

// Services are the use cases exposed over HTTP. Retry is optional.
type Services struct {
	Entrants   input.EntrantUseCase
	Promotions input.PromotionUseCase
	Query      input.QueryUseCase
	Retry      output.PromotionQueue
}

type RouterConfig struct {
	ServiceName string // enables otelgin when set
	Gatherer    prometheus.Gatherer
}

// New builds the engine. Order matters: OTel creates the span, Recovery
// catches panics, Logger logs with trace context.
func New(services Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	SetupRoutes(router, services, cfg)
	return router
}

func SetupRoutes(router *gin.Engine, services Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	entrantHandler := handler.NewEntrantHandler(services.Entrants, services.Promotions, services.Query, services.Retry)
	promotionHandler := handler.NewPromotionHandler(services.Promotions, services.Retry)

	events := router.Group("/api/v1/events/:eventID")
	{
		EntrantRouter(events, entrantHandler)
		PromotionRouter(events, promotionHandler)
	}
}

func EntrantRouter(rg *gin.RouterGroup, h *handler.EntrantHandler) {
	rg.GET("/entrants", h.List)
	rg.POST("/entrants", h.Join)
	rg.GET("/entrants/count", h.Count)
	rg.GET("/entrants/:entrantID", h.Get)
	rg.POST("/entrants/:entrantID/cancel", h.Cancel)
	rg.POST("/entrants/:entrantID/confirm", h.Confirm)
	rg.POST("/invitations/:uid", h.Respond)
}

func PromotionRouter(rg *gin.RouterGroup, h *handler.PromotionHandler) {
	rg.POST("/promotions", h.Promote)
	rg.POST("/lottery", h.Lottery)
	rg.GET("/roster", h.Roster)
	rg.PUT("/roster", h.SetCapacity)
	rg.GET("/replacements", h.Replacements)
}
