package handler

import (
	"github.com/SergeiKhy/ulvis-relay/internal/metrics"
	"github.com/SergeiKhy/ulvis-relay/internal/middleware"
	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps зависимости HTTP слоя. Journal, Health, RateLimiter и APIKey могут быть nil.
type RouterDeps struct {
	Links       service.LinkService
	Inspector   service.LinkInspector
	Journal     service.IssueJournal
	Health      *HealthHandler
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	APIKey      gin.HandlerFunc
	Batch       BatchLimits
	Logger      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger, deps.Metrics))

	// Служебные роуты без лимита
	router.GET("/", Home)
	if deps.Health != nil {
		router.GET("/health", deps.Health.Health)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}

	linkHandler := NewLinkHandler(deps.Links, deps.Batch, logger)
	verifyHandler := NewVerifyHandler(deps.Inspector, logger)

	api.GET("/short", linkHandler.Short)
	api.GET("/verify", verifyHandler.Verify)

	// API Key только для тяжёлых и приватных эндпоинтов
	protected := api.Group("/")
	if deps.APIKey != nil {
		protected.Use(deps.APIKey)
	}

	protected.POST("/bulk", linkHandler.Bulk)

	if deps.Journal != nil {
		historyHandler := NewHistoryHandler(deps.Journal, logger)
		protected.GET("/history", historyHandler.History)
	}

	return router
}
