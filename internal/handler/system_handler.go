package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName         = "ulvis-relay"
	defaultHistoryLimit = 20
	healthCheckTimeout  = 2 * time.Second
)

// Home GET /
func Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "Online",
		"usage":  "/short?url=https://google.com",
		"bulk":   `POST /bulk {"urls": ["https://google.com"], "mode": "parallel|throttled"}`,
		"verify": "/verify?url=https://ulvis.net/<alias>",
	})
}

// Pinger зависимость, которую проверяет /health
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	postgres Pinger
	redis    Pinger
	logger   *zap.Logger
}

// NewHealthHandler любой из Pinger может быть nil, тогда зависимость считается отключённой
func NewHealthHandler(postgres, redis Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis, logger: logger}
}

// Health GET /health. Relay работает и без БД и Redis, поэтому статус всегда 200.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	check := func(name string, p Pinger) string {
		if p == nil {
			return "disabled"
		}
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			status = "degraded"
			return "down"
		}
		return "ok"
	}

	postgres := check("postgres", h.postgres)
	redis := check("redis", h.redis)

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  serviceName,
		"postgres": postgres,
		"redis":    redis,
	})
}

type HistoryHandler struct {
	journal service.IssueJournal
	logger  *zap.Logger
}

func NewHistoryHandler(journal service.IssueJournal, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{journal: journal, logger: logger}
}

type HistoryResponse struct {
	Count int                 `json:"count"`
	Links []models.IssuedLink `json:"links"`
}

// History GET /history?limit=N, последние выданные ссылки
func (h *HistoryHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}

	links, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list issued links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "internal_error",
			Message: "Failed to load history",
		})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Count: len(links), Links: links})
}
