package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/middleware"
	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultMaxBatchURLs = 100
	defaultBatchTimeout = 45 * time.Second
)

// BatchLimits ограничения одного /bulk
type BatchLimits struct {
	MaxURLs     int
	DefaultMode service.BatchMode
	// Timeout должен быть меньше WriteTimeout сервера, иначе клиент не получит ответ
	Timeout time.Duration
}

type LinkHandler struct {
	links  service.LinkService
	limits BatchLimits
	logger *zap.Logger
}

func NewLinkHandler(links service.LinkService, limits BatchLimits, logger *zap.Logger) *LinkHandler {
	if limits.MaxURLs <= 0 {
		limits.MaxURLs = defaultMaxBatchURLs
	}
	if limits.DefaultMode == "" {
		limits.DefaultMode = service.BatchParallel
	}
	if limits.Timeout <= 0 {
		limits.Timeout = defaultBatchTimeout
	}
	return &LinkHandler{
		links:  links,
		limits: limits,
		logger: logger,
	}
}

// ErrorResponse тело любого неуспешного ответа
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	OriginalURL string `json:"original_url,omitempty"`
	RawPreview  string `json:"raw_preview,omitempty"`
}

type ShortResponse struct {
	Success bool `json:"success"`
	models.ShortLink
}

type BulkRequest struct {
	URLs []string `json:"urls"`
	Mode string   `json:"mode"`
}

type BulkResponse struct {
	Success bool                   `json:"success"`
	Count   int                    `json:"count"`
	Results []models.ShortenResult `json:"results"`
}

// statusFor HTTP статус по виду ошибки сервиса
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUpstreamRejected):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUpstreamUnparseable):
		return http.StatusBadGateway
	default:
		// ErrNetwork, ErrRetriesExhausted и всё неожиданное
		return http.StatusInternalServerError
	}
}

func errorBody(err error, originalURL string) ErrorResponse {
	return ErrorResponse{
		Success:     false,
		Error:       service.KindName(err),
		Message:     err.Error(),
		OriginalURL: originalURL,
		RawPreview:  service.PreviewOf(err),
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   "invalid_input",
		Message: message,
	})
}

// Short GET /short?url=...
func (h *LinkHandler) Short(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		badRequest(c, "Missing ?url= parameter")
		return
	}

	link, err := h.links.Shorten(c.Request.Context(), target)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to shorten link", zap.String("url", target), zap.Error(err))
		} else {
			h.logger.Warn("Shorten rejected", zap.String("url", target), zap.Error(err))
		}
		c.JSON(status, errorBody(err, target))
		return
	}

	c.JSON(http.StatusOK, ShortResponse{Success: true, ShortLink: *link})
}

// Bulk POST /bulk {"urls": [...], "mode": "parallel|throttled"}.
// После валидации тела ответ всегда 200: ошибки отдельных URL лежат в results.
func (h *LinkHandler) Bulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid bulk body", zap.Error(err))
		badRequest(c, "Invalid JSON body")
		return
	}

	switch {
	case req.URLs == nil:
		badRequest(c, "Missing 'urls' array")
		return
	case len(req.URLs) == 0:
		badRequest(c, "'urls' must not be empty")
		return
	case len(req.URLs) > h.limits.MaxURLs:
		badRequest(c, "Too many urls in one batch")
		return
	}

	mode, err := service.ParseBatchMode(req.Mode, h.limits.DefaultMode)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	// По истечении бюджета оставшиеся элементы получают network_error, но ответ уходит целиком
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.limits.Timeout)
	defer cancel()

	results := h.links.ShortenBatch(ctx, req.URLs, mode)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	h.logger.Info("Batch finished",
		zap.Int("count", len(results)),
		zap.Int("failed", failed),
		zap.String("mode", string(mode)),
		zap.String("api_key", middleware.APIKeyName(c)),
	)

	c.JSON(http.StatusOK, BulkResponse{
		Success: true,
		Count:   len(results),
		Results: results,
	})
}
