package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VerifyHandler struct {
	inspector service.LinkInspector
	logger    *zap.Logger
}

func NewVerifyHandler(inspector service.LinkInspector, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{inspector: inspector, logger: logger}
}

type NotFoundResponse struct {
	LinkStatus models.LinkStatus `json:"link_status"`
	Error      string            `json:"error"`
}

// Verify GET /verify?url=<alias или короткая ссылка>
func (h *VerifyHandler) Verify(c *gin.Context) {
	input := c.Query("url")
	if input == "" {
		badRequest(c, "Missing url parameter")
		return
	}

	report, err := h.inspector.Inspect(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, NotFoundResponse{
				LinkStatus: models.StatusInvalid,
				Error:      "Link not found",
			})
			return
		}

		h.logger.Warn("Failed to verify link", zap.String("input", input), zap.Error(err))
		c.JSON(statusFor(err), errorBody(err, ""))
		return
	}

	c.JSON(http.StatusOK, report)
}
