package domain

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
)

// BaseHandler carries what every page handler shares.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// RespondError translates a taxonomy error into the page's single inline
// error banner. The upstream's own message is surfaced when it sent one;
// transport failures get the generic fallback and a log line, never a retry.
func (h *BaseHandler) RespondError(c *gin.Context, err error, fallback string) {
	status := http.StatusBadGateway

	var ue *models.UpstreamError
	switch {
	case errors.As(err, &ue):
		status = ue.Status
	case errors.Is(err, models.ErrTransport):
		h.Logger.Error("Upstream unreachable",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrPaymentPending):
		status = http.StatusConflict
	case errors.Is(err, models.ErrNothingToPay):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{
		"banner": models.ErrorBanner(models.UpstreamMessage(err, fallback)),
	})
}

// IntParam parses a numeric path parameter, writing the 400 response itself
// when the value is malformed.
func IntParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Invalid " + name),
		})
		return 0, false
	}
	return id, true
}
