package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "social-graph/backend/pkg/errors"
)

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeTransient:
		return http.StatusServiceUnavailable
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeContext:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg,
			zap.String("path", c.FullPath()),
			zap.String("kind", string(apperrors.KindOf(err))),
			zap.Error(err))
		c.JSON(status, gin.H{"error": msg, "kind": apperrors.KindOf(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperrors.KindOf(err)})
}
