package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whisper-scribe/internal/api/errors"
)

// ErrorHandler recovers panics and answers with a generic internal error.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)

		if apiErr, ok := recovered.(*errors.APIError); ok {
			apiErr.RequestID = requestID
			c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
			return
		}

		logger.Error("panic while serving request",
			zap.Any("recovered", recovered),
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)

		apiErr := errors.NewInternalError("Internal server error")
		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as a JSON API error. Pipeline errors are mapped to
// their API kind first.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := errors.FromDomain(err)
	apiErr.RequestID = c.GetString(RequestIDKey)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
