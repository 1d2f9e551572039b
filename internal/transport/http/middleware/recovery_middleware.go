package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/setuphub/setuphub/pkg/logger"
)

// maxStackTraceSize bounds the logged stack
const maxStackTraceSize = 4096

// RecoveryMiddleware turns panics into a logged 500 response
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("recovery")

	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			requestID := GetRequestID(c)
			stack := debug.Stack()
			if len(stack) > maxStackTraceSize {
				stack = stack[:maxStackTraceSize]
			}

			log.WithContext(c.Request.Context()).Error("Panic recovered",
				logger.Any("panic", err),
				logger.Method(c.Request.Method),
				logger.Path(c.Request.URL.Path),
				logger.ClientIP(c.ClientIP()),
				logger.RequestID(requestID),
				zap.ByteString("stacktrace", stack),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal_error",
				"message":    "An unexpected error occurred",
				"request_id": requestID,
			})
		}()

		c.Next()
	}
}
