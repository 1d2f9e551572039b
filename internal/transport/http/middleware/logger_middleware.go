package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/setuphub/setuphub/pkg/logger"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"

	// TraceIDHeader echoes the trace id when a span is active
	TraceIDHeader = "X-Trace-ID"
)

// LoggerConfig holds configuration for the logging middleware
type LoggerConfig struct {
	Logger *logger.Logger

	// SkipPaths are paths that should not be logged
	SkipPaths []string

	// SkipPathPrefixes are path prefixes that should not be logged
	SkipPathPrefixes []string
}

// DefaultLoggerConfig returns a default middleware configuration
func DefaultLoggerConfig(log *logger.Logger) *LoggerConfig {
	return &LoggerConfig{
		Logger:    log,
		SkipPaths: []string{"/healthz", "/metrics"},
	}
}

// LoggerMiddleware logs each request with latency, status and trace ids
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return LoggerMiddlewareWithConfig(DefaultLoggerConfig(log))
}

// LoggerMiddlewareWithConfig returns a Gin middleware with custom configuration
func LoggerMiddlewareWithConfig(cfg *LoggerConfig) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		var traceID, spanID string
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
			spanID = sc.SpanID().String()
			c.Header(TraceIDHeader, traceID)
			c.Set("trace_id", traceID)
		}

		if skip(path, skipPaths, cfg.SkipPathPrefixes) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		statusCode := c.Writer.Status()
		fields := []logger.Field{
			logger.RequestID(requestID),
			logger.Method(c.Request.Method),
			logger.Path(path),
			logger.Query(c.Request.URL.RawQuery),
			logger.StatusCode(statusCode),
			logger.Latency(latency),
			logger.ClientIP(c.ClientIP()),
			logger.UserAgent(c.Request.UserAgent()),
			logger.BodySize(c.Writer.Size()),
		}
		if traceID != "" {
			fields = append(fields, logger.TraceID(traceID), logger.SpanID(spanID))
		}
		if user := GetUserFromContext(c); user != nil {
			fields = append(fields, logger.UserID(user.ID.String()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
		}

		msg := "HTTP Request"
		switch {
		case statusCode >= 500:
			log.Error(msg, fields...)
		case statusCode >= 400:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}

func skip(path string, paths map[string]struct{}, prefixes []string) bool {
	if _, ok := paths[path]; ok {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// GetRequestID retrieves the request ID from the gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
