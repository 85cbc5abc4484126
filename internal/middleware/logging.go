package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"meugestor/internal/logger"
	"meugestor/internal/uuid"
)

const requestIDKey = "requestID"

// RequestLogging logs each request with its request ID, method, path,
// status, latency and client IP. A well-formed X-Request-ID sent by the
// gateway is kept; otherwise a new UUIDv7 is assigned.
func RequestLogging() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if !uuid.IsValid(requestID) {
			requestID = uuid.New()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		log.Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
