package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"leadmarket/internal/logger"
)

// RequestLoggingMiddleware logs each request with latency and status.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			logger.Errorf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, latency)
		} else {
			logger.Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}
