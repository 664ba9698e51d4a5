package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// errorHandlingMiddleware renders the last handler error: a JSON envelope under
// /api, plain text for the page routes.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		reply := describeError(err)
		level := slog.LevelWarn
		if reply.Status >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed", "code", reply.Code, "status", reply.Status, "path", c.Request.URL.Path, "error", err)

		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.String(reply.Status, reply.Message)
			return
		}
		c.JSON(reply.Status, gin.H{
			"error": gin.H{
				"code":    reply.Code,
				"message": reply.Message,
			},
		})
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
