package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

const sessionKey = "sessionId"

// SessionMiddleware requires the :sessionId path parameter to be a UUID and
// stores its canonical form on the context.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("sessionId")
		if raw == "" {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("session id required", []global.ValidationError{
				{Field: "sessionId", Message: "session id is required", Code: "required"},
			}))
			c.Abort()
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("invalid session id", []global.ValidationError{
				{Field: "sessionId", Message: "session id must be a UUID", Code: "invalid_format"},
			}))
			c.Abort()
			return
		}

		c.Set(sessionKey, id.String())
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Timeout bounds the request context, and with it every backend call.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
