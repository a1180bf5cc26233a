package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/metrics"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// SessionHeader carries the console session id on every authenticated call.
const SessionHeader = "X-Session-Id"

// SessionMiddleware resolves the caller's session once and attaches both
// the id and the resolved token to the request context, so gateway calls
// downstream never repeat the store lookup. Requests without a valid
// session are not rejected here: their backend calls simply go out without
// a bearer token and the backend decides.
func SessionMiddleware(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID != "" {
			if token, err := sessions.Lookup(c.Request.Context(), sessionID); err == nil {
				ctx := session.WithID(c.Request.Context(), sessionID)
				ctx = session.WithToken(ctx, token)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

// RequestLogger logs every handled request with zap.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("size", c.Writer.Size()))
	}
}

// RequestMetrics records request counts and latency.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), start)
	}
}
