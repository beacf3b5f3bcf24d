package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger writes one structured line per request. Provider callback
// retries are correlated through request_id and client_ip, so the line
// carries both; client_ip prefers the value resolved by
// ClientIPMiddleware over gin's own heuristic.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()

		clientIP := c.GetString("client_ip")
		if clientIP == "" {
			clientIP = c.ClientIP()
		}

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Dur("latency_ms", time.Since(start)).
			Str("client_ip", clientIP).
			Msg("Request completed")
	}
}
