package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/service"
)

// Metrics records request duration and counts per route. Unmatched routes
// fall back to the raw path so 404 probes still show up, labelled as-is.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
