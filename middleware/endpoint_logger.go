package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// EndpointCallLogger logs each HTTP request with its method, route, status
// and duration once the handler chain has finished.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.Printf("%s %s -> %d (%dms) ip=%s", c.Request.Method, path, status, duration.Milliseconds(), c.ClientIP())
	}
}
