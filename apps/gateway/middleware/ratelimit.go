package middleware

import (
	"log"
	"net/http"

	"go-storefront/pkg/ratelimit"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimit guards a route with the sentinel rule loaded for resource.
func RateLimit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		exit, ok := ratelimit.Allow(resource)
		if !ok {
			// 被限流了
			log.Printf("[RateLimit] %s blocked %s %s", resource, c.Request.Method, c.Request.URL.Path)
			response.Abort(c, http.StatusTooManyRequests, "系统繁忙，请稍后再试")
			return
		}
		defer exit() // 务必退出
		c.Next()
	}
}
