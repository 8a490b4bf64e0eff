package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// Users resolves the subject of a verified token.
type Users interface {
	Identity(ctx context.Context, id uint) (auth.Identity, error)
}

// Identify attaches the caller identity when a bearer token is present. Requests without
// an Authorization header pass through as anonymous; a bad token is rejected.
func Identify(tokens *jwt.Manager, users Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Header 里的 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// 2. 格式通常是 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		// 3. 解析 Token
		claims, err := tokens.ParseToken(parts[1])
		if err != nil || claims.UserId <= 0 {
			response.Abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		// 4. 角色以数据库为准
		id, err := users.Identity(c.Request.Context(), uint(claims.UserId))
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				response.Abort(c, http.StatusUnauthorized, "user not found")
				return
			}
			response.Fail(c, err)
			c.Abort()
			return
		}
		auth.Set(c, id)
		c.Next()
	}
}

// Require lets the request through when policy allows the caller. Otherwise anonymous
// callers get 401 and authenticated ones 403.
func Require(policy auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.FromContext(c)
		if policy(c.Request.Method, id) {
			c.Next()
			return
		}
		if !id.Authenticated() {
			response.Abort(c, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		response.Abort(c, http.StatusForbidden, "you do not have permission to perform this action")
	}
}
