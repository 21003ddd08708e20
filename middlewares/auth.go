package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

// SessionMiddleware validates a bearer token when one is present and attaches
// its identity to the request context. Requests without a token pass through;
// RequireAuth gates the routes that need one.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.GetHeader("token"))
		}
		raw = strings.TrimPrefix(raw, "Bearer ")
		if raw == "" {
			c.Next()
			return
		}

		token, err := utils.JwtValidate(raw)
		if err != nil || !token.Valid {
			c.Next()
			return
		}
		claims, ok := token.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.Next()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), raw)
		ctx = utils.SetUsernameInContext(ctx, strconv.Itoa(claims.ID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that did not carry a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		c.Next()
	}
}
