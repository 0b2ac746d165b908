package tenant

import (
	"net/http"

	"camicam_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Middleware resolves the tenant scope from the request host and stores it on
// the gin context. Requests whose host does not map to a live tenant are
// rejected with a generic 404 before any handler or repository runs; the
// response does not distinguish unknown, reserved, and deactivated routing
// keys.
func Middleware(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok, err := resolver.Resolve(c.Request.Context(), c.Request.Host)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}

		httpkit.SetTenant(c, scope)
		c.Next()
	}
}

// WebhookMiddleware resolves the tenant scope for machine callers. It differs
// from Middleware only in the rejection status: an unresolvable host is a
// caller credential problem on the webhook surface, so it answers 401.
func WebhookMiddleware(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok, err := resolver.Resolve(c.Request.Context(), c.Request.Host)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		httpkit.SetTenant(c, scope)
		c.Next()
	}
}
