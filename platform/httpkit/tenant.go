// Package httpkit provides HTTP utilities including tenant scope abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextTenantKey is the gin context key for the resolved tenant scope.
	ContextTenantKey = "tenantScope"
)

// TenantScope is the strongly-typed tenant identity produced by the tenant
// resolution middleware. It is the only way a handler can obtain a tenant ID;
// raw routing strings and request-body tenant identifiers never reach the
// data layer.
type TenantScope struct {
	ID        uuid.UUID
	Subdomain string
}

// SetTenant stores the resolved tenant scope on the gin context.
// Only the tenant resolution middleware calls this.
func SetTenant(c *gin.Context, scope TenantScope) {
	c.Set(ContextTenantKey, scope)
}

// GetTenant extracts the resolved tenant scope from a gin context.
func GetTenant(c *gin.Context) (TenantScope, bool) {
	value, ok := c.Get(ContextTenantKey)
	if !ok {
		return TenantScope{}, false
	}

	scope, ok := value.(TenantScope)
	if !ok || scope.ID == uuid.Nil {
		return TenantScope{}, false
	}

	return scope, true
}

// MustGetTenant extracts the tenant scope from a gin context.
// If no tenant was resolved, it aborts with 404 and returns false; the
// response deliberately does not reveal whether the routing key exists.
func MustGetTenant(c *gin.Context) (TenantScope, bool) {
	scope, ok := GetTenant(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return TenantScope{}, false
	}
	return scope, true
}
