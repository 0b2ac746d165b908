// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"camicam_crm_backend/internal/events"
	"camicam_crm_backend/platform/config"
	"camicam_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.TenantConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and tenant settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// TenantMiddleware resolves the request host to a tenant scope.
	TenantMiddleware gin.HandlerFunc
	// WebhookTenantMiddleware is the resolver variant for machine callers.
	WebhookTenantMiddleware gin.HandlerFunc
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
