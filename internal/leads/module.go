// Package leads provides the lead pipeline bounded context.
// It owns lead identity (phone dedup per tenant), the status machine, and
// the conversational context lifecycle.
package leads

import (
	"camicam_crm_backend/internal/events"
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/internal/leads/handler"
	"camicam_crm_backend/internal/leads/repository"
	"camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/platform/db"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *db.Pool, bus events.Bus, bot service.BotNotifier, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, bot, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Tenant.Group("/leads")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/contexto", m.handler.GetContext)
	group.PUT("/contexto", m.handler.SetContext)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Update)
	group.PATCH("/:id/estado", m.handler.ChangeStatus)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
