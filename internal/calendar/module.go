// Package calendar provides the booking calendar bounded context.
// It manages per-tenant event dates with a capacity ceiling, the single-slot
// reservation flow, and year-level bookkeeping.
package calendar

import (
	"camicam_crm_backend/internal/calendar/handler"
	"camicam_crm_backend/internal/calendar/repository"
	"camicam_crm_backend/internal/calendar/service"
	"camicam_crm_backend/internal/events"
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/platform/db"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/validator"
)

// Module is the calendar bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the calendar module with all its dependencies.
func NewModule(pool *db.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calendar"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts calendar routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Tenant.Group("/calendario")
	group.GET("/disponibilidad", m.handler.Availability)
	group.POST("/apartar", m.handler.Reserve)
	group.GET("/fechas", m.handler.ListOccupied)
	group.POST("/fechas", m.handler.AddEntry)
	group.GET("/fechas/:id", m.handler.GetEntry)
	group.PUT("/fechas/:id", m.handler.UpdateEntry)
	group.DELETE("/fechas/:id", m.handler.DeleteEntry)
	group.GET("/proximas", m.handler.Upcoming)
	group.GET("/anios", m.handler.Years)
	group.DELETE("/anios/:anio", m.handler.DeleteYear)
	group.PUT("/anios/color", m.handler.SetYearColor)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
