package messages

import (
	"camicam_crm_backend/internal/events"
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/platform/db"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/validator"
)

// Module is the messages bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the messages module with all its dependencies.
func NewModule(pool *db.Pool, bus events.Bus, bot Sender, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, bus, bot, log)
	h := NewHandler(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messages"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts message routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Tenant.Group("/mensajes")
	group.GET("", m.handler.List)
	group.GET("/conversacion", m.handler.Thread)
	group.POST("/enviar", m.handler.Send)
	group.PATCH("/:id/estado", m.handler.UpdateStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
