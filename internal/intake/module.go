package intake

import (
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/validator"
)

// Module is the message intake bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the intake module with all its dependencies.
func NewModule(leads LeadPipeline, msgs MessageRecorder, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(leads, msgs, log)
	h := NewHandler(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// RegisterRoutes mounts the webhook route on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/webhook/mensaje", m.handler.Receive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
