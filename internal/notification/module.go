// Package notification bridges domain events to the connected dashboards.
// This module subscribes to events and inverts the dependency: domain modules
// publish facts about commits and never know who is listening.
package notification

import (
	"context"

	"camicam_crm_backend/internal/events"
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/internal/notification/sse"
	"camicam_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// SSE event names consumed by the dashboard frontend.
const (
	EventNewLead           = "nuevo_lead"
	EventLeadStatusChanged = "lead_estado_cambiado"
	EventLeadDeleted       = "lead_eliminado"
	EventNewMessage        = "nuevo_mensaje"
	EventCalendarUpdated   = "calendario_actualizado"
)

// Broadcaster fans an event out to one tenant's connected sessions.
type Broadcaster interface {
	Broadcast(tenantID uuid.UUID, event sse.Event)
}

// Module is the realtime notification module implementing http.Module.
type Module struct {
	sse       *sse.Service
	broadcast Broadcaster
	log       *logger.Logger
}

// NewModule creates the notification module around an SSE service.
func NewModule(sseService *sse.Service, log *logger.Logger) *Module {
	return &Module{sse: sseService, broadcast: sseService, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// SSE returns the underlying SSE service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterRoutes mounts the event stream endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Tenant.GET("/eventos", m.sse.Handler())
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)
	bus.Subscribe(events.LeadDeleted{}.EventName(), m)
	bus.Subscribe(events.MessageCreated{}.EventName(), m)
	bus.Subscribe(events.CalendarUpdated{}.EventName(), m)
}

// Handle routes domain events to the matching SSE broadcast.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		m.broadcast.Broadcast(e.TenantID, sse.Event{Type: EventNewLead, Data: e})
	case events.LeadStatusChanged:
		m.broadcast.Broadcast(e.TenantID, sse.Event{Type: EventLeadStatusChanged, Data: e})
	case events.LeadDeleted:
		m.broadcast.Broadcast(e.TenantID, sse.Event{Type: EventLeadDeleted, Data: e})
	case events.MessageCreated:
		m.broadcast.Broadcast(e.TenantID, sse.Event{Type: EventNewMessage, Data: e})
	case events.CalendarUpdated:
		m.broadcast.Broadcast(e.TenantID, sse.Event{Type: EventCalendarUpdated, Data: e})
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
