// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"camicam_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a new lead row has been committed, whether it
// was created implicitly by message intake or explicitly from the dashboard.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"nombre"`
	Phone    string    `json:"telefono"`
	Status   string    `json:"estado"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published when a lead's pipeline status changes,
// either by explicit action or by the intake auto-advance.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"estadoAnterior"`
	NewStatus string    `json:"estado"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadDeleted is published after a lead and its message history have been
// removed by explicit operator action.
type LeadDeleted struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Phone    string    `json:"telefono"`
}

func (e LeadDeleted) EventName() string { return "leads.lead.deleted" }

// =============================================================================
// Messages Domain Events
// =============================================================================

// MessageCreated is published when an inbound or outbound message row has
// been committed.
type MessageCreated struct {
	BaseEvent
	MessageID uuid.UUID `json:"messageId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Platform  string    `json:"plataforma"`
	Sender    string    `json:"remitente"`
	Body      string    `json:"mensaje"`
	Kind      string    `json:"tipo"`
}

func (e MessageCreated) EventName() string { return "messages.message.created" }

// =============================================================================
// Calendar Domain Events
// =============================================================================

// Calendar update actions carried in CalendarUpdated.Action.
const (
	CalendarActionEntryAdded   = "nueva_fecha"
	CalendarActionEntryUpdated = "fecha_actualizada"
	CalendarActionEntryRemoved = "fecha_eliminada"
	CalendarActionDateReserved = "fecha_reservada"
	CalendarActionYearRemoved  = "anio_eliminado"
)

// CalendarUpdated is published after any committed mutation of the booking
// calendar, carrying the minimal delta dashboards need to refresh.
type CalendarUpdated struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	EntryID  uuid.UUID `json:"entryId,omitempty"`
	Action   string    `json:"accion"`
	Date     string    `json:"fecha,omitempty"`
	Year     int       `json:"anio,omitempty"`
	Title    string    `json:"titulo,omitempty"`
}

func (e CalendarUpdated) EventName() string { return "calendar.updated" }
