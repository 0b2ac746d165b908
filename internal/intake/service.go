// Package intake orchestrates one inbound chat event end to end: lead
// lookup-or-create, message persistence, keyword auto-advance, and the
// realtime notifications. Partial completion is acceptable; notification
// and advance failures never roll back the stored message.
package intake

import (
	"context"

	leadsrepo "camicam_crm_backend/internal/leads/repository"
	leadsvc "camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/internal/messages"
	"camicam_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadPipeline is the slice of the lead service the intake flow uses.
type LeadPipeline interface {
	LookupOrCreate(ctx context.Context, tenantID uuid.UUID, params leadsvc.CreateParams) (leadsrepo.Lead, bool, error)
	AutoAdvance(ctx context.Context, tenantID uuid.UUID, lead leadsrepo.Lead, messageBody string) (string, string, bool, error)
	TouchActivity(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
}

// MessageRecorder is the slice of the message service the intake flow uses.
type MessageRecorder interface {
	Record(ctx context.Context, params messages.CreateMessageParams) (messages.Message, error)
}

type Service struct {
	leads    LeadPipeline
	messages MessageRecorder
	log      *logger.Logger
}

func NewService(leads LeadPipeline, msgs MessageRecorder, log *logger.Logger) *Service {
	return &Service{leads: leads, messages: msgs, log: log}
}

// InboundEvent is one validated inbound chat event.
type InboundEvent struct {
	Platform string
	Sender   string
	Body     string
	Kind     string
}

// Result reports what the intake run did.
type Result struct {
	Lead        leadsrepo.Lead
	LeadCreated bool
	Message     messages.Message
	OldStatus   string
	NewStatus   string
	Advanced    bool
}

// Process runs the orchestration for one event. The lead and message writes
// must succeed; the auto-advance is best-effort once the message is stored.
func (s *Service) Process(ctx context.Context, tenantID uuid.UUID, event InboundEvent) (Result, error) {
	lead, created, err := s.leads.LookupOrCreate(ctx, tenantID, leadsvc.CreateParams{
		Phone:    event.Sender,
		Platform: event.Platform,
	})
	if err != nil {
		return Result{}, err
	}

	msg, err := s.messages.Record(ctx, messages.CreateMessageParams{
		TenantID: tenantID,
		Platform: event.Platform,
		Sender:   event.Sender,
		Body:     event.Body,
		Kind:     event.Kind,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Lead:        lead,
		LeadCreated: created,
		Message:     msg,
		OldStatus:   lead.Status,
		NewStatus:   lead.Status,
	}

	// A stored message is activity on its own. New leads start with a fresh
	// clock; existing ones are touched here so a conversation that never
	// moves status still keeps its context alive.
	if !created {
		if err := s.leads.TouchActivity(ctx, tenantID, lead.ID); err != nil {
			s.log.Warn("activity refresh failed after message stored",
				"tenant", tenantID, "phone", lead.Phone, "error", err)
		}
	}

	old, next, advanced, err := s.leads.AutoAdvance(ctx, tenantID, lead, event.Body)
	if err != nil {
		s.log.Warn("auto-advance failed after message stored",
			"tenant", tenantID, "phone", lead.Phone, "error", err)
		return result, nil
	}
	result.OldStatus = old
	result.NewStatus = next
	result.Advanced = advanced

	return result, nil
}
