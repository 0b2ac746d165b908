// Package service implements the lead pipeline: dedup by phone, the
// permissive status machine, and conversational context lifecycle.
package service

import (
	"context"
	"fmt"
	"time"

	"camicam_crm_backend/internal/events"
	"camicam_crm_backend/internal/leads/domain"
	"camicam_crm_backend/internal/leads/repository"
	"camicam_crm_backend/platform/apperr"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence surface the lead pipeline needs.
// Satisfied by *repository.Repository.
type Store interface {
	LookupOrCreate(ctx context.Context, params repository.CreateParams) (repository.Lead, bool, error)
	Create(ctx context.Context, params repository.CreateParams) (repository.Lead, bool, error)
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Lead, error)
	GetByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (repository.Lead, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status string) (string, error)
	Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateParams) error
	List(ctx context.Context, tenantID uuid.UUID) ([]repository.ListItem, error)
	Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Lead, error)
	TouchActivity(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error
	SetContext(ctx context.Context, tenantID uuid.UUID, phone string, doc string) (string, error)
	GetContext(ctx context.Context, tenantID uuid.UUID, phone string) (*string, error)
	CleanupStaleContexts(ctx context.Context, cutoff time.Time) (int64, error)
}

// BotNotifier tells the external chat bot to drop cached conversation state
// for a phone number. Implemented by the bot client; failures are advisory.
type BotNotifier interface {
	DropContext(ctx context.Context, phoneNumber string) error
}

type Service struct {
	store Store
	bus   events.Bus
	bot   BotNotifier
	log   *logger.Logger
}

func New(store Store, bus events.Bus, bot BotNotifier, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, bot: bot, log: log}
}

// CreateParams are the caller-supplied fields for explicit lead creation.
type CreateParams struct {
	Name     string
	Phone    string
	Platform string
	Notes    string
}

// LookupOrCreate resolves (tenant, phone) to a lead, creating it at
// initial contact when unknown. Publishes LeadCreated only when this call
// created the row.
func (s *Service) LookupOrCreate(ctx context.Context, tenantID uuid.UUID, params CreateParams) (repository.Lead, bool, error) {
	lead, created, err := s.store.LookupOrCreate(ctx, repository.CreateParams{
		TenantID: tenantID,
		Name:     params.Name,
		Phone:    phone.NormalizeWireID(params.Phone),
		Platform: params.Platform,
		Notes:    params.Notes,
	})
	if err != nil {
		return repository.Lead{}, false, apperr.Wrap(apperr.KindUnavailable, "could not look up lead", err)
	}

	if created {
		s.publishCreated(ctx, lead)
	}
	return lead, created, nil
}

// Create is the explicit creation action from the dashboard.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, params CreateParams) (repository.Lead, error) {
	lead, created, err := s.store.Create(ctx, repository.CreateParams{
		TenantID: tenantID,
		Name:     params.Name,
		Phone:    phone.NormalizeWireID(params.Phone),
		Platform: params.Platform,
		Notes:    params.Notes,
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not create lead", err)
	}

	if created {
		s.publishCreated(ctx, lead)
	}
	return lead, nil
}

func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not load lead", err)
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]repository.ListItem, error) {
	items, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not list leads", err)
	}
	return items, nil
}

// ChangeStatus sets a lead to any member of the status enumeration.
// Transitions are deliberately unrestricted; only unknown values fail.
func (s *Service) ChangeStatus(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, status string) error {
	if !domain.IsValidStatus(status) {
		return apperr.Validation(fmt.Sprintf("unknown lead status %q", status))
	}

	old, err := s.store.ChangeStatus(ctx, id, tenantID, status)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("lead not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "could not change lead status", err)
	}

	if old != status {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			TenantID:  tenantID,
			OldStatus: old,
			NewStatus: status,
		})
	}
	return nil
}

// Edit updates the lead's display name and notes.
func (s *Service) Edit(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, name, phoneNumber, notes string) (repository.Lead, error) {
	err := s.store.Update(ctx, id, tenantID, repository.UpdateParams{
		Name:  name,
		Phone: phone.NormalizeWireID(phoneNumber),
		Notes: notes,
	})
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return repository.Lead{}, apperr.NotFound("lead not found")
		case repository.ErrDuplicatePhone:
			return repository.Lead{}, apperr.Validation("another lead already uses that phone")
		}
		return repository.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not update lead", err)
	}
	return s.Get(ctx, tenantID, id)
}

// Delete removes a lead and its messages, then tells the bot to forget the
// conversation. The bot call is best-effort and never blocks the deletion.
func (s *Service) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	lead, err := s.store.Delete(ctx, id, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("lead not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "could not delete lead", err)
	}

	if s.bot != nil {
		if err := s.bot.DropContext(ctx, lead.Phone); err != nil {
			s.log.Warn("bot context drop failed", "phone", lead.Phone, "error", err)
		}
	}

	s.bus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  tenantID,
		Phone:     lead.Phone,
	})
	return nil
}

// AutoAdvance applies the inbound-message keyword dispatch to a lead and
// persists any resulting status move. Returns the old and new status and
// whether a move happened.
func (s *Service) AutoAdvance(ctx context.Context, tenantID uuid.UUID, lead repository.Lead, messageBody string) (string, string, bool, error) {
	next, moved := domain.NextStatus(lead.Status, messageBody)
	if !moved {
		return lead.Status, lead.Status, false, nil
	}

	old, err := s.store.ChangeStatus(ctx, lead.ID, tenantID, next)
	if err != nil {
		return "", "", false, apperr.Wrap(apperr.KindUnavailable, "could not auto-advance lead", err)
	}

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  tenantID,
		OldStatus: old,
		NewStatus: next,
	})
	return old, next, true, nil
}

// TouchActivity refreshes the lead's activity clock. Inbound messages count
// as activity even when they move no status, so the context retention window
// tracks the conversation rather than the pipeline.
func (s *Service) TouchActivity(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if err := s.store.TouchActivity(ctx, id, tenantID); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "could not refresh lead activity", err)
	}
	return nil
}

// SetContext replaces the lead's conversational context wholesale. A closed
// lead is reopened to initial contact as part of the same write.
func (s *Service) SetContext(ctx context.Context, tenantID uuid.UUID, phoneNumber, doc string) error {
	_, err := s.store.SetContext(ctx, tenantID, phone.NormalizeWireID(phoneNumber), doc)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("lead not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "could not set lead context", err)
	}
	return nil
}

// GetContext returns the lead's context document, nil when unset.
func (s *Service) GetContext(ctx context.Context, tenantID uuid.UUID, phoneNumber string) (*string, error) {
	doc, err := s.store.GetContext(ctx, tenantID, phone.NormalizeWireID(phoneNumber))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load lead context", err)
	}
	return doc, nil
}

// CleanupStaleContexts erases context documents whose lead has been inactive
// longer than the retention window. Runs across all tenants.
func (s *Service) CleanupStaleContexts(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	cleared, err := s.store.CleanupStaleContexts(ctx, cutoff)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnavailable, "could not clean up stale contexts", err)
	}
	if cleared > 0 {
		s.log.Info("cleared stale conversation contexts", "count", cleared, "cutoff", cutoff)
	}
	return cleared, nil
}

func (s *Service) publishCreated(ctx context.Context, lead repository.Lead) {
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Status:    lead.Status,
	})
}
