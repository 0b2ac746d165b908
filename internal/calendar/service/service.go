// Package service implements the booking engine: per-tenant, per-date
// capacity accounting and the confirmation-aware multi-entry flow.
package service

import (
	"context"
	"time"

	"camicam_crm_backend/internal/calendar/repository"
	"camicam_crm_backend/internal/events"
	"camicam_crm_backend/platform/apperr"
	"camicam_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// CapacityCeiling is the maximum number of entries one tenant may hold on a
// single calendar date. It is a domain constant, not tenant-configurable.
const CapacityCeiling = 4

// Store is the persistence surface the booking engine needs.
// Satisfied by *repository.Repository.
type Store interface {
	CountOnDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error)
	ReserveHold(ctx context.Context, tenantID uuid.UUID, date time.Time, leadID *uuid.UUID) (bool, error)
	Create(ctx context.Context, params repository.CreateEntryParams) (repository.Entry, error)
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Entry, error)
	Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateEntryParams) error
	Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Entry, error)
	ListOccupied(ctx context.Context, tenantID uuid.UUID) ([]repository.OccupiedEntry, error)
	Upcoming(ctx context.Context, tenantID uuid.UUID, from time.Time, limit int) ([]repository.Entry, error)
	Years(ctx context.Context, tenantID uuid.UUID) ([]repository.YearSummary, error)
	DeleteYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)
	UpsertYearColor(ctx context.Context, tenantID uuid.UUID, year int, color string) error
	YearColors(ctx context.Context, tenantID uuid.UUID) (map[int]string, error)
}

// AddOutcome is the result of the multi-entry booking flow. Capacity and
// confirmation refusals are ordinary outcomes, not errors.
type AddOutcome int

const (
	// AddCreated means the entry was inserted.
	AddCreated AddOutcome = iota
	// AddNeedsConfirmation means the date already holds entries and the
	// caller has not confirmed adding another one yet.
	AddNeedsConfirmation
	// AddAtCapacity means the date already holds the maximum number of
	// entries; force does not override this.
	AddAtCapacity
)

// AddResult carries the outcome plus, for NeedsConfirmation, how many
// entries the date already holds so the caller can prompt accordingly.
type AddResult struct {
	Outcome       AddOutcome
	ExistingCount int
	Entry         repository.Entry
}

// ReserveResult reports the single-slot reservation outcome.
type ReserveResult struct {
	Created bool
}

// EntryDetail are the caller-editable fields of a calendar entry.
type EntryDetail struct {
	LeadID   *uuid.UUID
	Title    string
	Notes    string
	Ticket   float64
	Services map[string]int
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// CheckAvailability reports whether (tenant, date) still has room below the
// capacity ceiling. Read-only.
func (s *Service) CheckAvailability(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	count, err := s.store.CountOnDate(ctx, tenantID, date)
	if err != nil {
		return false, apperr.Wrap(apperr.KindUnavailable, "could not check availability", err)
	}
	return count < CapacityCeiling, nil
}

// Reserve is the single-slot reservation path used by the simple booking
// form. It inserts a hold only when no entry exists yet for the exact
// (tenant, date) pair; the insert is conflict-keyed so two racing calls
// produce exactly one winner.
func (s *Service) Reserve(ctx context.Context, tenantID uuid.UUID, date time.Time, leadID *uuid.UUID) (ReserveResult, error) {
	created, err := s.store.ReserveHold(ctx, tenantID, date, leadID)
	if err != nil {
		return ReserveResult{}, apperr.Wrap(apperr.KindUnavailable, "could not reserve date", err)
	}

	if created {
		s.bus.Publish(ctx, events.CalendarUpdated{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Action:    events.CalendarActionDateReserved,
			Date:      date.Format(time.DateOnly),
			Year:      date.Year(),
		})
	}

	return ReserveResult{Created: created}, nil
}

// AddEntry is the multi-entry booking path supporting up to CapacityCeiling
// events per date with an explicit confirmation step. The count-then-insert
// sequence is not atomic; correctness under normal load comes from the
// caller's two-step confirmation protocol.
func (s *Service) AddEntry(ctx context.Context, tenantID uuid.UUID, date time.Time, detail EntryDetail, force bool) (AddResult, error) {
	count, err := s.store.CountOnDate(ctx, tenantID, date)
	if err != nil {
		return AddResult{}, apperr.Wrap(apperr.KindUnavailable, "could not count calendar entries", err)
	}

	if count >= CapacityCeiling {
		return AddResult{Outcome: AddAtCapacity, ExistingCount: count}, nil
	}
	if count >= 1 && !force {
		return AddResult{Outcome: AddNeedsConfirmation, ExistingCount: count}, nil
	}

	entry, err := s.store.Create(ctx, repository.CreateEntryParams{
		TenantID: tenantID,
		Date:     date,
		LeadID:   detail.LeadID,
		Title:    detail.Title,
		Notes:    detail.Notes,
		Ticket:   detail.Ticket,
		Services: detail.Services,
	})
	if err != nil {
		return AddResult{}, apperr.Wrap(apperr.KindUnavailable, "could not create calendar entry", err)
	}

	s.bus.Publish(ctx, events.CalendarUpdated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		EntryID:   entry.ID,
		Action:    events.CalendarActionEntryAdded,
		Date:      date.Format(time.DateOnly),
		Year:      date.Year(),
		Title:     entry.Title,
	})

	return AddResult{Outcome: AddCreated, ExistingCount: count, Entry: entry}, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (repository.Entry, error) {
	entry, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Entry{}, apperr.NotFound("calendar entry not found")
		}
		return repository.Entry{}, apperr.Wrap(apperr.KindUnavailable, "could not load calendar entry", err)
	}
	return entry, nil
}

// EditEntry updates title, notes, ticket, and services. The date is never
// changed here; moving an entry is remove+add.
func (s *Service) EditEntry(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, detail EntryDetail) (repository.Entry, error) {
	err := s.store.Update(ctx, id, tenantID, repository.UpdateEntryParams{
		Title:    detail.Title,
		Notes:    detail.Notes,
		Ticket:   detail.Ticket,
		Services: detail.Services,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Entry{}, apperr.NotFound("calendar entry not found")
		}
		return repository.Entry{}, apperr.Wrap(apperr.KindUnavailable, "could not update calendar entry", err)
	}

	entry, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		return repository.Entry{}, apperr.Wrap(apperr.KindUnavailable, "could not reload calendar entry", err)
	}

	s.bus.Publish(ctx, events.CalendarUpdated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		EntryID:   entry.ID,
		Action:    events.CalendarActionEntryUpdated,
		Date:      entry.Date.Format(time.DateOnly),
		Year:      entry.Date.Year(),
		Title:     entry.Title,
	})

	return entry, nil
}

// RemoveEntry deletes one entry.
func (s *Service) RemoveEntry(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	entry, err := s.store.Delete(ctx, id, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("calendar entry not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "could not delete calendar entry", err)
	}

	s.bus.Publish(ctx, events.CalendarUpdated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		EntryID:   entry.ID,
		Action:    events.CalendarActionEntryRemoved,
		Date:      entry.Date.Format(time.DateOnly),
		Year:      entry.Date.Year(),
	})

	return nil
}

// Occupied is the dashboard calendar projection: all entries newest first,
// plus the per-year display colors.
type Occupied struct {
	Entries []repository.OccupiedEntry
	Colors  map[int]string
}

func (s *Service) ListOccupied(ctx context.Context, tenantID uuid.UUID) (Occupied, error) {
	entries, err := s.store.ListOccupied(ctx, tenantID)
	if err != nil {
		return Occupied{}, apperr.Wrap(apperr.KindUnavailable, "could not list calendar entries", err)
	}

	colors, err := s.store.YearColors(ctx, tenantID)
	if err != nil {
		return Occupied{}, apperr.Wrap(apperr.KindUnavailable, "could not load year colors", err)
	}

	return Occupied{Entries: entries, Colors: colors}, nil
}

// Upcoming returns the next entries from today onward.
func (s *Service) Upcoming(ctx context.Context, tenantID uuid.UUID, limit int) ([]repository.Entry, error) {
	if limit < 1 {
		limit = 5
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	entries, err := s.store.Upcoming(ctx, tenantID, today, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not list upcoming entries", err)
	}
	return entries, nil
}

// Years lists calendar years that hold entries, with counts.
func (s *Service) Years(ctx context.Context, tenantID uuid.UUID) ([]repository.YearSummary, error) {
	years, err := s.store.Years(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not list calendar years", err)
	}
	return years, nil
}

// YearColors returns the per-year display colors.
func (s *Service) YearColors(ctx context.Context, tenantID uuid.UUID) (map[int]string, error) {
	colors, err := s.store.YearColors(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load year colors", err)
	}
	return colors, nil
}

// RemoveYear deletes an entire calendar year: entries and color annotation.
func (s *Service) RemoveYear(ctx context.Context, tenantID uuid.UUID, year int) error {
	if _, err := s.store.DeleteYear(ctx, tenantID, year); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "could not delete calendar year", err)
	}

	s.bus.Publish(ctx, events.CalendarUpdated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		Action:    events.CalendarActionYearRemoved,
		Year:      year,
	})

	return nil
}

// SetYearColor upserts the display color for a year.
func (s *Service) SetYearColor(ctx context.Context, tenantID uuid.UUID, year int, color string) error {
	if err := s.store.UpsertYearColor(ctx, tenantID, year, color); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "could not save year color", err)
	}
	return nil
}
