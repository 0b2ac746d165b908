package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"camicam_crm_backend/internal/events"
	"camicam_crm_backend/internal/leads/domain"
	"camicam_crm_backend/internal/leads/repository"
	"camicam_crm_backend/platform/apperr"
	"camicam_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads       map[string]repository.Lead // keyed by phone
	deleteErr   error
	cleanupFrom time.Time
	cleared     int64
	touched     []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[string]repository.Lead)}
}

func (f *fakeStore) LookupOrCreate(_ context.Context, params repository.CreateParams) (repository.Lead, bool, error) {
	if lead, ok := f.leads[params.Phone]; ok {
		return lead, false, nil
	}
	name := params.Name
	if name == "" {
		name = params.Phone
	}
	lead := repository.Lead{
		ID:       uuid.New(),
		TenantID: params.TenantID,
		Name:     name,
		Phone:    params.Phone,
		Status:   domain.StatusInitialContact,
		Platform: params.Platform,
		Notes:    params.Notes,
	}
	f.leads[params.Phone] = lead
	return lead, true, nil
}

func (f *fakeStore) Create(ctx context.Context, params repository.CreateParams) (repository.Lead, bool, error) {
	return f.LookupOrCreate(ctx, params)
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.ID == id && lead.TenantID == tenantID {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) GetByPhone(_ context.Context, tenantID uuid.UUID, phone string) (repository.Lead, error) {
	if lead, ok := f.leads[phone]; ok && lead.TenantID == tenantID {
		return lead, nil
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) ChangeStatus(_ context.Context, id uuid.UUID, tenantID uuid.UUID, status string) (string, error) {
	for phone, lead := range f.leads {
		if lead.ID == id && lead.TenantID == tenantID {
			old := lead.Status
			lead.Status = status
			f.leads[phone] = lead
			return old, nil
		}
	}
	return "", repository.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateParams) error {
	if other, ok := f.leads[params.Phone]; ok && other.ID != id && other.TenantID == tenantID {
		return repository.ErrDuplicatePhone
	}
	for phone, lead := range f.leads {
		if lead.ID == id && lead.TenantID == tenantID {
			lead.Name = params.Name
			lead.Phone = params.Phone
			lead.Notes = params.Notes
			delete(f.leads, phone)
			f.leads[params.Phone] = lead
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID) ([]repository.ListItem, error) {
	var out []repository.ListItem
	for _, lead := range f.leads {
		if lead.TenantID == tenantID {
			out = append(out, repository.ListItem{Lead: lead})
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID, tenantID uuid.UUID) (repository.Lead, error) {
	if f.deleteErr != nil {
		return repository.Lead{}, f.deleteErr
	}
	for phone, lead := range f.leads {
		if lead.ID == id && lead.TenantID == tenantID {
			delete(f.leads, phone)
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) TouchActivity(_ context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	for _, lead := range f.leads {
		if lead.ID == id && lead.TenantID == tenantID {
			f.touched = append(f.touched, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) SetContext(_ context.Context, tenantID uuid.UUID, phone string, doc string) (string, error) {
	lead, ok := f.leads[phone]
	if !ok || lead.TenantID != tenantID {
		return "", repository.ErrNotFound
	}
	lead.Context = &doc
	if lead.Status == domain.StatusClosed {
		lead.Status = domain.StatusInitialContact
	}
	f.leads[phone] = lead
	return lead.Status, nil
}

func (f *fakeStore) GetContext(_ context.Context, tenantID uuid.UUID, phone string) (*string, error) {
	lead, ok := f.leads[phone]
	if !ok || lead.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return lead.Context, nil
}

func (f *fakeStore) CleanupStaleContexts(_ context.Context, cutoff time.Time) (int64, error) {
	f.cleanupFrom = cutoff
	return f.cleared, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type recordingBot struct {
	dropped []string
	err     error
}

func (b *recordingBot) DropContext(_ context.Context, phone string) error {
	b.dropped = append(b.dropped, phone)
	return b.err
}

func newTestService(store *fakeStore) (*Service, *recordingBus, *recordingBot) {
	bus := &recordingBus{}
	bot := &recordingBot{}
	return New(store, bus, bot, logger.New("test")), bus, bot
}

func TestLookupOrCreatePublishesOnlyOnCreation(t *testing.T) {
	store := newFakeStore()
	svc, bus, _ := newTestService(store)
	tenantID := uuid.New()

	lead, created, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{
		Phone:    "5215512345678",
		Platform: "whatsapp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("first contact must create the lead")
	}
	if lead.Status != domain.StatusInitialContact {
		t.Errorf("status = %q, want %q", lead.Status, domain.StatusInitialContact)
	}
	if lead.Name != "5215512345678" {
		t.Errorf("name should default to the phone, got %q", lead.Name)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one LeadCreated, got %d events", len(bus.published))
	}

	again, created, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{
		Phone:    "5215512345678",
		Platform: "whatsapp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("second contact must reuse the lead")
	}
	if again.ID != lead.ID {
		t.Error("second lookup returned a different lead")
	}
	if len(bus.published) != 1 {
		t.Errorf("reuse must not publish, got %d events", len(bus.published))
	}
}

func TestLookupOrCreateNormalizesPhone(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	tenantID := uuid.New()

	first, _, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "+5215512345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, created, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215512345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || second.ID != first.ID {
		t.Error("plus-prefixed and bare forms must resolve to the same lead")
	}
}

func TestTouchActivity(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215512345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.TouchActivity(context.Background(), tenantID, lead.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.touched) != 1 || store.touched[0] != lead.ID {
		t.Errorf("touched = %v, want exactly the lead", store.touched)
	}

	err = svc.TouchActivity(context.Background(), uuid.New(), lead.ID)
	if err == nil {
		t.Fatal("another tenant's lead must not be touchable")
	}
}

func TestEditLead(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215512345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited, err := svc.Edit(context.Background(), tenantID, lead.ID, "Ana", "+5215587654321", "llamar viernes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.Name != "Ana" || edited.Notes != "llamar viernes" {
		t.Errorf("edit not applied: %+v", edited)
	}
	if edited.Phone != "5215587654321" {
		t.Errorf("phone should be normalized on edit, got %q", edited.Phone)
	}
}

func TestEditLeadRejectsDuplicatePhone(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	tenantID := uuid.New()

	first, _, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215512345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215587654321"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Edit(context.Background(), tenantID, first.ID, "Ana", "5215587654321", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for duplicate phone, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	store := newFakeStore()
	svc, bus, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215511111111"})
	bus.published = nil

	if err := svc.ChangeStatus(context.Background(), tenantID, lead.ID, "Cliente raro"); err == nil {
		t.Fatal("unknown status must be rejected")
	} else if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	// Backward transitions are allowed.
	if err := svc.ChangeStatus(context.Background(), tenantID, lead.ID, domain.StatusCustomer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ChangeStatus(context.Background(), tenantID, lead.ID, domain.StatusInitialContact); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.published) != 2 {
		t.Fatalf("expected two status events, got %d", len(bus.published))
	}

	evt := bus.published[0].(events.LeadStatusChanged)
	if evt.OldStatus != domain.StatusInitialContact || evt.NewStatus != domain.StatusCustomer {
		t.Errorf("unexpected event payload: %+v", evt)
	}
}

func TestChangeStatusToSameValueDoesNotPublish(t *testing.T) {
	store := newFakeStore()
	svc, bus, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215511111111"})
	bus.published = nil

	if err := svc.ChangeStatus(context.Background(), tenantID, lead.ID, domain.StatusInitialContact); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("no-op status change must not publish, got %d events", len(bus.published))
	}
}

func TestAutoAdvance(t *testing.T) {
	store := newFakeStore()
	svc, bus, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215522222222"})
	bus.published = nil

	old, next, moved, err := svc.AutoAdvance(context.Background(), tenantID, lead, "Hola!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !moved || old != domain.StatusInitialContact || next != domain.StatusInProgress {
		t.Errorf("advance = (%q, %q, %v)", old, next, moved)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}

	lead, _ = store.GetByID(context.Background(), lead.ID, tenantID)
	bus.published = nil

	_, _, moved, err = svc.AutoAdvance(context.Background(), tenantID, lead, "gracias")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved {
		t.Error("message without markers must not move the lead")
	}
	if len(bus.published) != 0 {
		t.Error("no move, no event")
	}
}

func TestDeleteDropsBotContextBestEffort(t *testing.T) {
	store := newFakeStore()
	svc, bus, bot := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215533333333"})
	bus.published = nil
	bot.err = errors.New("bot offline")

	if err := svc.Delete(context.Background(), tenantID, lead.ID); err != nil {
		t.Fatalf("bot failure must not block deletion: %v", err)
	}
	if len(bot.dropped) != 1 || bot.dropped[0] != "5215533333333" {
		t.Errorf("bot drop not attempted: %v", bot.dropped)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one LeadDeleted, got %d events", len(bus.published))
	}
	if _, err := store.GetByID(context.Background(), lead.ID, tenantID); err == nil {
		t.Error("lead should be gone")
	}
}

func TestDeleteFailureDoesNotNotify(t *testing.T) {
	store := newFakeStore()
	svc, bus, bot := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215544444444"})
	bus.published = nil
	store.deleteErr = errors.New("connection reset")

	if err := svc.Delete(context.Background(), tenantID, lead.ID); err == nil {
		t.Fatal("expected error")
	}
	if len(bot.dropped) != 0 {
		t.Error("failed delete must not call the bot")
	}
	if len(bus.published) != 0 {
		t.Error("failed delete must not publish")
	}
}

func TestSetContextReopensClosedLead(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	tenantID := uuid.New()

	lead, _, _ := svc.LookupOrCreate(context.Background(), tenantID, CreateParams{Phone: "5215555555555"})
	_ = svc.ChangeStatus(context.Background(), tenantID, lead.ID, domain.StatusNotCustomer)

	if err := svc.SetContext(context.Background(), tenantID, "5215555555555", `{"tema":"boda"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead, _ = store.GetByID(context.Background(), lead.ID, tenantID)
	if lead.Status != domain.StatusInitialContact {
		t.Errorf("closed lead must reopen, got %q", lead.Status)
	}

	// A non-closed status survives a context update.
	_ = svc.ChangeStatus(context.Background(), tenantID, lead.ID, domain.StatusFollowUpA)
	if err := svc.SetContext(context.Background(), tenantID, "5215555555555", `{"tema":"xv"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lead, _ = store.GetByID(context.Background(), lead.ID, tenantID)
	if lead.Status != domain.StatusFollowUpA {
		t.Errorf("open lead status must be preserved, got %q", lead.Status)
	}

	doc, err := svc.GetContext(context.Background(), tenantID, "5215555555555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil || *doc != `{"tema":"xv"}` {
		t.Errorf("context = %v", doc)
	}
}

func TestCleanupStaleContextsCutoff(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestService(store)
	store.cleared = 3

	cleared, err := svc.CleanupStaleContexts(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 3 {
		t.Errorf("cleared = %d, want 3", cleared)
	}

	wantCutoff := time.Now().Add(-30 * 24 * time.Hour)
	if diff := store.cleanupFrom.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", store.cleanupFrom, wantCutoff)
	}
}
