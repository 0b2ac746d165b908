package intake

import (
	"context"
	"errors"
	"testing"

	"camicam_crm_backend/internal/leads/domain"
	leadsrepo "camicam_crm_backend/internal/leads/repository"
	leadsvc "camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/internal/messages"
	"camicam_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakePipeline struct {
	lead       leadsrepo.Lead
	created    bool
	lookupErr  error
	advanceErr error
	advanced   bool
	next       string
	advances   int
	touches    int
	touchErr   error
}

func (f *fakePipeline) LookupOrCreate(_ context.Context, tenantID uuid.UUID, params leadsvc.CreateParams) (leadsrepo.Lead, bool, error) {
	if f.lookupErr != nil {
		return leadsrepo.Lead{}, false, f.lookupErr
	}
	return f.lead, f.created, nil
}

func (f *fakePipeline) AutoAdvance(_ context.Context, _ uuid.UUID, lead leadsrepo.Lead, _ string) (string, string, bool, error) {
	f.advances++
	if f.advanceErr != nil {
		return "", "", false, f.advanceErr
	}
	if f.advanced {
		return lead.Status, f.next, true, nil
	}
	return lead.Status, lead.Status, false, nil
}

func (f *fakePipeline) TouchActivity(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touches++
	return nil
}

type fakeRecorder struct {
	recorded  []messages.CreateMessageParams
	recordErr error
}

func (f *fakeRecorder) Record(_ context.Context, params messages.CreateMessageParams) (messages.Message, error) {
	if f.recordErr != nil {
		return messages.Message{}, f.recordErr
	}
	f.recorded = append(f.recorded, params)
	return messages.Message{
		ID:       uuid.New(),
		TenantID: params.TenantID,
		Platform: params.Platform,
		Sender:   params.Sender,
		Body:     params.Body,
		Kind:     messages.NormalizeKind(params.Kind),
	}, nil
}

func testLead(tenantID uuid.UUID) leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:       uuid.New(),
		TenantID: tenantID,
		Phone:    "5215512345678",
		Status:   domain.StatusInitialContact,
	}
}

func TestProcessHappyPath(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lead: testLead(tenantID), created: true, advanced: true, next: domain.StatusInProgress}
	recorder := &fakeRecorder{}
	svc := NewService(pipeline, recorder, logger.New("test"))

	result, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "hola",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.LeadCreated {
		t.Error("lead should be reported created")
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one message, got %d", len(recorder.recorded))
	}
	if !result.Advanced || result.NewStatus != domain.StatusInProgress {
		t.Errorf("advance = (%v, %q)", result.Advanced, result.NewStatus)
	}
	if pipeline.touches != 0 {
		t.Error("a freshly created lead already carries a current activity clock")
	}
}

func TestProcessRefreshesActivityWithoutStatusMove(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lead: testLead(tenantID)}
	recorder := &fakeRecorder{}
	svc := NewService(pipeline, recorder, logger.New("test"))

	result, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "nos vemos el sabado",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Advanced {
		t.Fatal("message without a marker must not move the status")
	}
	if pipeline.touches != 1 {
		t.Errorf("touches = %d, want 1; an inbound message must refresh the activity clock", pipeline.touches)
	}
}

func TestProcessTouchFailureIsNonFatal(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lead: testLead(tenantID), touchErr: errors.New("update failed")}
	recorder := &fakeRecorder{}
	svc := NewService(pipeline, recorder, logger.New("test"))

	_, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "nos vemos el sabado",
	})
	if err != nil {
		t.Fatalf("activity refresh failure must not fail the intake: %v", err)
	}
	if len(recorder.recorded) != 1 {
		t.Error("message must remain stored")
	}
}

func TestProcessLookupFailureStoresNothing(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lookupErr: errors.New("pool exhausted")}
	recorder := &fakeRecorder{}
	svc := NewService(pipeline, recorder, logger.New("test"))

	_, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "hola",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(recorder.recorded) != 0 {
		t.Error("failed lookup must not store a message")
	}
}

func TestProcessMessageFailureSkipsAdvance(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lead: testLead(tenantID)}
	recorder := &fakeRecorder{recordErr: errors.New("insert failed")}
	svc := NewService(pipeline, recorder, logger.New("test"))

	_, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "hola",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if pipeline.advances != 0 {
		t.Error("advance must not run when the message write failed")
	}
}

func TestProcessAdvanceFailureIsNonFatal(t *testing.T) {
	tenantID := uuid.New()
	pipeline := &fakePipeline{lead: testLead(tenantID), advanceErr: errors.New("update failed")}
	recorder := &fakeRecorder{}
	svc := NewService(pipeline, recorder, logger.New("test"))

	result, err := svc.Process(context.Background(), tenantID, InboundEvent{
		Platform: "whatsapp",
		Sender:   "5215512345678",
		Body:     "hola",
	})
	if err != nil {
		t.Fatalf("advance failure must not fail the intake: %v", err)
	}
	if len(recorder.recorded) != 1 {
		t.Error("message must remain stored")
	}
	if result.Advanced {
		t.Error("failed advance must not be reported as a move")
	}
	if result.NewStatus != domain.StatusInitialContact {
		t.Errorf("status = %q, want unchanged", result.NewStatus)
	}
}
