package messages

import (
	"context"
	"fmt"

	"camicam_crm_backend/internal/events"
	"camicam_crm_backend/platform/apperr"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Sender delivers outbound messages through the external chat bot.
type Sender interface {
	SendText(ctx context.Context, phoneNumber, body string) error
	SendImage(ctx context.Context, phoneNumber, imageURL, caption string) error
}

type Service struct {
	repo *Repository
	bus  events.Bus
	bot  Sender
	log  *logger.Logger
}

func NewService(repo *Repository, bus events.Bus, bot Sender, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, bot: bot, log: log}
}

// Record persists a message row and publishes MessageCreated. Used for
// inbound messages by the intake flow and internally for outbound sends.
func (s *Service) Record(ctx context.Context, params CreateMessageParams) (Message, error) {
	params.Sender = phone.NormalizeWireID(params.Sender)

	msg, err := s.repo.Create(ctx, params)
	if err != nil {
		return Message{}, apperr.Wrap(apperr.KindUnavailable, "could not save message", err)
	}

	s.bus.Publish(ctx, events.MessageCreated{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msg.ID,
		TenantID:  msg.TenantID,
		Platform:  msg.Platform,
		Sender:    msg.Sender,
		Body:      msg.Body,
		Kind:      msg.Kind,
	})
	return msg, nil
}

// SendParams describe an explicit outbound send.
type SendParams struct {
	Phone    string
	Platform string
	Body     string
	ImageURL string
	Caption  string
}

// Send delivers a message through the bot and records the outbound row.
// Delivery failure aborts the operation; nothing is persisted.
func (s *Service) Send(ctx context.Context, tenantID uuid.UUID, params SendParams) (Message, error) {
	if s.bot == nil {
		return Message{}, apperr.Unavailable("outbound messaging is not configured")
	}

	to := phone.NormalizeWireID(params.Phone)
	kind := KindOutboundText
	body := params.Body

	if params.ImageURL != "" {
		kind = KindOutboundImage
		body = params.ImageURL
		if err := s.bot.SendImage(ctx, to, params.ImageURL, params.Caption); err != nil {
			return Message{}, apperr.Wrap(apperr.KindUnavailable, "could not deliver image", err)
		}
	} else {
		if err := s.bot.SendText(ctx, to, params.Body); err != nil {
			return Message{}, apperr.Wrap(apperr.KindUnavailable, "could not deliver message", err)
		}
	}

	return s.Record(ctx, CreateMessageParams{
		TenantID: tenantID,
		Platform: params.Platform,
		Sender:   to,
		Body:     body,
		Kind:     kind,
	})
}

// List returns a tenant's most recent messages.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Message, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	items, err := s.repo.List(ctx, tenantID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not list messages", err)
	}
	return items, nil
}

// Thread returns the conversation with one phone number, oldest first.
func (s *Service) Thread(ctx context.Context, tenantID uuid.UUID, phoneNumber string) ([]ThreadMessage, error) {
	items, err := s.repo.Thread(ctx, tenantID, phone.NormalizeWireID(phoneNumber))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load conversation", err)
	}
	return items, nil
}

// UpdateStatus moves a message through the workflow states.
func (s *Service) UpdateStatus(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, status string) error {
	if !IsValidStatus(status) {
		return apperr.Validation(fmt.Sprintf("unknown message status %q", status))
	}

	if err := s.repo.UpdateStatus(ctx, id, tenantID, status); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("message not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "could not update message status", err)
	}
	return nil
}
