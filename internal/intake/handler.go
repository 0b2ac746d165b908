package intake

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/validator"
)

// Handler receives inbound chat events from the bot webhook.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// WebhookRequest is the bot's inbound event payload. Platform, sender, and
// body are mandatory; an unknown kind falls back to plain inbound text.
type WebhookRequest struct {
	Platform string `json:"plataforma" validate:"required,max=50"`
	Sender   string `json:"remitente" validate:"required,chatphone"`
	Body     string `json:"mensaje" validate:"required,max=4000"`
	Kind     string `json:"tipo" validate:"max=50"`
}

// WebhookResponse summarizes what the intake run did.
type WebhookResponse struct {
	LeadID      string `json:"leadId"`
	LeadCreated bool   `json:"leadCreado"`
	MessageID   string `json:"mensajeId"`
	Status      string `json:"estado"`
	Advanced    bool   `json:"estadoAvanzado"`
}

// Receive handles one inbound chat event.
// POST /api/v1/webhook/mensaje
func (h *Handler) Receive(c *gin.Context) {
	scope, ok := httpkit.GetTenant(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.Process(c.Request.Context(), scope.ID, InboundEvent{
		Platform: req.Platform,
		Sender:   req.Sender,
		Body:     req.Body,
		Kind:     req.Kind,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, WebhookResponse{
		LeadID:      result.Lead.ID.String(),
		LeadCreated: result.LeadCreated,
		MessageID:   result.Message.ID.String(),
		Status:      result.NewStatus,
		Advanced:    result.Advanced,
	})
}
