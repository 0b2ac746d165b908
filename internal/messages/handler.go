package messages

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/validator"
)

// Handler handles HTTP requests for message history and outbound sends.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SendRequest delivers a text or image message through the bot.
type SendRequest struct {
	Phone    string `json:"telefono" validate:"required,chatphone"`
	Platform string `json:"plataforma" validate:"required,max=50"`
	Body     string `json:"mensaje" validate:"required_without=ImageURL,max=4000"`
	ImageURL string `json:"imagenUrl" validate:"omitempty,url"`
	Caption  string `json:"descripcion" validate:"max=1000"`
}

// UpdateStatusRequest moves a message through the workflow states.
type UpdateStatusRequest struct {
	Status string `json:"estado" validate:"required"`
}

// MessageResponse is a message in API responses.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Platform  string    `json:"plataforma"`
	Sender    string    `json:"remitente"`
	Body      string    `json:"mensaje"`
	Kind      string    `json:"tipo"`
	Status    string    `json:"estado"`
	LeadName  *string   `json:"leadNombre,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(m Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Platform:  m.Platform,
		Sender:    m.Sender,
		Body:      m.Body,
		Kind:      m.Kind,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// List returns the tenant's most recent messages.
// GET /api/v1/mensajes?limit=100
func (h *Handler) List(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	items, err := h.svc.List(c.Request.Context(), scope.ID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toResponse(m))
	}
	httpkit.OK(c, out)
}

// Thread returns the conversation with one phone number, oldest first.
// GET /api/v1/mensajes/conversacion?telefono=521...
func (h *Handler) Thread(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	phone := c.Query("telefono")
	if err := h.val.Var(phone, "required,chatphone"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid phone", nil)
		return
	}

	items, err := h.svc.Thread(c.Request.Context(), scope.ID, phone)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		resp := toResponse(m.Message)
		resp.LeadName = m.LeadName
		out = append(out, resp)
	}
	httpkit.OK(c, out)
}

// Send delivers a message through the bot and records it.
// POST /api/v1/mensajes/enviar
func (h *Handler) Send(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), scope.ID, SendParams{
		Phone:    req.Phone,
		Platform: req.Platform,
		Body:     req.Body,
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(msg))
}

// UpdateStatus moves a message through the workflow states.
// PATCH /api/v1/mensajes/:id/estado
func (h *Handler) UpdateStatus(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid message ID", nil)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), scope.ID, id, req.Status); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"id": id, "estado": req.Status})
}
