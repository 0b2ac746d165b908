package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/internal/leads/transport"
	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/validator"
)

// Handler handles HTTP requests for the lead pipeline.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns all leads newest-activity first with message previews.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), scope.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListResponse(items))
}

// Get returns one lead.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), scope.ID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// Create adds a lead explicitly.
// POST /api/v1/leads
func (h *Handler) Create(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), scope.ID, service.CreateParams{
		Name:     req.Name,
		Phone:    req.Phone,
		Platform: req.Platform,
		Notes:    req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

// Update edits a lead's display name and notes.
// PUT /api/v1/leads/:id
func (h *Handler) Update(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Edit(c.Request.Context(), scope.ID, id, req.Name, req.Phone, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ChangeStatus moves a lead to another pipeline status.
// PATCH /api/v1/leads/:id/estado
func (h *Handler) ChangeStatus(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.ChangeStatus(c.Request.Context(), scope.ID, id, req.Status); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"id": id, "estado": req.Status})
}

// Delete removes a lead and its message history.
// DELETE /api/v1/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), scope.ID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// GetContext returns the lead's conversational context.
// GET /api/v1/leads/contexto?telefono=521...
func (h *Handler) GetContext(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	phone := c.Query("telefono")
	if err := h.val.Var(phone, "required,chatphone"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid phone", nil)
		return
	}

	doc, err := h.svc.GetContext(c.Request.Context(), scope.ID, phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ContextResponse{Phone: phone, Context: doc})
}

// SetContext replaces the lead's conversational context.
// PUT /api/v1/leads/contexto
func (h *Handler) SetContext(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req transport.SetContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetContext(c.Request.Context(), scope.ID, req.Phone, string(req.Context)); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"telefono": req.Phone})
}
