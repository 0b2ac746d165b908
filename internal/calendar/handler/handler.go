package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"camicam_crm_backend/internal/calendar/service"
	"camicam_crm_backend/internal/calendar/transport"
	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/validator"
)

// Handler handles HTTP requests for the booking calendar.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid entry ID"
	msgInvalidDate      = "invalid date, expected YYYY-MM-DD"
)

// New creates a new calendar handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Availability reports whether a date can still take entries.
// GET /api/v1/calendario/disponibilidad?fecha=YYYY-MM-DD
func (h *Handler) Availability(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	date, err := transport.ParseDate(c.Query("fecha"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate, nil)
		return
	}

	available, err := h.svc.CheckAvailability(c.Request.Context(), scope.ID, date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AvailabilityResponse{
		Date:      date.Format(transport.DateLayout),
		Available: available,
	})
}

// Reserve books the single hold for a date.
// POST /api/v1/calendario/apartar
func (h *Handler) Reserve(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req transport.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	date, err := transport.ParseDate(req.Date)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate, nil)
		return
	}

	res, err := h.svc.Reserve(c.Request.Context(), scope.ID, date, req.LeadID)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, transport.ReserveResponse{
		Date:     date.Format(transport.DateLayout),
		Reserved: res.Created,
	})
}

// AddEntry creates a detailed entry, enforcing the confirmation flow.
// POST /api/v1/calendario/fechas
func (h *Handler) AddEntry(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req transport.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	date, err := transport.ParseDate(req.Date)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate, nil)
		return
	}

	detail := service.EntryDetail{
		LeadID:   req.LeadID,
		Title:    req.Title,
		Notes:    req.Notes,
		Ticket:   float64(req.Ticket),
		Services: req.Services,
	}
	res, err := h.svc.AddEntry(c.Request.Context(), scope.ID, date, detail, req.Force)
	if httpkit.HandleError(c, err) {
		return
	}

	switch res.Outcome {
	case service.AddAtCapacity:
		httpkit.JSON(c, http.StatusConflict, transport.AddEntryResponse{
			Status:        "sin_disponibilidad",
			ExistingCount: res.ExistingCount,
		})
	case service.AddNeedsConfirmation:
		httpkit.JSON(c, http.StatusOK, transport.AddEntryResponse{
			Status:        "requiere_confirmacion",
			ExistingCount: res.ExistingCount,
		})
	default:
		entry := transport.ToEntryResponse(res.Entry)
		httpkit.JSON(c, http.StatusCreated, transport.AddEntryResponse{
			Status: "creada",
			Entry:  &entry,
		})
	}
}

// GetEntry returns one entry.
// GET /api/v1/calendario/fechas/:id
func (h *Handler) GetEntry(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	entry, err := h.svc.Get(c.Request.Context(), scope.ID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToEntryResponse(entry))
}

// UpdateEntry edits an entry's details.
// PUT /api/v1/calendario/fechas/:id
func (h *Handler) UpdateEntry(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	entry, err := h.svc.EditEntry(c.Request.Context(), scope.ID, id, service.EntryDetail{
		Title:    req.Title,
		Notes:    req.Notes,
		Ticket:   float64(req.Ticket),
		Services: req.Services,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToEntryResponse(entry))
}

// DeleteEntry removes an entry.
// DELETE /api/v1/calendario/fechas/:id
func (h *Handler) DeleteEntry(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.RemoveEntry(c.Request.Context(), scope.ID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOccupied returns all entries newest first plus year colors.
// GET /api/v1/calendario/fechas
func (h *Handler) ListOccupied(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	occupied, err := h.svc.ListOccupied(c.Request.Context(), scope.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOccupiedResponse(occupied.Entries, occupied.Colors))
}

// Upcoming returns the next entries from today onward.
// GET /api/v1/calendario/proximas?limit=5
func (h *Handler) Upcoming(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	entries, err := h.svc.Upcoming(c.Request.Context(), scope.ID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.ToEntryResponse(e))
	}
	httpkit.OK(c, out)
}

// Years lists calendar years with counts and display colors.
// GET /api/v1/calendario/anios
func (h *Handler) Years(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	years, err := h.svc.Years(c.Request.Context(), scope.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	colors, err := h.svc.YearColors(c.Request.Context(), scope.ID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.YearResponse, 0, len(years))
	for _, y := range years {
		out = append(out, transport.YearResponse{
			Year:  y.Year,
			Total: y.Total,
			Color: colors[y.Year],
		})
	}
	httpkit.OK(c, out)
}

// DeleteYear removes an entire calendar year.
// DELETE /api/v1/calendario/anios/:anio
func (h *Handler) DeleteYear(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Param("anio"))
	if err != nil || year < 2000 || year > 2100 {
		httpkit.Error(c, http.StatusBadRequest, "invalid year", nil)
		return
	}

	if err := h.svc.RemoveYear(c.Request.Context(), scope.ID, year); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// SetYearColor upserts the display color for a year.
// PUT /api/v1/calendario/anios/color
func (h *Handler) SetYearColor(c *gin.Context) {
	scope, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var req transport.YearColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetYearColor(c.Request.Context(), scope.ID, req.Year, req.Color); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"anio": req.Year, "color": req.Color})
}
