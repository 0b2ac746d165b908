// Package transport defines the lead pipeline wire DTOs.
package transport

import (
	"encoding/json"
	"time"

	"camicam_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest creates a lead explicitly from the dashboard.
type CreateLeadRequest struct {
	Name     string `json:"nombre" validate:"max=200"`
	Phone    string `json:"telefono" validate:"required,chatphone"`
	Platform string `json:"plataforma" validate:"required,max=50"`
	Notes    string `json:"notas" validate:"max=2000"`
}

// UpdateLeadRequest edits a lead's display name, phone, and notes.
type UpdateLeadRequest struct {
	Name  string `json:"nombre" validate:"required,max=200"`
	Phone string `json:"telefono" validate:"required,chatphone"`
	Notes string `json:"notas" validate:"max=2000"`
}

// ChangeStatusRequest moves a lead to another pipeline status.
type ChangeStatusRequest struct {
	Status string `json:"estado" validate:"required"`
}

// ContextDoc accepts the context document as a JSON string or as an embedded
// JSON object/array, decoding anything else to empty.
type ContextDoc string

func (d *ContextDoc) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = ContextDoc(s)
		return nil
	}

	if json.Valid(data) {
		*d = ContextDoc(data)
		return nil
	}

	*d = ""
	return nil
}

// SetContextRequest replaces the lead's conversational context wholesale.
type SetContextRequest struct {
	Phone   string     `json:"telefono" validate:"required,chatphone"`
	Context ContextDoc `json:"contexto"`
}

// LeadResponse is a lead in API responses.
type LeadResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"nombre"`
	Phone         string     `json:"telefono"`
	Status        string     `json:"estado"`
	Platform      string     `json:"plataforma"`
	Notes         string     `json:"notas,omitempty"`
	LastActivity  time.Time  `json:"ultimaActividad"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastMessage   *string    `json:"ultimoMensaje,omitempty"`
	LastMessageAt *time.Time `json:"ultimoMensajeAt,omitempty"`
}

// ContextResponse carries the opaque context document.
type ContextResponse struct {
	Phone   string  `json:"telefono"`
	Context *string `json:"contexto"`
}

// ToLeadResponse maps a repository lead to its wire shape.
func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:           l.ID,
		Name:         l.Name,
		Phone:        l.Phone,
		Status:       l.Status,
		Platform:     l.Platform,
		Notes:        l.Notes,
		LastActivity: l.LastActivity,
		CreatedAt:    l.CreatedAt,
	}
}

// ToListResponse maps list items including the last-message preview.
func ToListResponse(items []repository.ListItem) []LeadResponse {
	out := make([]LeadResponse, 0, len(items))
	for _, item := range items {
		resp := ToLeadResponse(item.Lead)
		resp.LastMessage = item.LastMessage
		resp.LastMessageAt = item.LastMessageAt
		out = append(out, resp)
	}
	return out
}
