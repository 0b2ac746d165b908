// Package transport defines the calendar wire DTOs. Ticket and servicios
// arrive from legacy frontends in several shapes, so both decode leniently
// and fall back to zero values instead of rejecting the request.
package transport

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"camicam_crm_backend/internal/calendar/repository"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Ticket accepts a JSON number, a numeric string, or garbage, decoding
// garbage to zero.
type Ticket float64

func (t *Ticket) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*t = Ticket(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*t = 0
			return nil
		}
		*t = Ticket(parsed)
		return nil
	}

	*t = 0
	return nil
}

// Services accepts a service→count object, a JSON string containing such an
// object, or garbage, decoding garbage to an empty map.
type Services map[string]int

func (s *Services) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err == nil {
		*s = m
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			*s = m
			return nil
		}
	}

	*s = Services{}
	return nil
}

// ReserveRequest books the single hold for a date.
type ReserveRequest struct {
	Date   string     `json:"fecha" validate:"required"`
	LeadID *uuid.UUID `json:"leadId,omitempty"`
}

// AddEntryRequest creates a detailed calendar entry.
type AddEntryRequest struct {
	Date     string     `json:"fecha" validate:"required"`
	Title    string     `json:"titulo" validate:"required,max=200"`
	Notes    string     `json:"notas" validate:"max=2000"`
	Ticket   Ticket     `json:"ticket"`
	Services Services   `json:"servicios"`
	LeadID   *uuid.UUID `json:"leadId,omitempty"`
	Force    bool       `json:"confirmado"`
}

// UpdateEntryRequest edits an entry's details. The date is immutable.
type UpdateEntryRequest struct {
	Title    string   `json:"titulo" validate:"required,max=200"`
	Notes    string   `json:"notas" validate:"max=2000"`
	Ticket   Ticket   `json:"ticket"`
	Services Services `json:"servicios"`
}

// YearColorRequest sets the display color for a calendar year.
type YearColorRequest struct {
	Year  int    `json:"anio" validate:"required,min=2000,max=2100"`
	Color string `json:"color" validate:"required,max=20"`
}

// AvailabilityResponse reports whether a date can still take entries.
type AvailabilityResponse struct {
	Date      string `json:"fecha"`
	Available bool   `json:"disponible"`
}

// ReserveResponse reports the one-winner reservation outcome.
type ReserveResponse struct {
	Date     string `json:"fecha"`
	Reserved bool   `json:"reservada"`
}

// AddEntryResponse carries the booking outcome. When confirmation is
// required the entry is absent and ExistingCount tells the caller how many
// events the date already holds.
type AddEntryResponse struct {
	Status        string         `json:"status"`
	ExistingCount int            `json:"eventosExistentes,omitempty"`
	Entry         *EntryResponse `json:"entry,omitempty"`
}

// EntryResponse is a calendar entry in API responses.
type EntryResponse struct {
	ID       uuid.UUID      `json:"id"`
	Date     string         `json:"fecha"`
	Title    string         `json:"titulo"`
	Notes    string         `json:"notas,omitempty"`
	Ticket   float64        `json:"ticket"`
	Services map[string]int `json:"servicios"`
	LeadID   *uuid.UUID     `json:"leadId,omitempty"`
	LeadName *string        `json:"leadNombre,omitempty"`
	IsHold   bool           `json:"apartado"`
	Year     int            `json:"anio"`
}

// OccupiedResponse is the dashboard calendar payload.
type OccupiedResponse struct {
	Entries []EntryResponse `json:"fechas"`
	Colors  map[int]string  `json:"colores"`
}

// YearResponse summarizes one calendar year.
type YearResponse struct {
	Year  int    `json:"anio"`
	Total int    `json:"total"`
	Color string `json:"color,omitempty"`
}

// ToEntryResponse maps a repository entry to its wire shape.
func ToEntryResponse(e repository.Entry) EntryResponse {
	services := e.Services
	if services == nil {
		services = map[string]int{}
	}
	return EntryResponse{
		ID:       e.ID,
		Date:     e.Date.Format(DateLayout),
		Title:    e.Title,
		Notes:    e.Notes,
		Ticket:   e.Ticket,
		Services: services,
		LeadID:   e.LeadID,
		IsHold:   e.IsHold,
		Year:     e.Date.Year(),
	}
}

// ToOccupiedResponse maps the dashboard projection.
func ToOccupiedResponse(entries []repository.OccupiedEntry, colors map[int]string) OccupiedResponse {
	out := OccupiedResponse{
		Entries: make([]EntryResponse, 0, len(entries)),
		Colors:  colors,
	}
	if out.Colors == nil {
		out.Colors = map[int]string{}
	}
	for _, e := range entries {
		resp := ToEntryResponse(e.Entry)
		resp.LeadName = e.LeadName
		out.Entries = append(out.Entries, resp)
	}
	return out
}

// ParseDate parses the wire date format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
