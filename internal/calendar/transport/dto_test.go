package transport

import (
	"encoding/json"
	"testing"
)

func TestTicketLenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"number", `1500.5`, 1500.5},
		{"numeric string", `"2300"`, 2300},
		{"padded numeric string", `" 800 "`, 800},
		{"non-numeric string", `"gratis"`, 0},
		{"null", `null`, 0},
		{"object", `{"a":1}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ticket Ticket
			if err := json.Unmarshal([]byte(tt.raw), &ticket); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if float64(ticket) != tt.want {
				t.Errorf("ticket = %v, want %v", float64(ticket), tt.want)
			}
		})
	}
}

func TestServicesLenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]int
	}{
		{"object", `{"fotografia":2,"video":1}`, map[string]int{"fotografia": 2, "video": 1}},
		{"stringified object", `"{\"drone\":1}"`, map[string]int{"drone": 1}},
		{"plain string", `"fotografia"`, map[string]int{}},
		{"array", `[1,2]`, map[string]int{}},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var services Services
			if err := json.Unmarshal([]byte(tt.raw), &services); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(services) != len(tt.want) {
				t.Fatalf("services = %v, want %v", services, tt.want)
			}
			for k, v := range tt.want {
				if services[k] != v {
					t.Errorf("services[%q] = %d, want %d", k, services[k], v)
				}
			}
		})
	}
}

func TestAddEntryRequestDecoding(t *testing.T) {
	raw := `{"fecha":"2026-09-12","titulo":"Boda","ticket":"12000","servicios":"{\"fotografia\":1}","confirmado":true}`

	var req AddEntryRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Date != "2026-09-12" || req.Title != "Boda" {
		t.Errorf("unexpected request: %+v", req)
	}
	if float64(req.Ticket) != 12000 {
		t.Errorf("ticket = %v, want 12000", float64(req.Ticket))
	}
	if req.Services["fotografia"] != 1 {
		t.Errorf("services = %v", req.Services)
	}
	if !req.Force {
		t.Error("confirmado flag not decoded")
	}
}
