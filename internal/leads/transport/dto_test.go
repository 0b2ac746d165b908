package transport

import (
	"encoding/json"
	"testing"
)

func TestContextDocLenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"estado: esperando paquete"`, "estado: esperando paquete"},
		{"embedded object", `{"paso":"cotizacion","intentos":2}`, `{"paso":"cotizacion","intentos":2}`},
		{"embedded array", `["hola","info"]`, `["hola","info"]`},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc ContextDoc
			if err := json.Unmarshal([]byte(tt.raw), &doc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(doc) != tt.want {
				t.Errorf("doc = %q, want %q", string(doc), tt.want)
			}
		})
	}
}

func TestSetContextRequestDecoding(t *testing.T) {
	raw := `{"telefono":"5215512345678","contexto":{"paso":"seguimiento"}}`

	var req SetContextRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Phone != "5215512345678" {
		t.Errorf("phone = %q", req.Phone)
	}
	if string(req.Context) != `{"paso":"seguimiento"}` {
		t.Errorf("context = %q", req.Context)
	}
}
