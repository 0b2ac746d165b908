package messages

import (
	"strings"
	"testing"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{KindOutboundText, KindOutboundText},
		{KindInboundImage, KindInboundImage},
		{KindOutboundVideo, KindOutboundVideo},
		{"", KindInboundText},
		{"sticker", KindInboundText},
		{"RECIBIDO", KindInboundText},
	}

	for _, tt := range tests {
		if got := NormalizeKind(tt.in); got != tt.want {
			t.Errorf("NormalizeKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusInProgress, StatusDone} {
		if !IsValidStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "nuevo", "Cerrado"} {
		if IsValidStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestMessageQueriesAreTenantScoped(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		fragment string
	}{
		{"list", listMessagesQuery, "where tenant_id = $1"},
		{"thread", threadQuery, "where m.tenant_id = $1 and m.remitente = $2"},
		{"updateStatus", updateStatusQuery, "where id = $1 and tenant_id = $2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := strings.ToLower(strings.Join(strings.Fields(tt.query), " "))
			if !strings.Contains(query, tt.fragment) {
				t.Fatalf("expected tenant-scoped fragment %q in query:\n%s", tt.fragment, tt.query)
			}
		})
	}
}
