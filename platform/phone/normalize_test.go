package phone

import "testing"

func TestIsWireID(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"5215512345678", true},
		{" 5215512345678 ", true},
		{"5515512345678", false}, // wrong prefix
		{"521551234567", false},  // 12 digits
		{"52155123456789", false}, // 14 digits
		{"521551234567a", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsWireID(tc.input); got != tc.want {
			t.Errorf("IsWireID(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeWireIDStripsPlus(t *testing.T) {
	got := NormalizeWireID("+5215512345678")
	if got != "5215512345678" {
		t.Errorf("NormalizeWireID(+5215512345678) = %q, want 5215512345678", got)
	}
}

func TestNormalizeE164ReturnsInputOnGarbage(t *testing.T) {
	if got := NormalizeE164("not-a-phone"); got != "not-a-phone" {
		t.Errorf("NormalizeE164 garbage = %q, want input back", got)
	}
}
