package utils

import "testing"

func TestObjectSuffix(t *testing.T) {
	a, b := ObjectSuffix(), ObjectSuffix()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("expected 8-character suffixes, got %q and %q", a, b)
	}
	if a == b {
		t.Fatal("suffixes must differ between calls")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Ana  ", "Ana"},
		{"Ana   María", "Ana María"},
		{"\tAna\nMaría ", "Ana María"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
