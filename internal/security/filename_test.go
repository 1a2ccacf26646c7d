package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"rail", "rail"},
		{"run-2026.03", "run-2026.03"},
		{"../../etc/passwd", "etc_passwd"},
		{"my run / seed 42", "my_run_seed_42"},
		{"a__b", "a_b"},
		{"..", "unknown"},
		{"früh", "fr_h"},
		{"__seed_7__", "seed_7"},
		{"rail\\one", "rail_one"},
		{"   ", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("x", 500))
	if len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}

	// A cut that lands on a separator is trimmed like any other edge.
	got = SanitizeFilename(strings.Repeat("y", maxFilenameLen-1) + " tail")
	if want := strings.Repeat("y", maxFilenameLen-1); got != want {
		t.Errorf("len = %d, want %d", len(got), len(want))
	}
}
