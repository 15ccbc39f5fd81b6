package payitem

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"already normalized", "900(1)c", "900(1)c"},
		{"spaces around parens", "900 (1) c", "900(1)c"},
		{"space before suffix only", "900(1) c", "900(1)c"},
		{"space after number only", "900 (1)c", "900(1)c"},
		{"upper-case suffix", "900(1)C", "900(1)c"},
		{"leading and trailing spaces", "  404(1)a  ", "404(1)a"},
		{"tabs inside", "404\t(1)\ta", "404(1)a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expect {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"900 (1) c", "900(1) c", "900 (1)c", "SPL-1 (a)", "1046 (2) A1"}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
