package zipcode

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Code
		err   bool
	}{
		{"plain", "10001", "10001", false},
		{"zip plus four", "12345-6789", "12345", false},
		{"extra digits ignored", "123456", "12345", false},
		{"trailing text ignored", "90210 Beverly Hills", "90210", false},
		{"surrounding whitespace", "  90210 ", "90210", false},
		{"tabs and newline", "\t02134\n", "02134", false},
		{"leading zeros kept", "00501", "00501", false},
		{"too short", "1234", "", true},
		{"letters", "abcde", "", true},
		{"letters short", "abc", "", true},
		{"empty", "", "", true},
		{"only whitespace", "     ", "", true},
		{"digit after letter", "a12345", "", true},
		{"inner space", "123 45", "", true},
		{"full-width digits", "１２３４５", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.err {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Validate(%q) error = %v, want ErrInvalid", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
