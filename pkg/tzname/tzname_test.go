package tzname

import "testing"

func TestUSName(t *testing.T) {
	tests := []struct {
		timezone string
		want     string
	}{
		{"America/New_York", "Eastern Time"},
		{"America/Chicago", "Central Time"},
		{"America/Denver", "Mountain Time"},
		{"America/Phoenix", "Mountain Time (Arizona)"},
		{"America/Los_Angeles", "Pacific Time"},
		{"America/Anchorage", "Alaska Time"},
		{"Pacific/Honolulu", "Hawaii-Aleutian Time"},
		{"Europe/Paris", Unknown},
		{"America/Detroit", Unknown}, // Eastern in practice, but not in the table
		{"america/new_york", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			if got := USName(tt.timezone); got != tt.want {
				t.Errorf("USName(%q) = %q, want %q", tt.timezone, got, tt.want)
			}
		})
	}
}
